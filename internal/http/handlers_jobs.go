// Package httpx provides HTTP handlers and utilities for the ops-api service.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/resellkit/ops-api/internal/domain/model"
	"github.com/resellkit/ops-api/internal/ports"
	"github.com/resellkit/ops-api/internal/service"
)

// JobHandlers provides HTTP handlers for job-related operations.
type JobHandlers struct {
	Svc      *service.JobService
	Resolver ports.RequesterResolver
}

// CreateJob handles HTTP requests to create a new job.
func (h *JobHandlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	requester, ok := resolveRequester(w, r, h.Resolver)
	if !ok {
		return
	}

	var req model.CreateJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.OwnerID = requester

	job, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ListJobs handles HTTP requests to list the requester's recent jobs.
func (h *JobHandlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	requester, ok := resolveRequester(w, r, h.Resolver)
	if !ok {
		return
	}

	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)
	opts := model.JobListOptions{OwnerID: requester, Limit: limit, Offset: offset}

	if v := r.URL.Query().Get("type"); v != "" {
		t := model.JobType(v)
		opts.Type = &t
	}
	if v := r.URL.Query().Get("status"); v != "" {
		st := model.JobStatus(v)
		opts.Status = &st
	}

	jobs, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

// Stats handles HTTP requests for job counts grouped by status.
func (h *JobHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.Stats(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// GetJob handles HTTP requests to fetch a single job snapshot.
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	requester, jobID, ok := h.requesterAndID(w, r)
	if !ok {
		return
	}

	job, err := h.Svc.Get(r.Context(), jobID, requester)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

const maxWatchWaitSeconds = 60

// WatchJob handles long-poll HTTP requests for the next job state change.
// With wait=0 it degrades to a plain snapshot read.
func (h *JobHandlers) WatchJob(w http.ResponseWriter, r *http.Request) {
	requester, jobID, ok := h.requesterAndID(w, r)
	if !ok {
		return
	}

	wait := parseIntQuery(r, "wait", 0)
	if wait > maxWatchWaitSeconds {
		wait = maxWatchWaitSeconds
	}

	snapshot, unsub, events, err := h.Svc.Watch(r.Context(), jobID, requester)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	defer unsub()

	if wait <= 0 || snapshot.Status.Terminal() {
		WriteJSON(w, http.StatusOK, snapshot)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(wait)*time.Second)
	defer cancel()

	select {
	case <-ctx.Done():
		// Timed out without a transition; the snapshot is still the answer.
		WriteJSON(w, http.StatusOK, snapshot)
	case ev, open := <-events:
		if !open || ev.Job == nil {
			WriteJSON(w, http.StatusOK, snapshot)
			return
		}
		WriteJSON(w, http.StatusOK, ev.Job)
	}
}

type progressBody struct {
	Progress int `json:"progress"`
}

// UpdateProgress handles HTTP requests to record progress on a live job.
func (h *JobHandlers) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	requester, jobID, ok := h.requesterAndID(w, r)
	if !ok {
		return
	}

	var body progressBody
	if !DecodeJSON(w, r, &body) {
		return
	}

	job, err := h.Svc.UpdateProgress(r.Context(), service.UpdateJobProgressRequest{
		ID:          jobID,
		RequesterID: requester,
		Progress:    body.Progress,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

type completeBody struct {
	Result json.RawMessage `json:"result"`
}

// CompleteJob handles HTTP requests to mark a job as completed.
func (h *JobHandlers) CompleteJob(w http.ResponseWriter, r *http.Request) {
	requester, jobID, ok := h.requesterAndID(w, r)
	if !ok {
		return
	}

	var body completeBody
	if !DecodeJSON(w, r, &body) {
		return
	}

	job, err := h.Svc.Complete(r.Context(), service.CompleteJobRequest{
		ID:          jobID,
		RequesterID: requester,
		Result:      body.Result,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

type failBody struct {
	Error string `json:"error"`
}

// FailJob handles HTTP requests to mark a job as failed.
func (h *JobHandlers) FailJob(w http.ResponseWriter, r *http.Request) {
	requester, jobID, ok := h.requesterAndID(w, r)
	if !ok {
		return
	}

	var body failBody
	if !DecodeJSON(w, r, &body) {
		return
	}

	job, err := h.Svc.Fail(r.Context(), service.FailJobRequest{
		ID:          jobID,
		RequesterID: requester,
		ErrMsg:      body.Error,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// JobResult handles HTTP requests to fetch a completed job's result payload.
func (h *JobHandlers) JobResult(w http.ResponseWriter, r *http.Request) {
	requester, jobID, ok := h.requesterAndID(w, r)
	if !ok {
		return
	}

	result, err := h.Svc.Result(r.Context(), jobID, requester)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]json.RawMessage{"result": result})
}

// requesterAndID resolves the caller identity and the path job id, writing
// the error response itself when either is missing.
func (h *JobHandlers) requesterAndID(w http.ResponseWriter, r *http.Request) (requester, jobID string, ok bool) {
	requester, ok = resolveRequester(w, r, h.Resolver)
	if !ok {
		return "", "", false
	}
	jobID = r.PathValue("id")
	if jobID == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("job id is required")},
		)
		return "", "", false
	}
	return requester, jobID, true
}

// resolveRequester extracts the caller identity, writing a 401 when the
// request carries none.
func resolveRequester(w http.ResponseWriter, r *http.Request, resolver ports.RequesterResolver) (string, bool) {
	if resolver == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "requester_required",
			Err:     errors.New("requester identity is required"),
		})
		return "", false
	}
	id := resolver.Resolve(r)
	if id == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "requester_required",
			Err:     errors.New("requester identity is required"),
		})
		return "", false
	}
	return id, true
}
