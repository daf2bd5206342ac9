package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/resellkit/ops-api/internal/data"
	domainjob "github.com/resellkit/ops-api/internal/domain/job"
	"github.com/resellkit/ops-api/internal/domain/model"
	"github.com/resellkit/ops-api/internal/mocks"
	"github.com/resellkit/ops-api/internal/ports"
	"github.com/resellkit/ops-api/internal/service"
)

const testRequesterHeader = "X-Requester-Id"

func newJobHandlers(t *testing.T) (*JobHandlers, *mocks.MockJobRepository, *domainjob.Bus) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockJobRepository(ctrl)
	bus := domainjob.NewBus()
	t.Cleanup(bus.Close)
	svc := service.MustNewJobService(service.JobServiceOptions{Repo: mockRepo, Bus: bus})
	h := &JobHandlers{Svc: svc, Resolver: ports.HeaderRequesterResolver{Header: testRequesterHeader}}
	return h, mockRepo, bus
}

func authedRequest(method, target string, body []byte) *http.Request {
	var r *http.Request
	if body == nil {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	}
	r.Header.Set(testRequesterHeader, "user-1")
	return r
}

func storedJob(id, owner string, status model.JobStatus, progress int) *model.Job {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &model.Job{
		ID:        id,
		OwnerID:   owner,
		Type:      model.JobTypeSync,
		Status:    status,
		Progress:  progress,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateJob_Success(t *testing.T) {
	h, mockRepo, _ := newJobHandlers(t)

	expected := storedJob("job-123", "user-1", model.JobStatusPending, 0)
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(expected, nil)

	r := authedRequest(http.MethodPost, "/api/jobs", []byte(`{"type":"sync"}`))
	w := httptest.NewRecorder()

	h.CreateJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, expected.ID, got.ID)
	assert.Equal(t, model.JobStatusPending, got.Status)
}

func TestCreateJob_InvalidJSON(t *testing.T) {
	h, _, _ := newJobHandlers(t)

	r := authedRequest(http.MethodPost, "/api/jobs", []byte("{bad"))
	w := httptest.NewRecorder()

	h.CreateJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateJob_InvalidType(t *testing.T) {
	h, _, _ := newJobHandlers(t)

	r := authedRequest(http.MethodPost, "/api/jobs", []byte(`{"type":"mystery"}`))
	w := httptest.NewRecorder()

	h.CreateJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateJob_MissingRequester(t *testing.T) {
	h, _, _ := newJobHandlers(t)

	r := httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewBufferString(`{"type":"sync"}`))
	w := httptest.NewRecorder()

	h.CreateJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetJob_NotFound(t *testing.T) {
	h, mockRepo, _ := newJobHandlers(t)

	mockRepo.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, data.ErrJobNotFound)

	r := authedRequest(http.MethodGet, "/api/jobs/missing", nil)
	r.SetPathValue("id", "missing")
	w := httptest.NewRecorder()

	h.GetJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetJob_WrongOwner(t *testing.T) {
	h, mockRepo, _ := newJobHandlers(t)

	mockRepo.EXPECT().GetByID(gomock.Any(), "job-1").
		Return(storedJob("job-1", "someone-else", model.JobStatusProcessing, 40), nil)

	r := authedRequest(http.MethodGet, "/api/jobs/job-1", nil)
	r.SetPathValue("id", "job-1")
	w := httptest.NewRecorder()

	h.GetJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUpdateProgress_Success(t *testing.T) {
	h, mockRepo, _ := newJobHandlers(t)

	mockRepo.EXPECT().GetByID(gomock.Any(), "job-1").
		Return(storedJob("job-1", "user-1", model.JobStatusPending, 0), nil)
	mockRepo.EXPECT().UpdateProgress(gomock.Any(), gomock.Any()).
		Return(storedJob("job-1", "user-1", model.JobStatusProcessing, 30), nil)

	r := authedRequest(http.MethodPost, "/api/jobs/job-1/progress", []byte(`{"progress":30}`))
	r.SetPathValue("id", "job-1")
	w := httptest.NewRecorder()

	h.UpdateProgress(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, model.JobStatusProcessing, got.Status)
	assert.Equal(t, 30, got.Progress)
}

func TestUpdateProgress_OutOfRange(t *testing.T) {
	h, _, _ := newJobHandlers(t)

	r := authedRequest(http.MethodPost, "/api/jobs/job-1/progress", []byte(`{"progress":101}`))
	r.SetPathValue("id", "job-1")
	w := httptest.NewRecorder()

	h.UpdateProgress(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "validation", body["error"])
}

func TestUpdateProgress_TerminalConflict(t *testing.T) {
	h, mockRepo, _ := newJobHandlers(t)

	mockRepo.EXPECT().GetByID(gomock.Any(), "job-1").
		Return(storedJob("job-1", "user-1", model.JobStatusCompleted, 100), nil)

	r := authedRequest(http.MethodPost, "/api/jobs/job-1/progress", []byte(`{"progress":50}`))
	r.SetPathValue("id", "job-1")
	w := httptest.NewRecorder()

	h.UpdateProgress(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCompleteJob_Success(t *testing.T) {
	h, mockRepo, _ := newJobHandlers(t)

	done := storedJob("job-1", "user-1", model.JobStatusCompleted, 100)
	done.Result = json.RawMessage(`{"rows":12}`)

	mockRepo.EXPECT().GetByID(gomock.Any(), "job-1").
		Return(storedJob("job-1", "user-1", model.JobStatusProcessing, 80), nil)
	mockRepo.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(done, nil)

	r := authedRequest(http.MethodPost, "/api/jobs/job-1/complete", []byte(`{"result":{"rows":12}}`))
	r.SetPathValue("id", "job-1")
	w := httptest.NewRecorder()

	h.CompleteJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, model.JobStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
}

func TestFailJob_MissingMessage(t *testing.T) {
	h, _, _ := newJobHandlers(t)

	r := authedRequest(http.MethodPost, "/api/jobs/job-1/fail", []byte(`{"error":""}`))
	r.SetPathValue("id", "job-1")
	w := httptest.NewRecorder()

	h.FailJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestJobResult_Success(t *testing.T) {
	h, mockRepo, _ := newJobHandlers(t)

	done := storedJob("job-1", "user-1", model.JobStatusCompleted, 100)
	done.Result = json.RawMessage(`{"rows":12}`)
	mockRepo.EXPECT().GetByID(gomock.Any(), "job-1").Return(done, nil)

	r := authedRequest(http.MethodGet, "/api/jobs/job-1/result", nil)
	r.SetPathValue("id", "job-1")
	w := httptest.NewRecorder()

	h.JobResult(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.JSONEq(t, `{"rows":12}`, string(body["result"]))
}

func TestJobResult_NotReady(t *testing.T) {
	h, mockRepo, _ := newJobHandlers(t)

	mockRepo.EXPECT().GetByID(gomock.Any(), "job-1").
		Return(storedJob("job-1", "user-1", model.JobStatusProcessing, 60), nil)

	r := authedRequest(http.MethodGet, "/api/jobs/job-1/result", nil)
	r.SetPathValue("id", "job-1")
	w := httptest.NewRecorder()

	h.JobResult(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestListJobs_Success(t *testing.T) {
	h, mockRepo, _ := newJobHandlers(t)

	mockRepo.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts model.JobListOptions) ([]*model.Job, error) {
			assert.Equal(t, "user-1", opts.OwnerID)
			assert.Equal(t, 10, opts.Limit)
			require.NotNil(t, opts.Status)
			assert.Equal(t, model.JobStatusPending, *opts.Status)
			return []*model.Job{storedJob("job-1", "user-1", model.JobStatusPending, 0)}, nil
		})

	r := authedRequest(http.MethodGet, "/api/jobs?limit=10&status=pending", nil)
	w := httptest.NewRecorder()

	h.ListJobs(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string][]*model.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body["jobs"], 1)
}

func TestStats_Success(t *testing.T) {
	h, mockRepo, _ := newJobHandlers(t)

	mockRepo.EXPECT().Stats(gomock.Any()).
		Return(&model.JobStats{Pending: 2, Processing: 1, Completed: 5, Failed: 1}, nil)

	r := authedRequest(http.MethodGet, "/api/jobs/stats", nil)
	w := httptest.NewRecorder()

	h.Stats(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.JobStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 5, got.Completed)
}

func TestWatchJob_NoWaitReturnsSnapshot(t *testing.T) {
	h, mockRepo, _ := newJobHandlers(t)

	mockRepo.EXPECT().GetByID(gomock.Any(), "job-1").
		Return(storedJob("job-1", "user-1", model.JobStatusProcessing, 25), nil)

	r := authedRequest(http.MethodGet, "/api/jobs/job-1/watch", nil)
	r.SetPathValue("id", "job-1")
	w := httptest.NewRecorder()

	h.WatchJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 25, got.Progress)
}

func TestWatchJob_ReceivesTransition(t *testing.T) {
	h, mockRepo, bus := newJobHandlers(t)

	mockRepo.EXPECT().GetByID(gomock.Any(), "job-1").
		Return(storedJob("job-1", "user-1", model.JobStatusProcessing, 25), nil)

	r := authedRequest(http.MethodGet, "/api/jobs/job-1/watch?wait=5", nil)
	r.SetPathValue("id", "job-1")
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.WatchJob(w, r)
	}()

	// Give the handler time to subscribe before the transition fires.
	time.Sleep(50 * time.Millisecond)
	bus.Publish(storedJob("job-1", "user-1", model.JobStatusProcessing, 60))

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("watch handler did not return after a published transition")
	}

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 60, got.Progress)
}
