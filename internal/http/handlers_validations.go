package httpx

import (
	"errors"
	"net/http"

	"github.com/resellkit/ops-api/internal/domain/model"
	"github.com/resellkit/ops-api/internal/ports"
	"github.com/resellkit/ops-api/internal/service"
)

// ValidationHandlers provides HTTP handlers for validation-session operations.
type ValidationHandlers struct {
	Svc      *service.ValidationService
	Resolver ports.RequesterResolver
}

// StartValidation handles HTTP requests to start a validation session. The
// pipeline runs in the background; the response is the initial snapshot.
func (h *ValidationHandlers) StartValidation(w http.ResponseWriter, r *http.Request) {
	requester, ok := resolveRequester(w, r, h.Resolver)
	if !ok {
		return
	}

	var req model.StartValidationRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.OwnerID = requester

	session, err := h.Svc.Start(r.Context(), &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, session)
}

// GetValidation handles HTTP requests for a validation session snapshot,
// including progress and timing estimates.
func (h *ValidationHandlers) GetValidation(w http.ResponseWriter, r *http.Request) {
	requester, sessionID, ok := h.requesterAndID(w, r)
	if !ok {
		return
	}

	session, err := h.Svc.Status(r.Context(), sessionID, requester)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, session)
}

// GetValidationReport handles HTTP requests for a finished session's report.
// Debug traces are stripped unless debug=1 is passed.
func (h *ValidationHandlers) GetValidationReport(w http.ResponseWriter, r *http.Request) {
	requester, sessionID, ok := h.requesterAndID(w, r)
	if !ok {
		return
	}

	includeDebug := r.URL.Query().Get("debug") == "1"

	report, err := h.Svc.Report(r.Context(), sessionID, requester, includeDebug)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

func (h *ValidationHandlers) requesterAndID(w http.ResponseWriter, r *http.Request) (requester, sessionID string, ok bool) {
	requester, ok = resolveRequester(w, r, h.Resolver)
	if !ok {
		return "", "", false
	}
	sessionID = r.PathValue("id")
	if sessionID == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("session id is required")},
		)
		return "", "", false
	}
	return requester, sessionID, true
}
