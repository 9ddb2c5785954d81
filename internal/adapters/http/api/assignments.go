package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/taskflow/internal/app"
)

// AssignmentDependencies defines the assignment workflow.
type AssignmentDependencies interface {
	EnqueueAssignment(ctx context.Context, req service.AssignmentRequest) (service.AssignmentStatus, bool, error)
	Assignment(ctx context.Context, eventID string) (service.AssignmentStatus, error)
}

// AssignmentsHandler handles assignment requests.
type AssignmentsHandler struct {
	deps AssignmentDependencies
}

// NewAssignmentsHandler creates a new assignments handler.
func NewAssignmentsHandler(deps AssignmentDependencies) *AssignmentsHandler {
	return &AssignmentsHandler{deps: deps}
}

type ackResponse struct {
	Status     string                   `json:"status"`
	Duplicate  bool                     `json:"duplicate"`
	Assignment service.AssignmentStatus `json:"assignment"`
}

// HandlePost handles POST /assignments. The request is queued; its outcome
// is read back from GET /assignments/{eventID}.
func (h *AssignmentsHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_assignment"
	var req service.AssignmentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}

	st, duplicate, err := h.deps.EnqueueAssignment(r.Context(), req)
	if err != nil {
		fail(w, r, Wrap(op, err))
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, Assignment: st})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Assignment: st})
}

// HandleGet handles GET /assignments/{eventID}.
func (h *AssignmentsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_assignment"
	st, err := h.deps.Assignment(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}
