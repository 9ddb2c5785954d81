package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/taskflow/internal/domain/ledger"
)

// CapacityDependencies defines the ledger views.
type CapacityDependencies interface {
	Workload(ctx context.Context, ref string) (ledger.MemberWorkload, error)
	Capacity(ctx context.Context) (ledger.Overview, error)
}

// CapacityHandler handles workload and capacity requests.
type CapacityHandler struct {
	deps CapacityDependencies
}

// NewCapacityHandler creates a new capacity handler.
func NewCapacityHandler(deps CapacityDependencies) *CapacityHandler {
	return &CapacityHandler{deps: deps}
}

// HandleWorkload handles GET /workload/{memberID}.
func (h *CapacityHandler) HandleWorkload(w http.ResponseWriter, r *http.Request) {
	const op = "api.workload"
	wl, err := h.deps.Workload(r.Context(), chi.URLParam(r, "memberID"))
	if err != nil {
		fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

// HandleCapacity handles GET /capacity.
func (h *CapacityHandler) HandleCapacity(w http.ResponseWriter, r *http.Request) {
	const op = "api.capacity"
	o, err := h.deps.Capacity(r.Context())
	if err != nil {
		fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, o)
}
