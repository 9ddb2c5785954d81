package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/taskflow/internal/app"
)

// maxBodyBytes caps ad hoc request bodies.
const maxBodyBytes = 1 << 20

// RecommendationDependencies defines the ranking operations.
type RecommendationDependencies interface {
	Recommend(ctx context.Context, itemKey string, top int) (service.Recommendation, error)
	RecommendUnassigned(ctx context.Context, top int) ([]service.Recommendation, error)
	RecommendAdHoc(ctx context.Context, req service.AdHocRequest) (service.Recommendation, error)
}

// RecommendationsHandler handles recommendation requests.
type RecommendationsHandler struct {
	deps RecommendationDependencies
}

// NewRecommendationsHandler creates a new recommendations handler.
func NewRecommendationsHandler(deps RecommendationDependencies) *RecommendationsHandler {
	return &RecommendationsHandler{deps: deps}
}

type recommendationsResponse struct {
	Recommendations []service.Recommendation `json:"recommendations"`
	Count           int                      `json:"count"`
}

// HandleItem handles GET /items/{itemKey}/recommendations?top=N.
func (h *RecommendationsHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommend_item"
	top, err := topParam(op, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	rec, err := h.deps.Recommend(r.Context(), chi.URLParam(r, "itemKey"), top)
	if err != nil {
		fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleUnassigned handles GET /recommendations?top=N.
func (h *RecommendationsHandler) HandleUnassigned(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommend_unassigned"
	top, err := topParam(op, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	recs, err := h.deps.RecommendUnassigned(r.Context(), top)
	if err != nil {
		fail(w, r, Wrap(op, err))
		return
	}
	if recs == nil {
		recs = []service.Recommendation{}
	}
	writeJSON(w, http.StatusOK, recommendationsResponse{Recommendations: recs, Count: len(recs)})
}

// HandleAdHoc handles POST /recommendations with a caller-supplied roster.
func (h *RecommendationsHandler) HandleAdHoc(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommend_adhoc"
	var req service.AdHocRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	rec, err := h.deps.RecommendAdHoc(r.Context(), req)
	if err != nil {
		fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
