package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/taskflow/internal/adapters/repository"
	"github.com/okian/taskflow/internal/domain/model"
)

// ItemDependencies defines the work item reads.
type ItemDependencies interface {
	Items(ctx context.Context, f repository.Filter) ([]model.WorkItem, error)
	Item(ctx context.Context, key string) (model.WorkItem, error)
}

// ItemsHandler handles work item requests.
type ItemsHandler struct {
	deps ItemDependencies
}

// NewItemsHandler creates a new items handler.
func NewItemsHandler(deps ItemDependencies) *ItemsHandler {
	return &ItemsHandler{deps: deps}
}

type itemsResponse struct {
	Items []model.WorkItem `json:"items"`
	Count int              `json:"count"`
}

// HandleList handles GET /items?project=&assignee=&status=&unassigned=.
func (h *ItemsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_items"
	q := r.URL.Query()
	f := repository.Filter{
		Project:  q.Get("project"),
		Assignee: q.Get("assignee"),
		Status:   model.Status(q.Get("status")),
	}
	if raw := q.Get("unassigned"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			fail(w, r, WrapKind(op, ErrBadRequest, err))
			return
		}
		f.UnassignedOnly = v
	}
	h.list(w, r, op, f)
}

// HandleUnassigned handles GET /items/unassigned.
func (h *ItemsHandler) HandleUnassigned(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "api.list_unassigned", repository.Filter{UnassignedOnly: true})
}

func (h *ItemsHandler) list(w http.ResponseWriter, r *http.Request, op string, f repository.Filter) {
	items, err := h.deps.Items(r.Context(), f)
	if err != nil {
		fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: items, Count: len(items)})
}

// HandleGet handles GET /items/{itemKey}.
func (h *ItemsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_item"
	item, err := h.deps.Item(r.Context(), chi.URLParam(r, "itemKey"))
	if err != nil {
		fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, item)
}
