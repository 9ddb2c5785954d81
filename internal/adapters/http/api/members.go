package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/taskflow/internal/domain/model"
)

// MemberDependencies defines the roster reads.
type MemberDependencies interface {
	Members(ctx context.Context) ([]model.Member, error)
	SearchMembers(ctx context.Context, query string) ([]model.Member, error)
	Member(ctx context.Context, ref string) (model.Member, error)
}

// MembersHandler handles roster requests.
type MembersHandler struct {
	deps MemberDependencies
}

// NewMembersHandler creates a new members handler.
func NewMembersHandler(deps MemberDependencies) *MembersHandler {
	return &MembersHandler{deps: deps}
}

type membersResponse struct {
	Members []model.Member `json:"members"`
	Count   int            `json:"count"`
}

// HandleList handles GET /members. With q the roster is fuzzy-searched.
func (h *MembersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_members"
	var (
		members []model.Member
		err     error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		members, err = h.deps.SearchMembers(r.Context(), q)
	} else {
		members, err = h.deps.Members(r.Context())
	}
	if err != nil {
		fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, membersResponse{Members: members, Count: len(members)})
}

// HandleGet handles GET /members/{memberID}; the id may be a username.
func (h *MembersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_member"
	m, err := h.deps.Member(r.Context(), chi.URLParam(r, "memberID"))
	if err != nil {
		fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}
