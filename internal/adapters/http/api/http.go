// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/taskflow/internal/adapters/http/swagger"
	"github.com/okian/taskflow/internal/adapters/repository"
	service "github.com/okian/taskflow/internal/app"
	"github.com/okian/taskflow/internal/domain/ledger"
	"github.com/okian/taskflow/internal/domain/model"
	"github.com/okian/taskflow/pkg/logger"
)

const defaultRequestTimeout = 15 * time.Second

// Dependencies required by HTTP handlers. The service satisfies it; tests
// substitute fakes.
type Dependencies interface {
	StatsProvider

	Info() service.Info

	Members(ctx context.Context) ([]model.Member, error)
	SearchMembers(ctx context.Context, query string) ([]model.Member, error)
	Member(ctx context.Context, ref string) (model.Member, error)

	Items(ctx context.Context, f repository.Filter) ([]model.WorkItem, error)
	Item(ctx context.Context, key string) (model.WorkItem, error)

	Recommend(ctx context.Context, itemKey string, top int) (service.Recommendation, error)
	RecommendUnassigned(ctx context.Context, top int) ([]service.Recommendation, error)
	RecommendAdHoc(ctx context.Context, req service.AdHocRequest) (service.Recommendation, error)

	Workload(ctx context.Context, ref string) (ledger.MemberWorkload, error)
	Capacity(ctx context.Context) (ledger.Overview, error)

	EnqueueAssignment(ctx context.Context, req service.AssignmentRequest) (service.AssignmentStatus, bool, error)
	Assignment(ctx context.Context, eventID string) (service.AssignmentStatus, error)
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithRequestTimeout bounds every request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	timeout time.Duration

	healthHandler          *HealthHandler
	statsHandler           *StatsHandler
	membersHandler         *MembersHandler
	itemsHandler           *ItemsHandler
	recommendationsHandler *RecommendationsHandler
	capacityHandler        *CapacityHandler
	assignmentsHandler     *AssignmentsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		timeout:                defaultRequestTimeout,
		healthHandler:          NewHealthHandler(),
		statsHandler:           NewStatsHandler(deps),
		membersHandler:         NewMembersHandler(deps),
		itemsHandler:           NewItemsHandler(deps),
		recommendationsHandler: NewRecommendationsHandler(deps),
		capacityHandler:        NewCapacityHandler(deps),
		assignmentsHandler:     NewAssignmentsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the root router with the global middleware stack.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestContext)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Code: "method_not_allowed", Message: http.StatusText(http.StatusMethodNotAllowed)})
	})

	s.Register(r)
	swagger.Register(ctx, r)
	return r
}

// Register attaches all business routes to r.
func (s *Server) Register(r chi.Router) {
	r.With(MetricsMiddleware("healthz")).Get("/healthz", s.healthHandler.HandleHealth)
	r.With(MetricsMiddleware("stats")).Get("/stats", s.statsHandler.HandleStats)
	r.With(MetricsMiddleware("info")).Get("/api/info", s.statsHandler.HandleInfo)

	r.Route("/members", func(r chi.Router) {
		r.With(MetricsMiddleware("members")).Get("/", s.membersHandler.HandleList)
		r.With(MetricsMiddleware("member")).Get("/{memberID}", s.membersHandler.HandleGet)
	})

	r.Route("/items", func(r chi.Router) {
		r.With(MetricsMiddleware("items")).Get("/", s.itemsHandler.HandleList)
		r.With(MetricsMiddleware("items_unassigned")).Get("/unassigned", s.itemsHandler.HandleUnassigned)
		r.With(MetricsMiddleware("item")).Get("/{itemKey}", s.itemsHandler.HandleGet)
		r.With(MetricsMiddleware("item_recommendations")).Get("/{itemKey}/recommendations", s.recommendationsHandler.HandleItem)
	})

	r.With(MetricsMiddleware("recommendations")).Get("/recommendations", s.recommendationsHandler.HandleUnassigned)
	r.With(MetricsMiddleware("recommendations_adhoc")).Post("/recommendations", s.recommendationsHandler.HandleAdHoc)

	r.With(MetricsMiddleware("workload")).Get("/workload/{memberID}", s.capacityHandler.HandleWorkload)
	r.With(MetricsMiddleware("capacity")).Get("/capacity", s.capacityHandler.HandleCapacity)

	r.With(MetricsMiddleware("assignments")).Post("/assignments", s.assignmentsHandler.HandlePost)
	r.With(MetricsMiddleware("assignment")).Get("/assignments/{eventID}", s.assignmentsHandler.HandleGet)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail maps err onto a status code and writes it. Server errors are logged.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Get().Named("api").Error(r.Context(), "request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, repository.ErrMemberNotFound),
		errors.Is(err, repository.ErrItemNotFound),
		errors.Is(err, service.ErrAssignmentNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidTopN),
		errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrBackpressure),
		errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// topParam reads the optional top query parameter. Absent means zero, which
// the service resolves to its default.
func topParam(op string, r *http.Request) (int, error) {
	raw := r.URL.Query().Get("top")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, WrapKind(op, ErrBadRequest, errors.New("top must be an integer"))
	}
	if n == 0 {
		return 0, WrapKind(op, ErrBadRequest, errors.New("top must be positive"))
	}
	return n, nil
}
