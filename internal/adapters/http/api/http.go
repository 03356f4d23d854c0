// Package api serves the read-only dashboard endpoints over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	service "github.com/okian/crmpulse/internal/app"
	"github.com/okian/crmpulse/internal/domain/types"
	"github.com/okian/crmpulse/pkg/logger"
)

// Engine is the query surface the handlers depend on. *service.Service
// implements it.
type Engine interface {
	Funnel(ctx context.Context, q types.FunnelQuery) (types.FunnelResult, error)
	ConversionTable(ctx context.Context, q types.FunnelQuery) (types.ConversionResult, error)
	TierReconciliation(ctx context.Context, q types.ReconciliationQuery) (types.ReconciliationResult, error)
	Summary(ctx context.Context, q types.SummaryQuery) (types.SummaryResult, error)
	SummaryByKAM(ctx context.Context, q types.SummaryQuery) (types.BreakdownResult, error)
	SummaryByLOB(ctx context.Context, q types.SummaryQuery) (types.BreakdownResult, error)
	SummaryByTier(ctx context.Context, q types.SummaryQuery) (types.BreakdownResult, error)
	WeeklyActivity(ctx context.Context, q types.WeeklyQuery) (types.WeeklyActivity, error)
	Tiers(ctx context.Context, fy string) (types.TiersResult, error)
}

var _ Engine = (*service.Service)(nil)

// Server wires HTTP routes for the dashboard API.
type Server struct {
	engine Engine
	logger logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server over engine.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// Register attaches all routes to r.
func (s *Server) Register(r chi.Router) {
	r.Use(RequestID, Logging(s.logger), Metrics)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", metricsHandler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/funnel", s.handleFunnel)
		r.Get("/conversion", s.handleConversion)
		r.Get("/reconciliation", s.handleReconciliation)
		r.Get("/summary", s.handleSummary)
		r.Get("/summary/kam", s.handleBreakdown(s.engine.SummaryByKAM))
		r.Get("/summary/lob", s.handleBreakdown(s.engine.SummaryByLOB))
		r.Get("/summary/tier", s.handleBreakdown(s.engine.SummaryByTier))
		r.Get("/activity/weekly", s.handleWeekly)
		r.Get("/tiers", s.handleTiers)
	})
}

// Router returns a chi router with every route registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, RequestID: logger.RequestID(r.Context())})
}

// fail translates a service error to a response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrMissingParam), errors.Is(err, service.ErrInvalidQuery):
		writeError(w, r, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusGatewayTimeout, "timeout", err)
	case errors.Is(err, service.ErrUpstream):
		writeError(w, r, http.StatusBadGateway, "upstream_unavailable", err)
	default:
		s.logger.Error(r.Context(), "request failed", logger.String("path", r.URL.Path), logger.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal_error", nil)
	}
}
