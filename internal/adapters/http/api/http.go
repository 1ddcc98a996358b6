// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/labeleval/internal/adapters/input"
	service "github.com/okian/labeleval/internal/app"
	"github.com/okian/labeleval/internal/domain/model"
	"github.com/okian/labeleval/internal/domain/types"
)

// DefaultMaxUploadBytes caps POST /evaluations bodies unless overridden.
const DefaultMaxUploadBytes int64 = 32 << 20

// Bounds for the limit query parameter of GET /evaluations.
const (
	DefaultListLimit = 20
	MaxListLimit     = 1000
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Evaluate(ctx context.Context, req model.Request) (model.Report, error)
	Report(ctx context.Context, id string) (model.Report, error)
	ExportCSV(ctx context.Context, id string, w io.Writer) error
	Recent(ctx context.Context, n int) ([]model.Report, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	evaluationsHandler *EvaluationsHandler
}

// Option applies a configuration option to the Server.
type Option func(*EvaluationsHandler)

// WithMaxUploadBytes caps the size of evaluation request bodies.
func WithMaxUploadBytes(n int64) Option {
	return func(h *EvaluationsHandler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		evaluationsHandler: NewEvaluationsHandler(deps, opts...),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/evaluations", MetricsMiddleware(s.evaluationsHandler.HandleEvaluations, "evaluations"))
	mux.HandleFunc("/evaluations/", MetricsMiddleware(s.evaluationsHandler.HandleGetEvaluation, "evaluation"))
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
	writeJSON(w, status, types.ErrorResponse{Code: code, Message: msg})
}

// writeServiceError maps errors from the service layer to status codes.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	var pe *input.ParseError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &pe):
		resp := types.ErrorResponse{
			Code:    "invalid_input",
			Message: pe.Error(),
			Source:  pe.Source,
			Key:     pe.Key,
		}
		if pe.Index >= 0 {
			idx := pe.Index
			resp.Index = &idx
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", WrapKind(op, ErrPayloadTooLarge, err))
	case errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrReportNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
