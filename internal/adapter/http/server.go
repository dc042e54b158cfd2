package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/climate-match-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MatchState is the shared filter state and the layers derived from it.
type MatchState interface {
	sharedobs.ReadinessChecker
	Ranges() domain.Ranges
	SetRanges(r domain.Ranges) error
	SetRange(d domain.Dimension, fr domain.FilterRange) error
	Reset()
	Viewport() domain.Viewport
	SetViewport(v domain.Viewport) error
	Layers() domain.Layers
	Flush(ctx context.Context) error
}

// Catalog exposes the city catalogue and the interpolated grid.
type Catalog interface {
	Grid() *domain.Grid
	Cities() []domain.CityObservation
	ScoreAt(c domain.Coordinate, r domain.Ranges) (domain.ScoredPoint, error)
}

// Evaluator computes layers for an arbitrary filter state without touching the shared one.
type Evaluator interface {
	Evaluate(ctx context.Context, r domain.Ranges, v domain.Viewport) (domain.Layers, error)
}

const maxBodyBytes = 1 << 20

// Server exposes the match API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	state      MatchState
	catalog    Catalog
	eval       Evaluator
	validate   *validator.Validate
}

// NewServer creates an HTTP server with the /api/v1 routes plus /healthz, /readyz, and /metrics.
func NewServer(addr string, state MatchState, catalog Catalog, eval Evaluator, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:   logger,
		state:    state,
		catalog:  catalog,
		eval:     eval,
		validate: validator.New(),
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(state))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/cities", s.handleCities)
	mux.HandleFunc("GET /api/v1/grid", s.handleGrid)
	mux.HandleFunc("GET /api/v1/filters", s.handleGetFilters)
	mux.HandleFunc("PUT /api/v1/filters", s.handlePutFilters)
	mux.HandleFunc("PUT /api/v1/filters/{dimension}", s.handlePutFilter)
	mux.HandleFunc("POST /api/v1/filters/reset", s.handleResetFilters)
	mux.HandleFunc("GET /api/v1/viewport", s.handleGetViewport)
	mux.HandleFunc("PUT /api/v1/viewport", s.handlePutViewport)
	mux.HandleFunc("GET /api/v1/layers", s.handleLayers)
	mux.HandleFunc("GET /api/v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("GET /api/v1/score", s.handleScore)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// writeError maps invalid input to 400 and everything else to 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	if errors.Is(err, domain.ErrInvalidInput) || errors.As(err, &verrs) || errors.Is(err, errBadRequest) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.logger.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client disconnects are not actionable
}
