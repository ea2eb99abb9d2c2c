// Package httpadapter exposes the gateway over HTTP: the assess endpoint,
// raw passthrough for the two upstream routes, the static UI, and the
// health/metrics surface.
package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parkpulse/internal/domain"
	"parkpulse/internal/observability"
)

// Assessor runs the two-stage lookup; implemented by gateway.Gateway.
type Assessor interface {
	LocateAndAssess(ctx context.Context, lat, lng float64) (domain.Assessment, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Options configure the HTTP surface.
type Options struct {
	Addr             string
	NearestBaseURL   string
	OccupancyBaseURL string
	StaticDir        string // empty disables the static file server
	UpstreamTimeout  time.Duration
}

// Server exposes the gateway routes plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates the HTTP server and wires all routes.
func NewServer(opts Options, assessor Assessor, ready ReadinessChecker, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:  logger,
		metrics: metrics,
	}

	proxyClient := &http.Client{Timeout: opts.UpstreamTimeout}

	// The proxy and assess routes guard the method themselves so that non-GET
	// requests get a 405 instead of falling through to the static handler.
	mux.HandleFunc("/api/parking/nearest", s.proxyTo(opts.NearestBaseURL+"/parking/nearest", proxyClient))
	mux.HandleFunc("/api/parking/occupancy", s.proxyTo(opts.OccupancyBaseURL+"/api/parking/occupancy", proxyClient))
	mux.HandleFunc("/api/parking/assess", s.handleAssess(assessor))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	if opts.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(opts.StaticDir)))
	}

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

func (s *Server) handleAssess(assessor Assessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		lat, lng, err := parseCoordinates(r.URL.Query().Get("coordinates"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		assessment, err := assessor.LocateAndAssess(r.Context(), lat, lng)
		if err != nil {
			s.writeAssessError(w, err)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		writeJSON(w, http.StatusOK, assessment)
	}
}

func (s *Server) writeAssessError(w http.ResponseWriter, err error) {
	var (
		upstream  *domain.UpstreamError
		malformed *domain.MalformedResponseError
	)
	switch {
	case errors.Is(err, domain.ErrInvalidCoordinates):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &upstream), errors.As(err, &malformed):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		s.logger.Error("assess failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// parseCoordinates splits a "lat,lng" query value into its two floats.
// Range validation belongs to the gateway; this only checks the format.
func parseCoordinates(value string) (float64, float64, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("coordinates must be two comma-separated numbers, got %q", value)
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLng != nil {
		return 0, 0, fmt.Errorf("coordinates must be two comma-separated numbers, got %q", value)
	}
	return lat, lng, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
