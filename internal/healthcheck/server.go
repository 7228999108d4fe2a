package healthcheck

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/detailops/engagement-core/pkg/utils"
)

// Server represents a health check HTTP server
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *zap.Logger
	readyCheck func(context.Context) error
}

// HealthResponse is the response structure for health check endpoints
type HealthResponse struct {
	Status  string            `json:"status"`
	Details map[string]string `json:"details,omitempty"`
}

// NewServer creates a new health check server. readyCheck may be nil;
// when set it gates the /ready endpoint (database ping, for example).
func NewServer(port string, logger *zap.Logger, readyCheck func(context.Context) error) *Server {
	mux := http.NewServeMux()

	server := &Server{
		httpServer: &http.Server{
			Addr:    ":" + port,
			Handler: mux,
		},
		mux:        mux,
		logger:     logger,
		readyCheck: readyCheck,
	}

	mux.HandleFunc("/health", server.handleHealth)
	mux.HandleFunc("/ready", server.handleReady)

	return server
}

// RegisterMetricsHandler adds the /metrics endpoint handler.
// Should only be called if metrics are enabled.
func (s *Server) RegisterMetricsHandler(handler http.Handler) {
	s.logger.Info("Registering /metrics endpoint")
	s.mux.Handle("/metrics", handler)
}

// Start begins the HTTP server
func (s *Server) Start() {
	go func() {
		s.logger.Info("Starting health check server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Health check server error", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping health check server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth handles the /health endpoint for liveness probes
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, HealthResponse{Status: "UP"})
}

// handleReady handles the /ready endpoint for readiness probes
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.readyCheck != nil {
		if err := s.readyCheck(r.Context()); err != nil {
			utils.WriteJSONResponse(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "NOT_READY",
				Details: map[string]string{"error": err.Error()},
			})
			return
		}
	}

	utils.WriteJSONResponse(w, http.StatusOK, HealthResponse{
		Status: "READY",
		Details: map[string]string{
			"timestamp": utils.FormatISO8601(utils.Now()),
		},
	})
}
