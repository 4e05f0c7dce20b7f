package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/sajjad-MoBe/logkv/internal/logger"
	"github.com/sajjad-MoBe/logkv/internal/storage"
)

const shutdownTimeout = 5 * time.Second

// Store is the set of store operations the HTTP API serves
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
	Keys() []string
	Len() int
	Metrics() *storage.StorageMetrics
}

// Server represents the HTTP API server
type Server struct {
	router  *mux.Router
	store   Store
	logger  *logger.Logger
	metrics *Metrics
	tracer  *Tracer
}

// NewServer creates a new API server instance
func NewServer(store Store, log *logger.Logger, metrics *Metrics, tracer *Tracer) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		store:   store,
		logger:  log,
		metrics: metrics,
		tracer:  tracer,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(
		s.tracer.TracingMiddleware,
		s.LoggingMiddleware,
		s.metrics.MetricsMiddleware,
		s.RecoveryMiddleware,
	)

	// Record endpoints
	s.router.HandleFunc("/set", s.handleSetRecord).Methods(http.MethodPost, http.MethodPut)
	s.router.HandleFunc("/get/{key}", s.handleGetRaw).Methods(http.MethodGet)

	// Key-value endpoints
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/keys", s.handleListKeys).Methods(http.MethodGet)
	api.HandleFunc("/keys/{key}", s.handleGetValue).Methods(http.MethodGet)
	api.HandleFunc("/keys/{key}", s.handleSetValue).Methods(http.MethodPut)
	api.HandleFunc("/keys/{key}", s.handleDeleteValue).Methods(http.MethodDelete)

	// Health check and metrics
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves the API on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is like Start but accepts connections on ln
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error: %v", err)
		}
	}()

	s.logger.Info("HTTP server listening on %s", ln.Addr())
	err := server.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
