// Package server implements the HTTP API of the knowledge hub: the chat
// endpoint with intent routing, document upload bookkeeping, and the
// operational endpoints (health, readiness, metrics).
// The server is started by the `knowhub serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/knowhub/knowhub-go/internal/logging"
)

// New constructs a Server from the provided collaborators and config.
// The Prometheus registry is created here and served on GET /metrics.
func New(deps Deps, cfg *Config) (*Server, error) {
	if deps.Router == nil {
		return nil, fmt.Errorf("server: router must not be nil")
	}
	if deps.Docs == nil {
		return nil, fmt.Errorf("server: document store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// Must outlast the 120s chat completion timeout.
		cfg.WriteTimeout = 3 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		deps:    deps,
		cfg:     cfg,
		log:     cfg.Logger,
		pingers: cfg.Pingers,
		metrics: newServerMetrics(registry),
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.Logger)
	s.stopRL = stopRL

	mux := http.NewServeMux()

	// Protected API routes: bearer presence auth plus per-IP rate limiting.
	s.route(mux, "POST /chat", rl.middleware(authMiddleware(http.HandlerFunc(s.handleChat))))
	s.route(mux, "GET /chat/history", authMiddleware(http.HandlerFunc(s.handleChatHistory)))
	s.route(mux, "POST /documents/upload", authMiddleware(http.HandlerFunc(s.handleUpload)))
	s.route(mux, "POST /documents/upload-url", authMiddleware(http.HandlerFunc(s.handleUploadURL)))
	s.route(mux, "GET /documents", authMiddleware(http.HandlerFunc(s.handleList)))
	s.route(mux, "GET /documents/check", authMiddleware(http.HandlerFunc(s.handleCheck)))
	s.route(mux, "POST /documents/reingest", authMiddleware(http.HandlerFunc(s.handleReingest)))
	s.route(mux, "DELETE /documents/{filename}", authMiddleware(http.HandlerFunc(s.handleDelete)))

	// Operational routes: no auth so probes and scrapers work unconfigured.
	s.route(mux, "GET /health", http.HandlerFunc(s.handleHealth))
	s.route(mux, "GET /ready", http.HandlerFunc(s.handleReady))
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(cfg.Logger, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Handler returns the fully wired HTTP handler. Used by tests with httptest.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	defer s.stopRL()

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// route registers handler under pattern with HTTP instrumentation keyed by
// the pattern rather than the raw path, keeping metric cardinality bounded.
func (s *Server) route(mux *http.ServeMux, pattern string, handler http.Handler) {
	mux.Handle(pattern, s.instrument(pattern, handler))
}

// writeJSON encodes v as the JSON response body with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("response encode error", slog.Any("error", err))
	}
}
