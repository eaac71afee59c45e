// Package server exposes the minimization pipeline over HTTP.
//
// # Endpoints
//
//	POST /v1/minimize  minimize a cover (PLA or JSON body)
//	POST /v1/verify    check two covers for equivalence
//	POST /v1/stats     size statistics of a cover
//	POST /v1/graph     render the cube adjacency graph of a cover
//	GET  /healthz      liveness check
//	GET  /metrics      Prometheus metrics
//
// Every response carries an X-Request-ID header. Errors are returned as
// JSON objects holding the machine-readable code of pkg/errors.
package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/exorcism/pkg/observability"
	"github.com/matzehuels/exorcism/pkg/pipeline"
)

const (
	// DefaultAddr is the listen address used when Config leaves it empty.
	DefaultAddr = ":8080"
	// DefaultMaxBodyBytes bounds request bodies.
	DefaultMaxBodyBytes int64 = 32 << 20
	// DefaultShutdownTimeout bounds the graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second
)

// Config configures a [Server].
type Config struct {
	Addr            string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration

	// Registry receives the server and pipeline metrics. A new registry is
	// created when nil.
	Registry *prometheus.Registry
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Registry == nil {
		c.Registry = prometheus.NewRegistry()
		c.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// Server serves the HTTP API on top of a pipeline runner.
type Server struct {
	cfg    Config
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// New creates a server. The pipeline metrics are registered on the
// configured registry and installed as the global observability hooks.
func New(runner *pipeline.Runner, logger *log.Logger, cfg Config) *Server {
	cfg.setDefaults()
	if logger == nil {
		logger = log.Default()
	}
	observability.Register(observability.NewMetrics(cfg.Registry))

	s := &Server{cfg: cfg, runner: runner, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(s.recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errNotFound(r))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errMethodNotAllowed(r))
	})

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.cfg.Registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.limitBody)
		r.Post("/minimize", s.handleMinimize)
		r.Post("/verify", s.handleVerify)
		r.Post("/stats", s.handleStats)
		r.Post("/graph", s.handleGraph)
	})

	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
