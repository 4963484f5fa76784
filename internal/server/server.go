// Package server hosts the MCP streamable HTTP transport alongside the
// operational endpoints (health, version, metrics).
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	apperrors "github.com/finscreener/finscreener-mcp/internal/errors"
	"github.com/finscreener/finscreener-mcp/internal/observability"
	"github.com/finscreener/finscreener-mcp/internal/server/handlers"
	servermw "github.com/finscreener/finscreener-mcp/internal/server/middleware"
)

const DefaultMCPPath = "/mcp"

// Options configures the HTTP server. Zero durations fall back to defaults.
type Options struct {
	Host         string
	Port         int
	MCPPath      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// RequestsPerSecond throttles the MCP endpoint; zero disables it.
	RequestsPerSecond float64
	Burst             int

	EnableHealth  bool
	EnableMetrics bool
	Health        *handlers.HealthManager

	// AdminToken enables POST /admin/signal, dispatching to Signals.
	AdminToken string
	Signals    *signals.Manager
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	opts   Options
	mcp    http.Handler
}

// New creates a new HTTP server instance serving mcpHandler at opts.MCPPath.
func New(opts Options, mcpHandler http.Handler) *Server {
	if opts.MCPPath == "" {
		opts.MCPPath = DefaultMCPPath
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 300 * time.Second
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 120 * time.Second
	}
	if opts.Health == nil {
		opts.Health = handlers.NewHealthManager(handlers.AppVersion)
	}

	r := chi.NewRouter()

	r.Use(middleware.RealIP)

	// Order matters: request ID first for correlation, recovery innermost so
	// metrics still see the 500.
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics)
	r.Use(servermw.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	s := &Server{
		router: r,
		opts:   opts,
		mcp:    mcpHandler,
	}
	s.server = &http.Server{
		Addr:         s.Addr(),
		Handler:      r,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
	}

	handlers.SetHTTPErrorResponder(HandleError)

	s.registerRoutes()

	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, fmt.Sprint(s.opts.Port))
}

// Start listens and serves until Shutdown. A clean shutdown returns nil,
// including when Shutdown ran first.
func (s *Server) Start() error {
	addr := s.server.Addr

	observability.Server().Info("Starting HTTP server",
		zap.String("host", s.opts.Host),
		zap.Int("port", s.opts.Port),
		zap.String("addr", addr),
		zap.String("mcp_path", s.opts.MCPPath))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	observability.Server().Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the server port for testing
func (s *Server) Port() int {
	return s.opts.Port
}
