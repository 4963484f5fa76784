package server

import (
	"github.com/fulmenhq/gofulmen/signals"
	"go.uber.org/zap"

	"github.com/finscreener/finscreener-mcp/internal/observability"
	"github.com/finscreener/finscreener-mcp/internal/server/handlers"
	servermw "github.com/finscreener/finscreener-mcp/internal/server/middleware"
)

// AdminSignalPath serves the token-guarded signal endpoint.
const AdminSignalPath = "/admin/signal"

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	if s.opts.EnableHealth {
		health := s.opts.Health
		s.router.Get("/health", health.HealthHandler)
		s.router.Get("/health/live", health.LivenessHandler)
		s.router.Get("/health/ready", health.ReadinessHandler)
		s.router.Get("/health/startup", health.StartupHandler)
	}

	s.router.Get("/version", handlers.VersionHandler)

	if s.opts.EnableMetrics {
		s.router.Get("/metrics", MetricsHandler)
	}

	s.registerAdminEndpoint()

	if s.mcp != nil {
		limited := servermw.RateLimit(s.opts.RequestsPerSecond, s.opts.Burst)(s.mcp)
		s.router.Handle(s.opts.MCPPath, limited)
	}
}

// registerAdminEndpoint optionally registers the admin signal endpoint
func (s *Server) registerAdminEndpoint() {
	logger := observability.Server()

	if s.opts.AdminToken == "" {
		logger.Debug("Admin signal endpoint disabled (no FINSCREENER_ADMIN_TOKEN set)")
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: s.opts.AdminToken,
		RateLimit: 10, // per minute
		RateBurst: 5,
		Manager:   s.opts.Signals,
	})
	s.router.Post(AdminSignalPath, handler.ServeHTTP)

	logger.Info("Admin signal endpoint enabled",
		zap.String("path", AdminSignalPath),
		zap.String("auth", "bearer token"),
		zap.String("rate_limit", "10/min, burst 5"))
	logger.Warn("Admin endpoint enabled - ensure this server is not exposed to public internet")
}
