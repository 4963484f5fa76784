package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/finscreener/finscreener-mcp/internal/config"
	apperrors "github.com/finscreener/finscreener-mcp/internal/errors"
	"github.com/finscreener/finscreener-mcp/internal/metrics"
	"github.com/finscreener/finscreener-mcp/internal/observability"
	"github.com/finscreener/finscreener-mcp/internal/server"
	"github.com/finscreener/finscreener-mcp/internal/server/handlers"
	"github.com/finscreener/finscreener-mcp/internal/tools"
)

var (
	serveTransport string
	serverHost     string
	serverPort     int
	serverMCPPath  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the MCP server.

Transports:
  stdio  JSON-RPC over stdin/stdout (default; for desktop MCP clients)
  http   MCP streamable HTTP plus /health, /version and /metrics

Logs always go to stderr. SIGINT or SIGTERM shuts the server down gracefully;
a second Ctrl+C within two seconds forces an exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(serveOverrides(cmd))
		if err != nil {
			return err
		}
		format, err := configuredFormat(cfg)
		if err != nil {
			return err
		}

		observability.InitServerLogger(config.AppName, cfg.Logging.Level, observability.MetricsNamespace())
		logger := observability.ServerLogger
		defer func() { _ = logger.Sync() }()

		mgr := signals.NewManager()
		ctx, stop := listenForSignals(cmd.Context(), mgr)
		defer stop()

		mgr.OnReload(func(ctx context.Context) error {
			reloaded, err := loadConfig(serveOverrides(cmd))
			if err != nil {
				logger.Error("Failed to reload config", zap.Error(err))
				return apperrors.WrapInternal(ctx, err, "config reload failed")
			}
			logger.SetLevel(logging.Severity(observability.ParseLogLevel(reloaded.Logging.Level)))
			logger.Info("Configuration reloaded",
				zap.String("file", reloaded.Source),
				zap.String("log_level", reloaded.Logging.Level))
			return nil
		})

		if err := mgr.EnableDoubleTap(signals.DoubleTapConfig{
			Window:   2 * time.Second,
			Message:  "Press Ctrl+C again within 2 seconds to force quit",
			ExitCode: int(foundry.ExitSignalInt),
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		rt := newRuntime(cfg, format, logger)
		mcpServer, err := tools.NewServer(versionInfo.Version, rt.toolset)
		if err != nil {
			return apperrors.WrapInternal(ctx, err, "tool registration failed")
		}

		logger.Info("Initializing server",
			zap.String("version", versionInfo.Version),
			zap.String("transport", cfg.Server.Transport),
			zap.String("api_base", cfg.API.BaseURL),
			zap.String("output_format", string(format)),
			zap.Int("tools", len(tools.AllTools)))

		if cfg.Server.Transport == "http" {
			return serveHTTP(ctx, cfg, rt, mcpServer, mgr)
		}
		return serveStdio(ctx, mcpServer)
	},
}

// listenForSignals returns a context that is cancelled once mgr has handled
// SIGINT or SIGTERM, from the OS or from the admin endpoint.
func listenForSignals(parent context.Context, mgr *signals.Manager) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	for _, sig := range []os.Signal{syscall.SIGINT, syscall.SIGTERM} {
		if _, err := mgr.Handle(sig, func(_ context.Context, sig os.Signal) error {
			observability.Server().Info("Received shutdown signal", zap.String("signal", sig.String()))
			return nil
		}); err != nil {
			observability.Server().Warn("Signal not supported", zap.String("signal", sig.String()), zap.Error(err))
		}
	}

	// Registered first, so it runs after every other shutdown hook.
	mgr.OnShutdown(func(context.Context) error {
		cancel()
		return nil
	})

	go func() {
		if err := mgr.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
			observability.Server().Error("Signal handler error", zap.Error(err))
		}
		cancel()
	}()

	return ctx, func() {
		cancel()
		mgr.Stop()
	}
}

func serveStdio(ctx context.Context, mcpServer *mcp.Server) error {
	err := mcpServer.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	observability.Server().Info("Stdio session closed")
	return nil
}

func serveHTTP(ctx context.Context, cfg *config.Config, rt *appRuntime, mcpServer *mcp.Server, mgr *signals.Manager) error {
	logger := observability.Server()

	if cfg.Metrics.Enabled {
		reg := observability.InitMetrics(config.AppName)
		if err := metrics.Register(reg, observability.MetricsNamespace()); err != nil {
			return apperrors.WrapInternal(ctx, err, "metrics initialization failed")
		}
		metrics.SetServerStartTime(time.Now().Unix())
	}

	health := handlers.NewHealthManager(versionInfo.Version)
	health.RegisterChecker("credentials", rt.credentialsChecker())

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	srv := server.New(server.Options{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		MCPPath:           cfg.Server.MCPPath,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
		Burst:             cfg.Server.RateLimit.Burst,
		EnableHealth:      cfg.Health.Enabled,
		EnableMetrics:     cfg.Metrics.Enabled,
		Health:            health,
		AdminToken:        cfg.Server.AdminToken,
		Signals:           mgr,
	}, mcpHandler)

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return apperrors.WrapInternal(shutdownCtx, err, "server shutdown failed")
		}
		logger.Info("HTTP server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		return withExitCode(foundry.ExitFailure, err)
	}
	return nil
}

func serveOverrides(cmd *cobra.Command) map[string]any {
	overrides := map[string]any{}
	if cmd.Flags().Changed("transport") {
		overrides["server.transport"] = serveTransport
	}
	if cmd.Flags().Changed("host") {
		overrides["server.host"] = serverHost
	}
	if cmd.Flags().Changed("port") {
		overrides["server.port"] = serverPort
	}
	if cmd.Flags().Changed("mcp-path") {
		overrides["server.mcp_path"] = serverMCPPath
	}
	if verbose {
		overrides["logging.level"] = "debug"
	}
	return overrides
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveTransport, "transport", "t", "stdio", "transport: stdio or http")
	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "HTTP listen host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "HTTP listen port")
	serveCmd.Flags().StringVar(&serverMCPPath, "mcp-path", server.DefaultMCPPath, "HTTP path serving the MCP endpoint")
}
