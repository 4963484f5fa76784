package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"

	"github.com/finscreener/finscreener-mcp/internal/config"
	"github.com/finscreener/finscreener-mcp/internal/core/api"
	"github.com/finscreener/finscreener-mcp/internal/core/auth"
	"github.com/finscreener/finscreener-mcp/internal/observability"
	"github.com/finscreener/finscreener-mcp/internal/output"
	"github.com/finscreener/finscreener-mcp/internal/server/handlers"
	"github.com/finscreener/finscreener-mcp/internal/tools"
)

// appRuntime wires the credential manager, the upstream client and the
// toolset from one configuration.
type appRuntime struct {
	cfg     *config.Config
	auth    *auth.Manager
	client  *api.Client
	toolset *tools.Toolset
}

// newRuntime builds the runtime. A nil logger discards component logs.
func newRuntime(cfg *config.Config, format output.Format, logger *logging.Logger) *appRuntime {
	httpClient := &http.Client{}

	manager := auth.NewManager(auth.Config{
		APIKey:     cfg.API.Key,
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: httpClient,
		Timeout:    cfg.API.AuthTimeout,
		TokenTTL:   cfg.API.TokenTTL,
		Logger:     componentLogger(logger, "auth"),
	})

	client := api.NewClient(api.Config{
		BaseURL:     cfg.API.BaseURL,
		HTTPClient:  httpClient,
		Credentials: manager,
		Timeout:     cfg.API.Timeout,
		Logger:      componentLogger(logger, "api"),
	})

	toolset := tools.NewToolset(client, tools.Options{
		Format:          format,
		ScreenerTimeout: cfg.API.ScreenerTimeout,
		Logger:          componentLogger(logger, "tools"),
	})

	return &appRuntime{cfg: cfg, auth: manager, client: client, toolset: toolset}
}

func componentLogger(logger *logging.Logger, component string) observability.Logger {
	if logger == nil {
		return observability.NopLogger()
	}
	return logger.WithComponent(component)
}

// configuredFormat returns the tool output format from configuration.
func configuredFormat(cfg *config.Config) (output.Format, error) {
	format, err := output.ParseFormat(cfg.Tools.OutputFormat)
	if err != nil {
		return "", withExitCode(foundry.ExitConfigInvalid, err)
	}
	return format, nil
}

// credentialsChecker reports degraded health when no bearer token can be had.
func (rt *appRuntime) credentialsChecker() handlers.CheckerFunc {
	return func(ctx context.Context) error {
		if !rt.auth.HasKey() {
			return fmt.Errorf("no API key configured: %w", handlers.ErrDegraded)
		}
		rt.auth.EnsureToken(ctx)
		if _, ok := rt.auth.Token(); !ok {
			return fmt.Errorf("no bearer token available: %w", handlers.ErrDegraded)
		}
		return nil
	}
}
