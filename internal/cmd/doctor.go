package cmd

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/finscreener/finscreener-mcp/internal/config"
	"github.com/finscreener/finscreener-mcp/internal/core"
	"github.com/finscreener/finscreener-mcp/internal/observability"
)

var (
	doctorShowConfig bool
	doctorOffline    bool
)

const doctorNetworkTimeout = 15 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long: `Run diagnostic checks on configuration and credentials.

Checks the Go runtime, the configuration layers and the API key, then
exchanges the key for a bearer token and makes one authenticated call
(skip the network checks with --offline).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.CLI()
		logger.Info("=== " + config.AppName + " doctor ===")
		logger.Info("")

		cfg, err := loadConfig(nil)
		if err != nil {
			logger.Error("[config] ❌ configuration could not be loaded", zap.Error(err))
			return err
		}

		allChecks := true
		totalChecks := 5

		logger.Info(fmt.Sprintf("[1/%d] Go runtime... ✅ %s %s/%s", totalChecks, runtime.Version(), runtime.GOOS, runtime.GOARCH))

		source := cfg.Source
		if source == "" {
			source = "defaults + environment"
		}
		logger.Info(fmt.Sprintf("[2/%d] Configuration... ✅ %s", totalChecks, source),
			zap.String("api_base", cfg.API.BaseURL),
			zap.String("output_format", cfg.Tools.OutputFormat))

		if warnings := config.Warnings(cfg); len(warnings) > 0 {
			for _, w := range warnings {
				logger.Warn(fmt.Sprintf("[3/%d] API key... ⚠️  %s", totalChecks, w))
			}
			allChecks = false
		} else {
			logger.Info(fmt.Sprintf("[3/%d] API key... ✅ %s", totalChecks, config.MaskSecret(cfg.API.Key)))
		}

		if doctorOffline {
			logger.Info(fmt.Sprintf("[4/%d] Token exchange... skipped (--offline)", totalChecks))
			logger.Info(fmt.Sprintf("[5/%d] Authenticated call... skipped (--offline)", totalChecks))
		} else if !checkUpstream(cmd.Context(), cfg, totalChecks) {
			allChecks = false
		}

		if doctorShowConfig {
			logger.Info("")
			if err := writeRedactedConfig(cmd.OutOrStdout(), cfg); err != nil {
				return withExitCode(foundry.ExitFileWriteError, err)
			}
		}

		logger.Info("")
		if allChecks {
			logger.Info(fmt.Sprintf("✅ All checks passed! Your %s installation is healthy.", config.AppName))
		} else {
			logger.Warn("⚠️  Some checks failed. Review the output above for details.")
		}
		logger.Info("")
		logger.Info("=== End Diagnostics ===")
		return nil
	},
}

func checkUpstream(ctx context.Context, cfg *config.Config, totalChecks int) bool {
	logger := observability.CLI()
	ctx, cancel := context.WithTimeout(ctx, doctorNetworkTimeout)
	defer cancel()

	rt := newRuntime(cfg, "", observability.CLILogger)
	rt.auth.EnsureToken(ctx)
	if _, ok := rt.auth.Token(); !ok {
		logger.Warn(fmt.Sprintf("[4/%d] Token exchange... ❌ no bearer token", totalChecks))
		logger.Warn(fmt.Sprintf("[5/%d] Authenticated call... skipped", totalChecks))
		return false
	}
	if expiresAt, ok := rt.auth.ExpiresAt(); ok {
		logger.Info(fmt.Sprintf("[4/%d] Token exchange... ✅ valid until %s", totalChecks, expiresAt.Format(time.RFC3339)))
	} else {
		logger.Info(fmt.Sprintf("[4/%d] Token exchange... ✅ using key as bearer token", totalChecks))
	}

	result := rt.client.Get(ctx, "/users/me", nil)
	if result.Failure != nil {
		logger.Warn(fmt.Sprintf("[5/%d] Authenticated call... ❌ %s", totalChecks, result.Failure.Message),
			zap.String("kind", string(result.Failure.Kind)))
		return false
	}

	fields := []zap.Field{}
	if obj, ok := core.AsObject(core.UnwrapData(result.Data)); ok {
		if credits, found := obj.Get("credits"); found {
			fields = append(fields, zap.Any("credits", credits))
		}
	}
	if rl := rt.client.LastRateLimit(); rl != nil {
		fields = append(fields, zap.Int("rate_limit", rl.Limit), zap.Int("rate_used", rl.Used), zap.String("resets_at", rl.ResetsAt))
	}
	logger.Info(fmt.Sprintf("[5/%d] Authenticated call... ✅ GET /users/me", totalChecks), fields...)
	return true
}

func writeRedactedConfig(w io.Writer, cfg *config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg.Redacted()); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().BoolVar(&doctorShowConfig, "show-config", false, "print the effective configuration as YAML (API key masked)")
	doctorCmd.Flags().BoolVar(&doctorOffline, "offline", false, "skip the token exchange and API checks")
}
