// Package cmd implements the finscreener-mcp command line.
package cmd

import (
	"context"
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finscreener/finscreener-mcp/internal/config"
	"github.com/finscreener/finscreener-mcp/internal/observability"
)

var (
	cfgFile string
	envFile string
	verbose bool

	// Version info set by main package
	versionInfo = struct {
		Version   string
		Commit    string
		BuildDate string
	}{Version: "dev", Commit: "unknown", BuildDate: "unknown"}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "MCP server for the Finscreener company, director and GST data API",
	Long: `finscreener-mcp exposes the Finscreener developer API to MCP clients.

Run "serve" to start the server on stdio (for desktop MCP clients) or
streamable HTTP. Use "call" to invoke a single tool from the shell.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		observability.InitCLILogger(config.AppName, verbose)
	},
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		fmt.Sprintf("config file (default is %s)", displayConfigPath()))
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
}

func displayConfigPath() string {
	if path := config.DefaultConfigPath(); path != "" {
		return path
	}
	return "$XDG_CONFIG_HOME/" + config.AppName + "/config.yaml"
}

// loadConfig reads every configuration layer and applies flag overrides.
// Non-fatal problems are logged as warnings.
func loadConfig(overrides map[string]any) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: cfgFile,
		EnvFile:    envFile,
		Overrides:  overrides,
	})
	if err != nil {
		return nil, withExitCode(foundry.ExitConfigInvalid, err)
	}

	if cfg.Source != "" {
		observability.CLI().Debug("Using config file", zap.String("path", cfg.Source))
	} else {
		observability.CLI().Debug("No config file found, using defaults and environment variables")
	}
	for _, warning := range config.Warnings(cfg) {
		observability.CLI().Warn(warning)
	}
	return cfg, nil
}
