package main

import (
	"github.com/finscreener/finscreener-mcp/internal/cmd"
	"github.com/finscreener/finscreener-mcp/internal/observability"
	"github.com/finscreener/finscreener-mcp/internal/server/handlers"
)

// Version information set via ldflags during build
// Example: go build -ldflags="-X main.version=1.0.0 -X main.commit=abc123 -X main.buildDate=2025-10-28"
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// Set version info for commands to access
	cmd.SetVersionInfo(version, commit, buildDate)

	// Set version info for HTTP handlers
	handlers.SetVersionInfo(version, commit, buildDate)

	if err := cmd.Execute(); err != nil {
		// Individual commands may have already logged specific errors
		cmd.ExitWithCode(observability.CLILogger, cmd.ExitCodeFor(err), "Command execution failed", err)
	}
}
