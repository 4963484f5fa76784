package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finscreener/finscreener-mcp/internal/server/handlers"
)

var extended bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for build, runtime and MCP SDK details.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		info := handlers.Version()

		fmt.Fprintf(out, "%s %s\n", rootCmd.Name(), versionInfo.Version)
		if !extended {
			return nil
		}

		fmt.Fprintf(out, "Commit: %s\n", versionInfo.Commit)
		fmt.Fprintf(out, "Built: %s\n", versionInfo.BuildDate)
		fmt.Fprintf(out, "Go: %s (%s)\n", info.App.GoVersion, info.Runtime.Platform)
		fmt.Fprintf(out, "\n")
		fmt.Fprintf(out, "MCP go-sdk: %s\n", info.Dependencies.MCPSDK)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
}
