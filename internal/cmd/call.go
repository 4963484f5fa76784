package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/finscreener/finscreener-mcp/internal/observability"
	"github.com/finscreener/finscreener-mcp/internal/output"
	"github.com/finscreener/finscreener-mcp/internal/tools"
)

var (
	callArgs     []string
	callArgsJSON string
	callFormat   string
)

var callCmd = &cobra.Command{
	Use:   "call <tool>",
	Short: "Invoke a single tool and print its result",
	Long: `Invoke one tool through an in-process MCP session and print the text it returns.

Arguments:
  --args '{"query":"acme","limit":5}'   JSON object of arguments
  --arg query=acme                      string argument (repeatable)
  --arg limit:=5                        JSON-typed argument (numbers, booleans, arrays)

--arg values are applied after --args.`,
	Example: `  finscreener-mcp call search_company --arg query=infosys --arg limit:=3
  finscreener-mcp call run_screener --args '{"query":"state = \"Kerala\"","type":"company"}' --format table`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if _, ok := tools.SpecByName(name); !ok {
			return withExitCode(foundry.ExitUsage, fmt.Errorf("unknown tool %q (run \"%s tools\" for the list)", name, rootCmd.Name()))
		}

		arguments, err := parseCallArgs(callArgsJSON, callArgs)
		if err != nil {
			return withExitCode(foundry.ExitUsage, err)
		}

		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		format, err := configuredFormat(cfg)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("format") {
			if format, err = output.ParseFormat(callFormat); err != nil {
				return withExitCode(foundry.ExitUsage, err)
			}
		}

		rt := newRuntime(cfg, format, observability.CLILogger)
		text, isError, err := callTool(cmd.Context(), rt.toolset, name, arguments)
		if err != nil {
			return withExitCode(foundry.ExitFailure, err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), text)
		if isError {
			return withExitCode(foundry.ExitFailure, fmt.Errorf("tool %s returned an error", name))
		}
		return nil
	},
}

// parseCallArgs merges a JSON object with key=value and key:=json pairs.
func parseCallArgs(rawJSON string, pairs []string) (map[string]any, error) {
	arguments := map[string]any{}
	if strings.TrimSpace(rawJSON) != "" {
		if err := json.Unmarshal([]byte(rawJSON), &arguments); err != nil {
			return nil, fmt.Errorf("--args must be a JSON object: %w", err)
		}
		if arguments == nil {
			arguments = map[string]any{}
		}
	}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("--arg %q must be key=value or key:=json", pair)
		}
		typed := strings.HasSuffix(key, ":")
		key = strings.TrimSpace(strings.TrimSuffix(key, ":"))
		if key == "" {
			return nil, fmt.Errorf("--arg %q has an empty key", pair)
		}
		if !typed {
			arguments[key] = value
			continue
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			return nil, fmt.Errorf("--arg %s: invalid JSON value: %w", key, err)
		}
		arguments[key] = decoded
	}
	return arguments, nil
}

// callTool runs one tool call over an in-memory MCP session so the call
// takes the same path as a real client's.
func callTool(ctx context.Context, toolset *tools.Toolset, name string, arguments map[string]any) (string, bool, error) {
	server, err := tools.NewServer(versionInfo.Version, toolset)
	if err != nil {
		return "", false, err
	}

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		return "", false, fmt.Errorf("start in-process server: %w", err)
	}
	defer serverSession.Close() // nolint:errcheck // best-effort cleanup

	client := mcp.NewClient(&mcp.Implementation{Name: rootCmd.Name() + "-cli", Version: versionInfo.Version}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		return "", false, fmt.Errorf("connect in-process client: %w", err)
	}
	defer session.Close() // nolint:errcheck // best-effort cleanup

	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: arguments})
	if err != nil {
		return "", false, fmt.Errorf("call %s: %w", name, err)
	}

	var parts []string
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	if len(parts) == 0 && !result.IsError {
		return "", false, errors.New("tool returned no text content")
	}
	return strings.Join(parts, "\n"), result.IsError, nil
}

func init() {
	rootCmd.AddCommand(callCmd)

	callCmd.Flags().StringArrayVarP(&callArgs, "arg", "a", nil, "tool argument as key=value or key:=json (repeatable)")
	callCmd.Flags().StringVar(&callArgsJSON, "args", "", "tool arguments as a JSON object")
	callCmd.Flags().StringVarP(&callFormat, "format", "f", "", "output format: json, markdown or table (default from tools.output_format)")
}
