package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/finscreener/finscreener-mcp/internal/tools"
)

var (
	toolsCategory  string
	toolsResources bool
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the MCP tools and resources this server registers",
	RunE: func(cmd *cobra.Command, args []string) error {
		specs := filterTools(tools.AllTools, toolsCategory)
		if len(specs) == 0 {
			return withExitCode(foundry.ExitUsage, fmt.Errorf("unknown category %q (have: %s)",
				toolsCategory, strings.Join(tools.Categories(), ", ")))
		}

		renderToolTable(cmd.OutOrStdout(), specs)
		if toolsResources {
			fmt.Fprintln(cmd.OutOrStdout())
			renderResourceTable(cmd.OutOrStdout(), tools.Resources)
		}
		return nil
	},
}

func filterTools(specs []tools.ToolSpec, category string) []tools.ToolSpec {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return specs
	}
	var out []tools.ToolSpec
	for _, spec := range specs {
		if spec.Category == category {
			out = append(out, spec)
		}
	}
	return out
}

func renderToolTable(w io.Writer, specs []tools.ToolSpec) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Tool", "Category", "Title", "Hints"})
	for i, spec := range specs {
		t.AppendRow(table.Row{i + 1, spec.Name, spec.Category, spec.Title, toolHints(spec)})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d tools", len(specs))})
	t.Render()
}

func toolHints(spec tools.ToolSpec) string {
	var hints []string
	if spec.ReadOnly {
		hints = append(hints, "read-only")
	}
	if spec.Destructive {
		hints = append(hints, "destructive")
	}
	if spec.Idempotent {
		hints = append(hints, "idempotent")
	}
	return strings.Join(hints, ", ")
}

func renderResourceTable(w io.Writer, resources []tools.StaticResource) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Resource", "Name", "Description"})
	for _, r := range resources {
		t.AppendRow(table.Row{r.URI, r.Name, r.Description})
	}
	t.Render()
}

func init() {
	rootCmd.AddCommand(toolsCmd)

	toolsCmd.Flags().StringVarP(&toolsCategory, "category", "c", "", "only list tools in this category")
	toolsCmd.Flags().BoolVar(&toolsResources, "resources", false, "also list static resources")
}
