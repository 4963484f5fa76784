package output

import (
	"fmt"
	"strings"

	"github.com/finscreener/finscreener-mcp/internal/core"
)

// Format represents an output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatTable    Format = "table"
)

// Formatter renders a normalized call result.
type Formatter interface {
	Format(result core.Result, title string) (string, error)
}

// ParseFormat validates and normalizes a format string. The empty string
// selects JSON.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	case string(FormatTable):
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatMarkdown:
		return &MarkdownFormatter{}
	case FormatTable:
		return &TableFormatter{}
	default:
		return &JSONFormatter{Indent: true}
	}
}

// Render formats result with the formatter for format.
func Render(format Format, result core.Result, title string) (string, error) {
	return NewFormatter(format).Format(result, title)
}
