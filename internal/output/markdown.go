package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/finscreener/finscreener-mcp/internal/core"
)

const (
	noResults = "No results found."
	noData    = "No data available."

	// maxItemFields caps the fields shown per list item.
	maxItemFields = 4
)

// MarkdownFormatter renders results with Project.
type MarkdownFormatter struct{}

// Format renders a result as markdown text.
func (f *MarkdownFormatter) Format(result core.Result, title string) (string, error) {
	return Project(result, title), nil
}

// Project renders a normalized call result as display text.
//
// Failures always begin with "Error: ". Success payloads are unwrapped from
// a top-level `data` field, then rendered as a numbered list, one line per
// object field, or plain text for scalars.
func Project(result core.Result, title string) string {
	if result.Failure != nil {
		return projectFailure(result.Failure)
	}

	data := core.UnwrapData(result.Data)
	if data == nil {
		return noData
	}

	lines := make([]string, 0, 8)
	if title != "" {
		lines = append(lines, fmt.Sprintf("## %s\n", title))
	}

	switch value := data.(type) {
	case []any:
		if len(value) == 0 {
			return noResults
		}
		for i, item := range value {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, projectItem(item)))
		}
	case core.Object:
		for _, field := range value {
			if field.Value == nil {
				continue
			}
			lines = append(lines, fmt.Sprintf("**%s**: %s", field.Key, projectField(field.Value)))
		}
	default:
		if text := scalarText(value); text != "" {
			lines = append(lines, text)
		}
	}

	if len(lines) == 0 {
		return noData
	}
	return strings.Join(lines, "\n")
}

func projectFailure(failure *core.Failure) string {
	text := "Error: " + failure.Message
	if rl := failure.RateLimit; rl != nil {
		text += fmt.Sprintf("\n\nRate Limit Info:\n- Daily Limit: %d\n- Used Today: %d\n- Resets: %s",
			rl.Limit, rl.Used, rl.ResetsAt)
	}
	return text
}

func projectItem(item any) string {
	obj, ok := core.AsObject(item)
	if !ok {
		return scalarText(item)
	}

	parts := make([]string, 0, maxItemFields)
	for _, field := range obj {
		if field.Value == nil || field.Key == "id" || field.Key == "_id" {
			continue
		}
		parts = append(parts, fmt.Sprintf("**%s**: %s", field.Key, scalarText(field.Value)))
		if len(parts) == maxItemFields {
			break
		}
	}
	return strings.Join(parts, " | ")
}

// projectField renders nested values as indented JSON.
func projectField(value any) string {
	switch value.(type) {
	case core.Object, []any:
		text, err := encodeJSON(value, true)
		if err != nil {
			return fmt.Sprint(value)
		}
		return text
	default:
		return scalarText(value)
	}
}

// scalarText renders a decoded JSON value on one line. Nested values inside
// list items are written as compact JSON.
func scalarText(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	case core.Object, []any:
		text, err := encodeJSON(v, false)
		if err != nil {
			return fmt.Sprint(v)
		}
		return text
	default:
		return fmt.Sprint(v)
	}
}
