package output

import (
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/finscreener/finscreener-mcp/internal/core"
)

// TableFormatter renders list and object results as an ASCII table. Other
// results fall back to the markdown projection.
type TableFormatter struct{}

// Format renders a result as a table.
func (f *TableFormatter) Format(result core.Result, title string) (string, error) {
	if result.Failure != nil {
		return Project(result, title), nil
	}

	switch value := core.UnwrapData(result.Data).(type) {
	case []any:
		if len(value) == 0 {
			return noResults, nil
		}
		return renderListTable(value, title), nil
	case core.Object:
		return renderObjectTable(value, title), nil
	default:
		return Project(result, title), nil
	}
}

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

// renderListTable uses the union of item keys, in first-seen order, as
// columns. Scalar items land in a single "value" column.
func renderListTable(items []any, title string) string {
	columns := make([]string, 0, 8)
	seen := map[string]bool{}
	hasScalars := false
	for _, item := range items {
		obj, ok := core.AsObject(item)
		if !ok {
			hasScalars = true
			continue
		}
		for _, field := range obj {
			if !seen[field.Key] {
				seen[field.Key] = true
				columns = append(columns, field.Key)
			}
		}
	}
	if hasScalars && !seen["value"] {
		columns = append(columns, "value")
	}

	t := newTable(title)
	header := table.Row{"#"}
	for _, col := range columns {
		header = append(header, col)
	}
	t.AppendHeader(header)

	for i, item := range items {
		row := table.Row{i + 1}
		obj, isObject := core.AsObject(item)
		for _, col := range columns {
			switch {
			case isObject:
				value, ok := obj.Get(col)
				if !ok || value == nil {
					row = append(row, "")
				} else {
					row = append(row, scalarText(value))
				}
			case col == "value":
				row = append(row, scalarText(item))
			default:
				row = append(row, "")
			}
		}
		t.AppendRow(row)
	}

	return t.Render()
}

func renderObjectTable(obj core.Object, title string) string {
	t := newTable(title)
	t.AppendHeader(table.Row{"Field", "Value"})
	for _, field := range obj {
		if field.Value == nil {
			continue
		}
		t.AppendRow(table.Row{field.Key, projectField(field.Value)})
	}
	return t.Render()
}
