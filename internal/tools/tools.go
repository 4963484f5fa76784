// Package tools implements the Finscreener MCP tools: thin shims that
// validate arguments, forward them to one or more upstream endpoints and
// render the normalized result.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/finscreener/finscreener-mcp/internal/core"
	"github.com/finscreener/finscreener-mcp/internal/core/api"
	"github.com/finscreener/finscreener-mcp/internal/observability"
	"github.com/finscreener/finscreener-mcp/internal/output"
)

// DefaultScreenerTimeout bounds screener searches, which run far longer
// than ordinary lookups.
const DefaultScreenerTimeout = 240 * time.Second

// Caller is the subset of api.Client the tools use.
type Caller interface {
	Get(ctx context.Context, path string, query url.Values, opts ...api.Option) core.Result
	Post(ctx context.Context, path string, body any, opts ...api.Option) core.Result
	Put(ctx context.Context, path string, body any, opts ...api.Option) core.Result
	Delete(ctx context.Context, path string, opts ...api.Option) core.Result
}

// Options configures a Toolset.
type Options struct {
	// Format selects how results are rendered for the caller.
	Format          output.Format
	ScreenerTimeout time.Duration
	Logger          observability.Logger
}

// Toolset holds the dependencies shared by every tool.
type Toolset struct {
	api             Caller
	format          output.Format
	screenerTimeout time.Duration
	logger          observability.Logger
}

// NewToolset returns a Toolset with defaults applied.
func NewToolset(caller Caller, opts Options) *Toolset {
	ts := &Toolset{
		api:             caller,
		format:          opts.Format,
		screenerTimeout: opts.ScreenerTimeout,
		logger:          opts.Logger,
	}
	if ts.format == "" {
		ts.format = output.FormatJSON
	}
	if ts.screenerTimeout <= 0 {
		ts.screenerTimeout = DefaultScreenerTimeout
	}
	if ts.logger == nil {
		ts.logger = observability.NopLogger()
	}
	return ts
}

// Render turns a result into the text returned to the MCP client.
//
// JSON output is the default. Argument validation failures render as
// {"error": "..."}; upstream failures use the output package envelope.
func (t *Toolset) Render(result core.Result, title string) string {
	if t.format == output.FormatJSON {
		var (
			text string
			err  error
		)
		if result.Failure != nil && result.Failure.Kind == core.FailureInvalidInput {
			text, err = output.EncodeJSON(core.Object{{Key: "error", Value: result.Failure.Message}})
		} else {
			text, err = output.EncodeResult(result)
		}
		if err == nil {
			return text
		}
		t.logger.Warn("Failed to encode tool result as JSON", zap.Error(err))
		return output.Project(result, title)
	}

	text, err := output.Render(t.format, result, title)
	if err != nil {
		t.logger.Warn("Failed to render tool result", zap.Error(err))
		return output.Project(result, title)
	}
	return text
}

func invalid(format string, args ...any) core.Result {
	return core.Fail(core.FailureInvalidInput, fmt.Sprintf(format, args...))
}

// oneOf reports whether value is in allowed.
func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// pyList renders allowed values the way the upstream docs list them.
func pyList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// limitOr returns value clamped to max, or fallback when value is not set.
func limitOr(value, fallback, max int) int {
	if value <= 0 {
		value = fallback
	}
	if max > 0 && value > max {
		value = max
	}
	return value
}

func pageOr(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

// pathID escapes a caller-supplied identifier for use as a path segment.
func pathID(id string) string {
	return url.PathEscape(strings.TrimSpace(id))
}

type params struct {
	url.Values
}

func newParams() params {
	return params{Values: url.Values{}}
}

func (p params) int(key string, value int) params {
	p.Set(key, strconv.Itoa(value))
	return p
}

// str sets key only when value is non-empty.
func (p params) str(key, value string) params {
	if value != "" {
		p.Set(key, value)
	}
	return p
}

// plain renders a decoded JSON value as a plain string. Null is "".
func plain(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}

// lookupText returns the text of the first present key, or fallback when
// none is present. A present null yields "".
func lookupText(obj core.Object, fallback string, keys ...string) string {
	value, ok := obj.Lookup(keys...)
	if !ok {
		return fallback
	}
	return plain(value)
}

// price formats a credit price with one decimal place kept for whole
// numbers, as the order endpoint expects.
func price(value float64) json.Number {
	if value == float64(int64(value)) {
		return json.Number(strconv.FormatFloat(value, 'f', 1, 64))
	}
	return json.Number(strconv.FormatFloat(value, 'f', -1, 64))
}

// resultRows extracts the row list from a screener search body: `results`,
// then `data`, then the body itself.
func resultRows(data any) ([]any, bool) {
	if obj, ok := core.AsObject(data); ok {
		if rows, ok := obj.Lookup("results", "data"); ok {
			data = rows
		}
	}
	return core.AsList(data)
}
