package output

import (
	"bytes"
	"encoding/json"

	"github.com/finscreener/finscreener-mcp/internal/core"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// failureEnvelope is the JSON shape of a failed call.
type failureEnvelope struct {
	Success   bool                `json:"success"`
	Error     string              `json:"error"`
	RateLimit *core.RateLimitInfo `json:"rate_limit,omitempty"`
}

// Format renders a result as JSON. Success payloads are written verbatim;
// failures use {"success": false, "error": ..., "rate_limit": ...}.
func (f *JSONFormatter) Format(result core.Result, _ string) (string, error) {
	var payload any = result.Data
	if result.Failure != nil {
		payload = failureEnvelope{
			Success:   false,
			Error:     result.Failure.Message,
			RateLimit: result.Failure.RateLimit,
		}
	}
	return encodeJSON(payload, f.Indent)
}

// EncodeResult renders a result as indented JSON.
func EncodeResult(result core.Result) (string, error) {
	return (&JSONFormatter{Indent: true}).Format(result, "")
}

// EncodeJSON renders any value as indented JSON without HTML escaping.
func EncodeJSON(value any) (string, error) {
	return encodeJSON(value, true)
}

func encodeJSON(value any, indent bool) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(value); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
