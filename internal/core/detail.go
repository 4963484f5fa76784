package core

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ErrorDetail extracts a human-readable message from an upstream error body.
//
// Lookup order: a non-null `detail` field (strings verbatim, structured
// values as their JSON text), then a non-null `message` field, then the raw
// body text. Bodies that are not JSON objects fall through to the raw text.
func ErrorDetail(body []byte) string {
	raw := string(body)
	if !gjson.ValidBytes(body) {
		return raw
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return raw
	}

	for _, key := range []string{"detail", "message"} {
		field := parsed.Get(key)
		if !field.Exists() || field.Type == gjson.Null {
			continue
		}
		if field.Type == gjson.String {
			return field.String()
		}
		return strings.TrimSpace(field.Raw)
	}

	return raw
}
