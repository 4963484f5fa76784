package api

import (
	"github.com/tidwall/gjson"

	"github.com/finscreener/finscreener-mcp/internal/core"
)

const genericRateLimitMessage = "Rate limit exceeded. Try again tomorrow."

// classifyRateLimited turns a 429 body into a failure. The body must be a
// JSON object whose optional `detail` is itself an object; anything else
// yields the generic message without a rate-limit block.
func classifyRateLimited(body []byte) core.Result {
	if !gjson.ValidBytes(body) {
		return core.RateLimited(genericRateLimitMessage, nil)
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return core.RateLimited(genericRateLimitMessage, nil)
	}

	detail := parsed.Get("detail")
	if detail.Exists() && !detail.IsObject() {
		return core.RateLimited(genericRateLimitMessage, nil)
	}

	message := core.DefaultRateLimitMessage
	if m := detail.Get("message"); m.Exists() && m.Type != gjson.Null {
		message = m.String()
	}

	info := &core.RateLimitInfo{
		Limit:    intOr(detail.Get("limit"), core.DefaultRateLimitLimit),
		Used:     intOr(detail.Get("used"), core.DefaultRateLimitUsed),
		ResetsAt: resetsAt(detail, core.DefaultRateLimitResetsAt),
	}

	return core.RateLimited("Rate limit exceeded: "+message, info)
}

// parseRateLimitSnapshot reads a top-level `rate_limit` object from a success
// body. It returns nil when the body carries none.
func parseRateLimitSnapshot(body []byte) *core.RateLimitInfo {
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return nil
	}
	rl := parsed.Get("rate_limit")
	if !rl.IsObject() {
		return nil
	}
	return &core.RateLimitInfo{
		Limit:    intOr(rl.Get("limit"), 0),
		Used:     intOr(rl.Get("used"), 0),
		ResetsAt: resetsAt(rl, ""),
	}
}

// resetsAt accepts both spellings seen upstream.
func resetsAt(obj gjson.Result, fallback string) string {
	for _, key := range []string{"resetsAt", "resets_at"} {
		if v := obj.Get(key); v.Exists() && v.Type != gjson.Null {
			return v.String()
		}
	}
	return fallback
}

func intOr(v gjson.Result, fallback int) int {
	if !v.Exists() || v.Type == gjson.Null {
		return fallback
	}
	return int(v.Int())
}
