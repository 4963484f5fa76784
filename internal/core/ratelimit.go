package core

// RateLimitInfo captures the usage figures upstream reports for metered
// endpoints. It is informational only and never used to gate calls.
type RateLimitInfo struct {
	Limit    int    `json:"limit"`
	Used     int    `json:"used"`
	ResetsAt string `json:"resets_at"`
}

// Defaults applied when a 429 body omits individual fields.
const (
	DefaultRateLimitMessage  = "Daily limit reached"
	DefaultRateLimitLimit    = 100
	DefaultRateLimitUsed     = 100
	DefaultRateLimitResetsAt = "End of day"
)

// Clone returns a copy safe to hand to callers.
func (r *RateLimitInfo) Clone() *RateLimitInfo {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}
