package tools

import (
	"context"
	"strings"
	"unicode"

	"github.com/finscreener/finscreener-mcp/internal/core"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100

	cinLength   = 21
	dinLength   = 8
	gstinLength = 15
)

type SearchCompanyInput struct {
	Query string `json:"query" jsonschema:"Company name or 21-character CIN"`
	State string `json:"state,omitempty" jsonschema:"Filter by state, e.g. Maharashtra"`
	City  string `json:"city,omitempty" jsonschema:"Filter by city, e.g. Mumbai"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum results (default 10, max 100)"`
}

type SearchDirectorInput struct {
	Query string `json:"query" jsonschema:"Director name or 8-digit DIN"`
	State string `json:"state,omitempty" jsonschema:"Filter by state"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum results (default 10, max 100)"`
}

type SearchGSTInput struct {
	Query  string `json:"query" jsonschema:"Trade name or 15-character GSTIN"`
	State  string `json:"state,omitempty" jsonschema:"Filter by state"`
	Status string `json:"status,omitempty" jsonschema:"Filter by registration status, e.g. Active"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum results (default 10, max 100)"`
}

// SearchCompany searches companies by name, or by CIN when the query looks
// like one.
func (t *Toolset) SearchCompany(ctx context.Context, in SearchCompanyInput) core.Result {
	q := newParams().
		int("page", 1).
		int("limit", limitOr(in.Limit, defaultSearchLimit, maxSearchLimit))

	if looksLikeCIN(in.Query) {
		q.Set("CIN", in.Query)
	} else {
		q.Set("company", in.Query)
	}
	q.str("state", in.State).str("city", in.City)

	return t.api.Get(ctx, "/company/company-filter", q.Values)
}

// SearchDirector searches directors by DIN, or by first and last name.
func (t *Toolset) SearchDirector(ctx context.Context, in SearchDirectorInput) core.Result {
	q := newParams().
		int("page", 1).
		int("limit", limitOr(in.Limit, defaultSearchLimit, maxSearchLimit))

	if looksLikeDIN(in.Query) {
		q.Set("DIN", in.Query)
	} else {
		parts := strings.Fields(in.Query)
		switch {
		case len(parts) >= 2:
			q.Set("firstName", parts[0])
			q.Set("lastName", parts[len(parts)-1])
		case len(parts) == 1:
			q.Set("firstName", parts[0])
		}
	}
	q.str("state", in.State)

	return t.api.Get(ctx, "/company/director-filter", q.Values)
}

// SearchGST searches GST registrations by trade name, or by GSTIN when the
// query looks like one.
func (t *Toolset) SearchGST(ctx context.Context, in SearchGSTInput) core.Result {
	q := newParams().
		int("page", 1).
		int("limit", limitOr(in.Limit, defaultSearchLimit, maxSearchLimit))

	if looksLikeGSTIN(in.Query) {
		q.Set("GSTIN", in.Query)
	} else {
		q.Set("TradeName", in.Query)
	}
	q.str("State", in.State).str("Status", in.Status)

	return t.api.Get(ctx, "/gst/gst-filter", q.Values)
}

// looksLikeCIN: 21 characters starting with a letter.
func looksLikeCIN(query string) bool {
	runes := []rune(query)
	return len(runes) == cinLength && unicode.IsLetter(runes[0])
}

// looksLikeDIN: exactly 8 decimal digits.
func looksLikeDIN(query string) bool {
	return len(query) == dinLength && allDigits(query)
}

// looksLikeGSTIN: 15 characters, the first two being the state code digits.
func looksLikeGSTIN(query string) bool {
	runes := []rune(query)
	return len(runes) == gstinLength && allDigits(string(runes[:2]))
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
