package tools

import (
	"context"

	"github.com/finscreener/finscreener-mcp/internal/core"
)

const (
	defaultLookupLimit = 10
	maxLookupLimit     = 50
)

// CodeLookupInput is shared by the NIC, HSN and SAC lookups.
type CodeLookupInput struct {
	Code   string `json:"code,omitempty" jsonschema:"Exact classification code"`
	Search string `json:"search,omitempty" jsonschema:"Keyword to search, e.g. software"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum results (default 10, max 50)"`
}

func (t *Toolset) LookupNICCode(ctx context.Context, in CodeLookupInput) core.Result {
	return t.lookupCode(ctx, "nic", in)
}

func (t *Toolset) LookupHSNCode(ctx context.Context, in CodeLookupInput) core.Result {
	return t.lookupCode(ctx, "hsn", in)
}

func (t *Toolset) LookupSACCode(ctx context.Context, in CodeLookupInput) core.Result {
	return t.lookupCode(ctx, "sac", in)
}

func (t *Toolset) lookupCode(ctx context.Context, scheme string, in CodeLookupInput) core.Result {
	if in.Code == "" && in.Search == "" {
		return invalid("Provide either 'code' or 'search' parameter.")
	}

	q := newParams().
		int("limit", limitOr(in.Limit, defaultLookupLimit, maxLookupLimit)).
		str("code", in.Code).
		str("search", in.Search)

	return t.api.Get(ctx, "/reference/"+scheme, q.Values)
}
