package tools

import (
	"context"
	"net/url"

	"github.com/finscreener/finscreener-mcp/internal/core"
)

type CompanyDetailsInput struct {
	CIN string `json:"cin" jsonschema:"Corporate Identification Number (21 characters)"`
}

type DirectorDetailsInput struct {
	DIN string `json:"din" jsonschema:"Director Identification Number (8 digits)"`
}

type GSTDetailsInput struct {
	GSTIN string `json:"gstin" jsonschema:"GST Identification Number (15 characters)"`
}

// GetCompanyDetails fetches a full company record. Detail endpoints are
// metered against the daily rate limit.
func (t *Toolset) GetCompanyDetails(ctx context.Context, in CompanyDetailsInput) core.Result {
	return t.api.Get(ctx, "/company/details", url.Values{"cin": {in.CIN}})
}

func (t *Toolset) GetDirectorDetails(ctx context.Context, in DirectorDetailsInput) core.Result {
	return t.api.Get(ctx, "/company/director-details", url.Values{"din": {in.DIN}})
}

func (t *Toolset) GetGSTDetails(ctx context.Context, in GSTDetailsInput) core.Result {
	return t.api.Get(ctx, "/gst/details", url.Values{"gstin": {in.GSTIN}})
}
