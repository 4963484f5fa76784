package tools

import (
	"context"

	"github.com/finscreener/finscreener-mcp/internal/core"
)

const defaultCRMLimit = 20

// entityTypes are the entity kinds accepted by orders and CRM leads.
// fullcompany bundles a company with its directors and GST registrations.
var entityTypes = []string{"company", "director", "gst", "fullcompany"}

type ListCRMOrdersInput struct {
	Page  int `json:"page,omitempty" jsonschema:"Page number (default 1)"`
	Limit int `json:"limit,omitempty" jsonschema:"Orders per page (default 20, max 100)"`
}

type OrderLeadsInput struct {
	OrderID string `json:"order_id" jsonschema:"ID of a paid order"`
}

type EntityAsLeadInput struct {
	EntityType string `json:"entity_type" jsonschema:"One of company, director, gst or fullcompany"`
	Identifier string `json:"identifier" jsonschema:"CIN, DIN or GSTIN"`
}

type newLeadRequest struct {
	EntityType string `json:"entity_type"`
	Identifier string `json:"identifier"`
}

func (t *Toolset) ListCRMOrders(ctx context.Context, in ListCRMOrdersInput) core.Result {
	q := newParams().
		int("page", pageOr(in.Page)).
		int("limit", limitOr(in.Limit, defaultCRMLimit, 0))

	return t.api.Get(ctx, "/crm/orders", q.Values)
}

// GetOrderLeads returns the items of a paid order in Zoho lead format.
func (t *Toolset) GetOrderLeads(ctx context.Context, in OrderLeadsInput) core.Result {
	return t.api.Get(ctx, "/crm/orders/"+pathID(in.OrderID)+"/leads", nil)
}

// GetEntityAsLead previews a single entity in Zoho lead format.
func (t *Toolset) GetEntityAsLead(ctx context.Context, in EntityAsLeadInput) core.Result {
	if !oneOf(in.EntityType, entityTypes...) {
		return invalid("Invalid entity_type '%s'. Must be one of: %s", in.EntityType, pyList(entityTypes))
	}
	if in.Identifier == "" {
		return invalid("identifier is required (CIN, DIN, or GSTIN)")
	}

	return t.api.Post(ctx, "/crm/newlead", newLeadRequest{EntityType: in.EntityType, Identifier: in.Identifier})
}
