package tools

import (
	"context"

	"github.com/finscreener/finscreener-mcp/internal/core"
	"github.com/finscreener/finscreener-mcp/internal/core/api"
)

const (
	defaultScreenerLimit   = 10
	maxScreenerLimit       = 100
	defaultConversionLimit = 100
	maxConversionLimit     = 500

	screenerSearchPath = "/screener/search"
	screenersPath      = "/screener/screeners"
)

var screenerTypes = []string{"company", "gst"}

type RunScreenerInput struct {
	Query string `json:"query" jsonschema:"FQL query string; field names are case-sensitive"`
	Type  string `json:"type" jsonschema:"company or gst"`
	Page  int    `json:"page,omitempty" jsonschema:"Page number (default 1)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Results per page (default 10, max 100)"`
}

type CreateScreenerInput struct {
	Name        string `json:"name" jsonschema:"Display name for the screener"`
	Query       string `json:"query" jsonschema:"FQL query string to save"`
	Type        string `json:"type" jsonschema:"company or gst"`
	Description string `json:"description,omitempty" jsonschema:"What this screener finds"`
}

type ListScreenersInput struct{}

type ScreenerIDInput struct {
	ScreenerID string `json:"screener_id" jsonschema:"ID of the screener"`
}

type UpdateScreenerInput struct {
	ScreenerID  string `json:"screener_id" jsonschema:"ID of the screener to update"`
	Name        string `json:"name,omitempty" jsonschema:"New name"`
	Query       string `json:"query,omitempty" jsonschema:"New FQL query"`
	Type        string `json:"type,omitempty" jsonschema:"New entity type"`
	Description string `json:"description,omitempty" jsonschema:"New description"`
}

type ScreenerToWatchlistInput struct {
	WatchlistName string `json:"watchlist_name" jsonschema:"Name for the new watchlist"`
	WatchlistType string `json:"watchlist_type" jsonschema:"company, director or gst"`
	Query         string `json:"query" jsonschema:"FQL query to execute"`
	Limit         int    `json:"limit,omitempty" jsonschema:"Maximum entities to add (default 100, max 500)"`
}

type ScreenerToOrderInput struct {
	OrderName     string `json:"order_name" jsonschema:"Name for the order"`
	PaymentOption string `json:"payment_option" jsonschema:"credits, cashfree or paylater"`
	Query         string `json:"query,omitempty" jsonschema:"FQL query to execute when screener_id is not given"`
	ScreenerID    string `json:"screener_id,omitempty" jsonschema:"ID of a saved screener to run"`
	Type          string `json:"type,omitempty" jsonschema:"company, director or gst"`
	Limit         int    `json:"limit,omitempty" jsonschema:"Maximum items to include (default 100)"`
}

type screenerSearchRequest struct {
	Query string `json:"query"`
	Type  string `json:"type"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

type createScreenerRequest struct {
	Name        string `json:"name"`
	Query       string `json:"query"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// RunScreener executes an FQL query. The query text is forwarded verbatim.
func (t *Toolset) RunScreener(ctx context.Context, in RunScreenerInput) core.Result {
	if !oneOf(in.Type, screenerTypes...) {
		return invalid("Invalid type '%s'. Must be 'company' or 'gst'.", in.Type)
	}

	return t.search(ctx, screenerSearchRequest{
		Query: in.Query,
		Type:  in.Type,
		Page:  pageOr(in.Page),
		Limit: limitOr(in.Limit, defaultScreenerLimit, maxScreenerLimit),
	})
}

func (t *Toolset) search(ctx context.Context, req screenerSearchRequest) core.Result {
	return t.api.Post(ctx, screenerSearchPath, req, api.WithTimeout(t.screenerTimeout))
}

func (t *Toolset) CreateScreener(ctx context.Context, in CreateScreenerInput) core.Result {
	if !oneOf(in.Type, screenerTypes...) {
		return invalid("Invalid type '%s'. Must be 'company' or 'gst'.", in.Type)
	}

	return t.api.Post(ctx, screenersPath, createScreenerRequest{
		Name:        in.Name,
		Query:       in.Query,
		Type:        in.Type,
		Description: in.Description,
	})
}

func (t *Toolset) ListScreeners(ctx context.Context, _ ListScreenersInput) core.Result {
	return t.api.Get(ctx, screenersPath, nil)
}

func (t *Toolset) GetScreener(ctx context.Context, in ScreenerIDInput) core.Result {
	return t.api.Get(ctx, screenersPath+"/"+pathID(in.ScreenerID), nil)
}

// UpdateScreener merges the supplied fields over the saved screener and
// writes the whole record back. A failed fetch is returned unchanged.
func (t *Toolset) UpdateScreener(ctx context.Context, in UpdateScreenerInput) core.Result {
	path := screenersPath + "/" + pathID(in.ScreenerID)

	existing := t.api.Get(ctx, path, nil)
	if !existing.OK() {
		return existing
	}
	saved, _ := core.AsObject(core.UnwrapData(existing.Data))

	payload := core.Object{
		{Key: "name", Value: override(in.Name, saved, "name")},
		{Key: "query", Value: override(in.Query, saved, "query")},
		{Key: "type", Value: override(in.Type, saved, "type")},
	}
	if description := override(in.Description, saved, "description"); truthy(description) {
		payload.Set("description", description)
	}

	return t.api.Put(ctx, path, payload)
}

// override returns value when set, else the saved field (possibly nil).
func override(value string, saved core.Object, key string) any {
	if value != "" {
		return value
	}
	v, _ := saved.Get(key)
	return v
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case []any:
		return len(x) > 0
	case core.Object:
		return len(x) > 0
	default:
		return true
	}
}

func (t *Toolset) DeleteScreener(ctx context.Context, in ScreenerIDInput) core.Result {
	return t.api.Delete(ctx, screenersPath+"/"+pathID(in.ScreenerID))
}

// ScreenerToWatchlist runs a query and saves the matching entities as a new
// watchlist. Directors are found through company screening.
func (t *Toolset) ScreenerToWatchlist(ctx context.Context, in ScreenerToWatchlistInput) core.Result {
	if !oneOf(in.WatchlistType, watchlistTypes...) {
		return invalid("Invalid type '%s'.", in.WatchlistType)
	}

	screenerType := "gst"
	if in.WatchlistType == "company" || in.WatchlistType == "director" {
		screenerType = "company"
	}
	limit := limitOr(in.Limit, defaultConversionLimit, maxConversionLimit)

	found := t.search(ctx, screenerSearchRequest{Query: in.Query, Type: screenerType, Page: 1, Limit: limit})
	if !found.OK() {
		return found
	}

	rows, ok := resultRows(found.Data)
	if !ok || len(rows) == 0 {
		return invalid("No results found for query: %s", in.Query)
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	var entities []watchlistEntity
	for _, row := range rows {
		ref := entityFromRow(in.WatchlistType, row)
		if ref.number == "" {
			continue
		}
		name := ref.name
		entities = append(entities, watchlistEntity{Identifier: ref.number, Name: &name})
	}
	if len(entities) == 0 {
		return invalid("No valid entities found.")
	}

	return t.api.Post(ctx, "/watchlist", createWatchlistRequest{
		Name:          in.WatchlistName,
		WatchlistType: in.WatchlistType,
		Entities:      entities,
	})
}

// ScreenerToOrder runs a query, or a saved screener, and orders every row.
func (t *Toolset) ScreenerToOrder(ctx context.Context, in ScreenerToOrderInput) core.Result {
	payment := in.PaymentOption
	if !oneOf(payment, "credits", "cashfree", "paylater") {
		return invalid("Invalid payment_option '%s'.", payment)
	}
	if payment == "paylater" {
		payment = "cashfree"
	}

	query, entityType := in.Query, in.Type
	if in.ScreenerID != "" && query == "" {
		saved := t.GetScreener(ctx, ScreenerIDInput{ScreenerID: in.ScreenerID})
		if !saved.OK() {
			return saved
		}
		obj, isObject := core.AsObject(core.UnwrapData(saved.Data))
		query = lookupText(obj, "", "query")
		if isObject {
			entityType = lookupText(obj, "", "type")
		}
	}

	if query == "" {
		return invalid("Either query or screener_id required.")
	}
	if !oneOf(entityType, watchlistTypes...) {
		return invalid("Invalid type '%s'.", entityType)
	}

	limit := limitOr(in.Limit, defaultConversionLimit, 0)
	found := t.search(ctx, screenerSearchRequest{Query: query, Type: entityType, Page: 1, Limit: limit})
	if !found.OK() {
		return found
	}

	rows, ok := resultRows(found.Data)
	if !ok || len(rows) == 0 {
		return invalid("No results for query: %s", query)
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	items := make([]orderItem, 0, len(rows))
	for _, row := range rows {
		ref := entityFromRow(entityType, row)
		items = append(items, orderItem{
			Type:   entityType,
			Name:   ref.name,
			Number: ref.number,
			Price:  price(conversionPrice),
		})
	}
	if len(items) == 0 {
		return invalid("No valid items for order.")
	}

	return t.placeOrder(ctx, in.OrderName, payment, items)
}

type entityRef struct {
	number string
	name   string
}

// entityFromRow maps a screener row to an identifier and display name using
// the field spellings each entity type is returned with.
func entityFromRow(entityType string, row any) entityRef {
	obj, _ := core.AsObject(row)
	switch entityType {
	case "company":
		return entityRef{
			number: lookupText(obj, "", "CIN", "cin"),
			name:   lookupText(obj, "Unknown", "company", "companyName"),
		}
	case "director":
		return entityRef{
			number: lookupText(obj, "", "DIN", "din"),
			name:   lookupText(obj, "Unknown", "directorName", "name"),
		}
	default:
		return entityRef{
			number: lookupText(obj, "", "GSTIN", "gstin"),
			name:   lookupText(obj, "Unknown", "TradeName", "tradeName", "LegalName"),
		}
	}
}
