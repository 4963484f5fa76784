package tools

import (
	"context"

	"github.com/finscreener/finscreener-mcp/internal/core"
)

var watchlistTypes = []string{"company", "director", "gst"}

type ListWatchlistsInput struct{}

type WatchlistDetailsInput struct {
	WatchlistID string `json:"watchlist_id" jsonschema:"ID of the watchlist"`
	Page        int    `json:"page,omitempty" jsonschema:"Page number (default 1)"`
	Limit       int    `json:"limit,omitempty" jsonschema:"Entities per page (default 10)"`
	SearchQuery string `json:"search_query,omitempty" jsonschema:"Filter entities by name or identifier"`
}

// WatchlistItem is an entity supplied when creating a watchlist. Number
// takes precedence over Identifier.
type WatchlistItem struct {
	Number     string `json:"number,omitempty" jsonschema:"CIN, DIN or GSTIN"`
	Identifier string `json:"identifier,omitempty" jsonschema:"Alias for number"`
	Name       string `json:"name,omitempty" jsonschema:"Display name"`
}

type CreateWatchlistInput struct {
	Name          string          `json:"name" jsonschema:"Display name for the watchlist"`
	WatchlistType string          `json:"watchlist_type" jsonschema:"One of company, director or gst"`
	Items         []WatchlistItem `json:"items,omitempty" jsonschema:"Optional initial entities"`
}

type DeleteWatchlistInput struct {
	WatchlistID string `json:"watchlist_id" jsonschema:"ID of the watchlist to delete"`
}

// watchlistEntity is the upstream entity shape. A missing name is sent as
// null.
type watchlistEntity struct {
	Identifier string  `json:"identifier"`
	Name       *string `json:"name"`
}

type createWatchlistRequest struct {
	Name          string            `json:"name"`
	WatchlistType string            `json:"watchlist_type"`
	Entities      []watchlistEntity `json:"entities,omitempty"`
}

func (t *Toolset) ListWatchlists(ctx context.Context, _ ListWatchlistsInput) core.Result {
	return t.api.Get(ctx, "/watchlist", nil)
}

func (t *Toolset) GetWatchlistDetails(ctx context.Context, in WatchlistDetailsInput) core.Result {
	q := newParams().
		int("page", pageOr(in.Page)).
		int("limit", limitOr(in.Limit, defaultSearchLimit, 0)).
		str("search_query", in.SearchQuery)

	return t.api.Get(ctx, "/watchlist/"+pathID(in.WatchlistID)+"/entities", q.Values)
}

// CreateWatchlist creates a watchlist, optionally seeded with entities.
func (t *Toolset) CreateWatchlist(ctx context.Context, in CreateWatchlistInput) core.Result {
	if !oneOf(in.WatchlistType, watchlistTypes...) {
		return invalid("Invalid watchlist type '%s'. Must be 'company', 'director', or 'gst'.", in.WatchlistType)
	}

	req := createWatchlistRequest{Name: in.Name, WatchlistType: in.WatchlistType}
	for _, item := range in.Items {
		entity := watchlistEntity{Identifier: item.Number}
		if entity.Identifier == "" {
			entity.Identifier = item.Identifier
		}
		if item.Name != "" {
			name := item.Name
			entity.Name = &name
		}
		req.Entities = append(req.Entities, entity)
	}

	return t.api.Post(ctx, "/watchlist", req)
}

func (t *Toolset) DeleteWatchlist(ctx context.Context, in DeleteWatchlistInput) core.Result {
	return t.api.Delete(ctx, "/watchlist/"+pathID(in.WatchlistID))
}
