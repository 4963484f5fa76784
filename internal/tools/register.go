package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/finscreener/finscreener-mcp/internal/core"
	"github.com/finscreener/finscreener-mcp/internal/metrics"
)

// ServerName is the MCP implementation name announced to clients.
const ServerName = "finscreener"

// NewServer builds an MCP server with every tool and resource registered.
func NewServer(version string, t *Toolset) (*mcp.Server, error) {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil)
	if err := Register(server, t); err != nil {
		return nil, err
	}
	RegisterResources(server)
	return server, nil
}

// Register adds every tool in AllTools to server.
func Register(server *mcp.Server, t *Toolset) error {
	handlers := t.handlers()
	for _, spec := range AllTools {
		bind, ok := handlers[spec.Name]
		if !ok {
			return fmt.Errorf("no handler bound for tool %q", spec.Name)
		}
		bind(server, spec)
	}
	return nil
}

type binder func(server *mcp.Server, spec ToolSpec)

func (t *Toolset) handlers() map[string]binder {
	return map[string]binder{
		"search_company":  bind(t, t.SearchCompany),
		"search_director": bind(t, t.SearchDirector),
		"search_gst":      bind(t, t.SearchGST),

		"get_company_details":  bind(t, t.GetCompanyDetails),
		"get_director_details": bind(t, t.GetDirectorDetails),
		"get_gst_details":      bind(t, t.GetGSTDetails),

		"list_watchlists":       bind(t, t.ListWatchlists),
		"get_watchlist_details": bind(t, t.GetWatchlistDetails),
		"create_watchlist":      bind(t, t.CreateWatchlist),
		"delete_watchlist":      bind(t, t.DeleteWatchlist),

		"run_screener":          bind(t, t.RunScreener),
		"create_screener":       bind(t, t.CreateScreener),
		"list_screeners":        bind(t, t.ListScreeners),
		"get_screener":          bind(t, t.GetScreener),
		"update_screener":       bind(t, t.UpdateScreener),
		"delete_screener":       bind(t, t.DeleteScreener),
		"screener_to_watchlist": bind(t, t.ScreenerToWatchlist),
		"screener_to_order":     bind(t, t.ScreenerToOrder),

		"list_orders":        bind(t, t.ListOrders),
		"get_order_details":  bind(t, t.GetOrderDetails),
		"create_order":       bind(t, t.CreateOrder),
		"watchlist_to_order": bind(t, t.WatchlistToOrder),
		"get_user_credits":   bind(t, t.GetUserCredits),

		"list_crm_orders":    bind(t, t.ListCRMOrders),
		"get_order_leads":    bind(t, t.GetOrderLeads),
		"get_entity_as_lead": bind(t, t.GetEntityAsLead),

		"lookup_nic_code": bind(t, t.LookupNICCode),
		"lookup_hsn_code": bind(t, t.LookupHSNCode),
		"lookup_sac_code": bind(t, t.LookupSACCode),
	}
}

// bind adapts a typed tool method to an MCP handler. The input schema is
// inferred from In.
func bind[In any](t *Toolset, fn func(context.Context, In) core.Result) binder {
	return func(server *mcp.Server, spec ToolSpec) {
		mcp.AddTool(server, spec.Tool(), func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
			result := t.invoke(ctx, spec.Name, func(ctx context.Context) core.Result { return fn(ctx, in) })
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: t.Render(result, spec.Title)}},
				IsError: !result.OK(),
			}, nil, nil
		})
	}
}

// invoke runs one tool call, converting panics into unexpected failures.
func (t *Toolset) invoke(ctx context.Context, name string, call func(context.Context) core.Result) (result core.Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("Tool panicked",
				zap.String("tool", name),
				zap.Any("panic", r),
				zap.Stack("stack"))
			result = core.Fail(core.FailureUnexpected, fmt.Sprintf("Unexpected error: %v", r))
		}

		metrics.RecordToolCall(name, result.OK())
		fields := []zap.Field{zap.String("tool", name), zap.Duration("duration", time.Since(start))}
		if result.Failure != nil {
			fields = append(fields, zap.String("failure", string(result.Failure.Kind)))
		}
		t.logger.Debug("Tool call", fields...)
	}()

	return call(ctx)
}
