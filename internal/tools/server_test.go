package tools

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, ts *Toolset) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server, err := NewServer("test", ts)
	require.NoError(t, err)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestRegistryMatchesHandlers(t *testing.T) {
	handlers := NewToolset(nil, Options{}).handlers()
	require.Len(t, handlers, len(AllTools))
	for _, spec := range AllTools {
		assert.Contains(t, handlers, spec.Name)
		assert.NotEmpty(t, spec.Description, spec.Name)
		assert.NotEmpty(t, spec.Title, spec.Name)
		assert.False(t, spec.ReadOnly && spec.Destructive, spec.Name)
	}

	spec, ok := SpecByName("delete_watchlist")
	require.True(t, ok)
	assert.True(t, spec.Destructive)
	assert.Equal(t, []string{"search", "detail", "watchlist", "screener", "order", "crm", "classification"}, Categories())
}

func TestServerListsTools(t *testing.T) {
	session := connect(t, NewToolset(nil, Options{}))

	listed, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, listed.Tools, len(AllTools))

	byName := map[string]*mcp.Tool{}
	for _, tool := range listed.Tools {
		byName[tool.Name] = tool
	}
	search := byName["search_company"]
	require.NotNil(t, search)
	require.NotNil(t, search.Annotations)
	assert.True(t, search.Annotations.ReadOnlyHint)
	assert.NotNil(t, search.InputSchema)
}

func TestServerCallToolSuccess(t *testing.T) {
	_, client := newUpstream(t, map[string]reply{
		"GET /api/company/company-filter": jsonOK(`{"data":[{"CIN":"U1","company":"Acme & Sons"}]}`),
	})
	session := connect(t, NewToolset(client, Options{}))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "search_company",
		Arguments: map[string]any{"query": "Acme"},
	})

	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "{\n  \"data\": [\n    {\n      \"CIN\": \"U1\",\n      \"company\": \"Acme & Sons\"\n    }\n  ]\n}", textOf(t, result))
}

func TestServerCallToolValidationFailure(t *testing.T) {
	session := connect(t, NewToolset(nil, Options{}))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "run_screener",
		Arguments: map[string]any{"query": "x", "type": "llp"},
	})

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.JSONEq(t, `{"error":"Invalid type 'llp'. Must be 'company' or 'gst'."}`, textOf(t, result))
}

func TestServerCallToolRateLimitedMarkdown(t *testing.T) {
	_, client := newUpstream(t, map[string]reply{
		"GET /api/company/details": {status: 429, body: `{"detail":{"message":"Daily limit reached","limit":100,"used":100,"resetsAt":"midnight"}}`},
	})
	session := connect(t, NewToolset(client, Options{Format: "markdown"}))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_company_details",
		Arguments: map[string]any{"cin": "U1"},
	})

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t,
		"Error: Rate limit exceeded: Daily limit reached\n\nRate Limit Info:\n- Daily Limit: 100\n- Used Today: 100\n- Resets: midnight",
		textOf(t, result))
}

func TestServerReadsResources(t *testing.T) {
	session := connect(t, NewToolset(nil, Options{}))
	ctx := context.Background()

	fql, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "finscreener://guide/fql"})
	require.NoError(t, err)
	require.Len(t, fql.Contents, 1)
	assert.Contains(t, fql.Contents[0].Text, "# FQL - FinScreener Query Language Guide")
	assert.Equal(t, "text/markdown", fql.Contents[0].MIMEType)

	about, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "finscreener://about"})
	require.NoError(t, err)
	assert.Contains(t, about.Contents[0].Text, "FINSCREENER_API_KEY")

	_, ok := ReadResource("finscreener://missing")
	assert.False(t, ok)
}
