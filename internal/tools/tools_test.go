package tools

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finscreener/finscreener-mcp/internal/core"
	"github.com/finscreener/finscreener-mcp/internal/output"
)

func query(t *testing.T, raw string) url.Values {
	t.Helper()
	v, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return v
}

func TestSearchCompanyRouting(t *testing.T) {
	tests := []struct {
		name string
		in   SearchCompanyInput
		want url.Values
	}{
		{
			name: "cin",
			in:   SearchCompanyInput{Query: "U72200MH2009PLC123456"},
			want: url.Values{"page": {"1"}, "limit": {"10"}, "CIN": {"U72200MH2009PLC123456"}},
		},
		{
			name: "name with filters and clamped limit",
			in:   SearchCompanyInput{Query: "Infosys", State: "Karnataka", City: "Bengaluru", Limit: 500},
			want: url.Values{"page": {"1"}, "limit": {"100"}, "company": {"Infosys"}, "state": {"Karnataka"}, "city": {"Bengaluru"}},
		},
		{
			name: "21 characters starting with a digit is a name",
			in:   SearchCompanyInput{Query: "123456789012345678901", Limit: 5},
			want: url.Values{"page": {"1"}, "limit": {"5"}, "company": {"123456789012345678901"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, u := newTestToolset(t, map[string]reply{"GET /api/company/company-filter": jsonOK(`{"data":[]}`)})

			result := ts.SearchCompany(context.Background(), tt.in)

			require.True(t, result.OK())
			reqs := u.seen()
			require.Len(t, reqs, 1)
			assert.Equal(t, tt.want, query(t, reqs[0].Query))
		})
	}
}

func TestSearchDirectorRouting(t *testing.T) {
	tests := []struct {
		query string
		want  url.Values
	}{
		{"01234567", url.Values{"DIN": {"01234567"}}},
		{"Ratan Naval Tata", url.Values{"firstName": {"Ratan"}, "lastName": {"Tata"}}},
		{"  Mukesh  ", url.Values{"firstName": {"Mukesh"}}},
		{"1234567", url.Values{"firstName": {"1234567"}}},
		{"", url.Values{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			ts, u := newTestToolset(t, map[string]reply{"GET /api/company/director-filter": jsonOK(`[]`)})

			ts.SearchDirector(context.Background(), SearchDirectorInput{Query: tt.query, State: "Goa"})

			got := query(t, u.seen()[0].Query)
			tt.want.Set("page", "1")
			tt.want.Set("limit", "10")
			tt.want.Set("state", "Goa")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchGSTRouting(t *testing.T) {
	ts, u := newTestToolset(t, map[string]reply{"GET /api/gst/gst-filter": jsonOK(`[]`)})
	ctx := context.Background()

	ts.SearchGST(ctx, SearchGSTInput{Query: "27AABCU9603R1ZM", Status: "Active"})
	ts.SearchGST(ctx, SearchGSTInput{Query: "Tata Steel", State: "Maharashtra"})

	reqs := u.seen()
	require.Len(t, reqs, 2)
	assert.Equal(t, url.Values{"page": {"1"}, "limit": {"10"}, "GSTIN": {"27AABCU9603R1ZM"}, "Status": {"Active"}}, query(t, reqs[0].Query))
	assert.Equal(t, url.Values{"page": {"1"}, "limit": {"10"}, "TradeName": {"Tata Steel"}, "State": {"Maharashtra"}}, query(t, reqs[1].Query))
}

func TestDetailEndpoints(t *testing.T) {
	ts, u := newTestToolset(t, map[string]reply{
		"GET /api/company/details":          jsonOK(`{"data":{"CIN":"X"}}`),
		"GET /api/company/director-details": jsonOK(`{"data":{"DIN":"1"}}`),
		"GET /api/gst/details":              jsonOK(`{"data":{"GSTIN":"G"}}`),
	})
	ctx := context.Background()

	require.True(t, ts.GetCompanyDetails(ctx, CompanyDetailsInput{CIN: "X"}).OK())
	require.True(t, ts.GetDirectorDetails(ctx, DirectorDetailsInput{DIN: "1"}).OK())
	require.True(t, ts.GetGSTDetails(ctx, GSTDetailsInput{GSTIN: "G"}).OK())

	reqs := u.seen()
	assert.Equal(t, "cin=X", reqs[0].Query)
	assert.Equal(t, "din=1", reqs[1].Query)
	assert.Equal(t, "gstin=G", reqs[2].Query)
}

func TestCreateWatchlist(t *testing.T) {
	ts, u := newTestToolset(t, map[string]reply{"POST /api/watchlist": jsonOK(`{"id":"w1"}`)})

	result := ts.CreateWatchlist(context.Background(), CreateWatchlistInput{
		Name:          "Targets",
		WatchlistType: "company",
		Items: []WatchlistItem{
			{Number: "C1", Identifier: "ignored", Name: "Acme"},
			{Identifier: "C2"},
		},
	})

	require.True(t, result.OK())
	assert.JSONEq(t,
		`{"name":"Targets","watchlist_type":"company","entities":[{"identifier":"C1","name":"Acme"},{"identifier":"C2","name":null}]}`,
		u.seen()[0].Body)
}

func TestCreateWatchlistRejectsType(t *testing.T) {
	ts, u := newTestToolset(t, nil)

	result := ts.CreateWatchlist(context.Background(), CreateWatchlistInput{Name: "x", WatchlistType: "llp"})

	require.Equal(t, core.FailureInvalidInput, result.Failure.Kind)
	assert.Equal(t, "Invalid watchlist type 'llp'. Must be 'company', 'director', or 'gst'.", result.Failure.Message)
	assert.Empty(t, u.seen())
}

func TestWatchlistDetailsAndDelete(t *testing.T) {
	ts, u := newTestToolset(t, map[string]reply{
		"GET /api/watchlist/w 1/entities": jsonOK(`{"data":[]}`),
		"DELETE /api/watchlist/w1":        {status: 204},
	})
	ctx := context.Background()

	require.True(t, ts.GetWatchlistDetails(ctx, WatchlistDetailsInput{WatchlistID: "w 1", SearchQuery: "acme"}).OK())
	require.True(t, ts.DeleteWatchlist(ctx, DeleteWatchlistInput{WatchlistID: "w1"}).OK())

	reqs := u.seen()
	assert.Equal(t, url.Values{"page": {"1"}, "limit": {"10"}, "search_query": {"acme"}}, query(t, reqs[0].Query))
	assert.Equal(t, "DELETE", reqs[1].Method)
}

func TestRunScreener(t *testing.T) {
	ts, u := newTestToolset(t, map[string]reply{"POST /api/screener/search": jsonOK(`{"results":[]}`)})

	result := ts.RunScreener(context.Background(), RunScreenerInput{Query: "City == 'Mumbai'", Type: "company", Limit: 1000})
	require.True(t, result.OK())
	assert.JSONEq(t, `{"query":"City == 'Mumbai'","type":"company","page":1,"limit":100}`, u.seen()[0].Body)

	result = ts.RunScreener(context.Background(), RunScreenerInput{Query: "x", Type: "director"})
	assert.Equal(t, "Invalid type 'director'. Must be 'company' or 'gst'.", result.Failure.Message)
	assert.Len(t, u.seen(), 1)
}

func TestUpdateScreenerMergesSavedFields(t *testing.T) {
	ts, u := newTestToolset(t, map[string]reply{
		"GET /api/screener/screeners/s1": jsonOK(`{"data":{"id":"s1","name":"old","query":"State == 'Goa'","type":"company","description":"saved"}}`),
		"PUT /api/screener/screeners/s1": jsonOK(`{"ok":true}`),
	})

	result := ts.UpdateScreener(context.Background(), UpdateScreenerInput{ScreenerID: "s1", Name: "new"})

	require.True(t, result.OK())
	reqs := u.seen()
	require.Len(t, reqs, 2)
	assert.Equal(t, `{"name":"new","query":"State == 'Goa'","type":"company","description":"saved"}`, reqs[1].Body)
}

func TestUpdateScreenerOmitsEmptyDescription(t *testing.T) {
	ts, u := newTestToolset(t, map[string]reply{
		"GET /api/screener/screeners/s1": jsonOK(`{"name":"old","query":"q","type":"gst","description":""}`),
		"PUT /api/screener/screeners/s1": jsonOK(`{}`),
	})

	ts.UpdateScreener(context.Background(), UpdateScreenerInput{ScreenerID: "s1", Query: "q2"})

	assert.Equal(t, `{"name":"old","query":"q2","type":"gst"}`, u.seen()[1].Body)
}

func TestUpdateScreenerReturnsFetchFailure(t *testing.T) {
	ts, u := newTestToolset(t, nil)

	result := ts.UpdateScreener(context.Background(), UpdateScreenerInput{ScreenerID: "missing", Name: "n"})

	require.Equal(t, core.FailureUpstreamHTTP, result.Failure.Kind)
	assert.Equal(t, "API Error (404): Not Found", result.Failure.Message)
	assert.Len(t, u.seen(), 1)
}

func TestScreenerToWatchlist(t *testing.T) {
	ts, u := newTestToolset(t, map[string]reply{
		"POST /api/screener/search": jsonOK(`{"results":[
			{"DIN":"D1","directorName":"Asha"},
			{"din":"D2","name":"Ravi"},
			{"DIN":"","directorName":"Nobody"},
			{"DIN":"D4"}
		]}`),
		"POST /api/watchlist": jsonOK(`{"id":"w9"}`),
	})

	result := ts.ScreenerToWatchlist(context.Background(), ScreenerToWatchlistInput{
		WatchlistName: "Directors",
		WatchlistType: "director",
		Query:         "State == 'Goa'",
	})

	require.True(t, result.OK())
	reqs := u.seen()
	require.Len(t, reqs, 2)
	assert.JSONEq(t, `{"query":"State == 'Goa'","type":"company","page":1,"limit":100}`, reqs[0].Body)
	assert.JSONEq(t, `{"name":"Directors","watchlist_type":"director","entities":[
		{"identifier":"D1","name":"Asha"},
		{"identifier":"D2","name":"Ravi"},
		{"identifier":"D4","name":"Unknown"}
	]}`, reqs[1].Body)
}

func TestScreenerToWatchlistEmptyOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"no rows", `{"results":[]}`, "No results found for query: q"},
		{"not a list", `{"results":{"count":0}}`, "No results found for query: q"},
		{"no identifiers", `{"data":[{"company":"A"}]}`, "No valid entities found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, u := newTestToolset(t, map[string]reply{"POST /api/screener/search": jsonOK(tt.body)})

			result := ts.ScreenerToWatchlist(context.Background(), ScreenerToWatchlistInput{
				WatchlistName: "w", WatchlistType: "company", Query: "q", Limit: 9999,
			})

			require.NotNil(t, result.Failure)
			assert.Equal(t, tt.message, result.Failure.Message)
			assert.Contains(t, u.seen()[0].Body, `"limit":500`)
			assert.Len(t, u.seen(), 1)
		})
	}
}

func TestScreenerToOrderFromSavedScreener(t *testing.T) {
	ts, u := newTestToolset(t, map[string]reply{
		"GET /api/screener/screeners/s1": jsonOK(`{"data":{"query":"state == 'Goa'","type":"gst"}}`),
		"POST /api/screener/search":      jsonOK(`[{"GSTIN":"G1","TradeName":"Shop"},{"gstin":"G2","LegalName":"Legal"},{"GSTIN":"G3"}]`),
		"POST /api/orders/normal":        jsonOK(`{"order_id":"o1"}`),
	})

	result := ts.ScreenerToOrder(context.Background(), ScreenerToOrderInput{
		OrderName:     "Goa GST",
		PaymentOption: "paylater",
		ScreenerID:    "s1",
		Type:          "company",
		Limit:         2,
	})

	require.True(t, result.OK())
	reqs := u.seen()
	require.Len(t, reqs, 3)
	assert.JSONEq(t, `{"query":"state == 'Goa'","type":"gst","page":1,"limit":2}`, reqs[1].Body)
	assert.Equal(t,
		`{"orderName":"Goa GST","paymentOption":"cashfree","items":[`+
			`{"type":"gst","name":"Shop","number":"G1","price":10.0},`+
			`{"type":"gst","name":"Legal","number":"G2","price":10.0}]}`,
		reqs[2].Body)
}

func TestScreenerToOrderValidation(t *testing.T) {
	tests := []struct {
		name    string
		in      ScreenerToOrderInput
		message string
	}{
		{"payment", ScreenerToOrderInput{PaymentOption: "card", Query: "q", Type: "company"}, "Invalid payment_option 'card'."},
		{"query", ScreenerToOrderInput{PaymentOption: "credits", Type: "company"}, "Either query or screener_id required."},
		{"type", ScreenerToOrderInput{PaymentOption: "credits", Query: "q", Type: "llp"}, "Invalid type 'llp'."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, u := newTestToolset(t, nil)

			result := ts.ScreenerToOrder(context.Background(), tt.in)

			require.Equal(t, core.FailureInvalidInput, result.Failure.Kind)
			assert.Equal(t, tt.message, result.Failure.Message)
			assert.Empty(t, u.seen())
		})
	}
}

func TestCreateOrderPricing(t *testing.T) {
	ts, u := newTestToolset(t, map[string]reply{"POST /api/orders/normal": jsonOK(`{"ok":true}`)})
	custom := 2.5

	result := ts.CreateOrder(context.Background(), CreateOrderInput{
		OrderName:     "Mixed",
		PaymentOption: "credits",
		Items: []OrderItemInput{
			{Type: "fullcompany", Number: "C1", Name: "Acme"},
			{Type: "director", Number: "D1"},
			{Type: "gst", Number: "G1", Price: &custom},
		},
	})

	require.True(t, result.OK())
	assert.Equal(t,
		`{"orderName":"Mixed","paymentOption":"credits","items":[`+
			`{"type":"fullcompany","name":"Acme","number":"C1","price":5.0},`+
			`{"type":"director","name":"D1","number":"D1","price":1.0},`+
			`{"type":"gst","name":"G1","number":"G1","price":2.5}]}`,
		u.seen()[0].Body)
}

func TestCreateOrderValidation(t *testing.T) {
	tests := []struct {
		name    string
		in      CreateOrderInput
		message string
	}{
		{
			name:    "paylater is not accepted directly",
			in:      CreateOrderInput{PaymentOption: "paylater", Items: []OrderItemInput{{Type: "company", Number: "C"}}},
			message: "Invalid payment_option 'paylater'. Must be 'credits' or 'cashfree'.",
		},
		{
			name:    "no items",
			in:      CreateOrderInput{PaymentOption: "credits"},
			message: "At least one item is required to create an order.",
		},
		{
			name:    "bad type",
			in:      CreateOrderInput{PaymentOption: "cashfree", Items: []OrderItemInput{{Type: "company", Number: "C"}, {Type: "llp", Number: "L"}}},
			message: "Item 2 has invalid type 'llp'. Must be one of: ['company', 'director', 'gst', 'fullcompany']",
		},
		{
			name:    "missing number",
			in:      CreateOrderInput{PaymentOption: "credits", Items: []OrderItemInput{{Type: "gst"}}},
			message: "Item 1 is missing 'number' (CIN/DIN/GSTIN).",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, u := newTestToolset(t, nil)

			result := ts.CreateOrder(context.Background(), tt.in)

			require.NotNil(t, result.Failure)
			assert.Equal(t, tt.message, result.Failure.Message)
			assert.Empty(t, u.seen())
		})
	}
}

func TestWatchlistToOrder(t *testing.T) {
	ts, u := newTestToolset(t, map[string]reply{
		"GET /api/watchlist/w1": jsonOK(`{"data":{"name":"Targets","entities":[
			{"identifier":"C1","name":"Acme"},
			{"type":"director","number":"D1"}
		]}}`),
		"POST /api/orders/normal": jsonOK(`{"ok":true}`),
	})

	result := ts.WatchlistToOrder(context.Background(), WatchlistToOrderInput{
		WatchlistID: "w1", OrderName: "From list", PaymentOption: "cashfree",
	})

	require.True(t, result.OK())
	assert.Equal(t,
		`{"orderName":"From list","paymentOption":"cashfree","items":[`+
			`{"type":"company","name":"Acme","number":"C1","price":10.0},`+
			`{"type":"director","name":"D1","number":"D1","price":10.0}]}`,
		u.seen()[1].Body)
}

func TestWatchlistToOrderEmpty(t *testing.T) {
	ts, u := newTestToolset(t, map[string]reply{"GET /api/watchlist/w1": jsonOK(`{"data":{"items":[]}}`)})

	result := ts.WatchlistToOrder(context.Background(), WatchlistToOrderInput{
		WatchlistID: "w1", OrderName: "x", PaymentOption: "credits",
	})

	assert.Equal(t, "Watchlist is empty.", result.Failure.Message)
	assert.Len(t, u.seen(), 1)
}

func TestOrderAndCreditReads(t *testing.T) {
	ts, u := newTestToolset(t, map[string]reply{
		"GET /api/orders":    jsonOK(`{"data":[]}`),
		"GET /api/orders/o1": jsonOK(`{"data":{}}`),
		"GET /api/users/me":  jsonOK(`{"credits":42}`),
	})
	ctx := context.Background()

	ts.ListOrders(ctx, ListOrdersInput{Status: "paid"})
	ts.GetOrderDetails(ctx, OrderIDInput{OrderID: "o1"})
	result := ts.GetUserCredits(ctx, GetUserCreditsInput{})

	require.True(t, result.OK())
	reqs := u.seen()
	assert.Equal(t, url.Values{"page": {"1"}, "limit": {"10"}, "status": {"paid"}}, query(t, reqs[0].Query))
	assert.Equal(t, "/api/orders/o1", reqs[1].Path)
}

func TestCRMTools(t *testing.T) {
	ts, u := newTestToolset(t, map[string]reply{
		"GET /api/crm/orders":          jsonOK(`{"data":[]}`),
		"GET /api/crm/orders/o1/leads": jsonOK(`{"data":[]}`),
		"POST /api/crm/newlead":        jsonOK(`{"lead":{}}`),
	})
	ctx := context.Background()

	ts.ListCRMOrders(ctx, ListCRMOrdersInput{})
	ts.GetOrderLeads(ctx, OrderLeadsInput{OrderID: "o1"})
	require.True(t, ts.GetEntityAsLead(ctx, EntityAsLeadInput{EntityType: "fullcompany", Identifier: "C1"}).OK())

	reqs := u.seen()
	require.Len(t, reqs, 3)
	assert.Equal(t, url.Values{"page": {"1"}, "limit": {"20"}}, query(t, reqs[0].Query))
	assert.JSONEq(t, `{"entity_type":"fullcompany","identifier":"C1"}`, reqs[2].Body)

	result := ts.GetEntityAsLead(ctx, EntityAsLeadInput{EntityType: "person", Identifier: "x"})
	assert.Equal(t, "Invalid entity_type 'person'. Must be one of: ['company', 'director', 'gst', 'fullcompany']", result.Failure.Message)
	result = ts.GetEntityAsLead(ctx, EntityAsLeadInput{EntityType: "gst"})
	assert.Equal(t, "identifier is required (CIN, DIN, or GSTIN)", result.Failure.Message)
	assert.Len(t, u.seen(), 3)
}

func TestLookupCodes(t *testing.T) {
	ts, u := newTestToolset(t, map[string]reply{
		"GET /api/reference/nic": jsonOK(`[]`),
		"GET /api/reference/hsn": jsonOK(`[]`),
		"GET /api/reference/sac": jsonOK(`[]`),
	})
	ctx := context.Background()

	result := ts.LookupNICCode(ctx, CodeLookupInput{})
	assert.Equal(t, "Provide either 'code' or 'search' parameter.", result.Failure.Message)
	assert.Empty(t, u.seen())

	ts.LookupNICCode(ctx, CodeLookupInput{Search: "software", Limit: 80})
	ts.LookupHSNCode(ctx, CodeLookupInput{Code: "5007"})
	ts.LookupSACCode(ctx, CodeLookupInput{Code: "9954", Search: "construction", Limit: 3})

	reqs := u.seen()
	require.Len(t, reqs, 3)
	assert.Equal(t, url.Values{"limit": {"50"}, "search": {"software"}}, query(t, reqs[0].Query))
	assert.Equal(t, "/api/reference/hsn", reqs[1].Path)
	assert.Equal(t, url.Values{"limit": {"3"}, "code": {"9954"}, "search": {"construction"}}, query(t, reqs[2].Query))
}

func TestRender(t *testing.T) {
	jsonTools := NewToolset(nil, Options{})
	markdownTools := NewToolset(nil, Options{Format: output.FormatMarkdown})

	invalidResult := core.Fail(core.FailureInvalidInput, "Watchlist is empty.")
	assert.Equal(t, "{\n  \"error\": \"Watchlist is empty.\"\n}", jsonTools.Render(invalidResult, ""))
	assert.Equal(t, "Error: Watchlist is empty.", markdownTools.Render(invalidResult, ""))

	upstreamFailure := core.FailStatus(core.FailureUpstreamHTTP, 404, "API Error (404): Not Found")
	assert.Equal(t, "{\n  \"success\": false,\n  \"error\": \"API Error (404): Not Found\"\n}", jsonTools.Render(upstreamFailure, ""))

	data, err := core.DecodeJSON([]byte(`{"data":[{"CIN":"X","company":"Acme"}]}`))
	require.NoError(t, err)
	success := core.Success(data)
	assert.Equal(t, "## Companies\n\n1. **CIN**: X | **company**: Acme", markdownTools.Render(success, "Companies"))
	assert.Contains(t, jsonTools.Render(success, "Companies"), `"company": "Acme"`)
}

func TestEntityFromRowFallbacks(t *testing.T) {
	assert.Equal(t, entityRef{number: "C1", name: "Unknown"}, entityFromRow("company", core.Object{{Key: "cin", Value: "C1"}}))
	assert.Equal(t, entityRef{number: "", name: "Unknown"}, entityFromRow("gst", "not an object"))
	assert.Equal(t, entityRef{number: "", name: ""}, entityFromRow("director", core.Object{{Key: "DIN", Value: nil}, {Key: "directorName", Value: nil}}))
}
