package tools

import "github.com/modelcontextprotocol/go-sdk/mcp"

// ToolSpec defines a tool's metadata for declarative registration. Each spec
// is bound to the Toolset method of the same name in handlers.
type ToolSpec struct {
	// Name is the MCP tool name (e.g., "search_company")
	Name string

	// Description is the tool description shown to the model
	Description string

	// Title is the human-readable title, also used as the markdown heading
	Title string

	// Category groups tools logically (search, detail, watchlist, ...)
	Category string

	// ReadOnly indicates the tool doesn't modify account state
	ReadOnly bool

	// Destructive indicates the tool can delete or overwrite data
	Destructive bool

	// Idempotent indicates repeated calls have the same effect
	Idempotent bool

	// OpenWorld indicates the tool reaches beyond the account's own data
	OpenWorld bool
}

// Tool converts s into an MCP tool definition.
func (s ToolSpec) Tool() *mcp.Tool {
	return &mcp.Tool{
		Name:        s.Name,
		Title:       s.Title,
		Description: s.Description,
		Annotations: &mcp.ToolAnnotations{
			Title:           s.Title,
			ReadOnlyHint:    s.ReadOnly,
			DestructiveHint: ptr(s.Destructive),
			IdempotentHint:  s.Idempotent,
			OpenWorldHint:   ptr(s.OpenWorld),
		},
	}
}

// ptr is a helper to create a pointer to a value.
func ptr[T any](v T) *T {
	return &v
}

// SpecByName returns the ToolSpec registered under name.
func SpecByName(name string) (ToolSpec, bool) {
	for _, spec := range AllTools {
		if spec.Name == name {
			return spec, true
		}
	}
	return ToolSpec{}, false
}

// Categories returns the distinct categories in table order.
func Categories() []string {
	var out []string
	seen := map[string]bool{}
	for _, spec := range AllTools {
		if !seen[spec.Category] {
			seen[spec.Category] = true
			out = append(out, spec.Category)
		}
	}
	return out
}

// AllTools contains every tool exposed by the server.
var AllTools = []ToolSpec{
	// Search
	{
		Name:  "search_company",
		Title: "Company Search",
		Description: "Search for companies by name to get CIN (Corporate Identification Number). " +
			"A 21-character CIN query is matched exactly and is faster. Name search can be slow; " +
			"for industry search use lookup_nic_code then run_screener with NICCode IN [...].",
		Category:   "search",
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:        "search_director",
		Title:       "Director Search",
		Description: "Search for directors by name to get DIN (Director Identification Number). An 8-digit query is treated as a DIN.",
		Category:    "search",
		ReadOnly:    true,
		Idempotent:  true,
		OpenWorld:   true,
	},
	{
		Name:        "search_gst",
		Title:       "GST Search",
		Description: "Search for GST registrations by business trade name to get GSTIN. A 15-character GSTIN query is matched exactly.",
		Category:    "search",
		ReadOnly:    true,
		Idempotent:  true,
		OpenWorld:   true,
	},

	// Detail
	{
		Name:        "get_company_details",
		Title:       "Company Details",
		Description: "Get detailed information about a company using its CIN: incorporation date, capital, status, registered address, directors. Rate limited: 100/day.",
		Category:    "detail",
		ReadOnly:    true,
		Idempotent:  true,
		OpenWorld:   true,
	},
	{
		Name:        "get_director_details",
		Title:       "Director Details",
		Description: "Get detailed information about a director using their DIN: profile, disqualification status and associated companies. Rate limited: 100/day.",
		Category:    "detail",
		ReadOnly:    true,
		Idempotent:  true,
		OpenWorld:   true,
	},
	{
		Name:        "get_gst_details",
		Title:       "GST Details",
		Description: "Get detailed GST registration information using a 15-character GSTIN: status, taxpayer type, registration date, address. Rate limited: 100/day.",
		Category:    "detail",
		ReadOnly:    true,
		Idempotent:  true,
		OpenWorld:   true,
	},

	// Watchlists
	{
		Name:        "list_watchlists",
		Title:       "Watchlists",
		Description: "List all watchlists owned by the current user with id, name, type and item count.",
		Category:    "watchlist",
		ReadOnly:    true,
		Idempotent:  true,
	},
	{
		Name:        "get_watchlist_details",
		Title:       "Watchlist Entities",
		Description: "Get the contents of a specific watchlist, paginated, optionally filtered by entity name or identifier.",
		Category:    "watchlist",
		ReadOnly:    true,
		Idempotent:  true,
	},
	{
		Name:        "create_watchlist",
		Title:       "Create Watchlist",
		Description: "Create a new watchlist to track companies, directors, or GST registrations. Items are optional, each with \"number\" (CIN/DIN/GSTIN) and \"name\".",
		Category:    "watchlist",
	},
	{
		Name:        "delete_watchlist",
		Title:       "Delete Watchlist",
		Description: "Delete a watchlist.",
		Category:    "watchlist",
		Destructive: true,
		Idempotent:  true,
	},

	// Screeners
	{
		Name:  "run_screener",
		Title: "Screener Results",
		Description: "Execute an FQL query to filter companies or GST registrations. Field names are case-sensitive. " +
			"Company fields: City, State, paidUpCapital, NICCode, mainDivision, llpStatus, Listed, dateOfIncorporation. " +
			"GST fields: state (lowercase!), Status, saccd, hsncd, ConstitutionBusiness, BusinessActivities, Turnover. " +
			"Examples: City == 'Mumbai' AND paidUpCapital > 10000000; NICCode IN [62011, 62012] AND City == 'Bangalore'; " +
			"state == 'Gujarat' AND Status == 'Active' (GST). See finscreener://guide/fql.",
		Category:   "screener",
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:        "create_screener",
		Title:       "Create Screener",
		Description: "Save an FQL query as a reusable screener for company or gst entities.",
		Category:    "screener",
	},
	{
		Name:        "list_screeners",
		Title:       "Saved Screeners",
		Description: "List all saved screeners owned by the current user.",
		Category:    "screener",
		ReadOnly:    true,
		Idempotent:  true,
	},
	{
		Name:        "get_screener",
		Title:       "Screener",
		Description: "Get a saved screener by ID.",
		Category:    "screener",
		ReadOnly:    true,
		Idempotent:  true,
	},
	{
		Name:        "update_screener",
		Title:       "Update Screener",
		Description: "Update an existing screener. Fields that are not supplied keep their saved values.",
		Category:    "screener",
		Destructive: true,
		Idempotent:  true,
	},
	{
		Name:        "delete_screener",
		Title:       "Delete Screener",
		Description: "Delete a saved screener.",
		Category:    "screener",
		Destructive: true,
		Idempotent:  true,
	},
	{
		Name:        "screener_to_watchlist",
		Title:       "Screener to Watchlist",
		Description: "Run an FQL query and save the matching companies, directors or GST registrations as a new watchlist.",
		Category:    "screener",
		OpenWorld:   true,
	},
	{
		Name:  "screener_to_order",
		Title: "Screener to Order",
		Description: "Create an order from screener results to purchase detailed data. Provide either query or screener_id; " +
			"use limit to take the top results. payment_option is \"credits\" or \"paylater\".",
		Category:  "screener",
		OpenWorld: true,
	},

	// Orders
	{
		Name:        "list_orders",
		Title:       "Orders",
		Description: "List the user's orders with optional status and search filters.",
		Category:    "order",
		ReadOnly:    true,
		Idempotent:  true,
	},
	{
		Name:        "get_order_details",
		Title:       "Order Details",
		Description: "Get full details for a specific order, including contact data.",
		Category:    "order",
		ReadOnly:    true,
		Idempotent:  true,
	},
	{
		Name:  "create_order",
		Title: "Create Order",
		Description: "Create a new order for contacts or registrations. Item types and credit pricing: company (1), director (1), " +
			"gst (1), fullcompany (5: company + all directors + GST). Each item needs \"type\" and \"number\" (CIN/DIN/GSTIN).",
		Category: "order",
	},
	{
		Name:        "watchlist_to_order",
		Title:       "Watchlist to Order",
		Description: "Create an order from every entity in a watchlist.",
		Category:    "order",
	},
	{
		Name:        "get_user_credits",
		Title:       "Credit Balance",
		Description: "Check the user's credit balance. Call this before creating orders with credits.",
		Category:    "order",
		ReadOnly:    true,
		Idempotent:  true,
	},

	// CRM
	{
		Name:        "list_crm_orders",
		Title:       "CRM Orders",
		Description: "List orders available for CRM integration (Zoho export).",
		Category:    "crm",
		ReadOnly:    true,
		Idempotent:  true,
	},
	{
		Name:  "get_order_leads",
		Title: "Order Leads",
		Description: "Get order items as Zoho-ready leads for CRM import. Company, director and gst items carry 'lead' and 'full_data'; " +
			"fullcompany items are flattened with 'directors' and 'gst' arrays. The order must be paid.",
		Category:   "crm",
		ReadOnly:   true,
		Idempotent: true,
	},
	{
		Name:        "get_entity_as_lead",
		Title:       "Lead Preview",
		Description: "Preview an entity in Zoho-ready lead format before ordering. entity_type is company (CIN), director (DIN), gst (GSTIN) or fullcompany (CIN).",
		Category:    "crm",
		ReadOnly:    true,
		Idempotent:  true,
		OpenWorld:   true,
	},

	// Classification
	{
		Name:        "lookup_nic_code",
		Title:       "NIC Codes",
		Description: "Lookup NIC (National Industrial Classification) codes by exact or partial code, or by keyword. Use the codes with NICCode IN [...] in screener queries.",
		Category:    "classification",
		ReadOnly:    true,
		Idempotent:  true,
	},
	{
		Name:        "lookup_hsn_code",
		Title:       "HSN Codes",
		Description: "Lookup HSN (Harmonized System of Nomenclature) codes for goods. Use the codes with hsncd IN [...] in GST screener queries.",
		Category:    "classification",
		ReadOnly:    true,
		Idempotent:  true,
	},
	{
		Name:        "lookup_sac_code",
		Title:       "SAC Codes",
		Description: "Lookup SAC (Services Accounting Code) codes for services. Use the codes with saccd IN [...] in GST screener queries.",
		Category:    "classification",
		ReadOnly:    true,
		Idempotent:  true,
	},
}
