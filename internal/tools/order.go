package tools

import (
	"context"
	"encoding/json"

	"github.com/finscreener/finscreener-mcp/internal/core"
)

const (
	defaultOrderLimit = 10

	// conversionPrice is the per-item price sent when an order is built from
	// screener or watchlist contents.
	conversionPrice = 10.0

	ordersPath      = "/orders"
	normalOrderPath = "/orders/normal"
)

// creditPrices is the default price per order item type.
var creditPrices = map[string]float64{
	"company":     1,
	"director":    1,
	"gst":         1,
	"fullcompany": 5,
}

type ListOrdersInput struct {
	Page   int    `json:"page,omitempty" jsonschema:"Page number (default 1)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Orders per page (default 10)"`
	Status string `json:"status,omitempty" jsonschema:"Filter by order status"`
	Search string `json:"search,omitempty" jsonschema:"Search in order ID or name"`
}

type OrderIDInput struct {
	OrderID string `json:"order_id" jsonschema:"ID of the order"`
}

// OrderItemInput is one requested item. Price defaults by type.
type OrderItemInput struct {
	Type   string   `json:"type" jsonschema:"company, director, gst or fullcompany"`
	Number string   `json:"number" jsonschema:"CIN, DIN or GSTIN"`
	Name   string   `json:"name,omitempty" jsonschema:"Display name (defaults to number)"`
	Price  *float64 `json:"price,omitempty" jsonschema:"Override the credit price"`
}

type CreateOrderInput struct {
	OrderName     string           `json:"order_name" jsonschema:"Name describing the order"`
	PaymentOption string           `json:"payment_option" jsonschema:"credits or cashfree"`
	Items         []OrderItemInput `json:"items" jsonschema:"Items to order"`
}

type WatchlistToOrderInput struct {
	WatchlistID   string `json:"watchlist_id" jsonschema:"ID of the watchlist to convert"`
	OrderName     string `json:"order_name" jsonschema:"Name for the order"`
	PaymentOption string `json:"payment_option" jsonschema:"credits or cashfree"`
}

type GetUserCreditsInput struct{}

type orderItem struct {
	Type   string      `json:"type"`
	Name   string      `json:"name"`
	Number string      `json:"number"`
	Price  json.Number `json:"price"`
}

type orderRequest struct {
	OrderName     string      `json:"orderName"`
	PaymentOption string      `json:"paymentOption"`
	Items         []orderItem `json:"items"`
}

func (t *Toolset) ListOrders(ctx context.Context, in ListOrdersInput) core.Result {
	q := newParams().
		int("page", pageOr(in.Page)).
		int("limit", limitOr(in.Limit, defaultOrderLimit, 0)).
		str("status", in.Status).
		str("search", in.Search)

	return t.api.Get(ctx, ordersPath, q.Values)
}

func (t *Toolset) GetOrderDetails(ctx context.Context, in OrderIDInput) core.Result {
	return t.api.Get(ctx, ordersPath+"/"+pathID(in.OrderID), nil)
}

// CreateOrder validates every item before anything is sent.
func (t *Toolset) CreateOrder(ctx context.Context, in CreateOrderInput) core.Result {
	if !validOrderPayment(in.PaymentOption) {
		return invalidOrderPayment(in.PaymentOption)
	}
	if len(in.Items) == 0 {
		return invalid("At least one item is required to create an order.")
	}

	items := make([]orderItem, 0, len(in.Items))
	for i, item := range in.Items {
		if !oneOf(item.Type, entityTypes...) {
			return invalid("Item %d has invalid type '%s'. Must be one of: %s", i+1, item.Type, pyList(entityTypes))
		}
		if item.Number == "" {
			return invalid("Item %d is missing 'number' (CIN/DIN/GSTIN).", i+1)
		}

		name := item.Name
		if name == "" {
			name = item.Number
		}
		amount := creditPrices[item.Type]
		if item.Price != nil {
			amount = *item.Price
		}

		items = append(items, orderItem{Type: item.Type, Name: name, Number: item.Number, Price: price(amount)})
	}

	return t.placeOrder(ctx, in.OrderName, in.PaymentOption, items)
}

func (t *Toolset) placeOrder(ctx context.Context, name, payment string, items []orderItem) core.Result {
	return t.api.Post(ctx, normalOrderPath, orderRequest{OrderName: name, PaymentOption: payment, Items: items})
}

// WatchlistToOrder orders every entity of a watchlist at the conversion
// price. Entities without a type are ordered as companies.
func (t *Toolset) WatchlistToOrder(ctx context.Context, in WatchlistToOrderInput) core.Result {
	if !validOrderPayment(in.PaymentOption) {
		return invalidOrderPayment(in.PaymentOption)
	}

	fetched := t.api.Get(ctx, "/watchlist/"+pathID(in.WatchlistID), nil)
	if !fetched.OK() {
		return fetched
	}

	var entries []any
	if obj, ok := core.AsObject(core.UnwrapData(fetched.Data)); ok {
		if v, ok := obj.Lookup("items", "entities"); ok {
			entries, _ = core.AsList(v)
		}
	}
	if len(entries) == 0 {
		return invalid("Watchlist is empty.")
	}

	items := make([]OrderItemInput, 0, len(entries))
	for _, entry := range entries {
		obj, _ := core.AsObject(entry)
		number := lookupText(obj, "", "number", "identifier")
		fixed := conversionPrice
		items = append(items, OrderItemInput{
			Type:   lookupText(obj, "company", "type"),
			Name:   lookupText(obj, lookupText(obj, "Unknown", "number"), "name"),
			Number: number,
			Price:  &fixed,
		})
	}

	return t.CreateOrder(ctx, CreateOrderInput{
		OrderName:     in.OrderName,
		PaymentOption: in.PaymentOption,
		Items:         items,
	})
}

func (t *Toolset) GetUserCredits(ctx context.Context, _ GetUserCreditsInput) core.Result {
	return t.api.Get(ctx, "/users/me", nil)
}

func validOrderPayment(option string) bool {
	return oneOf(option, "credits", "cashfree")
}

func invalidOrderPayment(option string) core.Result {
	return invalid("Invalid payment_option '%s'. Must be 'credits' or 'cashfree'.", option)
}
