package spapi

import (
	"context"
	"net/http"
	"time"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/model"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/apperrors"
	"github.com/shopspring/decimal"
)

type upstreamOrder struct {
	AmazonOrderID          string `json:"AmazonOrderId"`
	PurchaseDate           string `json:"PurchaseDate"`
	LastUpdateDate         string `json:"LastUpdateDate"`
	OrderStatus            string `json:"OrderStatus"`
	FulfillmentChannel     string `json:"FulfillmentChannel"`
	SalesChannel           string `json:"SalesChannel"`
	MarketplaceID          string `json:"MarketplaceId"`
	NumberOfItemsShipped   int    `json:"NumberOfItemsShipped"`
	NumberOfItemsUnshipped int    `json:"NumberOfItemsUnshipped"`
	OrderTotal             *struct {
		Amount       decimal.Decimal `json:"Amount"`
		CurrencyCode string          `json:"CurrencyCode"`
	} `json:"OrderTotal"`
	BuyerInfo *struct {
		BuyerEmail string `json:"BuyerEmail"`
		BuyerName  string `json:"BuyerName"`
	} `json:"BuyerInfo"`
}

type ordersResponse struct {
	Payload *struct {
		Orders []upstreamOrder `json:"Orders"`
	} `json:"payload"`
}

// GetOrdersData lists orders created within [start, end] and normalizes them.
// Orders without an upstream-assigned id are skipped; everything else keys an
// idempotent upsert on AmazonOrderID.
func (c *Client) GetOrdersData(ctx context.Context, start, end time.Time) ([]model.Order, error) {
	var out ordersResponse
	_, err := c.request(ctx, http.MethodGet, "/orders/v0/orders", map[string]string{
		"MarketplaceIds": c.marketplaceID,
		"CreatedAfter":   start.UTC().Format(time.RFC3339),
		"CreatedBefore":  end.UTC().Format(time.RFC3339),
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Payload == nil {
		return nil, apperrors.New(apperrors.ErrInvalidUpstream, "orders response has no payload", nil)
	}

	orders := make([]model.Order, 0, len(out.Payload.Orders))
	for _, o := range out.Payload.Orders {
		if o.AmazonOrderID == "" {
			continue
		}
		rec := model.Order{
			AmazonOrderID:          o.AmazonOrderID,
			PurchaseDate:           parseUpstreamTime(o.PurchaseDate),
			LastUpdateDate:         parseUpstreamTime(o.LastUpdateDate),
			OrderStatus:            o.OrderStatus,
			FulfillmentChannel:     o.FulfillmentChannel,
			SalesChannel:           o.SalesChannel,
			MarketplaceID:          o.MarketplaceID,
			NumberOfItemsShipped:   o.NumberOfItemsShipped,
			NumberOfItemsUnshipped: o.NumberOfItemsUnshipped,
		}
		if o.OrderTotal != nil {
			rec.OrderTotal = o.OrderTotal.Amount
			rec.Currency = o.OrderTotal.CurrencyCode
		}
		if o.BuyerInfo != nil {
			rec.BuyerEmail = o.BuyerInfo.BuyerEmail
			rec.BuyerName = o.BuyerInfo.BuyerName
		}
		orders = append(orders, rec)
	}
	return orders, nil
}

func parseUpstreamTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
