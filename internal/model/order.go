package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a normalized Amazon order. AmazonOrderID is assigned upstream and
// globally unique, so re-ingesting the same window is an idempotent upsert.
type Order struct {
	AmazonOrderID          string          `json:"amazon_order_id" db:"amazon_order_id"`
	PurchaseDate           time.Time       `json:"purchase_date" db:"purchase_date"`
	LastUpdateDate         time.Time       `json:"last_update_date" db:"last_update_date"`
	OrderStatus            string          `json:"order_status" db:"order_status"`
	FulfillmentChannel     string          `json:"fulfillment_channel" db:"fulfillment_channel"`
	SalesChannel           string          `json:"sales_channel" db:"sales_channel"`
	MarketplaceID          string          `json:"marketplace_id" db:"marketplace_id"`
	OrderTotal             decimal.Decimal `json:"order_total" db:"order_total"`
	Currency               string          `json:"currency" db:"currency"`
	NumberOfItemsShipped   int             `json:"number_of_items_shipped" db:"number_of_items_shipped"`
	NumberOfItemsUnshipped int             `json:"number_of_items_unshipped" db:"number_of_items_unshipped"`
	BuyerEmail             string          `json:"buyer_email,omitempty" db:"buyer_email"`
	BuyerName              string          `json:"buyer_name,omitempty" db:"buyer_name"`
}
