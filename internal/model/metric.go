package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyMetric is the canonical per-day sales record persisted to
// daily_sales_metrics. Date is a calendar day in YYYY-MM-DD form; the
// upsert key is (date, marketplace_id, granularity).
type DailyMetric struct {
	Date                string          `json:"date" db:"date"`
	MarketplaceID       string          `json:"marketplace_id" db:"marketplace_id"`
	Granularity         string          `json:"granularity" db:"granularity"`
	UnitsOrdered        int             `json:"units_ordered" db:"units_ordered"`
	UnitsShipped        int             `json:"units_shipped" db:"units_shipped"`
	OrderedProductSales decimal.Decimal `json:"ordered_product_sales" db:"ordered_product_sales"`
	ShippedProductSales decimal.Decimal `json:"shipped_product_sales" db:"shipped_product_sales"`
	Currency            string          `json:"currency" db:"currency"`
	TotalOrderItems     int             `json:"total_order_items" db:"total_order_items"`
	Sessions            int             `json:"sessions" db:"sessions"`
	PageViews           int             `json:"page_views" db:"page_views"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
}

// IsZeroVolume reports whether the record carries no sales signal at all.
// Such rows are dropped before persistence.
func (m DailyMetric) IsZeroVolume() bool {
	return m.UnitsOrdered == 0 && m.TotalOrderItems == 0 && m.OrderedProductSales.IsZero()
}
