package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Campaign joins advertising campaign metadata with report metrics for one
// date range. Upsert key is (campaign_id, profile_id).
type Campaign struct {
	CampaignID     string          `json:"campaign_id" db:"campaign_id"`
	ProfileID      string          `json:"profile_id" db:"profile_id"`
	Name           string          `json:"name" db:"name"`
	CampaignType   string          `json:"campaign_type" db:"campaign_type"`
	State          string          `json:"state" db:"state"`
	Budget         decimal.Decimal `json:"budget" db:"budget"`
	BudgetType     string          `json:"budget_type" db:"budget_type"`
	Impressions    int64           `json:"impressions" db:"impressions"`
	Clicks         int64           `json:"clicks" db:"clicks"`
	Spend          decimal.Decimal `json:"spend" db:"spend"`
	Sales          decimal.Decimal `json:"sales" db:"sales"`
	DateRangeStart string          `json:"date_range_start" db:"date_range_start"`
	DateRangeEnd   string          `json:"date_range_end" db:"date_range_end"`
	LastUpdatedAt  time.Time       `json:"last_updated_at" db:"last_updated_at"`
}

// CTR returns clicks/impressions, zero when there were no impressions.
func (c Campaign) CTR() float64 {
	if c.Impressions == 0 {
		return 0
	}
	return float64(c.Clicks) / float64(c.Impressions)
}

// ROAS returns sales/spend, zero when nothing was spent.
func (c Campaign) ROAS() float64 {
	if c.Spend.IsZero() {
		return 0
	}
	roas, _ := c.Sales.Div(c.Spend).Float64()
	return roas
}
