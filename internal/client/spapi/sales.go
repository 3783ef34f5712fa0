package spapi

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/model"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/apperrors"
	"github.com/shopspring/decimal"
)

type Granularity string

const (
	GranularityDaily   Granularity = "Daily"
	GranularityHourly  Granularity = "Hourly"
	GranularityWeekly  Granularity = "Weekly"
	GranularityMonthly Granularity = "Monthly"
)

// Dashboard vocabulary -> SP-API vocabulary.
var granularityMap = map[Granularity]string{
	GranularityDaily:   "Day",
	GranularityHourly:  "Hour",
	GranularityWeekly:  "Week",
	GranularityMonthly: "Month",
}

const dateLayout = "2006-01-02"

type money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

type orderMetric struct {
	Interval            string `json:"interval"`
	UnitCount           int    `json:"unitCount"`
	OrderItemCount      int    `json:"orderItemCount"`
	OrderCount          int    `json:"orderCount"`
	TotalSales          *money `json:"totalSales"`
	OrderedProductSales *money `json:"orderedProductSales"`
}

// The upstream has emitted more than one money shape over time; rules are
// tried in priority order and the first present one wins.
var salesAmountRules = []func(m orderMetric) *money{
	func(m orderMetric) *money { return m.TotalSales },
	func(m orderMetric) *money { return m.OrderedProductSales },
}

type orderMetricsResponse struct {
	Payload *[]orderMetric `json:"payload"`
}

// GetSalesData fetches order metrics for [start, end] inclusive and
// normalizes them into one DailyMetric per calendar date. Line items sharing
// a date are summed, and dates whose unit count, order item count and sales
// are all zero are dropped.
func (c *Client) GetSalesData(ctx context.Context, start, end time.Time, g Granularity) ([]model.DailyMetric, error) {
	upstream, ok := granularityMap[g]
	if !ok {
		return nil, apperrors.NewValidation(fmt.Sprintf("unsupported granularity %q", g))
	}

	interval := fmt.Sprintf("%sT00:00:00.000Z--%sT23:59:59.999Z",
		start.UTC().Format(dateLayout), end.UTC().Format(dateLayout))

	var out orderMetricsResponse
	_, err := c.request(ctx, http.MethodGet, "/sales/v1/orderMetrics", map[string]string{
		"marketplaceIds": c.marketplaceID,
		"interval":       interval,
		"granularity":    upstream,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Payload == nil {
		return nil, apperrors.New(apperrors.ErrInvalidUpstream, "order metrics response has no payload array", nil)
	}

	return c.normalizeOrderMetrics(*out.Payload, string(g)), nil
}

func (c *Client) normalizeOrderMetrics(items []orderMetric, granularity string) []model.DailyMetric {
	byDate := make(map[string]*model.DailyMetric)
	for _, item := range items {
		if len(item.Interval) < len(dateLayout) {
			continue
		}
		date := item.Interval[:len(dateLayout)]

		rec, ok := byDate[date]
		if !ok {
			rec = &model.DailyMetric{
				Date:          date,
				MarketplaceID: c.marketplaceID,
				Granularity:   granularity,
			}
			byDate[date] = rec
		}

		rec.UnitsOrdered += item.UnitCount
		rec.TotalOrderItems += item.OrderItemCount
		if amt := extractSalesAmount(item); amt != nil {
			rec.OrderedProductSales = rec.OrderedProductSales.Add(amt.Amount)
			if rec.Currency == "" {
				rec.Currency = amt.CurrencyCode
			}
		}
	}

	records := make([]model.DailyMetric, 0, len(byDate))
	for _, rec := range byDate {
		if rec.IsZeroVolume() {
			continue
		}
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date < records[j].Date })
	return records
}

func extractSalesAmount(item orderMetric) *money {
	for _, rule := range salesAmountRules {
		if m := rule(item); m != nil {
			return m
		}
	}
	return nil
}
