package adsapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/model"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/apperrors"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/logger"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type upstreamCampaign struct {
	CampaignID      int64   `json:"campaignId"`
	Name            string  `json:"name"`
	CampaignType    string  `json:"campaignType"`
	State           string  `json:"state"`
	DailyBudget     float64 `json:"dailyBudget"`
	BudgetType      string  `json:"budgetType"`
	LastUpdatedDate int64   `json:"lastUpdatedDate"` // epoch millis
}

type reportMetrics struct {
	CampaignID         int64           `json:"campaignId"`
	Impressions        int64           `json:"impressions"`
	Clicks             int64           `json:"clicks"`
	Cost               decimal.Decimal `json:"cost"`
	AttributedSales14d decimal.Decimal `json:"attributedSales14d"`
}

type reportStatus struct {
	ReportID string `json:"reportId"`
	Status   string `json:"status"`
}

// GetCampaignsData lists campaigns for the profile, generates a metrics
// report for the window, and joins report rows onto campaign metadata by
// campaign id. Campaigns absent from the report keep zero metrics.
func (c *Client) GetCampaignsData(ctx context.Context, start, end time.Time, profileID string) ([]model.Campaign, error) {
	if profileID == "" {
		profileID = c.profileID
	}
	if profileID == "" {
		return nil, apperrors.NewCredsMissing("Ads API profile_id is required")
	}

	var raw []upstreamCampaign
	if err := c.request(ctx, http.MethodGet, "/v2/sp/campaigns?stateFilter=enabled,paused,archived", profileID, nil, &raw); err != nil {
		return nil, err
	}
	raw = dedupeCampaigns(raw)

	rows, err := c.fetchReport(ctx, start, end, profileID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]reportMetrics, len(rows))
	for _, row := range rows {
		byID[row.CampaignID] = row
	}

	startStr := start.UTC().Format(dateLayout)
	endStr := end.UTC().Format(dateLayout)
	campaigns := make([]model.Campaign, 0, len(raw))
	for _, uc := range raw {
		rec := model.Campaign{
			CampaignID:     strconv.FormatInt(uc.CampaignID, 10),
			ProfileID:      profileID,
			Name:           uc.Name,
			CampaignType:   uc.CampaignType,
			State:          uc.State,
			Budget:         decimal.NewFromFloat(uc.DailyBudget),
			BudgetType:     uc.BudgetType,
			DateRangeStart: startStr,
			DateRangeEnd:   endStr,
			LastUpdatedAt:  time.UnixMilli(uc.LastUpdatedDate).UTC(),
		}
		if m, ok := byID[uc.CampaignID]; ok {
			rec.Impressions = m.Impressions
			rec.Clicks = m.Clicks
			rec.Spend = m.Cost
			rec.Sales = m.AttributedSales14d
		}
		campaigns = append(campaigns, rec)
	}
	return campaigns, nil
}

// fetchReport requests a campaign report and polls until it is ready:
// initial delay, then exponential backoff, bounded by pollMax attempts.
func (c *Client) fetchReport(ctx context.Context, start, end time.Time, profileID string) ([]reportMetrics, error) {
	var created reportStatus
	body := map[string]string{
		"startDate": start.UTC().Format("20060102"),
		"endDate":   end.UTC().Format("20060102"),
		"metrics":   "impressions,clicks,cost,attributedSales14d",
	}
	if err := c.request(ctx, http.MethodPost, "/v2/sp/campaigns/report", profileID, body, &created); err != nil {
		return nil, err
	}
	if created.ReportID == "" {
		return nil, apperrors.New(apperrors.ErrInvalidUpstream, "report request returned no reportId", nil)
	}

	delay := c.pollInitial
	for attempt := 1; attempt <= c.pollMax; attempt++ {
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}

		var status reportStatus
		if err := c.request(ctx, http.MethodGet, "/v2/reports/"+created.ReportID, profileID, nil, &status); err != nil {
			return nil, err
		}
		switch status.Status {
		case "SUCCESS":
			var rows []reportMetrics
			if err := c.request(ctx, http.MethodGet, "/v2/reports/"+created.ReportID+"/download", profileID, nil, &rows); err != nil {
				return nil, err
			}
			return rows, nil
		case "FAILURE":
			return nil, apperrors.New(apperrors.ErrUpstream, "campaign report generation failed upstream", nil)
		}

		logger.Debug("campaign report not ready", "report_id", created.ReportID, "attempt", attempt)
		delay *= 2
	}
	return nil, apperrors.New(apperrors.ErrUpstream,
		fmt.Sprintf("campaign report %s not ready after %d attempts", created.ReportID, c.pollMax), nil)
}

// dedupeCampaigns resolves duplicate campaign ids within one batch by
// keeping the row with the latest lastUpdatedDate; on a tie the later list
// entry wins.
func dedupeCampaigns(in []upstreamCampaign) []upstreamCampaign {
	seen := make(map[int64]int, len(in))
	out := make([]upstreamCampaign, 0, len(in))
	for _, uc := range in {
		if idx, ok := seen[uc.CampaignID]; ok {
			if uc.LastUpdatedDate >= out[idx].LastUpdatedDate {
				out[idx] = uc
			}
			continue
		}
		seen[uc.CampaignID] = len(out)
		out = append(out, uc)
	}
	return out
}
