package service

import (
	"context"
	"strings"
	"time"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/model"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/apperrors"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/logger"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/metrics"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/ratelimit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AdsAPI interface {
	GetCampaignsData(ctx context.Context, start, end time.Time, profileID string) ([]model.Campaign, error)
}

type CampaignsStore interface {
	UpsertCampaigns(ctx context.Context, records []model.Campaign) (int, error)
}

// AdsIngestor is the campaign counterpart of SalesIngestor.
type AdsIngestor struct {
	api    AdsAPI
	store  CampaignsStore
	logs   *RunLogger
	bucket *ratelimit.Bucket
	now    func() time.Time
}

func NewAdsIngestor(api AdsAPI, store CampaignsStore, logs *RunLogger, bucket *ratelimit.Bucket) *AdsIngestor {
	return &AdsIngestor{
		api:    api,
		store:  store,
		logs:   logs,
		bucket: bucket,
		now:    time.Now,
	}
}

func (s *AdsIngestor) Run(ctx context.Context, req model.AdsTriggerRequest) (*model.AdsRunSummary, error) {
	started := s.now()
	runID := uuid.New().String()

	now := s.now()
	start, ok := ResolveDate(req.StartDate, now)
	if !ok {
		logger.Warn("invalid startDate, falling back to yesterday", "raw", req.StartDate)
	}
	var end time.Time
	if req.EndDate == "" {
		// Ads runs default to yesterday..today.
		end = dateOnly(now)
	} else if end, ok = ResolveDate(req.EndDate, now); !ok {
		logger.Warn("invalid endDate, falling back to yesterday", "raw", req.EndDate)
	}
	if end.Before(start) {
		end = start
	}
	dateRange := model.DateRange{Start: start.Format(dateLayout), End: end.Format(dateLayout)}

	s.logs.Append(ctx, runID, model.IngestionAds, model.IngestionStarted, map[string]interface{}{
		"start_date":    dateRange.Start,
		"end_date":      dateRange.End,
		"campaign_type": req.CampaignType,
		"profile_id":    req.ProfileID,
	})

	if err := s.bucket.Acquire(ctx); err != nil {
		return nil, s.fail(ctx, runID, dateRange, apperrors.Wrap(err))
	}

	campaigns, err := s.api.GetCampaignsData(ctx, start, end, req.ProfileID)
	if err != nil {
		return nil, s.fail(ctx, runID, dateRange, err)
	}
	campaigns = filterCampaignType(campaigns, req.CampaignType)

	count := 0
	if len(campaigns) > 0 {
		count, err = s.store.UpsertCampaigns(ctx, campaigns)
		if err != nil {
			return nil, s.fail(ctx, runID, dateRange, apperrors.New(apperrors.ErrPersistence, "failed to upsert campaigns", err))
		}
	}

	aggregates := aggregateCampaigns(campaigns)
	profileID := req.ProfileID
	if len(campaigns) > 0 {
		profileID = campaigns[0].ProfileID
	}

	metrics.IngestionRuns.WithLabelValues(string(model.IngestionAds), string(model.IngestionCompleted)).Inc()
	logID := s.logs.Append(ctx, runID, model.IngestionAds, model.IngestionCompleted, map[string]interface{}{
		"start_date":        dateRange.Start,
		"end_date":          dateRange.End,
		"campaign_records":  count,
		"total_impressions": aggregates.TotalImpressions,
		"total_spend":       aggregates.TotalSpend,
	})

	return &model.AdsRunSummary{
		Success:          true,
		RecordsProcessed: count,
		Summary:          aggregates,
		DateRange:        dateRange,
		ProfileID:        profileID,
		DurationMs:       s.now().Sub(started).Milliseconds(),
		LogID:            logID,
	}, nil
}

func (s *AdsIngestor) fail(ctx context.Context, runID string, dateRange model.DateRange, err error) error {
	metrics.IngestionRuns.WithLabelValues(string(model.IngestionAds), string(model.IngestionFailed)).Inc()
	s.logs.Append(ctx, runID, model.IngestionAds, model.IngestionFailed, map[string]interface{}{
		"start_date": dateRange.Start,
		"end_date":   dateRange.End,
		"error":      err.Error(),
	})
	return err
}

func filterCampaignType(campaigns []model.Campaign, campaignType string) []model.Campaign {
	if campaignType == "" || strings.EqualFold(campaignType, "all") {
		return campaigns
	}
	filtered := campaigns[:0]
	for _, c := range campaigns {
		if strings.EqualFold(c.CampaignType, campaignType) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func aggregateCampaigns(campaigns []model.Campaign) model.AdsAggregates {
	agg := model.AdsAggregates{}
	spend := decimal.Zero
	sales := decimal.Zero
	for _, c := range campaigns {
		agg.TotalImpressions += c.Impressions
		agg.TotalClicks += c.Clicks
		spend = spend.Add(c.Spend)
		sales = sales.Add(c.Sales)
	}
	agg.TotalSpend, _ = spend.Float64()
	agg.TotalSales, _ = sales.Float64()
	if agg.TotalImpressions > 0 {
		agg.AverageCTR = float64(agg.TotalClicks) / float64(agg.TotalImpressions)
	}
	if !spend.IsZero() {
		agg.AverageROAS, _ = sales.Div(spend).Float64()
	}
	return agg
}
