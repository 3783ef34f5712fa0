package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/model"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/apperrors"
	"github.com/shopspring/decimal"
)

type fakeAdsAPI struct {
	campaigns []model.Campaign
	err       error

	lastProfile string
	lastStart   time.Time
	lastEnd     time.Time
}

func (f *fakeAdsAPI) GetCampaignsData(_ context.Context, start, end time.Time, profileID string) ([]model.Campaign, error) {
	f.lastStart, f.lastEnd, f.lastProfile = start, end, profileID
	return f.campaigns, f.err
}

type fakeCampaignStore struct {
	rows map[string]model.Campaign
	err  error
}

func (f *fakeCampaignStore) UpsertCampaigns(_ context.Context, records []model.Campaign) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.rows == nil {
		f.rows = make(map[string]model.Campaign)
	}
	for _, c := range records {
		f.rows[c.CampaignID+"|"+c.ProfileID] = c
	}
	return len(records), nil
}

func sampleCampaigns() []model.Campaign {
	return []model.Campaign{
		{CampaignID: "100", ProfileID: "p1", CampaignType: "sponsoredProducts",
			Impressions: 1000, Clicks: 50,
			Spend: decimal.NewFromFloat(10), Sales: decimal.NewFromFloat(40)},
		{CampaignID: "200", ProfileID: "p1", CampaignType: "sponsoredBrands",
			Impressions: 500, Clicks: 10,
			Spend: decimal.NewFromFloat(5), Sales: decimal.NewFromFloat(5)},
	}
}

func TestAdsRunAggregatesAndLogs(t *testing.T) {
	api := &fakeAdsAPI{campaigns: sampleCampaigns()}
	store := &fakeCampaignStore{}
	logs := &fakeLogSink{}
	ing := NewAdsIngestor(api, store, NewRunLogger(logs, nil), testBucket())

	summary, err := ing.Run(context.Background(), model.AdsTriggerRequest{
		StartDate: "2024-03-01", EndDate: "2024-03-02",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.RecordsProcessed != 2 {
		t.Fatalf("records = %d, want 2", summary.RecordsProcessed)
	}
	if summary.ProfileID != "p1" {
		t.Fatalf("profile = %q, want p1", summary.ProfileID)
	}
	agg := summary.Summary
	if agg.TotalImpressions != 1500 || agg.TotalClicks != 60 {
		t.Fatalf("unexpected aggregates: %+v", agg)
	}
	if agg.TotalSpend != 15 || agg.TotalSales != 45 {
		t.Fatalf("unexpected money aggregates: %+v", agg)
	}
	if agg.AverageCTR != 0.04 {
		t.Fatalf("ctr = %v, want 0.04", agg.AverageCTR)
	}
	if agg.AverageROAS != 3 {
		t.Fatalf("roas = %v, want 3", agg.AverageROAS)
	}

	got := logs.statuses()
	if len(got) != 2 || got[1] != model.IngestionCompleted {
		t.Fatalf("unexpected log statuses: %v", got)
	}
}

func TestAdsRunFiltersByCampaignType(t *testing.T) {
	api := &fakeAdsAPI{campaigns: sampleCampaigns()}
	store := &fakeCampaignStore{}
	ing := NewAdsIngestor(api, store, NewRunLogger(&fakeLogSink{}, nil), testBucket())

	summary, err := ing.Run(context.Background(), model.AdsTriggerRequest{
		CampaignType: "sponsoredproducts",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RecordsProcessed != 1 {
		t.Fatalf("records = %d, want 1 after filtering", summary.RecordsProcessed)
	}
	if _, ok := store.rows["100|p1"]; !ok {
		t.Fatalf("filtered set should keep campaign 100: %v", store.rows)
	}
}

func TestAdsRunDefaultWindowIsYesterdayToToday(t *testing.T) {
	api := &fakeAdsAPI{}
	ing := NewAdsIngestor(api, &fakeCampaignStore{}, NewRunLogger(&fakeLogSink{}, nil), testBucket())
	now := time.Date(2024, 6, 12, 9, 30, 0, 0, time.UTC)
	ing.now = func() time.Time { return now }

	if _, err := ing.Run(context.Background(), model.AdsTriggerRequest{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if api.lastStart.Format(dateLayout) != "2024-06-11" {
		t.Fatalf("start = %v, want yesterday", api.lastStart)
	}
	if api.lastEnd.Format(dateLayout) != "2024-06-12" {
		t.Fatalf("end = %v, want today", api.lastEnd)
	}
}

func TestAdsRunUpstreamAuthFailure(t *testing.T) {
	api := &fakeAdsAPI{err: apperrors.New(apperrors.ErrUpstreamAuth, "unauthorized", nil)}
	logs := &fakeLogSink{}
	ing := NewAdsIngestor(api, &fakeCampaignStore{}, NewRunLogger(logs, nil), testBucket())

	_, err := ing.Run(context.Background(), model.AdsTriggerRequest{})
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Type != apperrors.ErrUpstreamAuth {
		t.Fatalf("expected UPSTREAM_AUTH_FAILED, got %v", err)
	}
	if got := logs.statuses(); len(got) != 2 || got[1] != model.IngestionFailed {
		t.Fatalf("unexpected log statuses: %v", got)
	}
}

func TestFilterCampaignTypeAllPassesThrough(t *testing.T) {
	in := sampleCampaigns()
	if got := filterCampaignType(in, "All"); len(got) != 2 {
		t.Fatalf("'All' should pass everything, got %d", len(got))
	}
	if got := filterCampaignType(in, ""); len(got) != 2 {
		t.Fatalf("empty type should pass everything, got %d", len(got))
	}
}
