package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/client/spapi"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/middleware"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/model"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/apperrors"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/ratelimit"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const testSecret = "sekrit"

type stubSalesAPI struct {
	metrics []model.DailyMetric
	err     error
	calls   int
}

func (s *stubSalesAPI) GetSalesData(_ context.Context, _, _ time.Time, _ spapi.Granularity) ([]model.DailyMetric, error) {
	s.calls++
	return s.metrics, s.err
}

func (s *stubSalesAPI) GetOrdersData(_ context.Context, _, _ time.Time) ([]model.Order, error) {
	return nil, nil
}

type stubAdsAPI struct {
	campaigns []model.Campaign
	err       error
	calls     int
}

func (s *stubAdsAPI) GetCampaignsData(_ context.Context, _, _ time.Time, _ string) ([]model.Campaign, error) {
	s.calls++
	return s.campaigns, s.err
}

type stubMetricStore struct{ writes int }

func (s *stubMetricStore) UpsertMetrics(_ context.Context, records []model.DailyMetric) (int, error) {
	s.writes++
	return len(records), nil
}

type stubOrderStore struct{}

func (s *stubOrderStore) UpsertOrders(_ context.Context, records []model.Order) (int, error) {
	return len(records), nil
}

type stubCampaignStore struct{ writes int }

func (s *stubCampaignStore) UpsertCampaigns(_ context.Context, records []model.Campaign) (int, error) {
	s.writes++
	return len(records), nil
}

type memoryLogSink struct{ entries []*model.IngestionLog }

func (m *memoryLogSink) Insert(_ context.Context, entry *model.IngestionLog) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryLogSink) ReadRecent(_ context.Context, limit int) ([]*model.IngestionLog, error) {
	out := make([]*model.IngestionLog, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

type testEnv struct {
	router     *gin.Engine
	salesAPI   *stubSalesAPI
	adsAPI     *stubAdsAPI
	sales      *stubMetricStore
	campaigns  *stubCampaignStore
	logs       *memoryLogSink
	rateLimits *rate.Limiter
}

// newTestEnv wires the trigger routes exactly the way the server does.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		salesAPI:   &stubSalesAPI{},
		adsAPI:     &stubAdsAPI{},
		sales:      &stubMetricStore{},
		campaigns:  &stubCampaignStore{},
		logs:       &memoryLogSink{},
		rateLimits: rate.NewLimiter(rate.Inf, 1),
	}

	runLogs := service.NewRunLogger(env.logs, nil)
	bucket := ratelimit.New(1000, 1000)
	salesIngestor := service.NewSalesIngestor(env.salesAPI, env.sales, &stubOrderStore{}, runLogs, bucket)
	adsIngestor := service.NewAdsIngestor(env.adsAPI, env.campaigns, runLogs, bucket)

	h := NewIngestHandler(salesIngestor, adsIngestor)
	logsHandler := NewLogsHandler(runLogs)

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.ErrorHandler())

	cron := r.Group("/api/cron")
	cron.Use(middleware.CronAuth(testSecret))
	cron.Use(middleware.TriggerRateLimit(env.rateLimits))
	{
		cron.GET("/ingest-sales", h.IngestSales)
		cron.POST("/ingest-sales", h.IngestSales)
		cron.GET("/ingest-ads", h.IngestAds)
		cron.POST("/ingest-ads", h.IngestAds)
	}

	api := r.Group("/api")
	api.Use(middleware.CronAuth(testSecret))
	api.GET("/logs", logsHandler.List)

	env.router = r
	return env
}

func (e *testEnv) do(method, target, secret, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if secret != "" {
		req.Header.Set(middleware.HeaderCronSecret, secret)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestIngestSalesRejectsBadSecretBeforeAnyWork(t *testing.T) {
	env := newTestEnv(t)

	for _, secret := range []string{"", "wrong"} {
		w := env.do(http.MethodPost, "/api/cron/ingest-sales", secret, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		assert.Equal(t, string(apperrors.ErrAuthFailed), payload["code"])
	}

	assert.Zero(t, env.salesAPI.calls, "rejected calls must not reach the upstream API")
	assert.Zero(t, env.sales.writes, "rejected calls must not touch persistence")
	assert.Empty(t, env.logs.entries, "rejected calls must not be audited as runs")
}

func TestIngestSalesSucceedsWithQueryParams(t *testing.T) {
	env := newTestEnv(t)
	env.salesAPI.metrics = []model.DailyMetric{
		{Date: "2024-01-01", MarketplaceID: "M1", Granularity: "Daily",
			UnitsOrdered: 5, OrderedProductSales: decimal.NewFromInt(50)},
	}

	w := env.do(http.MethodGet, "/api/cron/ingest-sales?startDate=2024-01-01&endDate=2024-01-01", testSecret, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary model.SalesRunSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.True(t, summary.Success)
	assert.Equal(t, 1, summary.RecordsProcessed.Sales)
	assert.Equal(t, "2024-01-01", summary.DateRange.Start)
	assert.NotEmpty(t, summary.LogID)
}

func TestIngestSalesBodyOverridesQuery(t *testing.T) {
	env := newTestEnv(t)
	env.salesAPI.metrics = []model.DailyMetric{
		{Date: "2024-02-01", UnitsOrdered: 1, OrderedProductSales: decimal.NewFromInt(1)},
	}

	w := env.do(http.MethodPost, "/api/cron/ingest-sales?startDate=2024-01-01&endDate=2024-01-01",
		testSecret, `{"startDate":"2024-02-01","endDate":"2024-02-01"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary model.SalesRunSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "2024-02-01", summary.DateRange.Start)
}

func TestIngestSalesMalformedBodyIsValidationError(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/cron/ingest-sales", testSecret, `{"startDate": 42}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, string(apperrors.ErrValidation), payload["code"])
	assert.Zero(t, env.salesAPI.calls)
}

func TestIngestSalesUpstreamThrottleMapsTo429(t *testing.T) {
	env := newTestEnv(t)
	env.salesAPI.err = apperrors.NewRateLimited("sales api throttled", "30", nil)

	w := env.do(http.MethodPost, "/api/cron/ingest-sales", testSecret, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
}

func TestIngestSalesMissingCredentialsMapsTo500(t *testing.T) {
	env := newTestEnv(t)
	env.salesAPI.err = apperrors.NewCredsMissing("SP-API credentials are not configured")

	w := env.do(http.MethodPost, "/api/cron/ingest-sales", testSecret, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, string(apperrors.ErrCredsMissing), payload["code"])
	assert.NotEmpty(t, payload["suggestion"])
}

func TestIngestAdsSucceeds(t *testing.T) {
	env := newTestEnv(t)
	env.adsAPI.campaigns = []model.Campaign{
		{CampaignID: "100", ProfileID: "p1", CampaignType: "sponsoredProducts",
			Impressions: 100, Clicks: 10,
			Spend: decimal.NewFromInt(5), Sales: decimal.NewFromInt(20)},
	}

	w := env.do(http.MethodPost, "/api/cron/ingest-ads", testSecret, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary model.AdsRunSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.RecordsProcessed)
	assert.Equal(t, "p1", summary.ProfileID)
	assert.Equal(t, int64(100), summary.Summary.TotalImpressions)
}

func TestIngestRoutesRejectUnsupportedMethods(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPut, "/api/cron/ingest-sales", testSecret, "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Zero(t, env.salesAPI.calls)
}

func TestTriggerRateLimitReturns429(t *testing.T) {
	env := newTestEnv(t)
	env.rateLimits.SetLimit(0)
	env.rateLimits.SetBurst(0)

	w := env.do(http.MethodPost, "/api/cron/ingest-sales", testSecret, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Zero(t, env.salesAPI.calls)
}

func TestLogsEndpointReturnsRecentEntriesNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	env.salesAPI.metrics = []model.DailyMetric{
		{Date: "2024-01-01", UnitsOrdered: 1, OrderedProductSales: decimal.NewFromInt(1)},
	}
	require.Equal(t, http.StatusOK,
		env.do(http.MethodPost, "/api/cron/ingest-sales", testSecret, "").Code)

	w := env.do(http.MethodGet, "/api/logs?limit=10", testSecret, "")
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Logs  []model.IngestionLog `json:"logs"`
		Count int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Equal(t, 2, payload.Count)
	assert.Equal(t, model.IngestionCompleted, payload.Logs[0].Status)
	assert.Equal(t, model.IngestionStarted, payload.Logs[1].Status)
}

func TestLogsEndpointRejectsBadLimit(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/logs?limit=abc", testSecret, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogsEndpointRequiresSecret(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/logs", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
