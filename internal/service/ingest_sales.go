package service

import (
	"context"
	"time"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/client/spapi"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/model"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/apperrors"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/logger"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/metrics"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/ratelimit"
	"github.com/google/uuid"
)

type SalesAPI interface {
	GetSalesData(ctx context.Context, start, end time.Time, g spapi.Granularity) ([]model.DailyMetric, error)
	GetOrdersData(ctx context.Context, start, end time.Time) ([]model.Order, error)
}

type SalesStore interface {
	UpsertMetrics(ctx context.Context, records []model.DailyMetric) (int, error)
}

type OrdersStore interface {
	UpsertOrders(ctx context.Context, records []model.Order) (int, error)
}

// SalesIngestor runs one cron-triggered sales ingestion: gate on the
// outbound rate limiter, fetch, normalize, upsert, audit. Each run moves
// Started -> Completed|Failed and is never retried here; rescheduling is the
// external scheduler's job.
type SalesIngestor struct {
	api         SalesAPI
	salesStore  SalesStore
	ordersStore OrdersStore
	logs        *RunLogger
	bucket      *ratelimit.Bucket
	now         func() time.Time
}

func NewSalesIngestor(api SalesAPI, salesStore SalesStore, ordersStore OrdersStore, logs *RunLogger, bucket *ratelimit.Bucket) *SalesIngestor {
	return &SalesIngestor{
		api:         api,
		salesStore:  salesStore,
		ordersStore: ordersStore,
		logs:        logs,
		bucket:      bucket,
		now:         time.Now,
	}
}

func (s *SalesIngestor) Run(ctx context.Context, req model.SalesTriggerRequest) (*model.SalesRunSummary, error) {
	started := s.now()
	runID := uuid.New().String()

	granularity := spapi.Granularity(req.Granularity)
	if granularity == "" {
		granularity = spapi.GranularityDaily
	}

	start, end := s.resolveRange(req.StartDate, req.EndDate)
	dateRange := model.DateRange{Start: start.Format(dateLayout), End: end.Format(dateLayout)}

	s.logs.Append(ctx, runID, model.IngestionSales, model.IngestionStarted, map[string]interface{}{
		"start_date":  dateRange.Start,
		"end_date":    dateRange.End,
		"granularity": string(granularity),
	})

	if err := s.bucket.Acquire(ctx); err != nil {
		return nil, s.fail(ctx, runID, dateRange, apperrors.Wrap(err))
	}

	records, err := s.api.GetSalesData(ctx, start, end, granularity)
	if err != nil {
		return nil, s.fail(ctx, runID, dateRange, err)
	}

	counts := model.SalesRunCounts{}
	if len(records) == 0 {
		logID := s.complete(ctx, runID, dateRange, counts)
		return s.summary(started, dateRange, counts, logID), nil
	}

	salesCount, err := s.salesStore.UpsertMetrics(ctx, records)
	if err != nil {
		return nil, s.fail(ctx, runID, dateRange, apperrors.New(apperrors.ErrPersistence, "failed to upsert sales metrics", err))
	}
	counts.Sales = salesCount

	// Orders ride along on the same window but never fail the run: the
	// primary sales data is already durable at this point.
	if s.ordersStore != nil {
		counts.Orders = s.ingestOrders(ctx, runID, start, end)
	}

	counts.Total = counts.Sales + counts.Orders
	logID := s.complete(ctx, runID, dateRange, counts)
	return s.summary(started, dateRange, counts, logID), nil
}

func (s *SalesIngestor) ingestOrders(ctx context.Context, runID string, start, end time.Time) int {
	orders, err := s.api.GetOrdersData(ctx, start, end.Add(24*time.Hour-time.Millisecond))
	if err != nil {
		logger.Warn("orders fetch failed, continuing sales run", "run_id", runID, "error", err.Error())
		return 0
	}
	if len(orders) == 0 {
		return 0
	}
	n, err := s.ordersStore.UpsertOrders(ctx, orders)
	if err != nil {
		logger.Warn("orders upsert failed, continuing sales run", "run_id", runID, "error", err.Error())
		return 0
	}
	return n
}

// resolveRange expands templates and validates both dates, falling back to
// yesterday (and logging the anomaly) on malformed input.
func (s *SalesIngestor) resolveRange(startRaw, endRaw string) (time.Time, time.Time) {
	now := s.now()
	start, ok := ResolveDate(startRaw, now)
	if !ok {
		logger.Warn("invalid startDate, falling back to yesterday", "raw", startRaw)
	}
	end, ok := ResolveDate(endRaw, now)
	if !ok {
		logger.Warn("invalid endDate, falling back to yesterday", "raw", endRaw)
	}
	if end.Before(start) {
		logger.Warn("endDate precedes startDate, clamping", "start", start, "end", end)
		end = start
	}
	return start, end
}

func (s *SalesIngestor) complete(ctx context.Context, runID string, dateRange model.DateRange, counts model.SalesRunCounts) string {
	metrics.IngestionRuns.WithLabelValues(string(model.IngestionSales), string(model.IngestionCompleted)).Inc()
	return s.logs.Append(ctx, runID, model.IngestionSales, model.IngestionCompleted, map[string]interface{}{
		"start_date":    dateRange.Start,
		"end_date":      dateRange.End,
		"sales_records": counts.Sales,
		"order_records": counts.Orders,
	})
}

func (s *SalesIngestor) fail(ctx context.Context, runID string, dateRange model.DateRange, err error) error {
	metrics.IngestionRuns.WithLabelValues(string(model.IngestionSales), string(model.IngestionFailed)).Inc()
	s.logs.Append(ctx, runID, model.IngestionSales, model.IngestionFailed, map[string]interface{}{
		"start_date": dateRange.Start,
		"end_date":   dateRange.End,
		"error":      err.Error(),
	})
	return err
}

func (s *SalesIngestor) summary(started time.Time, dateRange model.DateRange, counts model.SalesRunCounts, logID string) *model.SalesRunSummary {
	return &model.SalesRunSummary{
		Success:          true,
		RecordsProcessed: counts,
		DateRange:        dateRange,
		DurationMs:       s.now().Sub(started).Milliseconds(),
		LogID:            logID,
	}
}
