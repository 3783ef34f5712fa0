package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/model"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/metrics"
	"github.com/jmoiron/sqlx"
)

// PostgresSalesRepo upserts daily metrics keyed by
// (date, marketplace_id, granularity). The caller is responsible for
// deduplicating the batch first; this layer only resolves conflicts against
// rows already in the table.
type PostgresSalesRepo struct {
	db        *sqlx.DB
	batchSize int
}

func NewPostgresSalesRepo(db *sqlx.DB, batchSize int) *PostgresSalesRepo {
	repo := &PostgresSalesRepo{db: db, batchSize: batchSize}
	_ = repo.ensureSchema(context.Background())
	return repo
}

func (r *PostgresSalesRepo) UpsertMetrics(ctx context.Context, records []model.DailyMetric) (int, error) {
	total := 0
	for _, batch := range chunk(records, r.batchSize) {
		placeholders := make([]string, 0, len(batch))
		args := make([]interface{}, 0, len(batch)*10)
		for i, m := range batch {
			base := i * 10
			placeholders = append(placeholders, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10))
			args = append(args,
				m.Date, m.MarketplaceID, m.Granularity,
				m.UnitsOrdered, m.UnitsShipped,
				m.OrderedProductSales, m.ShippedProductSales, m.Currency,
				m.TotalOrderItems, m.Sessions)
		}

		query := `
			INSERT INTO daily_sales_metrics (
				date, marketplace_id, granularity,
				units_ordered, units_shipped,
				ordered_product_sales, shipped_product_sales, currency,
				total_order_items, sessions
			) VALUES ` + strings.Join(placeholders, ",") + `
			ON CONFLICT (date, marketplace_id, granularity)
			DO UPDATE SET units_ordered = EXCLUDED.units_ordered,
			              units_shipped = EXCLUDED.units_shipped,
			              ordered_product_sales = EXCLUDED.ordered_product_sales,
			              shipped_product_sales = EXCLUDED.shipped_product_sales,
			              currency = EXCLUDED.currency,
			              total_order_items = EXCLUDED.total_order_items,
			              sessions = EXCLUDED.sessions,
			              updated_at = now()
		`
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return total, err
		}
		if n, err := res.RowsAffected(); err == nil {
			total += int(n)
		} else {
			total += len(batch)
		}
	}
	metrics.RecordsUpserted.WithLabelValues("daily_sales_metrics").Add(float64(total))
	return total, nil
}

func (r *PostgresSalesRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS daily_sales_metrics (
			date DATE NOT NULL,
			marketplace_id TEXT NOT NULL,
			granularity TEXT NOT NULL,
			units_ordered INTEGER NOT NULL DEFAULT 0,
			units_shipped INTEGER NOT NULL DEFAULT 0,
			ordered_product_sales NUMERIC(14,2) NOT NULL DEFAULT 0,
			shipped_product_sales NUMERIC(14,2) NOT NULL DEFAULT 0,
			currency TEXT,
			total_order_items INTEGER NOT NULL DEFAULT 0,
			sessions INTEGER NOT NULL DEFAULT 0,
			page_views INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (date, marketplace_id, granularity)
		)
	`)
	return err
}
