package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/model"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/metrics"
	"github.com/jmoiron/sqlx"
)

// PostgresOrdersRepo upserts orders keyed by the upstream-assigned order id,
// so re-ingesting a window is idempotent.
type PostgresOrdersRepo struct {
	db        *sqlx.DB
	batchSize int
}

func NewPostgresOrdersRepo(db *sqlx.DB, batchSize int) *PostgresOrdersRepo {
	repo := &PostgresOrdersRepo{db: db, batchSize: batchSize}
	_ = repo.ensureSchema(context.Background())
	return repo
}

func (r *PostgresOrdersRepo) UpsertOrders(ctx context.Context, records []model.Order) (int, error) {
	total := 0
	for _, batch := range chunk(records, r.batchSize) {
		placeholders := make([]string, 0, len(batch))
		args := make([]interface{}, 0, len(batch)*13)
		for i, o := range batch {
			base := i * 13
			ph := make([]string, 13)
			for j := range ph {
				ph[j] = fmt.Sprintf("$%d", base+j+1)
			}
			placeholders = append(placeholders, "("+strings.Join(ph, ",")+")")
			args = append(args,
				o.AmazonOrderID, o.PurchaseDate, o.LastUpdateDate,
				o.OrderStatus, o.FulfillmentChannel, o.SalesChannel,
				o.MarketplaceID, o.OrderTotal, o.Currency,
				o.NumberOfItemsShipped, o.NumberOfItemsUnshipped,
				o.BuyerEmail, o.BuyerName)
		}

		query := `
			INSERT INTO orders (
				amazon_order_id, purchase_date, last_update_date,
				order_status, fulfillment_channel, sales_channel,
				marketplace_id, order_total, currency,
				number_of_items_shipped, number_of_items_unshipped,
				buyer_email, buyer_name
			) VALUES ` + strings.Join(placeholders, ",") + `
			ON CONFLICT (amazon_order_id)
			DO UPDATE SET last_update_date = EXCLUDED.last_update_date,
			              order_status = EXCLUDED.order_status,
			              order_total = EXCLUDED.order_total,
			              currency = EXCLUDED.currency,
			              number_of_items_shipped = EXCLUDED.number_of_items_shipped,
			              number_of_items_unshipped = EXCLUDED.number_of_items_unshipped,
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
	metrics.RecordsUpserted.WithLabelValues("orders").Add(float64(total))
	return total, nil
}

func (r *PostgresOrdersRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			amazon_order_id TEXT PRIMARY KEY,
			purchase_date TIMESTAMPTZ,
			last_update_date TIMESTAMPTZ,
			order_status TEXT,
			fulfillment_channel TEXT,
			sales_channel TEXT,
			marketplace_id TEXT,
			order_total NUMERIC(14,2) NOT NULL DEFAULT 0,
			currency TEXT,
			number_of_items_shipped INTEGER NOT NULL DEFAULT 0,
			number_of_items_unshipped INTEGER NOT NULL DEFAULT 0,
			buyer_email TEXT,
			buyer_name TEXT,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return err
	}
	_, _ = r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_orders_purchase_date ON orders(purchase_date DESC)`)
	return nil
}
