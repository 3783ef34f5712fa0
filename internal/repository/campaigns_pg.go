package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/model"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/metrics"
	"github.com/jmoiron/sqlx"
)

// PostgresCampaignsRepo upserts campaign records keyed by
// (campaign_id, profile_id).
type PostgresCampaignsRepo struct {
	db        *sqlx.DB
	batchSize int
}

func NewPostgresCampaignsRepo(db *sqlx.DB, batchSize int) *PostgresCampaignsRepo {
	repo := &PostgresCampaignsRepo{db: db, batchSize: batchSize}
	_ = repo.ensureSchema(context.Background())
	return repo
}

func (r *PostgresCampaignsRepo) UpsertCampaigns(ctx context.Context, records []model.Campaign) (int, error) {
	total := 0
	for _, batch := range chunk(records, r.batchSize) {
		placeholders := make([]string, 0, len(batch))
		args := make([]interface{}, 0, len(batch)*14)
		for i, c := range batch {
			base := i * 14
			ph := make([]string, 14)
			for j := range ph {
				ph[j] = fmt.Sprintf("$%d", base+j+1)
			}
			placeholders = append(placeholders, "("+strings.Join(ph, ",")+")")
			args = append(args,
				c.CampaignID, c.ProfileID, c.Name, c.CampaignType, c.State,
				c.Budget, c.BudgetType, c.Impressions, c.Clicks,
				c.Spend, c.Sales, c.DateRangeStart, c.DateRangeEnd, c.LastUpdatedAt)
		}

		query := `
			INSERT INTO ad_campaigns (
				campaign_id, profile_id, name, campaign_type, state,
				budget, budget_type, impressions, clicks,
				spend, sales, date_range_start, date_range_end, last_updated_at
			) VALUES ` + strings.Join(placeholders, ",") + `
			ON CONFLICT (campaign_id, profile_id)
			DO UPDATE SET name = EXCLUDED.name,
			              campaign_type = EXCLUDED.campaign_type,
			              state = EXCLUDED.state,
			              budget = EXCLUDED.budget,
			              budget_type = EXCLUDED.budget_type,
			              impressions = EXCLUDED.impressions,
			              clicks = EXCLUDED.clicks,
			              spend = EXCLUDED.spend,
			              sales = EXCLUDED.sales,
			              date_range_start = EXCLUDED.date_range_start,
			              date_range_end = EXCLUDED.date_range_end,
			              last_updated_at = EXCLUDED.last_updated_at,
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
	metrics.RecordsUpserted.WithLabelValues("ad_campaigns").Add(float64(total))
	return total, nil
}

func (r *PostgresCampaignsRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ad_campaigns (
			campaign_id TEXT NOT NULL,
			profile_id TEXT NOT NULL,
			name TEXT,
			campaign_type TEXT,
			state TEXT,
			budget NUMERIC(14,2) NOT NULL DEFAULT 0,
			budget_type TEXT,
			impressions BIGINT NOT NULL DEFAULT 0,
			clicks BIGINT NOT NULL DEFAULT 0,
			spend NUMERIC(14,2) NOT NULL DEFAULT 0,
			sales NUMERIC(14,2) NOT NULL DEFAULT 0,
			date_range_start TEXT,
			date_range_end TEXT,
			last_updated_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (campaign_id, profile_id)
		)
	`)
	return err
}
