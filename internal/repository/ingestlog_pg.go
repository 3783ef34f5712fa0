package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/model"
	"github.com/jmoiron/sqlx"
)

// PostgresLogRepo is the append-only ingestion audit trail. Entries are
// inserted once and never updated; ON CONFLICT DO NOTHING keeps duplicate
// deliveries harmless.
type PostgresLogRepo struct {
	db *sqlx.DB
}

func NewPostgresLogRepo(db *sqlx.DB) *PostgresLogRepo {
	repo := &PostgresLogRepo{db: db}
	_ = repo.ensureSchema(context.Background())
	return repo
}

func (r *PostgresLogRepo) Insert(ctx context.Context, entry *model.IngestionLog) error {
	if entry == nil {
		return nil
	}
	detailsJSON, _ := json.Marshal(entry.Details)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ingestion_logs (id, run_id, type, status, details, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO NOTHING
	`, entry.ID, entry.RunID, entry.Type, entry.Status, detailsJSON, entry.CreatedAt)
	return err
}

func (r *PostgresLogRepo) ReadRecent(ctx context.Context, limit int) ([]*model.IngestionLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, run_id, type, status, details, created_at
		FROM ingestion_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*model.IngestionLog, 0, limit)
	for rows.Next() {
		var entry model.IngestionLog
		var detailsJSON []byte
		if err := rows.Scan(&entry.ID, &entry.RunID, &entry.Type, &entry.Status, &detailsJSON, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if len(detailsJSON) > 0 {
			_ = json.Unmarshal(detailsJSON, &entry.Details)
		} else {
			entry.Details = map[string]interface{}{}
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

func (r *PostgresLogRepo) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if olderThan <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	_, err := r.db.ExecContext(ctx, `DELETE FROM ingestion_logs WHERE created_at < $1`, cutoff)
	return err
}

func (r *PostgresLogRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ingestion_logs (
			id TEXT PRIMARY KEY,
			run_id TEXT,
			type TEXT,
			status TEXT,
			details JSONB,
			created_at TIMESTAMPTZ
		)
	`)
	if err != nil {
		return err
	}
	_, _ = r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_ingestion_logs_created ON ingestion_logs(created_at DESC)`)
	return nil
}
