package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/config"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/model"
	"github.com/redis/go-redis/v9"
)

// RedisLogMirror keeps the most recent ingestion log entries in a capped
// Redis list so the dashboard's "recent runs" view does not hit Postgres.
// It is strictly a mirror: Postgres stays the source of truth and mirror
// failures never fail a run.
type RedisLogMirror struct {
	rdb     *redis.Client
	listKey string
	listMax int64
}

func NewRedisLogMirror(cfg config.RedisConfig) (*RedisLogMirror, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	listKey := cfg.LogListKey
	if listKey == "" {
		listKey = "ingestion_logs"
	}
	listMax := int64(cfg.LogListMax)
	if listMax <= 0 {
		listMax = 10000
	}
	return &RedisLogMirror{rdb: rdb, listKey: listKey, listMax: listMax}, nil
}

func (m *RedisLogMirror) Insert(ctx context.Context, entry *model.IngestionLog) error {
	if entry == nil {
		return nil
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := m.rdb.LPush(ctx, m.listKey, payload).Err(); err != nil {
		return err
	}
	return m.rdb.LTrim(ctx, m.listKey, 0, m.listMax-1).Err()
}

func (m *RedisLogMirror) ReadRecent(ctx context.Context, limit int) ([]*model.IngestionLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	raw, err := m.rdb.LRange(ctx, m.listKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]*model.IngestionLog, 0, len(raw))
	for _, item := range raw {
		var entry model.IngestionLog
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

func (m *RedisLogMirror) Close() error {
	return m.rdb.Close()
}
