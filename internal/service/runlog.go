package service

import (
	"context"
	"time"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/model"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/logger"
	"github.com/google/uuid"
)

// LogSink is the append-only ingestion audit trail surface.
type LogSink interface {
	Insert(ctx context.Context, entry *model.IngestionLog) error
	ReadRecent(ctx context.Context, limit int) ([]*model.IngestionLog, error)
}

// RunLogger writes run lifecycle entries to the primary sink and, when
// configured, mirrors them to a secondary one. Writes are fire-and-forget: a
// failed audit write is logged and swallowed so it can never mask the error
// that actually failed the run.
type RunLogger struct {
	primary LogSink
	mirror  LogSink
	now     func() time.Time
}

func NewRunLogger(primary, mirror LogSink) *RunLogger {
	return &RunLogger{primary: primary, mirror: mirror, now: time.Now}
}

// Append records one lifecycle entry and returns its id ("" when nothing
// could be written).
func (l *RunLogger) Append(ctx context.Context, runID string, typ model.IngestionType, status model.IngestionStatus, details map[string]interface{}) string {
	entry := &model.IngestionLog{
		ID:        uuid.New().String(),
		RunID:     runID,
		Type:      typ,
		Status:    status,
		Details:   details,
		CreatedAt: l.now().UTC(),
	}
	id := entry.ID
	if l.primary != nil {
		if err := l.primary.Insert(ctx, entry); err != nil {
			logger.Warn("failed to write ingestion log entry", "run_id", runID, "status", status, "error", err.Error())
			id = ""
		}
	}
	if l.mirror != nil {
		if err := l.mirror.Insert(ctx, entry); err != nil {
			logger.Debug("ingestion log mirror write failed", "error", err.Error())
		}
	}
	return id
}

// Recent reads the latest entries, preferring the primary sink.
func (l *RunLogger) Recent(ctx context.Context, limit int) ([]*model.IngestionLog, error) {
	if l.primary != nil {
		entries, err := l.primary.ReadRecent(ctx, limit)
		if err == nil {
			return entries, nil
		}
		logger.Warn("primary log read failed, trying mirror", "error", err.Error())
	}
	if l.mirror != nil {
		return l.mirror.ReadRecent(ctx, limit)
	}
	return nil, nil
}
