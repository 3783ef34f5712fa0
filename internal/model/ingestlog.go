package model

import (
	"time"
)

type IngestionType string

const (
	IngestionSales  IngestionType = "sales"
	IngestionOrders IngestionType = "orders"
	IngestionAds    IngestionType = "ads"
)

type IngestionStatus string

const (
	IngestionStarted   IngestionStatus = "started"
	IngestionCompleted IngestionStatus = "completed"
	IngestionFailed    IngestionStatus = "failed"
)

// IngestionLog is one entry in the append-only ingestion audit trail.
// Entries are inserted at the start and at the end of every run and never
// updated afterwards; a run is correlated through its RunID.
type IngestionLog struct {
	ID        string                 `json:"id"`
	RunID     string                 `json:"run_id"`
	Type      IngestionType          `json:"type"`
	Status    IngestionStatus        `json:"status"`
	Details   map[string]interface{} `json:"details"`
	CreatedAt time.Time              `json:"created_at"`
}
