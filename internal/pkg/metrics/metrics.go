package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IngestionRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sellerdash_ingestion_runs_total",
		Help: "Ingestion runs by type and terminal status",
	}, []string{"type", "status"})

	RecordsUpserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sellerdash_records_upserted_total",
		Help: "Rows written through the persistence gateway",
	}, []string{"table"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sellerdash_upstream_latency_seconds",
		Help:    "Upstream API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"api"})

	UpstreamThrottles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sellerdash_upstream_throttles_total",
		Help: "HTTP 429 responses received from upstream APIs",
	}, []string{"api"})

	TriggerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sellerdash_trigger_latency_seconds",
		Help:    "Cron trigger request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
