package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/client/adsapi"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/client/spapi"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/config"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/handler"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/middleware"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/logger"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/ratelimit"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/repository"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Server.LogLevel)

	// 2. Initialize Persistence
	db, err := repository.NewDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Info("Connected to PostgreSQL")

	batchSize := cfg.Database.UpsertBatchSize
	salesRepo := repository.NewPostgresSalesRepo(db, batchSize)
	ordersRepo := repository.NewPostgresOrdersRepo(db, batchSize)
	campaignsRepo := repository.NewPostgresCampaignsRepo(db, batchSize)
	logRepo := repository.NewPostgresLogRepo(db)

	var mirror service.LogSink
	if cfg.Redis.Addr != "" {
		m, err := repository.NewRedisLogMirror(cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, ingestion logs will be Postgres-only", "error", err.Error())
		} else {
			logger.Info("Connected to Redis")
			mirror = m
		}
	}
	runLogs := service.NewRunLogger(logRepo, mirror)

	// 3. Initialize Core Services
	// One outbound bucket per process; with multiple instances the aggregate
	// upstream rate is instances x refill rate.
	bucket := ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)

	spapiClient := spapi.NewClient(cfg.SPAPI)
	adsClient := adsapi.NewClient(cfg.Ads)

	salesIngestor := service.NewSalesIngestor(spapiClient, salesRepo, ordersRepo, runLogs, bucket)
	adsIngestor := service.NewAdsIngestor(adsClient, campaignsRepo, runLogs, bucket)

	// 4. Initialize Handlers
	ingestHandler := handler.NewIngestHandler(salesIngestor, adsIngestor)
	logsHandler := handler.NewLogsHandler(runLogs)

	// 5. Setup Router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.HandleMethodNotAllowed = true

	r.Use(middleware.ErrorHandler())
	r.Use(middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "amazon-seller-dashboard"})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	triggerLimiter := rate.NewLimiter(rate.Limit(cfg.Auth.TriggerQPS), cfg.Auth.TriggerBurst)
	cron := r.Group("/api/cron")
	cron.Use(middleware.CronAuth(cfg.Auth.CronSecret))
	cron.Use(middleware.TriggerRateLimit(triggerLimiter))
	{
		cron.GET("/ingest-sales", ingestHandler.IngestSales)
		cron.POST("/ingest-sales", ingestHandler.IngestSales)
		cron.GET("/ingest-ads", ingestHandler.IngestAds)
		cron.POST("/ingest-ads", ingestHandler.IngestAds)
	}

	api := r.Group("/api")
	api.Use(middleware.CronAuth(cfg.Auth.CronSecret))
	{
		api.GET("/logs", logsHandler.List)
	}

	// 6. Background log retention sweep
	retention := time.Duration(cfg.Database.LogRetentionDays) * 24 * time.Hour
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(6 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if err := logRepo.Cleanup(sweepCtx, retention); err != nil {
					logger.Warn("ingestion log cleanup failed", "error", err.Error())
				}
			}
		}
	}()

	// 7. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("ingestion service started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}
	logger.Info("Server exiting")
}
