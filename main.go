package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"callops-api/internal/client"
	"callops-api/internal/config"
	"callops-api/internal/export"
	"callops-api/internal/handlers"
	"callops-api/internal/normalizer"
	"callops-api/internal/pseudonym"
	"callops-api/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.Info("Starting CallOps API")

	// Initialize components. The pseudonym cache lives for the whole
	// process so company masking stays stable across ingests.
	callClient := client.NewCallListClient(cfg, logger)
	cache := pseudonym.NewCache()
	norm := normalizer.New(cache)
	store := storage.NewMemoryStore()
	exporter := export.NewExporter(logger)

	handler := handlers.New(cfg, callClient, norm, store, exporter, logger)

	// Setup Gin router
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(handlers.RequestLogger(logger), gin.Recovery())

	// Health endpoints
	router.GET("/healthz", handler.HealthCheck)
	router.GET("/readyz", handler.ReadinessCheck)

	// Ingestion endpoint
	router.POST("/ingest/run", handler.IngestData)

	// Dashboard endpoints
	router.GET("/calls", handler.GetCalls)
	router.GET("/stats", handler.GetStats)
	router.GET("/analytics", handler.GetAnalytics)
	router.GET("/companies", handler.GetCompanies)

	// Export endpoint
	router.GET("/export/calls", handler.ExportCalls)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
