package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kyvra-tech/iss-flyover-tracker/internal/config"
	"github.com/kyvra-tech/iss-flyover-tracker/internal/handlers"
	"github.com/kyvra-tech/iss-flyover-tracker/internal/scheduler"
	"github.com/kyvra-tech/iss-flyover-tracker/internal/services"
	"github.com/kyvra-tech/iss-flyover-tracker/pkg/logger"
	"github.com/kyvra-tech/iss-flyover-tracker/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(cfg.Logger.Level, cfg.Logger.Format)
	appMetrics := metrics.NewMetrics()

	// Initialize services
	flyoverService := services.NewFlyoverServiceFromConfig(cfg.Upstream, appLogger, appMetrics)

	// Initialize scheduler
	var (
		snapshot handlers.SnapshotSource
		status   handlers.StatusSource
	)
	if cfg.Watch.Enabled {
		cronScheduler := scheduler.NewCronScheduler(flyoverService, cfg.Watch.Schedule, appLogger, appMetrics)
		if err := cronScheduler.Start(); err != nil {
			appLogger.WithError(err).Fatal("Failed to start scheduler")
		}
		defer cronScheduler.Stop()

		snapshot = cronScheduler
		status = cronScheduler
	}

	// Initialize HTTP handlers
	flyoverHandler := handlers.NewFlyoverHandler(flyoverService, snapshot, appLogger)
	healthHandler := handlers.NewHealthHandler(status, services.NewUpstreamProbe(cfg.Upstream, appLogger), appLogger, version)

	if cfg.Logger.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(cfg.Server, flyoverHandler, healthHandler, appLogger, appMetrics)

	// Start server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithField("addr", serverAddr).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
