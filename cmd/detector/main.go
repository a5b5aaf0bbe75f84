package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/azure/ai-content-detector/internal/analysis"
	"github.com/azure/ai-content-detector/internal/api"
	"github.com/azure/ai-content-detector/internal/backend"
	"github.com/azure/ai-content-detector/internal/config"
	"github.com/azure/ai-content-detector/internal/media"
	"github.com/azure/ai-content-detector/internal/monitoring"
	"github.com/azure/ai-content-detector/internal/notifications"
	"github.com/azure/ai-content-detector/internal/scheduler"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.WithField("backend", cfg.Backend).Info("Starting AI Content Detector")

	analysisBackend, err := newBackend(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize analysis backend: %v", err)
	}

	var notificationService notifications.NotificationInterface
	if cfg.NotificationsEnabled() {
		notificationService = notifications.NewService(cfg)
	}

	monitoringService := monitoring.NewService(cfg, notificationService)

	dispatcher := analysis.NewDispatcher(analysisBackend,
		analysis.WithTimeout(cfg.BackendTimeout),
		analysis.WithObserver(monitoringService),
	)

	normalizer := media.NewNormalizer(
		media.WithMaxBytes(cfg.MaxMediaBytes),
		media.WithFetchTimeout(cfg.FetchTimeout),
	)

	schedulerService := scheduler.NewService(cfg, monitoringService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     api.NewServer(dispatcher, normalizer, monitoringService, cfg.AllowedOrigins),
		ReadTimeout: cfg.FetchTimeout + 15*time.Second,
		// a URL analysis may fetch media and then wait for the backend
		WriteTimeout: cfg.FetchTimeout + cfg.BackendTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.BackendTimeout+5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	monitoringService.Wait()

	logrus.Info("Server exited")
}

func newBackend(cfg *config.Config) (backend.Backend, error) {
	var b backend.Backend
	switch cfg.Backend {
	case config.BackendOracle:
		b = backend.NewOracleBackend(cfg.BackendURL, cfg.BackendAPIKey, cfg.BackendModel, cfg.BackendTimeout)
	case config.BackendOpenAI:
		b = backend.NewOpenAIBackend(cfg.BackendURL, cfg.BackendAPIKey, cfg.BackendModel, cfg.BackendTimeout)
	case config.BackendFake:
		logrus.Warn("Using the fake analysis backend; verdicts are canned")
		return backend.NewDemo(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	return backend.NewBreaker(b, uint32(cfg.BreakerFailures), cfg.BreakerCooldown), nil
}
