package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exotrack/exotrack-console/internal/config"
	"github.com/exotrack/exotrack-console/internal/infra/observability"
	"github.com/exotrack/exotrack-console/internal/stub"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.StubPort),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Bool("seed_demo_data", cfg.SeedDemoData),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "exotrack-stub")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Store ---
	store := stub.NewStore()
	if cfg.SeedDemoData {
		if err := stub.Seed(store, logger); err != nil {
			logger.Fatal("failed to seed demo data", zap.Error(err))
		}
	}

	issuer := stub.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAccessTTL)

	// --- Router ---
	router := stub.NewRouter(store, issuer, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.StubPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("stub server starting", zap.Int("port", cfg.StubPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
