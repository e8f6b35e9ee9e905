package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/LunaGrandjean/LVMH-project/pkg/config"
	"github.com/LunaGrandjean/LVMH-project/pkg/handlers"
	"github.com/LunaGrandjean/LVMH-project/pkg/llm"
	"github.com/LunaGrandjean/LVMH-project/pkg/metrics"
	"github.com/LunaGrandjean/LVMH-project/pkg/middleware"
	"github.com/LunaGrandjean/LVMH-project/pkg/repositories"
	"github.com/LunaGrandjean/LVMH-project/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("supplier_table", cfg.Data.SupplierTablePath),
		zap.String("activity_log", cfg.Data.ActivityLogPath),
		zap.Bool("enrichment", cfg.Enrichment.Enabled()),
		zap.String("enrichment_provider", cfg.Enrichment.Provider),
		zap.String("enrichment_model", cfg.Enrichment.Model))

	m := metrics.New(prometheus.DefaultRegisterer)

	provider, err := llm.ParseProvider(cfg.Enrichment.Provider)
	if err != nil {
		logger.Fatal("Invalid enrichment provider", zap.Error(err))
	}
	llmClient, err := llm.NewClientFromConfig(&llm.Config{
		Provider: provider,
		Endpoint: cfg.Enrichment.BaseURL,
		Model:    cfg.Enrichment.Model,
		APIKey:   cfg.Enrichment.APIKey,
		Timeout:  cfg.Enrichment.Timeout(),
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create enrichment client", zap.Error(err))
	}
	if llmClient == nil {
		logger.Info("Enrichment disabled; location context uses the static country table")
	}

	supplierRepo := repositories.NewSupplierRepository(cfg.Data.SupplierTablePath, logger)
	activityRepo := repositories.NewActivityLogRepository(cfg.Data.ActivityLogPath, m, logger)

	// Nothing can be shown without the table.
	suppliers, err := supplierRepo.Load(context.Background())
	if err != nil {
		logger.Fatal("Supplier table unavailable", zap.Error(err))
	}
	logger.Info("Supplier table loaded", zap.Int("suppliers", len(suppliers)))

	resolver := services.NewContextResolver(llmClient, services.NewContextCache(), services.ContextResolverConfig{
		Temperature:   cfg.Enrichment.Temperature,
		RatePerSecond: cfg.Enrichment.RatePerSecond,
		Concurrency:   cfg.Enrichment.Concurrency,

		BreakerThreshold: cfg.Enrichment.BreakerThreshold,
		BreakerReset:     cfg.Enrichment.BreakerReset(),
		Retry:            cfg.Enrichment.RetryConfig(),
	}, m, logger)

	portfolioService := services.NewPortfolioService(supplierRepo, resolver, m, logger)
	dataCollectionService := services.NewDataCollectionService(supplierRepo, activityRepo, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewPortfolioHandler(portfolioService, logger).RegisterRoutes(mux)
	handlers.NewDataCollectionHandler(dataCollectionService, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
		// Enrichment of a cold cache can take several provider round trips.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting supplier risk engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version),
			zap.Bool("tls", cfg.TLSCertPath != ""))
		var err error
		if cfg.TLSCertPath != "" {
			err = server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Env == "local" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
