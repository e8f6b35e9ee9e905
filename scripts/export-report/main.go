// export-report scores the supplier table and writes the CSV report to disk, the same file the
// /api/export endpoint serves.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/LunaGrandjean/LVMH-project/pkg/config"
	"github.com/LunaGrandjean/LVMH-project/pkg/llm"
	"github.com/LunaGrandjean/LVMH-project/pkg/report"
	"github.com/LunaGrandjean/LVMH-project/pkg/repositories"
	"github.com/LunaGrandjean/LVMH-project/pkg/services"
)

func main() {
	outDir := flag.String("out", "", "Output directory (default: data.export_dir from config)")
	offline := flag.Bool("offline", false, "Skip enrichment and use the static country table")
	timeout := flag.Duration("timeout", 10*time.Minute, "Overall timeout")
	flag.Parse()

	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, _ := logConfig.Build()
	defer logger.Sync()

	if err := run(logger, *outDir, *offline, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(1)
	}
}

func run(logger *zap.Logger, outDir string, offline bool, timeout time.Duration) error {
	cfg, err := config.Load("export")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if outDir == "" {
		outDir = cfg.Data.ExportDir
	}

	var client llm.LLMClient
	if !offline {
		provider, err := llm.ParseProvider(cfg.Enrichment.Provider)
		if err != nil {
			return err
		}
		client, err = llm.NewClientFromConfig(&llm.Config{
			Provider: provider,
			Endpoint: cfg.Enrichment.BaseURL,
			Model:    cfg.Enrichment.Model,
			APIKey:   cfg.Enrichment.APIKey,
			Timeout:  cfg.Enrichment.Timeout(),
		}, logger)
		if err != nil {
			return fmt.Errorf("create enrichment client: %w", err)
		}
	}

	resolver := services.NewContextResolver(client, nil, services.ContextResolverConfig{
		Temperature:   cfg.Enrichment.Temperature,
		RatePerSecond: cfg.Enrichment.RatePerSecond,
		Concurrency:   cfg.Enrichment.Concurrency,

		BreakerThreshold: cfg.Enrichment.BreakerThreshold,
		BreakerReset:     cfg.Enrichment.BreakerReset(),
		Retry:            cfg.Enrichment.RetryConfig(),
	}, nil, logger)
	portfolio := services.NewPortfolioService(
		repositories.NewSupplierRepository(cfg.Data.SupplierTablePath, logger),
		resolver, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	rows, err := portfolio.ExportRows(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", outDir, err)
	}
	path := filepath.Join(outDir, report.Filename(time.Now()))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := report.WriteSupplierReport(w, rows); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("Wrote %d suppliers to %s\n", len(rows), path)
	return nil
}
