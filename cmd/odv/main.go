// Command odv downloads the CDC weekly mortality dataset, draws one radial
// plot per region and writes the cross-region report tables.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/observed-deaths-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/observed-deaths-etl/internal/adapter/kafka"
	"github.com/couchcryptid/observed-deaths-etl/internal/config"
	"github.com/couchcryptid/observed-deaths-etl/internal/domain"
	"github.com/couchcryptid/observed-deaths-etl/internal/geometry"
	"github.com/couchcryptid/observed-deaths-etl/internal/observability"
	"github.com/couchcryptid/observed-deaths-etl/internal/pipeline"
	"github.com/couchcryptid/observed-deaths-etl/internal/render"
	"github.com/couchcryptid/observed-deaths-etl/internal/source"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	store, err := source.OpenStore(cfg.CachePath)
	if err != nil {
		return err
	}
	defer store.Close()

	client := source.NewClient(cfg.FetchTimeout, metrics, logger)
	fetcher := source.NewCachedFetcher(client, store, cfg.CacheTTL, clock, metrics, logger)

	census, err := source.ReadCensusFile(cfg.CensusPath)
	if err != nil {
		return err
	}
	logger.Info("census loaded", "path", cfg.CensusPath, "regions", len(census))

	aggregator := domain.NewAggregator(domain.AggregatorOptions{
		Aliases:  cfg.Aliases,
		Census:   census,
		Excluded: cfg.ExcludedRegion,
		Clock:    clock,
	})
	engine := geometry.NewEngine(geometry.Options{
		Transform: cfg.RadiusTransform,
		Rings:     cfg.Rings,
		Palette:   cfg.Palette,
		Clock:     clock,
	})
	renderer := render.New(cfg.CanvasSize)

	// Summaries are only published when a broker is configured.
	var loader pipeline.SummaryLoader
	if len(cfg.KafkaBrokers) > 0 {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loader = writer
		logger.Info("summary publishing enabled", "topic", cfg.KafkaSummaryTopic, "brokers", cfg.KafkaBrokers)
	}

	p := pipeline.New(fetcher, aggregator, engine, renderer, loader, logger, metrics, pipeline.Options{
		SourceURL:  cfg.SourceURL,
		OutputDir:  cfg.OutputDir,
		Workers:    cfg.Workers,
		TrimWindow: cfg.TrimWindow,
		Clock:      clock,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	runErr := p.Run(ctx, cfg.RunInterval)

	logger.Info("shutting down")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("pipeline: %w", runErr)
	}
	logger.Info("shutdown complete")
	return nil
}
