package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/couchcryptid/building-energy-etl/internal/adapter/fixture"
	httpadapter "github.com/couchcryptid/building-energy-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/building-energy-etl/internal/adapter/kafka"
	"github.com/couchcryptid/building-energy-etl/internal/adapter/upstream"
	"github.com/couchcryptid/building-energy-etl/internal/config"
	"github.com/couchcryptid/building-energy-etl/internal/dataset"
	"github.com/couchcryptid/building-energy-etl/internal/observability"
	"github.com/couchcryptid/building-energy-etl/internal/pipeline"
	"github.com/couchcryptid/building-energy-etl/internal/trigger"
	"github.com/couchcryptid/building-energy-etl/internal/view"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	extractor, err := newExtractor(cfg, clock, metrics, logger)
	if err != nil {
		logger.Error("failed to set up source", "error", err)
		os.Exit(1)
	}

	publisher := dataset.NewPublisher(clock, logger, metrics)
	views := httpadapter.Views{
		Chart:     view.NewChart(cfg.ChartTopN),
		Table:     view.NewTable(),
		Map:       view.NewMap(),
		Histogram: view.NewHistogram(0),
	}
	publisher.Subscribe(views.Chart)
	publisher.Subscribe(views.Table)
	publisher.Subscribe(views.Map)
	publisher.Subscribe(views.Histogram)

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher.Subscribe(writer)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	p := pipeline.New(extractor, pipeline.NewTransformer(logger), publisher, logger, metrics,
		pipeline.WithClock(clock),
		pipeline.WithStageDelay(cfg.StageDelay),
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, views, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Initial run so the dashboard has data without a manual trigger.
	wg.Go(func() {
		if _, err := p.Run(ctx, nil); err != nil {
			logger.Error("initial pipeline run failed", "error", err)
		}
	})

	var sched *trigger.Scheduler
	if cfg.RefreshSchedule != "" {
		sched, err = trigger.NewScheduler(cfg.RefreshSchedule, p, logger)
		if err != nil {
			logger.Error("failed to set up refresh schedule", "error", err)
			os.Exit(1)
		}
		sched.Start()
	}

	if cfg.FixtureWatch {
		fw, err := trigger.NewFileWatcher(cfg.FixturePath, p, logger, trigger.WithWatcherClock(clock))
		if err != nil {
			logger.Error("failed to watch fixture", "error", err)
			os.Exit(1)
		}
		wg.Go(func() {
			if err := fw.Run(ctx); err != nil {
				logger.Error("fixture watcher error", "error", err)
			}
		})
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timed out waiting for pipeline run")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func newExtractor(cfg *config.Config, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) (pipeline.Extractor, error) {
	switch {
	case cfg.SourceURL != "":
		logger.Info("using http source", "url", cfg.SourceURL, "timeout", cfg.SourceTimeout)
		return upstream.NewClient(cfg.SourceURL, cfg.SourceTimeout, clock, metrics, logger), nil
	case cfg.FixturePath != "":
		logger.Info("using fixture file", "path", cfg.FixturePath)
		return fixture.NewFileSource(cfg.FixturePath), nil
	default:
		logger.Info("using embedded fixture")
		return fixture.NewEmbedded()
	}
}
