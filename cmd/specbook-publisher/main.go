package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/specbook/pkg/cache"
	"github.com/platinummonkey/specbook/pkg/catalog"
	"github.com/platinummonkey/specbook/pkg/config"
	"github.com/platinummonkey/specbook/pkg/observability"
	"github.com/platinummonkey/specbook/pkg/publish"
	"github.com/platinummonkey/specbook/pkg/storage/sqlstore"
)

var (
	schedule = flag.String("schedule", "", "Cron schedule for publishing every specification (overrides SPECBOOK_PUBLISH_SCHEDULE)")
	runOnce  = flag.Bool("run-once", false, "Publish once and exit")
	specID   = flag.Int64("spec", 0, "Publish only this specification. Only used with --run-once")
	timeout  = flag.Duration("timeout", 10*time.Minute, "Time limit for one publishing run")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.InfoLevel, os.Stderr).WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}
	if *schedule != "" {
		cfg.Publish.Schedule = *schedule
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout).WithField("service", "specbook-publisher")
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Publisher exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx := context.Background()

	store, err := sqlstore.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// Renders are not shared with the API servers; the cache only spans one run
	svc := catalog.NewService(cfg.Export, store, cache.NewMemory(cfg.Cache.MemoryEntries, cfg.Cache.TTL), logger, nil)

	objects, err := publish.NewS3Store(ctx, cfg.Publish)
	if err != nil {
		return err
	}
	publisher := publish.NewPublisher(svc, objects, cfg.Publish, logger, nil)

	// Run once mode (for testing or backfilling)
	if *runOnce {
		return publishOnce(ctx, publisher, *specID, logger)
	}

	// Scheduled mode
	c := cron.New()
	_, err = c.AddFunc(cfg.Publish.Schedule, func() {
		defer observability.RecoverPanic(logger, "scheduled publish")
		if err := publishOnce(ctx, publisher, 0, logger); err != nil {
			logger.WithError(err).Error("Scheduled publish failed")
		}
	})
	if err != nil {
		return err
	}

	c.Start()
	logger.WithFields(map[string]interface{}{
		"schedule": cfg.Publish.Schedule,
		"bucket":   cfg.Publish.Bucket,
	}).Info("Specbook publisher started")

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutting down gracefully...")

	// Stop the cron scheduler and wait for a running publish
	<-c.Stop().Done()

	logger.Info("Publisher stopped")
	return nil
}

func publishOnce(ctx context.Context, publisher *publish.Publisher, specID int64, logger *observability.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	start := time.Now()
	var (
		results []*publish.Result
		err     error
	)
	if specID > 0 {
		results, err = publisher.Publish(ctx, specID)
	} else {
		results, err = publisher.PublishAll(ctx)
	}

	logger.WithFields(map[string]interface{}{
		"objects":  len(results),
		"duration": time.Since(start).String(),
	}).Info("Publish run finished")
	return err
}
