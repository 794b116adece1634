package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/specbook/pkg/api"
	"github.com/platinummonkey/specbook/pkg/cache"
	"github.com/platinummonkey/specbook/pkg/catalog"
	"github.com/platinummonkey/specbook/pkg/config"
	"github.com/platinummonkey/specbook/pkg/middleware"
	"github.com/platinummonkey/specbook/pkg/observability"
	"github.com/platinummonkey/specbook/pkg/publish"
	"github.com/platinummonkey/specbook/pkg/storage/sqlstore"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.InfoLevel, os.Stderr).WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout).WithField("service", cfg.Observability.OTelServiceName)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := observability.InitOTel(ctx, cfg.Observability.OTel(), logger)
	if err != nil {
		return err
	}

	var (
		registry *prometheus.Registry
		metrics  *observability.Metrics
	)
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = observability.NewMetrics(registry)
		if providers != nil {
			otelMetrics, err := observability.NewOTelMetrics()
			if err != nil {
				return err
			}
			metrics = metrics.WithOTel(otelMetrics)
		}
	}

	// Storage
	store, err := sqlstore.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	cm := store.ConnectionManager()
	cm.StartHealthCheckRoutine(ctx, 30*time.Second)
	logger.WithField("driver", cfg.Storage.Driver).Info("Storage initialized")

	// Document cache
	docs, err := cache.New(cfg.Cache, logger, metrics)
	if err != nil {
		store.Close()
		return err
	}

	svc := catalog.NewService(cfg.Export, store, docs, logger, metrics)

	health := observability.NewHealthChecker().AddCritical("database", store)
	if tiered, ok := docs.(*cache.Tiered); ok && tiered.Shared() != nil {
		health.AddOptional("redis", tiered.Shared())
	}

	opts := api.Options{
		Logger:       logger,
		Metrics:      metrics,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	}
	if rl := cfg.Server.RateLimit; rl.Enabled {
		if tiered, ok := docs.(*cache.Tiered); ok && tiered.Shared() != nil {
			opts.RateLimiter = middleware.NewDistributedRateLimiter(tiered.Shared().Client(), rl, "")
		} else {
			limiter := middleware.NewRateLimiter(rl)
			limiter.StartCleanup(ctx)
			opts.RateLimiter = limiter
		}
	}
	if cfg.Publish.Bucket != "" {
		objects, err := publish.NewS3Store(ctx, cfg.Publish)
		if err != nil {
			logger.WithError(err).Warn("Publishing disabled: object storage unavailable")
		} else {
			opts.Publisher = publish.NewPublisher(svc, objects, cfg.Publish, logger, metrics)
			health.AddOptional("object_storage", objects)
		}
	}

	var handler http.Handler = api.NewServer(svc, opts)
	if providers != nil {
		handler = otelhttp.NewHandler(handler, "specbook")
	}

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics on a separate port for probes
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, health)
	if registry != nil {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:      healthMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, server, healthServer)
	shutdown.RegisterShutdownFunc("otel", func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, providers, logger)
	})
	shutdown.RegisterShutdownFunc("storage", func(context.Context) error { return store.Close() })
	shutdown.RegisterShutdownFunc("cache", func(context.Context) error { return docs.Close() })
	shutdown.RegisterShutdownFunc("background", func(context.Context) error {
		cancel()
		return nil
	})

	if metrics != nil {
		go reportDBStats(ctx, cm, metrics, logger)
	}

	serverErrors := make(chan error, 2)
	for name, srv := range map[string]*http.Server{"api": server, "health": healthServer} {
		name, srv := name, srv
		go func() {
			defer observability.RecoverPanic(logger, name+" server")
			logger.WithFields(map[string]interface{}{"server": name, "addr": srv.Addr}).Info("Starting HTTP server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrors <- err
			}
		}()
	}

	waitCtx, stopWaiting := context.WithCancel(ctx)
	defer stopWaiting()
	failed := make(chan error, 1)
	go func() {
		select {
		case err := <-serverErrors:
			failed <- err
			stopWaiting()
		case <-waitCtx.Done():
		}
	}()

	if err := shutdown.WaitForShutdown(waitCtx); err != nil {
		return err
	}
	select {
	case err := <-failed:
		return err
	default:
		return nil
	}
}

func reportDBStats(ctx context.Context, cm *sqlstore.ConnectionManager, metrics *observability.Metrics, logger *observability.Logger) {
	defer observability.RecoverPanic(logger, "db stats reporter")

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			metrics.UpdateDBStats(cm.Primary().Stats())
		case <-ctx.Done():
			return
		}
	}
}
