// Package observability provides structured logging, Prometheus metrics,
// health checks, OpenTelemetry tracing, and graceful shutdown.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("spec_id", id).Info("specification exported")
//
// Request-scoped loggers carry the request id and, when a span is recording,
// the trace and span ids:
//
//	observability.FromContext(ctx).Warn("cache unavailable")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//	metrics.RecordExport(ctx, "json", len(doc), time.Since(start), err)
//
// Recording methods accept a nil *Metrics so callers can run without
// instrumentation.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker().
//		AddCritical("database", store).
//		AddOptional("redis", redisCache)
//	observability.RegisterHealthRoutes(healthMux, checker)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "specbook",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
//	ctx, span := observability.StartSpan(ctx, "catalog.export")
//	defer func() { observability.EndSpan(span, err) }()
package observability
