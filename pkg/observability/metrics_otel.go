package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics holds OpenTelemetry metric instruments
type OTelMetrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	httpRequestSize     metric.Int64Histogram
	httpResponseSize    metric.Int64Histogram

	syncTotal     metric.Int64Counter
	syncMutations metric.Int64Counter
	syncDuration  metric.Float64Histogram

	exportTotal    metric.Int64Counter
	exportDuration metric.Float64Histogram
	exportBytes    metric.Int64Histogram

	cacheHitsTotal   metric.Int64Counter
	cacheMissesTotal metric.Int64Counter

	publishTotal    metric.Int64Counter
	publishDuration metric.Float64Histogram
}

type instrument struct {
	name, desc, unit string
}

// NewOTelMetrics creates instruments on the global meter provider
func NewOTelMetrics() (*OTelMetrics, error) {
	meter := otel.Meter("github.com/platinummonkey/specbook")
	m := &OTelMetrics{}

	counters := []struct {
		dst *metric.Int64Counter
		instrument
	}{
		{&m.httpRequestsTotal, instrument{"http.server.requests", "Total number of HTTP requests", "{request}"}},
		{&m.syncTotal, instrument{"specbook.property_sync.total", "Total number of property list reconciliations", "{sync}"}},
		{&m.syncMutations, instrument{"specbook.property_sync.mutations", "Property records written by reconciliation", "{record}"}},
		{&m.exportTotal, instrument{"specbook.export.total", "Total number of swagger exports", "{export}"}},
		{&m.cacheHitsTotal, instrument{"cache.hits.total", "Total number of cache hits", "{hit}"}},
		{&m.cacheMissesTotal, instrument{"cache.misses.total", "Total number of cache misses", "{miss}"}},
		{&m.publishTotal, instrument{"specbook.publish.total", "Total number of published documents", "{document}"}},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
		*c.dst = counter
	}

	durations := []struct {
		dst *metric.Float64Histogram
		instrument
	}{
		{&m.httpRequestDuration, instrument{"http.server.duration", "HTTP request duration in seconds", "s"}},
		{&m.syncDuration, instrument{"specbook.property_sync.duration", "Property reconciliation duration in seconds", "s"}},
		{&m.exportDuration, instrument{"specbook.export.duration", "Swagger export duration in seconds", "s"}},
		{&m.publishDuration, instrument{"specbook.publish.duration", "Publish duration in seconds", "s"}},
	}
	for _, d := range durations {
		hist, err := meter.Float64Histogram(d.name, metric.WithDescription(d.desc), metric.WithUnit(d.unit))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s histogram: %w", d.name, err)
		}
		*d.dst = hist
	}

	sizes := []struct {
		dst *metric.Int64Histogram
		instrument
	}{
		{&m.httpRequestSize, instrument{"http.server.request.size", "HTTP request size in bytes", "By"}},
		{&m.httpResponseSize, instrument{"http.server.response.size", "HTTP response size in bytes", "By"}},
		{&m.exportBytes, instrument{"specbook.export.size", "Rendered swagger document size in bytes", "By"}},
	}
	for _, s := range sizes {
		hist, err := meter.Int64Histogram(s.name, metric.WithDescription(s.desc), metric.WithUnit(s.unit))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s histogram: %w", s.name, err)
		}
		*s.dst = hist
	}

	return m, nil
}

func errorAttr(err error) attribute.KeyValue {
	return attribute.Bool("error", err != nil)
}

// RecordHTTPRequest records an HTTP request metric
func (m *OTelMetrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration, requestSize, responseSize int64) {
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", statusCode),
	)

	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)

	if requestSize > 0 {
		m.httpRequestSize.Record(ctx, requestSize, attrs)
	}
	if responseSize > 0 {
		m.httpResponseSize.Record(ctx, responseSize, attrs)
	}
}

// RecordSync records one property list reconciliation
func (m *OTelMetrics) RecordSync(ctx context.Context, kind string, mutations int, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("property.kind", kind), errorAttr(err))

	m.syncTotal.Add(ctx, 1, attrs)
	m.syncDuration.Record(ctx, duration.Seconds(), attrs)
	if err == nil && mutations > 0 {
		m.syncMutations.Add(ctx, int64(mutations), attrs)
	}
}

// RecordExport records one rendered document
func (m *OTelMetrics) RecordExport(ctx context.Context, format string, size int64, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("export.format", format), errorAttr(err))

	m.exportTotal.Add(ctx, 1, attrs)
	m.exportDuration.Record(ctx, duration.Seconds(), attrs)
	if err == nil {
		m.exportBytes.Record(ctx, size, attrs)
	}
}

// RecordCacheHit records a cache hit
func (m *OTelMetrics) RecordCacheHit(ctx context.Context, tier string) {
	m.cacheHitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.tier", tier)))
}

// RecordCacheMiss records a cache miss
func (m *OTelMetrics) RecordCacheMiss(ctx context.Context, tier string) {
	m.cacheMissesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.tier", tier)))
}

// RecordPublish records one upload to object storage
func (m *OTelMetrics) RecordPublish(ctx context.Context, duration time.Duration, err error) {
	attrs := metric.WithAttributes(errorAttr(err))
	m.publishTotal.Add(ctx, 1, attrs)
	m.publishDuration.Record(ctx, duration.Seconds(), attrs)
}
