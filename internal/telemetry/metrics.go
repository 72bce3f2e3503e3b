package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// RegistryMetricsMeterName is the meter for registry size instruments
	RegistryMetricsMeterName = "github.com/lumina-study/block-store/registry"

	// AddMetricsMeterName is the meter for add operation instruments
	AddMetricsMeterName = "github.com/lumina-study/block-store/lifecycle"

	// HTTPMetricsMeterName is the meter for HTTP server instruments
	HTTPMetricsMeterName = "github.com/lumina-study/block-store/http"
)

// RegistryMetrics holds the registry size gauges. A nil *RegistryMetrics is a no-op.
type RegistryMetrics struct {
	sourcesTotal metric.Int64Gauge
	blocksTotal  metric.Int64Gauge
}

// NewRegistryMetrics creates registry metrics. A nil provider yields nil.
func NewRegistryMetrics(provider metric.MeterProvider) (*RegistryMetrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(RegistryMetricsMeterName)

	sourcesTotal, err := meter.Int64Gauge(
		"block_store_sources_total",
		metric.WithDescription("Number of stored sources"),
		metric.WithUnit("{source}"),
	)
	if err != nil {
		return nil, err
	}
	blocksTotal, err := meter.Int64Gauge(
		"block_store_blocks_total",
		metric.WithDescription("Number of blocks across all stored sources"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return nil, err
	}

	return &RegistryMetrics{sourcesTotal: sourcesTotal, blocksTotal: blocksTotal}, nil
}

// RecordRegistrySize records the current number of sources and blocks
func (m *RegistryMetrics) RecordRegistrySize(ctx context.Context, sources, blocks int) {
	if m == nil {
		return
	}
	m.sourcesTotal.Record(ctx, int64(sources))
	m.blocksTotal.Record(ctx, int64(blocks))
}

// AddMetrics holds the add operation instruments. A nil *AddMetrics is a no-op.
type AddMetrics struct {
	addDuration metric.Float64Histogram
}

// NewAddMetrics creates add metrics. A nil provider yields nil.
func NewAddMetrics(provider metric.MeterProvider) (*AddMetrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(AddMetricsMeterName)

	addDuration, err := meter.Float64Histogram(
		"block_store_add_duration_seconds",
		metric.WithDescription("Duration of add source operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, err
	}
	return &AddMetrics{addDuration: addDuration}, nil
}

// RecordAdd records one completed add operation
func (m *AddMetrics) RecordAdd(ctx context.Context, provider string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	m.addDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("success", success),
	))
}

// HTTPMetrics holds the HTTP server instruments. A nil *HTTPMetrics is a no-op.
type HTTPMetrics struct {
	requestDuration metric.Float64Histogram
	requestsTotal   metric.Int64Counter
}

// NewHTTPMetrics creates HTTP metrics. A nil provider yields nil.
func NewHTTPMetrics(provider metric.MeterProvider) (*HTTPMetrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(HTTPMetricsMeterName)

	requestDuration, err := meter.Float64Histogram(
		"block_store_http_request_duration_seconds",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, err
	}
	requestsTotal, err := meter.Int64Counter(
		"block_store_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	return &HTTPMetrics{requestDuration: requestDuration, requestsTotal: requestsTotal}, nil
}

// Middleware records duration and count per method, route pattern and status
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// r.Context() may be cancelled once ServeHTTP returns
		ctx := context.WithoutCancel(r.Context())
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		attrs := metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("route", routePattern(r)),
			attribute.String("status_code", strconv.Itoa(ww.Status())),
		)
		m.requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		m.requestsTotal.Add(ctx, 1, attrs)
	})
}

// routePattern returns the chi route pattern, or a constant for unmatched
// requests so raw paths never become label values.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return "unknown_route"
}
