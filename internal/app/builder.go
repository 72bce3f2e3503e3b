package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumina-study/block-store/internal/api"
	"github.com/lumina-study/block-store/internal/config"
	"github.com/lumina-study/block-store/internal/credentials"
	"github.com/lumina-study/block-store/internal/httpclient"
	"github.com/lumina-study/block-store/internal/lifecycle"
	"github.com/lumina-study/block-store/internal/lumina"
	"github.com/lumina-study/block-store/internal/service"
	"github.com/lumina-study/block-store/internal/service/inmemory"
	"github.com/lumina-study/block-store/internal/sources"
	"github.com/lumina-study/block-store/internal/store"
	"github.com/lumina-study/block-store/internal/telemetry"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 90 * time.Second // above the request timeout so the middleware answers first
	defaultIdleTimeout  = 60 * time.Second

	// TracerName names the tracer used by the lifecycle and service layers
	TracerName = "github.com/lumina-study/block-store"
)

// BlockStoreAppOptions is a function that configures the block store app builder
type BlockStoreAppOptions func(*blockStoreAppConfig) error

// blockStoreAppConfig collects the builder inputs. Component overrides are
// primarily for tests.
type blockStoreAppConfig struct {
	config *config.Config

	fetcherFactory sources.FetcherFactory
	httpOptions    []httpclient.Option
	tokenResolver  inmemory.TokenResolver
	clock          func() time.Time

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
	shutdown       []func(context.Context) error
}

func baseConfig(opts ...BlockStoreAppOptions) (*blockStoreAppConfig, error) {
	cfg := &blockStoreAppConfig{
		readTimeout:   defaultReadTimeout,
		writeTimeout:  defaultWriteTimeout,
		idleTimeout:   defaultIdleTimeout,
		clock:         time.Now,
		tokenResolver: credentials.Resolve,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		cfg.config = &config.Config{}
	}
	if cfg.address == "" {
		cfg.address = cfg.config.Server.GetAddress()
	}
	if cfg.requestTimeout == 0 {
		cfg.requestTimeout = cfg.config.Server.GetRequestTimeout()
	}

	return cfg, nil
}

// NewBlockStoreApp creates the application from the given options
func NewBlockStoreApp(
	ctx context.Context,
	opts ...BlockStoreAppOptions,
) (*BlockStoreApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	if cfg.fetcherFactory == nil {
		cfg.fetcherFactory = NewFetcherFactory(cfg.config, cfg.httpOptions...)
	}

	components, err := buildComponents(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build components: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)
	app := &BlockStoreApp{
		config:     cfg.config,
		components: components,
		shutdown:   cfg.shutdown,
		ctx:        appCtx,
		cancelFunc: cancel,
	}

	// Readiness needs the app, so the service is built last.
	components.BlockService, err = inmemory.New(components.Store, components.Controller,
		inmemory.WithTokenResolver(cfg.tokenResolver),
		inmemory.WithReadinessCheck(app.checkReadiness),
		inmemory.WithTracer(tracer(cfg)),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create block service: %w", err)
	}

	app.httpServer, err = buildHTTPServer(ctx, cfg, components.BlockService)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	return app, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) BlockStoreAppOptions {
	return func(cfg *blockStoreAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) BlockStoreAppOptions {
	return func(cfg *blockStoreAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		parts := strings.SplitN(addr, ":", 2)
		if len(parts) != 2 || parts[1] == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		host, port := parts[0], parts[1]
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) BlockStoreAppOptions {
	return func(cfg *blockStoreAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithRequestTimeout bounds each API request
func WithRequestTimeout(d time.Duration) BlockStoreAppOptions {
	return func(cfg *blockStoreAppConfig) error {
		if d <= 0 {
			return fmt.Errorf("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithFetcherFactory allows injecting a custom fetcher factory (for testing)
func WithFetcherFactory(f sources.FetcherFactory) BlockStoreAppOptions {
	return func(cfg *blockStoreAppConfig) error {
		cfg.fetcherFactory = f
		return nil
	}
}

// WithHTTPClientOptions adds options to the provider HTTP clients
func WithHTTPClientOptions(opts ...httpclient.Option) BlockStoreAppOptions {
	return func(cfg *blockStoreAppConfig) error {
		cfg.httpOptions = append(cfg.httpOptions, opts...)
		return nil
	}
}

// WithTokenResolver sets how adds without a token find one. The default
// is credentials.Resolve.
func WithTokenResolver(r inmemory.TokenResolver) BlockStoreAppOptions {
	return func(cfg *blockStoreAppConfig) error {
		if r == nil {
			return fmt.Errorf("token resolver cannot be nil")
		}
		cfg.tokenResolver = r
		return nil
	}
}

// WithClock sets the time source for added-at timestamps
func WithClock(now func() time.Time) BlockStoreAppOptions {
	return func(cfg *blockStoreAppConfig) error {
		cfg.clock = now
		return nil
	}
}

// WithTelemetry wires tracing, metrics and the Prometheus handler from t.
// t is shut down when the app stops.
func WithTelemetry(t *telemetry.Telemetry) BlockStoreAppOptions {
	return func(cfg *blockStoreAppConfig) error {
		if t == nil {
			return nil
		}
		cfg.meterProvider = t.MeterProvider()
		cfg.tracerProvider = t.TracerProvider()
		cfg.metricsHandler = t.MetricsHandler()
		cfg.shutdown = append(cfg.shutdown, t.Shutdown)
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider
func WithMeterProvider(mp metric.MeterProvider) BlockStoreAppOptions {
	return func(cfg *blockStoreAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

func tracer(cfg *blockStoreAppConfig) trace.Tracer {
	if cfg.tracerProvider == nil {
		return nil
	}
	return cfg.tracerProvider.Tracer(TracerName)
}

// NewFetcherFactory creates one fetcher per provider enabled in cfg, each
// with its own client so provider headers and rate limits stay separate.
func NewFetcherFactory(cfg *config.Config, httpOpts ...httpclient.Option) sources.FetcherFactory {
	httpCfg := cfg.HTTP
	common := []httpclient.Option{
		httpclient.WithUserAgent(httpCfg.GetUserAgent()),
		httpclient.WithRateLimit(httpCfg.RateLimit, httpCfg.Burst),
		httpclient.WithRetry(httpCfg.GetMaxAttempts(), httpclient.DefaultRetryInterval),
	}
	common = append(common, httpOpts...)

	fetcherOpts := func(p lumina.Provider) []sources.FetcherOption {
		pc := cfg.Providers.Provider(p)
		if pc == nil {
			return nil
		}
		return []sources.FetcherOption{
			sources.WithBaseURL(pc.BaseURL),
			sources.WithFileNames(pc.FileNames...),
		}
	}

	fetchers := map[lumina.Provider]sources.Fetcher{}
	if cfg.Providers.Enabled(lumina.ProviderGitHub) {
		client := httpclient.NewDefaultClient(httpCfg.GetTimeout(), append(sources.GitHubClientOptions(), common...)...)
		fetchers[lumina.ProviderGitHub] = sources.NewGitHubFetcher(client, fetcherOpts(lumina.ProviderGitHub)...)
	}
	if cfg.Providers.Enabled(lumina.ProviderGitLab) {
		client := httpclient.NewDefaultClient(httpCfg.GetTimeout(), common...)
		fetchers[lumina.ProviderGitLab] = sources.NewGitLabFetcher(client, fetcherOpts(lumina.ProviderGitLab)...)
	}

	for p := range fetchers {
		slog.Debug("Provider enabled", "provider", p)
	}
	return sources.NewFetcherFactory(fetchers)
}

// buildComponents builds the store and the lifecycle controller
func buildComponents(b *blockStoreAppConfig) (*AppComponents, error) {
	slog.Info("Initializing block store components")

	var storeOpts []store.Option
	var controllerOpts []lifecycle.Option

	if b.meterProvider != nil {
		registryMetrics, err := telemetry.NewRegistryMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create registry metrics: %w", err)
		}
		storeOpts = append(storeOpts, store.WithRegistryMetrics(registryMetrics))

		addMetrics, err := telemetry.NewAddMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create add metrics: %w", err)
		}
		controllerOpts = append(controllerOpts, lifecycle.WithAddMetrics(addMetrics))
		slog.Info("Registry metrics enabled")
	}

	if t := tracer(b); t != nil {
		controllerOpts = append(controllerOpts, lifecycle.WithTracer(t))
	}
	controllerOpts = append(controllerOpts, lifecycle.WithClock(b.clock))

	st := store.New(storeOpts...)
	return &AppComponents{
		Store:      st,
		Controller: lifecycle.New(st, b.fetcherFactory, controllerOpts...),
	}, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *blockStoreAppConfig,
	svc service.BlockService,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Prepended so rejected and timed out requests are counted too
	if b.meterProvider != nil {
		httpMetrics, err := telemetry.NewHTTPMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
		}
		b.middlewares = append([]func(http.Handler) http.Handler{httpMetrics.Middleware}, b.middlewares...)
		slog.Info("HTTP metrics middleware enabled")
	}

	var handler http.Handler = api.NewServer(svc,
		api.WithMiddlewares(b.middlewares...),
		api.WithMetricsHandler(b.metricsHandler),
	)
	if b.tracerProvider != nil {
		handler = otelhttp.NewHandler(handler, "block-store",
			otelhttp.WithTracerProvider(b.tracerProvider),
		)
	}

	server := &http.Server{
		Addr:         b.address,
		Handler:      handler,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
