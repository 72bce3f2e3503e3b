// Package lifecycle runs the add source operation: it flags the registry as
// loading, fetches the document from the provider, and either stores the
// result or records the failure message.
//
// Overlapping adds are not serialized. Each one writes the loading and error
// flags when it starts and when it settles, so the last to settle decides
// their final values.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumina-study/block-store/internal/lumina"
	"github.com/lumina-study/block-store/internal/otel"
	"github.com/lumina-study/block-store/internal/sourcekey"
	"github.com/lumina-study/block-store/internal/sources"
	"github.com/lumina-study/block-store/internal/store"
	"github.com/lumina-study/block-store/internal/telemetry"
)

// UnknownErrorMessage is recorded when a failure carries no message
const UnknownErrorMessage = "Unknown error"

// AddRequest identifies the repository to add and the optional credential
type AddRequest struct {
	Provider     lumina.Provider
	Organization string
	Repository   string
	Token        string
}

// Triple returns the location named by the request
func (r AddRequest) Triple() lumina.Triple {
	return lumina.Triple{
		Provider:     r.Provider,
		Organization: r.Organization,
		Repository:   r.Repository,
	}
}

// AddError is the failure of an add. Message is what the registry records.
type AddError struct {
	Message string
	// HTTPStatus is the provider status, or 0 when there is none
	HTTPStatus int
	Err        error
}

func (e *AddError) Error() string {
	return e.Message
}

func (e *AddError) Unwrap() error {
	return e.Err
}

func newAddError(err error) *AddError {
	addErr := &AddError{Message: err.Error(), Err: err}

	var fetchErr *sources.FetchError
	if errors.As(err, &fetchErr) {
		addErr.Message = fetchErr.Message
		addErr.HTTPStatus = fetchErr.HTTPStatus
	}
	if addErr.Message == "" {
		addErr.Message = UnknownErrorMessage
	}
	return addErr
}

// Result is the settled outcome of AddSourceAsync. Exactly one of Source
// and Err is set.
type Result struct {
	Source *lumina.Source
	Err    error
}

// Controller runs add operations against a store
type Controller struct {
	store    *store.Store
	fetchers sources.FetcherFactory
	now      func() time.Time
	metrics  *telemetry.AddMetrics
	tracer   trace.Tracer
}

// Option is a functional option for configuring the Controller
type Option func(*Controller)

// WithClock sets the time source used for the added-at timestamp
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithAddMetrics records the duration and outcome of every add
func WithAddMetrics(m *telemetry.AddMetrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithTracer traces every add
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Controller) {
		c.tracer = tracer
	}
}

// New creates a controller writing to s and fetching through fetchers
func New(s *store.Store, fetchers sources.FetcherFactory, opts ...Option) *Controller {
	c := &Controller{
		store:    s,
		fetchers: fetchers,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddSource fetches the document named by req and stores it.
//
// Before fetching, loading is set and any previous error is cleared. On
// success the new record is stored and loading is reset in one update. On
// failure loading is reset, the failure message is recorded, and stored
// sources are left untouched. The returned error is always an *AddError.
// Cancellation of ctx is not propagated to the fetch.
func (c *Controller) AddSource(ctx context.Context, req AddRequest) (*lumina.Source, error) {
	triple := req.Triple()
	key := sourcekey.Encode(triple)
	opID := uuid.NewString()

	// once started, an add settles on the fetcher's own timeouts only
	ctx = context.WithoutCancel(ctx)
	ctx, span := otel.StartSpan(ctx, c.tracer, "lifecycle.AddSource",
		trace.WithAttributes(
			otel.AttrOperationID.String(opID),
			otel.AttrProvider.String(string(req.Provider)),
			otel.AttrOrganization.String(req.Organization),
			otel.AttrRepository.String(req.Repository),
			otel.AttrSourceKey.String(key),
		))
	defer span.End()

	logger := slog.With("operation_id", opID, "key", key)
	start := time.Now()

	c.store.Apply(store.SetLoading(true), store.ClearError())
	logger.InfoContext(ctx, "Adding source")

	result, err := c.fetch(ctx, req)
	if err != nil {
		addErr := newAddError(err)
		c.store.Apply(store.SetLoading(false), store.SetError(addErr.Message))

		span.SetAttributes(otel.AttrHTTPStatus.Int(addErr.HTTPStatus))
		otel.RecordError(span, addErr)
		c.metrics.RecordAdd(ctx, string(req.Provider), time.Since(start), false)
		logger.WarnContext(ctx, "Failed to add source",
			"error", addErr.Message,
			"http_status", addErr.HTTPStatus,
		)
		return nil, addErr
	}

	src := store.NewSource(triple, result.CommitSHA, result.Document, c.now())
	c.store.Apply(store.PutSource(src), store.SetLoading(false))

	span.SetAttributes(
		otel.AttrCommitSHA.String(src.CommitSHA),
		otel.AttrBlockCount.Int(len(src.Blocks())),
	)
	c.metrics.RecordAdd(ctx, string(req.Provider), time.Since(start), true)
	logger.InfoContext(ctx, "Added source",
		"commit_sha", src.CommitSHA,
		"block_count", len(src.Blocks()),
		"duration", time.Since(start),
	)
	return src, nil
}

// AddSourceAsync starts AddSource on its own goroutine and delivers the
// outcome on the returned channel, which is closed afterwards. Cancelling
// ctx does not abort the started operation.
func (c *Controller) AddSourceAsync(ctx context.Context, req AddRequest) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		src, err := c.AddSource(ctx, req)
		out <- Result{Source: src, Err: err}
	}()
	return out
}

func (c *Controller) fetch(ctx context.Context, req AddRequest) (*sources.FetchResult, error) {
	fetcher, err := c.fetchers.CreateFetcher(req.Provider)
	if err != nil {
		return nil, err
	}
	result, err := fetcher.Fetch(ctx, req.Organization, req.Repository, req.Token)
	if err != nil {
		return nil, err
	}
	if result == nil || result.Document == nil {
		return nil, fmt.Errorf("fetcher for %s returned no document", req.Provider)
	}
	return result, nil
}
