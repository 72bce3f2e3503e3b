// Package inmemory provides the BlockService backed by the in-memory store
package inmemory

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/lumina-study/block-store/internal/lifecycle"
	"github.com/lumina-study/block-store/internal/lumina"
	"github.com/lumina-study/block-store/internal/otel"
	"github.com/lumina-study/block-store/internal/service"
	"github.com/lumina-study/block-store/internal/sourcekey"
	"github.com/lumina-study/block-store/internal/store"
)

// ServiceTracerName is the name used for the service tracer
const ServiceTracerName = "github.com/lumina-study/block-store/service"

// SourceAdder runs add operations; *lifecycle.Controller implements it
type SourceAdder interface {
	AddSource(ctx context.Context, req lifecycle.AddRequest) (*lumina.Source, error)
	AddSourceAsync(ctx context.Context, req lifecycle.AddRequest) <-chan lifecycle.Result
}

// TokenResolver picks the token for an add given the one in the request
type TokenResolver func(provider lumina.Provider, explicit string) string

// blockSvc implements the BlockService interface
type blockSvc struct {
	store     *store.Store
	adder     SourceAdder
	tokens    TokenResolver
	readiness func(context.Context) error
	tracer    trace.Tracer
}

var _ service.BlockService = (*blockSvc)(nil)

// Option is a functional option for configuring the blockSvc
type Option func(*blockSvc)

// WithTokenResolver fills in tokens for adds that carry none
func WithTokenResolver(r TokenResolver) Option {
	return func(s *blockSvc) {
		s.tokens = r
	}
}

// WithReadinessCheck makes CheckReadiness report check's result
func WithReadinessCheck(check func(context.Context) error) Option {
	return func(s *blockSvc) {
		s.readiness = check
	}
}

// WithTracer traces every service call
func WithTracer(tracer trace.Tracer) Option {
	return func(s *blockSvc) {
		s.tracer = tracer
	}
}

// New creates a service reading from st and adding through adder
func New(st *store.Store, adder SourceAdder, opts ...Option) (service.BlockService, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if adder == nil {
		return nil, fmt.Errorf("source adder is required")
	}

	s := &blockSvc{
		store: st,
		adder: adder,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CheckReadiness implements BlockService.CheckReadiness
func (s *blockSvc) CheckReadiness(ctx context.Context) error {
	if s.readiness == nil {
		return nil
	}
	return s.readiness(ctx)
}

// ListSources implements BlockService.ListSources
func (s *blockSvc) ListSources(ctx context.Context, opts ...service.Option[service.ListSourcesOptions]) ([]*lumina.Source, error) {
	_, span := otel.StartSpan(ctx, s.tracer, "service.ListSources")
	defer span.End()

	o, err := service.ApplyOptions(opts)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	state := s.store.Snapshot()
	if o.Provider != nil {
		span.SetAttributes(otel.AttrProvider.String(string(*o.Provider)))
		return state.SourcesByProvider(*o.Provider), nil
	}
	return state.ListSources(), nil
}

// GetSource implements BlockService.GetSource
func (s *blockSvc) GetSource(ctx context.Context, key string) (*lumina.Source, error) {
	_, span := otel.StartSpan(ctx, s.tracer, "service.GetSource",
		trace.WithAttributes(otel.AttrSourceKey.String(key)))
	defer span.End()

	if _, err := sourcekey.Decode(key); err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	src, ok := s.store.Snapshot().GetSource(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrSourceNotFound, key)
	}
	return src, nil
}

// AddSource implements BlockService.AddSource
func (s *blockSvc) AddSource(ctx context.Context, req lifecycle.AddRequest) (*lumina.Source, error) {
	if s.tokens != nil {
		req.Token = s.tokens(req.Provider, req.Token)
	}
	return s.adder.AddSource(ctx, req)
}

// AddSourceAsync implements BlockService.AddSourceAsync
func (s *blockSvc) AddSourceAsync(ctx context.Context, req lifecycle.AddRequest) <-chan lifecycle.Result {
	if s.tokens != nil {
		req.Token = s.tokens(req.Provider, req.Token)
	}
	return s.adder.AddSourceAsync(ctx, req)
}

// RemoveSource implements BlockService.RemoveSource
func (s *blockSvc) RemoveSource(ctx context.Context, key string) error {
	_, span := otel.StartSpan(ctx, s.tracer, "service.RemoveSource",
		trace.WithAttributes(otel.AttrSourceKey.String(key)))
	defer span.End()

	s.store.Remove(key)
	slog.InfoContext(ctx, "Source removed", "key", key)
	return nil
}

// ClearSources implements BlockService.ClearSources
func (s *blockSvc) ClearSources(ctx context.Context) error {
	s.store.Clear()
	slog.InfoContext(ctx, "All sources cleared")
	return nil
}

// ListBlocks implements BlockService.ListBlocks
func (s *blockSvc) ListBlocks(ctx context.Context, opts ...service.Option[service.ListBlocksOptions]) ([]lumina.Block, error) {
	_, span := otel.StartSpan(ctx, s.tracer, "service.ListBlocks")
	defer span.End()

	o, err := service.ApplyOptions(opts)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	state := s.store.Snapshot()
	var blocks []lumina.Block
	if o.SourceKey != nil {
		span.SetAttributes(otel.AttrSourceKey.String(*o.SourceKey))
		blocks = state.BlocksOf(*o.SourceKey)
	} else {
		blocks = state.AllBlocks()
	}
	span.SetAttributes(otel.AttrBlockCount.Int(len(blocks)))
	return blocks, nil
}

// GetBlock implements BlockService.GetBlock
func (s *blockSvc) GetBlock(ctx context.Context, id string) (lumina.Block, error) {
	_, span := otel.StartSpan(ctx, s.tracer, "service.GetBlock")
	defer span.End()

	block, ok := s.store.Snapshot().FindBlock(id)
	if !ok {
		return lumina.Block{}, fmt.Errorf("%w: %s", service.ErrBlockNotFound, id)
	}
	return block, nil
}

// Status implements BlockService.Status
func (s *blockSvc) Status(_ context.Context) (*service.Status, error) {
	state := s.store.Snapshot()
	status := &service.Status{
		Phase:   state.Phase(),
		Loading: state.IsLoading(),
		Sources: state.Len(),
		Blocks:  state.BlockCount(),
	}
	if msg, ok := state.LastError(); ok {
		status.Error = &msg
	}
	return status, nil
}

// ClearError implements BlockService.ClearError
func (s *blockSvc) ClearError(_ context.Context) error {
	s.store.ClearError()
	return nil
}
