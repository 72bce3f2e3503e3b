// Package service provides the business logic behind the block store API
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumina-study/block-store/internal/lifecycle"
	"github.com/lumina-study/block-store/internal/lumina"
	"github.com/lumina-study/block-store/internal/sourcekey"
	"github.com/lumina-study/block-store/internal/store"
)

var (
	// ErrSourceNotFound is returned when no source is stored at a key
	ErrSourceNotFound = errors.New("source not found")
	// ErrBlockNotFound is returned when no stored source has a block with the id
	ErrBlockNotFound = errors.New("block not found")
	// ErrNotReady is returned by CheckReadiness while startup sources load
	ErrNotReady = errors.New("startup sources are still loading")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go BlockService

// BlockService defines the operations exposed by the API
type BlockService interface {
	// CheckReadiness checks if the service is ready to serve requests
	CheckReadiness(ctx context.Context) error

	// ListSources returns stored sources in insertion order
	ListSources(ctx context.Context, opts ...Option[ListSourcesOptions]) ([]*lumina.Source, error)

	// GetSource returns the source at key. Malformed keys are rejected with
	// a sourcekey error.
	GetSource(ctx context.Context, key string) (*lumina.Source, error)

	// AddSource fetches and stores a repository's document
	AddSource(ctx context.Context, req lifecycle.AddRequest) (*lumina.Source, error)

	// AddSourceAsync starts an add that outlives ctx and returns its outcome channel
	AddSourceAsync(ctx context.Context, req lifecycle.AddRequest) <-chan lifecycle.Result

	// RemoveSource deletes the source at key; absent keys are ignored
	RemoveSource(ctx context.Context, key string) error

	// ClearSources deletes every source and the last error
	ClearSources(ctx context.Context) error

	// ListBlocks returns blocks across sources, or of one source
	ListBlocks(ctx context.Context, opts ...Option[ListBlocksOptions]) ([]lumina.Block, error)

	// GetBlock returns the first block with id in source order
	GetBlock(ctx context.Context, id string) (lumina.Block, error)

	// Status reports the lifecycle flags and registry size
	Status(ctx context.Context) (*Status, error)

	// ClearError forgets the last add failure
	ClearError(ctx context.Context) error
}

// Status is a point in time view of the registry
type Status struct {
	Phase   store.Phase `json:"phase"`
	Loading bool        `json:"loading"`
	// Error is nil when no failure is recorded
	Error   *string `json:"error"`
	Sources int     `json:"sources"`
	Blocks  int     `json:"blocks"`
}

// Option is a function that sets an option for a list operation
type Option[T ListSourcesOptions | ListBlocksOptions] func(*T) error

// ListSourcesOptions is the options for the ListSources operation
type ListSourcesOptions struct {
	Provider *lumina.Provider
}

// ListBlocksOptions is the options for the ListBlocks operation
type ListBlocksOptions struct {
	SourceKey *string
}

// WithProvider restricts ListSources to one provider
func WithProvider(provider string) Option[ListSourcesOptions] {
	return func(o *ListSourcesOptions) error {
		p, err := lumina.ParseProvider(provider)
		if err != nil {
			return err
		}
		o.Provider = &p
		return nil
	}
}

// WithSourceKey restricts ListBlocks to the source at key
func WithSourceKey(key string) Option[ListBlocksOptions] {
	return func(o *ListBlocksOptions) error {
		if _, err := sourcekey.Decode(key); err != nil {
			return err
		}
		o.SourceKey = &key
		return nil
	}
}

// ApplyOptions builds T from opts, stopping at the first error
func ApplyOptions[T ListSourcesOptions | ListBlocksOptions](opts []Option[T]) (*T, error) {
	o := new(T)
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	return o, nil
}
