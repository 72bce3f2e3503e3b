package sources

import (
	"context"

	"github.com/lumina-study/block-store/internal/lumina"
)

//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks -source=types.go Fetcher,FetcherFactory

// Fetcher retrieves a lumina document from a single provider
type Fetcher interface {
	// Fetch resolves the document at the default branch of
	// organization/repository and the last commit that touched it.
	// A non-empty token is passed to the provider as a credential.
	// Failures are returned as *FetchError.
	Fetch(ctx context.Context, organization, repository, token string) (*FetchResult, error)
}

// FetchResult contains the result of a fetch operation
type FetchResult struct {
	// Document is the parsed and normalized document
	Document *lumina.Document

	// CommitSHA identifies the most recent commit touching the document file
	CommitSHA string

	// Filename is the name the document was found under
	Filename string
}

// FetcherFactory returns fetchers by provider
type FetcherFactory interface {
	// CreateFetcher returns the fetcher for the given provider
	CreateFetcher(provider lumina.Provider) (Fetcher, error)
}

// FetcherOption configures a provider fetcher
type FetcherOption func(*fetcherConfig)

type fetcherConfig struct {
	baseURL   string
	fileNames []string
}

// WithBaseURL overrides the provider API base URL
func WithBaseURL(baseURL string) FetcherOption {
	return func(c *fetcherConfig) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithFileNames sets the candidate document names, tried in order
func WithFileNames(names ...string) FetcherOption {
	return func(c *fetcherConfig) {
		if len(names) > 0 {
			c.fileNames = names
		}
	}
}

func newFetcherConfig(defaultBaseURL string, opts []FetcherOption) fetcherConfig {
	cfg := fetcherConfig{
		baseURL:   defaultBaseURL,
		fileNames: []string{lumina.DefaultFilename},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
