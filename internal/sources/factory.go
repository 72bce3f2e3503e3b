package sources

import (
	"github.com/lumina-study/block-store/internal/lumina"
)

// defaultFetcherFactory is the default implementation of FetcherFactory
type defaultFetcherFactory struct {
	fetchers map[lumina.Provider]Fetcher
}

var _ FetcherFactory = (*defaultFetcherFactory)(nil)

// NewFetcherFactory creates a factory serving the given fetchers
func NewFetcherFactory(fetchers map[lumina.Provider]Fetcher) FetcherFactory {
	registered := make(map[lumina.Provider]Fetcher, len(fetchers))
	for p, f := range fetchers {
		if f != nil {
			registered[p] = f
		}
	}
	return &defaultFetcherFactory{fetchers: registered}
}

// CreateFetcher returns the fetcher registered for provider
func (f *defaultFetcherFactory) CreateFetcher(provider lumina.Provider) (Fetcher, error) {
	fetcher, ok := f.fetchers[provider]
	if !ok {
		return nil, &lumina.UnsupportedProviderError{Provider: string(provider)}
	}
	return fetcher, nil
}
