package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lumina-study/block-store/internal/config"
	"github.com/lumina-study/block-store/internal/lifecycle"
	"github.com/lumina-study/block-store/internal/lumina"
)

// Adder runs a single add. Both the block service and the lifecycle controller implement it.
type Adder interface {
	AddSource(ctx context.Context, req lifecycle.AddRequest) (*lumina.Source, error)
}

// LoadSeedSources adds the configured sources one after another. A failed
// source is logged and skipped. It returns the number added.
func LoadSeedSources(ctx context.Context, adder Adder, seeds []config.SourceConfig) int {
	if len(seeds) == 0 {
		slog.InfoContext(ctx, "No startup sources configured")
		return 0
	}

	slog.InfoContext(ctx, "Loading startup sources", "count", len(seeds))

	added := 0
	for _, seed := range seeds {
		if ctx.Err() != nil {
			slog.WarnContext(ctx, "Startup source loading interrupted", "added", added)
			return added
		}

		triple := seed.Triple()
		src, err := adder.AddSource(ctx, lifecycle.AddRequest{
			Provider:     triple.Provider,
			Organization: triple.Organization,
			Repository:   triple.Repository,
			Token:        seed.Token(),
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load startup source", "source", triple.String(), "error", err)
			continue
		}

		added++
		slog.InfoContext(ctx, "Loaded startup source",
			"source", triple.String(),
			"commit_sha", src.CommitSHA,
			"block_count", len(src.Blocks()),
		)
	}

	slog.InfoContext(ctx, fmt.Sprintf("Loaded %d of %d startup source%s", added, len(seeds), pluralize(len(seeds), "", "s")))
	return added
}

// pluralize returns singular or plural suffix based on count
func pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}
