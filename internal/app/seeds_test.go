package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lumina-study/block-store/internal/config"
	"github.com/lumina-study/block-store/internal/lifecycle"
	"github.com/lumina-study/block-store/internal/lumina"
	"github.com/lumina-study/block-store/internal/store"
)

type recordingAdder struct {
	fail  map[string]bool
	calls []lifecycle.AddRequest
}

func (a *recordingAdder) AddSource(_ context.Context, req lifecycle.AddRequest) (*lumina.Source, error) {
	a.calls = append(a.calls, req)
	if a.fail[req.Repository] {
		return nil, errors.New("boom")
	}
	return store.NewSource(req.Triple(), "sha", &lumina.Document{}, time.Now()), nil
}

func TestLoadSeedSources(t *testing.T) {
	t.Setenv("SEED_TOKEN", "s3cret")

	seeds := []config.SourceConfig{
		{Provider: "github", Organization: "org1", Repository: "a", TokenEnv: "SEED_TOKEN"},
		{Provider: "gitlab", Organization: "group", Repository: "b"},
		{Provider: "github", Organization: "org1", Repository: "c"},
	}
	adder := &recordingAdder{fail: map[string]bool{"b": true}}

	added := LoadSeedSources(context.Background(), adder, seeds)

	assert.Equal(t, 2, added)
	assert.Len(t, adder.calls, 3, "a failed seed does not stop the rest")
	assert.Equal(t, "s3cret", adder.calls[0].Token)
	assert.Equal(t, lumina.ProviderGitLab, adder.calls[1].Provider)
	assert.Equal(t, "c", adder.calls[2].Repository)
}

func TestLoadSeedSources_NoSeeds(t *testing.T) {
	t.Parallel()

	adder := &recordingAdder{}
	assert.Zero(t, LoadSeedSources(context.Background(), adder, nil))
	assert.Empty(t, adder.calls)
}

func TestLoadSeedSources_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adder := &recordingAdder{}
	added := LoadSeedSources(ctx, adder, []config.SourceConfig{
		{Provider: "github", Organization: "org1", Repository: "a"},
	})
	assert.Zero(t, added)
	assert.Empty(t, adder.calls)
}

func TestPluralize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", pluralize(1, "", "s"))
	assert.Equal(t, "s", pluralize(0, "", "s"))
	assert.Equal(t, "s", pluralize(2, "", "s"))
}
