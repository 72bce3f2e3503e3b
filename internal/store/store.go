// Package store holds the registry of fetched lumina sources together with
// the loading and error flags of the add operation that feeds it.
//
// Every mutation builds a new State and publishes it as a whole, so
// readers holding a snapshot never observe a partial update.
package store

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/lumina-study/block-store/internal/lumina"
	"github.com/lumina-study/block-store/internal/sourcekey"
	"github.com/lumina-study/block-store/internal/telemetry"
)

// Store is the source registry
type Store struct {
	mu      sync.RWMutex // Protects state
	state   *State
	metrics *telemetry.RegistryMetrics
}

// Option is a functional option for configuring the Store
type Option func(*Store)

// WithRegistryMetrics records source and block counts after source changes
func WithRegistryMetrics(m *telemetry.RegistryMetrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New creates an empty store: no sources, not loading, no error.
func New(opts ...Option) *Store {
	s := &Store{state: emptyState()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state
func (s *Store) Snapshot() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Mutation is one change to the registry. Mutations passed together to
// Apply are published as a single update.
type Mutation func(*draft)

// Apply applies the mutations in order and publishes the result
func (s *Store) Apply(mutations ...Mutation) {
	s.mu.Lock()
	d := &draft{State: *s.state}
	for _, m := range mutations {
		m(d)
	}
	next := d.State
	s.state = &next
	s.mu.Unlock()

	if d.sourcesChanged {
		s.metrics.RecordRegistrySize(context.Background(), next.Len(), next.BlockCount())
	}
}

// Upsert stores a new record for triple, replacing any record at the same
// key, and returns it.
func (s *Store) Upsert(triple lumina.Triple, commitSHA string, doc *lumina.Document, now time.Time) *lumina.Source {
	src := NewSource(triple, commitSHA, doc, now)
	s.Apply(PutSource(src))
	return src
}

// Remove deletes the record at key. Unknown keys are ignored.
func (s *Store) Remove(key string) {
	s.Apply(RemoveSource(key))
}

// Clear removes every record and the last error. Loading is left alone.
func (s *Store) Clear() {
	s.Apply(ClearSources())
}

// SetLoading sets the loading flag
func (s *Store) SetLoading(loading bool) {
	s.Apply(SetLoading(loading))
}

// SetError records the message of a failed add
func (s *Store) SetError(message string) {
	s.Apply(SetError(message))
}

// ClearError forgets the last error
func (s *Store) ClearError() {
	s.Apply(ClearError())
}

// NewSource builds a source record. AddedAt is kept in UTC to the millisecond.
func NewSource(triple lumina.Triple, commitSHA string, doc *lumina.Document, now time.Time) *lumina.Source {
	if doc == nil {
		doc = &lumina.Document{Blocks: []lumina.Block{}}
	}
	return &lumina.Source{
		Triple:    triple,
		CommitSHA: commitSHA,
		Document:  doc,
		AddedAt:   now.UTC().Truncate(time.Millisecond),
	}
}

// PutSource stores src at the key derived from its own triple
func PutSource(src *lumina.Source) Mutation {
	return func(d *draft) {
		key := sourcekey.Encode(src.Triple)
		d.copySources()
		if _, exists := d.sources[key]; !exists {
			d.order = append(d.order, key)
		}
		d.sources[key] = src
	}
}

// RemoveSource deletes the record at key if present
func RemoveSource(key string) Mutation {
	return func(d *draft) {
		if _, exists := d.sources[key]; !exists {
			return
		}
		d.copySources()
		delete(d.sources, key)
		d.order = slices.DeleteFunc(d.order, func(k string) bool { return k == key })
		slog.Debug("Removed source", "key", key)
	}
}

// ClearSources removes every record and clears the error
func ClearSources() Mutation {
	return func(d *draft) {
		d.sources = map[string]*lumina.Source{}
		d.order = nil
		d.copied = true
		d.sourcesChanged = true
		d.err, d.hasErr = "", false
	}
}

// SetLoading sets the loading flag
func SetLoading(loading bool) Mutation {
	return func(d *draft) {
		d.loading = loading
	}
}

// SetError records an error message
func SetError(message string) Mutation {
	return func(d *draft) {
		d.err, d.hasErr = message, true
	}
}

// ClearError forgets the recorded error
func ClearError() Mutation {
	return func(d *draft) {
		d.err, d.hasErr = "", false
	}
}

// draft is the state under construction inside Apply
type draft struct {
	State
	copied         bool
	sourcesChanged bool
}

// copySources detaches the draft's source collections from the published
// state before the first write to them.
func (d *draft) copySources() {
	d.sourcesChanged = true
	if d.copied {
		return
	}
	d.sources = maps.Clone(d.sources)
	d.order = slices.Clone(d.order)
	d.copied = true
}
