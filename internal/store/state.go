package store

import (
	"github.com/lumina-study/block-store/internal/lumina"
)

// Phase summarizes the add lifecycle as seen through the registry flags
type Phase string

const (
	// PhaseIdle means no add is outstanding and the last one did not fail
	PhaseIdle Phase = "Idle"
	// PhasePending means an add is outstanding
	PhasePending Phase = "Pending"
	// PhaseFailed means no add is outstanding and the last one failed
	PhaseFailed Phase = "Failed"
)

// State is an immutable snapshot of the registry. All read views are
// methods on State, so a caller holding one never sees a later mutation.
// Block selectors return copies; source records are shared and must not be
// modified.
type State struct {
	sources map[string]*lumina.Source
	order   []string
	loading bool
	err     string
	hasErr  bool
}

func emptyState() *State {
	return &State{sources: map[string]*lumina.Source{}}
}

// Len returns the number of stored sources
func (s *State) Len() int {
	return len(s.order)
}

// Keys returns the stored keys in insertion order
func (s *State) Keys() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// ListSources returns every stored source in insertion order. A source
// re-added under an existing key keeps its original position.
func (s *State) ListSources() []*lumina.Source {
	out := make([]*lumina.Source, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.sources[key])
	}
	return out
}

// GetSource returns the source stored at key
func (s *State) GetSource(key string) (*lumina.Source, bool) {
	src, ok := s.sources[key]
	return src, ok
}

// SourcesByProvider returns the sources of one provider, in ListSources order
func (s *State) SourcesByProvider(provider lumina.Provider) []*lumina.Source {
	out := []*lumina.Source{}
	for _, key := range s.order {
		if src := s.sources[key]; src.Provider == provider {
			out = append(out, src)
		}
	}
	return out
}

// AllBlocks concatenates the blocks of every source in ListSources order
func (s *State) AllBlocks() []lumina.Block {
	out := []lumina.Block{}
	for _, key := range s.order {
		out = appendClones(out, s.sources[key].Blocks())
	}
	return out
}

// BlocksOf returns the blocks of the source at key, or an empty slice when
// there is no such source.
func (s *State) BlocksOf(key string) []lumina.Block {
	src, ok := s.sources[key]
	if !ok {
		return []lumina.Block{}
	}
	blocks := src.Blocks()
	return appendClones(make([]lumina.Block, 0, len(blocks)), blocks)
}

// FindBlock returns the first block with the given id in AllBlocks order.
// When several sources define the same id the earliest source wins.
func (s *State) FindBlock(id string) (lumina.Block, bool) {
	for _, key := range s.order {
		for _, b := range s.sources[key].Blocks() {
			if b.ID == id {
				return b.Clone(), true
			}
		}
	}
	return lumina.Block{}, false
}

func appendClones(dst, blocks []lumina.Block) []lumina.Block {
	for _, b := range blocks {
		dst = append(dst, b.Clone())
	}
	return dst
}

// IsLoading reports whether an add is outstanding
func (s *State) IsLoading() bool {
	return s.loading
}

// LastError returns the message of the last failed add, if it was not
// cleared since.
func (s *State) LastError() (string, bool) {
	return s.err, s.hasErr
}

// Phase derives the lifecycle phase from the loading and error flags
func (s *State) Phase() Phase {
	switch {
	case s.loading:
		return PhasePending
	case s.hasErr:
		return PhaseFailed
	default:
		return PhaseIdle
	}
}

// BlockCount returns the number of blocks across all sources
func (s *State) BlockCount() int {
	n := 0
	for _, src := range s.sources {
		n += len(src.Blocks())
	}
	return n
}
