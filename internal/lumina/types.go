// Package lumina defines the lumina.json document model and the identity of
// the repositories those documents are fetched from.
package lumina

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"
)

// Provider identifies a source-control hosting provider.
type Provider string

const (
	// ProviderGitHub is the GitHub provider tag
	ProviderGitHub Provider = "github"
	// ProviderGitLab is the GitLab provider tag
	ProviderGitLab Provider = "gitlab"
)

// Providers lists every supported provider in a stable order.
var Providers = []Provider{ProviderGitHub, ProviderGitLab}

// Valid reports whether p is one of the supported providers.
func (p Provider) Valid() bool {
	return p == ProviderGitHub || p == ProviderGitLab
}

// DisplayName returns the human readable provider name used in messages.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderGitHub:
		return "GitHub"
	case ProviderGitLab:
		return "GitLab"
	default:
		return string(p)
	}
}

// UnsupportedProviderError is returned when a provider tag is not recognized.
type UnsupportedProviderError struct {
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return "Unsupported provider: " + e.Provider
}

// ParseProvider converts a provider tag into a Provider.
func ParseProvider(s string) (Provider, error) {
	p := Provider(s)
	if !p.Valid() {
		return "", &UnsupportedProviderError{Provider: s}
	}
	return p, nil
}

// Triple identifies one remote document location.
type Triple struct {
	Provider     Provider `json:"provider"`
	Organization string   `json:"organization"`
	Repository   string   `json:"repository"`
}

// Path returns the organization/repository path.
func (t Triple) Path() string {
	return t.Organization + "/" + t.Repository
}

func (t Triple) String() string {
	return fmt.Sprintf("%s@%s", t.Path(), t.Provider)
}

// Title is the bilingual label of a block.
type Title struct {
	HeText string `json:"he_text"`
	EnText string `json:"en_text"`
}

// Block is a single entry of a lumina document. Fields the model does not
// know about are kept in Extra and written back on marshal.
type Block struct {
	ID            string
	Title         Title
	Prerequisites []string
	Parents       []string
	Extra         map[string]any
}

// Clone returns a copy of b whose slices and top-level Extra map are not
// shared with b.
func (b Block) Clone() Block {
	b.Prerequisites = slices.Clone(b.Prerequisites)
	b.Parents = slices.Clone(b.Parents)
	b.Extra = maps.Clone(b.Extra)
	return b
}

// IsRoot reports whether the block has no parents.
func (b Block) IsRoot() bool {
	return len(b.Parents) == 0
}

// MarshalJSON implements json.Marshaler.
func (b Block) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(b.Extra)+4)
	for k, v := range b.Extra {
		out[k] = v
	}
	out["id"] = b.ID
	out["title"] = b.Title
	out["prerequisites"] = nonNil(b.Prerequisites)
	out["parents"] = nonNil(b.Parents)
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Block) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var decoded Block
	if err := unmarshalField(fields, "id", &decoded.ID); err != nil {
		return err
	}
	if err := unmarshalField(fields, "title", &decoded.Title); err != nil {
		return err
	}
	if err := unmarshalField(fields, "prerequisites", &decoded.Prerequisites); err != nil {
		return err
	}
	if err := unmarshalField(fields, "parents", &decoded.Parents); err != nil {
		return err
	}
	decoded.Prerequisites = nonNil(decoded.Prerequisites)
	decoded.Parents = nonNil(decoded.Parents)

	extra, err := remaining(fields, "id", "title", "prerequisites", "parents")
	if err != nil {
		return err
	}
	decoded.Extra = extra

	*b = decoded
	return nil
}

// Document is a parsed lumina.json payload.
type Document struct {
	Blocks []Block
	Extra  map[string]any
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+1)
	for k, v := range d.Extra {
		out[k] = v
	}
	blocks := d.Blocks
	if blocks == nil {
		blocks = []Block{}
	}
	out["blocks"] = blocks
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var decoded Document
	if err := unmarshalField(fields, "blocks", &decoded.Blocks); err != nil {
		return err
	}
	extra, err := remaining(fields, "blocks")
	if err != nil {
		return err
	}
	decoded.Extra = extra

	*d = decoded
	return nil
}

// Source is a stored document together with where and when it was fetched.
// Values handed out by the registry are shared and must not be modified.
type Source struct {
	Triple
	CommitSHA string    `json:"commitSha"`
	Document  *Document `json:"luminaJson"`
	AddedAt   time.Time `json:"addedAt"`
}

// Blocks returns the blocks of the source document, or nil if it has none.
func (s *Source) Blocks() []Block {
	if s == nil || s.Document == nil {
		return nil
	}
	return s.Document.Blocks
}

func unmarshalField(fields map[string]json.RawMessage, name string, dst any) error {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("field %q: %w", name, err)
	}
	return nil
}

func remaining(fields map[string]json.RawMessage, known ...string) (map[string]any, error) {
	var extra map[string]any
	for k, raw := range fields {
		if slices.Contains(known, k) {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return extra, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
