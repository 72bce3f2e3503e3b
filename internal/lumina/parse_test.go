package lumina

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoBlocks = `[
  {"id": "a", "title": {"he_text": "א", "en_text": "A"}, "prerequisites": [], "parents": []},
  {"id": "b", "title": {"he_text": "ב", "en_text": "B"}, "prerequisites": ["a"], "parents": ["a"]}
]`

func TestParse_Shapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		content   string
		wantIDs   []string
		wantExtra map[string]any
	}{
		{
			name:    "bare array",
			content: twoBlocks,
			wantIDs: []string{"a", "b"},
		},
		{
			name:      "object with blocks and passthrough fields",
			content:   `{"version": "1", "blocks": ` + twoBlocks + `}`,
			wantIDs:   []string{"a", "b"},
			wantExtra: map[string]any{"version": "1"},
		},
		{
			name:    "empty blocks array",
			content: `{"blocks": []}`,
			wantIDs: nil,
		},
		{
			name: "comments and trailing commas",
			content: `{
  // hand edited
  "blocks": [
    {"id": "a", "title": {"he_text": "א", "en_text": "A"},},
  ],
}`,
			wantIDs: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := Parse([]byte(tt.content), DefaultFilename)
			require.NoError(t, err)
			require.NotNil(t, doc.Blocks)

			var ids []string
			for _, b := range doc.Blocks {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantExtra, doc.Extra)
		})
	}
}

func TestParse_ArrayAndObjectNormalizeAlike(t *testing.T) {
	t.Parallel()

	fromArray, err := Parse([]byte(twoBlocks), DefaultFilename)
	require.NoError(t, err)
	fromObject, err := Parse([]byte(`{"blocks": `+twoBlocks+`}`), DefaultFilename)
	require.NoError(t, err)

	assert.Equal(t, fromArray, fromObject)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		content     string
		errContains string
	}{
		{
			name:        "object without blocks",
			content:     `{"items": []}`,
			errContains: "Invalid lumina.json format: missing or invalid blocks array",
		},
		{
			name:        "blocks is not an array",
			content:     `{"blocks": {"id": "a"}}`,
			errContains: "missing or invalid blocks array",
		},
		{
			name:        "string document",
			content:     `"hello"`,
			errContains: "expected object or array, got string",
		},
		{
			name:        "number document",
			content:     `42`,
			errContains: "expected object or array, got number",
		},
		{
			name:        "null document",
			content:     `null`,
			errContains: "expected object or array, got null",
		},
		{
			name:        "malformed json",
			content:     `{"blocks": [`,
			errContains: "Invalid lumina.json format",
		},
		{
			name:        "block without id",
			content:     `[{"title": {"he_text": "א", "en_text": "A"}}]`,
			errContains: "block 0",
		},
		{
			name:        "block without title",
			content:     `{"blocks": [{"id": "a"}]}`,
			errContains: "block 0",
		},
		{
			name:        "prerequisites of wrong type",
			content:     `[{"id": "a", "title": {"he_text": "א", "en_text": "A"}, "prerequisites": [1]}]`,
			errContains: "block 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := Parse([]byte(tt.content), DefaultFilename)
			require.Error(t, err)
			assert.Nil(t, doc)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %T", err)
			assert.Contains(t, verr.Message, tt.errContains)
		})
	}
}

func TestParse_UnresolvedReferencesAreAccepted(t *testing.T) {
	t.Parallel()

	content := `[{"id": "a", "title": {"he_text": "", "en_text": ""}, "prerequisites": ["missing"], "parents": ["nowhere"]}]`
	doc, err := Parse([]byte(content), DefaultFilename)
	require.NoError(t, err)
	assert.Equal(t, []string{"missing"}, doc.Blocks[0].Prerequisites)
	assert.Equal(t, []string{"nowhere"}, doc.Blocks[0].Parents)
}

func TestBlock_ExtraFieldsRoundTrip(t *testing.T) {
	t.Parallel()

	in := `{"id":"a","title":{"he_text":"א","en_text":"A"},"difficulty":3,"tags":["x"]}`

	var b Block
	require.NoError(t, json.Unmarshal([]byte(in), &b))
	assert.Equal(t, "a", b.ID)
	assert.Empty(t, b.Prerequisites)
	assert.NotNil(t, b.Prerequisites)
	assert.Equal(t, map[string]any{"difficulty": float64(3), "tags": []any{"x"}}, b.Extra)

	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"id":"a","title":{"he_text":"א","en_text":"A"},"prerequisites":[],"parents":[],"difficulty":3,"tags":["x"]}`,
		string(out))
}

func TestParseProvider(t *testing.T) {
	t.Parallel()

	p, err := ParseProvider("gitlab")
	require.NoError(t, err)
	assert.Equal(t, ProviderGitLab, p)
	assert.Equal(t, "GitLab", p.DisplayName())

	_, err = ParseProvider("bitbucket")
	var uerr *UnsupportedProviderError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "Unsupported provider: bitbucket", err.Error())
}
