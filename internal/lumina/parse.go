package lumina

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tailscale/hujson"
)

// DefaultFilename is the document file looked up at a repository root.
const DefaultFilename = "lumina.json"

// ValidationError reports a document that does not have the expected shape.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Parse decodes the content of a lumina document. A bare array of blocks and
// an object with a "blocks" array are both accepted and yield the same
// Document form. Comments and trailing commas are tolerated.
func Parse(content []byte, filename string) (*Document, error) {
	if filename == "" {
		filename = DefaultFilename
	}

	standard, err := hujson.Standardize(bytes.Clone(content))
	if err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("Invalid %s format: %v", filename, err)}
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(standard))
	if err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("Invalid %s format: %v", filename, err)}
	}

	switch v := instance.(type) {
	case []any:
		if err := validateBlocks(filename, v); err != nil {
			return nil, err
		}
		var blocks []Block
		if err := json.Unmarshal(standard, &blocks); err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("Invalid %s format: %v", filename, err)}
		}
		return &Document{Blocks: nonNilBlocks(blocks)}, nil

	case map[string]any:
		blocks, ok := v["blocks"].([]any)
		if !ok {
			return nil, &ValidationError{
				Message: fmt.Sprintf("Invalid %s format: missing or invalid blocks array", filename),
			}
		}
		if err := validateBlocks(filename, blocks); err != nil {
			return nil, err
		}
		var doc Document
		if err := json.Unmarshal(standard, &doc); err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("Invalid %s format: %v", filename, err)}
		}
		doc.Blocks = nonNilBlocks(doc.Blocks)
		return &doc, nil

	default:
		return nil, &ValidationError{
			Message: fmt.Sprintf("Invalid %s format: expected object or array, got %s", filename, kindOf(instance)),
		}
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number, float64, int, int64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func nonNilBlocks(b []Block) []Block {
	if b == nil {
		return []Block{}
	}
	return b
}
