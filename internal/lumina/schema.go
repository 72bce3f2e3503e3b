package lumina

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const blockSchemaURL = "https://schemas.lumina.study/block.schema.json"

const blockSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["id", "title"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "title": {
      "type": "object",
      "required": ["he_text", "en_text"],
      "properties": {
        "he_text": {"type": "string"},
        "en_text": {"type": "string"}
      }
    },
    "prerequisites": {"type": "array", "items": {"type": "string"}},
    "parents": {"type": "array", "items": {"type": "string"}}
  }
}`

var compileBlockSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(blockSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to decode block schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(blockSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to load block schema: %w", err)
	}
	return c.Compile(blockSchemaURL)
})

// validateBlocks checks every block instance against the block schema.
// Instances must come from jsonschema.UnmarshalJSON.
func validateBlocks(filename string, blocks []any) error {
	schema, err := compileBlockSchema()
	if err != nil {
		return err
	}
	for i, block := range blocks {
		if err := schema.Validate(block); err != nil {
			return &ValidationError{
				Message: fmt.Sprintf("Invalid %s format: block %d: %s", filename, i, schemaMessage(err)),
			}
		}
	}
	return nil
}

func schemaMessage(err error) string {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	// Leaf causes carry the detail, the root only names the schema.
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	lines := strings.Split(strings.TrimSpace(verr.Error()), "\n")
	msg := strings.TrimSpace(strings.TrimPrefix(lines[len(lines)-1], "-"))
	if msg == "" {
		return "schema validation failed"
	}
	return msg
}
