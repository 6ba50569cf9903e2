package prompts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// configSchema describes the prompt configuration file. Every top-level key
// other than metadata_to_extract is a language section.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["metadata_to_extract"],
  "properties": {
    "metadata_to_extract": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    }
  },
  "additionalProperties": {"$ref": "#/$defs/language"},
  "$defs": {
    "taskPrompt": {
      "type": "object",
      "properties": {
        "prompt": {"type": "string"},
        "addendum": {"type": "string"},
        "output": {"type": "string"}
      }
    },
    "language": {
      "type": "object",
      "required": ["classification_prompts", "metadata_prompts", "tests_prompts", "metadata_extraction_string"],
      "properties": {
        "classification_prompts": {"$ref": "#/$defs/taskPrompt"},
        "metadata_prompts": {
          "type": "object",
          "additionalProperties": {"$ref": "#/$defs/taskPrompt"}
        },
        "tests_prompts": {"$ref": "#/$defs/taskPrompt"},
        "metadata_extraction_string": {
          "type": "object",
          "additionalProperties": {"type": "string"}
        },
        "metadata_normalization_prompts": {"$ref": "#/$defs/taskPrompt"}
      }
    }
  }
}`

var (
	compiledOnce sync.Once
	compiled     *jsonschema.Schema
	compileErr   error
)

func configSchemaCompiled() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("config.schema.json", bytes.NewReader([]byte(configSchema))); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile("config.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// validateDocument checks raw JSON against configSchema.
func validateDocument(data []byte) error {
	schema, err := configSchemaCompiled()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
