package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrSchema is returned when a file does not match the configuration schema.
var ErrSchema = errors.New("schema violation")

const schemaName = "glyphkey-config.schema.json"

const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "definitions": {
    "strings": { "type": "array", "items": { "type": "string" } },
    "file": {
      "type": "object",
      "properties": { "path": { "type": "string", "minLength": 1 } },
      "required": ["path"],
      "additionalProperties": false
    },
    "detailed": {
      "type": "object",
      "properties": {
        "value": { "type": "string" },
        "alias": { "$ref": "#/definitions/strings" }
      },
      "required": ["value"],
      "additionalProperties": false
    },
    "moreDetailed": {
      "type": "object",
      "properties": {
        "values": { "$ref": "#/definitions/strings" },
        "alias": { "$ref": "#/definitions/strings" }
      },
      "required": ["values"],
      "additionalProperties": false
    },
    "dataEntry": {
      "oneOf": [
        { "type": "string" },
        { "$ref": "#/definitions/file" },
        { "$ref": "#/definitions/detailed" }
      ]
    },
    "translationEntry": {
      "oneOf": [
        { "type": "string" },
        { "$ref": "#/definitions/strings" },
        { "$ref": "#/definitions/file" },
        { "$ref": "#/definitions/detailed" },
        { "$ref": "#/definitions/moreDetailed" }
      ]
    },
    "translatorEntry": {
      "oneOf": [
        { "type": "string", "minLength": 1 },
        { "$ref": "#/definitions/file" }
      ]
    }
  },
  "properties": {
    "core": {
      "type": "object",
      "properties": {
        "buffer_size": { "type": "integer", "minimum": 1 },
        "page_size": { "type": "integer", "minimum": 1 },
        "auto_capitalize": { "type": "boolean" },
        "auto_commit": { "type": "boolean" },
        "inhibit": { "type": "boolean" },
        "similarity_threshold": { "type": "number", "minimum": 0, "exclusiveMaximum": 1 }
      }
    },
    "data": {
      "type": "object",
      "additionalProperties": { "$ref": "#/definitions/dataEntry" }
    },
    "translation": {
      "type": "object",
      "additionalProperties": { "$ref": "#/definitions/translationEntry" }
    },
    "translators": {
      "type": "object",
      "additionalProperties": { "$ref": "#/definitions/translatorEntry" }
    }
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaName, strings.NewReader(configSchema)); err != nil {
		panic(fmt.Sprintf("config: add schema resource: %v", err))
	}
	schema, err := compiler.Compile(schemaName)
	if err != nil {
		panic(fmt.Sprintf("config: compile schema: %v", err))
	}
	return schema
}

// validateSchema checks the decoded document. The instance is rebuilt
// through encoding/json so that every format reaches the validator with
// the same value types.
func validateSchema(doc *document) error {
	instance := map[string]any{"core": doc.settings.Core}
	for name, entries := range doc.tables {
		table := make(map[string]any, len(entries))
		for _, e := range entries {
			table[e.key] = e.value
		}
		instance[name] = table
	}

	raw, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if err := compiledSchema.Validate(generic); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return nil
}
