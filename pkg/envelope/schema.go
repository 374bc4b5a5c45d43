package envelope

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// envelopeSchema pins down the fields the extractor relies on. Item shapes
// are left open; they are decoded into typed structs afterwards.
const envelopeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["status_code"],
  "properties": {
    "status_code": {"type": "integer"},
    "status_message": {"type": ["string", "null"]},
    "cost": {"type": ["number", "null"]},
    "tasks": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["status_code"],
        "properties": {
          "id": {"type": ["string", "null"]},
          "status_code": {"type": "integer"},
          "status_message": {"type": ["string", "null"]},
          "cost": {"type": ["number", "null"]},
          "result": {"type": ["array", "null"]}
        }
      }
    }
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(envelopeSchema))
	if err != nil {
		panic("envelope: invalid schema: " + err.Error())
	}
	return schema
}

// Decode validates raw against the envelope schema and unmarshals it.
// A blank or literal null body yields an EMPTY EnvelopeError; anything else
// that does not match the schema yields a ValidationError. When only the
// items are malformed the ValidationError still carries the billed cost.
func Decode[T any](raw []byte) (*Envelope[T], error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &EnvelopeError{Kind: KindEmpty}
	}

	result, err := compiledSchema.Validate(gojsonschema.NewBytesLoader(trimmed))
	if err != nil {
		return nil, &ValidationError{Reason: "invalid json", Err: err}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, &ValidationError{Reason: strings.Join(msgs, "; ")}
	}

	var env Envelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, &ValidationError{Reason: "unexpected item shape", Cost: billedCost(trimmed), Err: err}
	}
	return &env, nil
}

// billedCost recovers the cost of a schema-valid envelope whose items did
// not fit the typed result.
func billedCost(raw []byte) float64 {
	var env Envelope[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err != nil {
		return 0
	}
	return env.AttemptCost()
}
