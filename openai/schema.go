package openai

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/randalmurphal/chatkit/parser"
)

// jsonSchemaFormat is the "response_format" value for structured output.
type jsonSchemaFormat struct {
	Type       string          `json:"type"`
	JSONSchema jsonSchemaBlock `json:"json_schema"`
}

type jsonSchemaBlock struct {
	Name   string             `json:"name"`
	Schema *jsonschema.Schema `json:"schema"`
	Strict bool               `json:"strict"`
}

// JSONObjectFormat asks for any valid JSON object.
var JSONObjectFormat = json.RawMessage(`{"type":"json_object"}`)

// ResponseFormatFor builds a json_schema response format from the Go type T.
// The schema is inlined (no $defs) and forbids extra properties, which strict
// mode requires.
//
//	type Answer struct {
//	    Summary string   `json:"summary"`
//	    Tags    []string `json:"tags"`
//	}
//	format, _ := openai.ResponseFormatFor[Answer]("answer")
//	resp, _ := client.Complete(ctx, provider.Request{ResponseFormat: format, ...})
func ResponseFormatFor[T any](name string) (json.RawMessage, error) {
	if name == "" {
		return nil, fmt.Errorf("schema name is required")
	}

	r := &jsonschema.Reflector{
		DoNotReference:             true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: false,
	}
	var zero T
	schema := r.Reflect(&zero)
	schema.Version = ""
	schema.ID = ""

	payload, err := json.Marshal(jsonSchemaFormat{
		Type: "json_schema",
		JSONSchema: jsonSchemaBlock{
			Name:   name,
			Schema: schema,
			Strict: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal response format: %w", err)
	}
	return payload, nil
}

// DecodeContent unmarshals a structured-output completion into T.
// Replies from servers that ignore response_format often wrap the object in
// a fenced block or prose; the first JSON payload found is decoded instead.
func DecodeContent[T any](content string) (T, error) {
	var out T
	err := json.Unmarshal([]byte(content), &out)
	if err == nil {
		return out, nil
	}
	raw, ok := parser.ExtractJSON(content)
	if !ok {
		return out, fmt.Errorf("decode structured content: %w", err)
	}
	out = *new(T)
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode structured content: %w", err)
	}
	return out, nil
}
