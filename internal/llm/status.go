package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// errorForStatus turns an SDK error carrying an HTTP status into one of the
// typed errors the retry layer branches on. Anything that is not a rate
// limit is treated as the provider being unavailable.
func errorForStatus(status int, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: err}
	}
	return &ErrProviderUnavailable{Status: status, Err: err}
}

// checkContent validates content against the request schema and rejects
// output cut short by the token limit.
func checkContent(req Request, content json.RawMessage, stop string) error {
	if stop == StopMaxTokens && req.Schema != nil {
		return &ErrMaxTokensExceeded{Content: content}
	}
	return validateResponse(req.Schema, content)
}

// validateResponse checks raw against schema. A nil schema accepts
// anything; every failure is an *ErrInvalidResponse.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}
	reject := func(format string, args ...any) error {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf(format, args...)}
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return reject("decode %s: %w", schema.Name, err)
	}
	compiled, err := compileSchema(schema)
	if err != nil {
		return reject("schema %s: %w", schema.Name, err)
	}
	if err := compiled.Validate(doc); err != nil {
		return reject("%s: %w", schema.Name, err)
	}
	return nil
}

// compiledSchemas holds *jsonschema.Schema keyed by Schema.Name.
var compiledSchemas sync.Map

func compileSchema(schema *Schema) (*jsonschema.Schema, error) {
	if v, ok := compiledSchemas.Load(schema.Name); ok {
		return v.(*jsonschema.Schema), nil
	}

	// The compiler takes decoded JSON, not Go maps with typed slices.
	def, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		return nil, err
	}

	url := "mem://llm/" + schema.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, err
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, err
	}
	v, _ := compiledSchemas.LoadOrStore(schema.Name, compiled)
	return v.(*jsonschema.Schema), nil
}

// resolveModel maps a friendly model name to a provider model ID.
// Unknown names pass through so direct model IDs work.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
