package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// SchemaFor reflects the params struct T into an inline JSON schema object
// suitable for tool advertisement. Field names come from json tags and
// descriptions from jsonschema tags.
func SchemaFor[T any]() map[string]any {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	var zero T
	s := r.Reflect(&zero)

	raw, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("capability: reflecting schema for %T: %v", zero, err))
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("capability: decoding schema for %T: %v", zero, err))
	}
	delete(out, "$schema")
	delete(out, "$id")
	return out
}

// Bind validates params against schema and decodes them into dst.
func Bind(params map[string]any, schema map[string]any, dst any) error {
	if params == nil {
		params = map[string]any{}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encoding parameters: %w", err)
	}

	if schema != nil {
		result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewBytesLoader(data))
		if err != nil {
			return fmt.Errorf("schema validation failed: %w", err)
		}
		if !result.Valid() {
			var msgs []string
			for _, e := range result.Errors() {
				msgs = append(msgs, e.String())
			}
			return fmt.Errorf("invalid parameters: %s", strings.Join(msgs, "; "))
		}
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding parameters: %w", err)
	}
	return nil
}

// Typed builds a capability whose parameters are described and decoded from
// the struct P. Invalid parameters produce a Failure payload without calling fn.
func Typed[P any](name, description string, fn func(ctx context.Context, p P) (Payload, error)) Capability {
	schema := SchemaFor[P]()
	return Func{
		Desc: Descriptor{Name: name, Description: description, Schema: schema},
		Fn: func(ctx context.Context, params map[string]any) (Payload, error) {
			var p P
			if err := Bind(params, schema, &p); err != nil {
				return Failure(err), nil
			}
			return fn(ctx, p)
		},
	}
}
