package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

// Handler runs one tool call and returns the payload to serialize.
type Handler func(ctx context.Context, call Call) (any, error)

// Tool binds a descriptor's coercion table to its handler.
type Tool struct {
	Name        string
	Description string
	Fields      []Field
	Handler     Handler
}

// Call is what a handler receives.
type Call struct {
	ID   string
	Tool string
	// Args holds the coerced arguments keyed by field name.
	Args map[string]any
	// Raw is the caller's argument map, untouched.
	Raw map[string]any
}

// Decode copies the coerced arguments into out, a pointer to a struct with
// mapstructure tags.
func (c Call) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(c.Args); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}

type entry struct {
	tool       Tool
	descriptor Descriptor
	schema     *gojsonschema.Schema
}

// Registry is the fixed, ordered set of tools. It is read-only after
// NewRegistry returns.
type Registry struct {
	entries []*entry
	index   map[string]*entry
}

// NewRegistry registers tools in declaration order and compiles each input
// schema. Names must be unique and non-empty.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{index: make(map[string]*entry, len(tools))}
	for _, t := range tools {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, fmt.Errorf("register tool: empty name")
		}
		if _, dup := r.index[name]; dup {
			return nil, fmt.Errorf("register tool %s: duplicate name", name)
		}
		if t.Handler == nil {
			return nil, fmt.Errorf("register tool %s: nil handler", name)
		}
		desc := Descriptor{Name: name, Description: t.Description, InputSchema: schemaFor(t.Fields)}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(desc.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("compile schema for %s: %w", name, err)
		}
		e := &entry{tool: t, descriptor: desc, schema: schema}
		r.entries = append(r.entries, e)
		r.index[name] = e
	}
	return r, nil
}

// Descriptors returns copies of every descriptor in declaration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.descriptor.clone())
	}
	return out
}

func (r *Registry) lookup(name string) (*entry, bool) {
	e, ok := r.index[name]
	return e, ok
}

// validate checks coerced arguments against the compiled input schema.
func (e *entry) validate(args map[string]any) error {
	result, err := e.schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		msgs = append(msgs, re.String())
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
