// Package tools holds the static tool registry and the dispatcher that
// validates arguments, runs handlers and wraps their output in the uniform
// result envelope.
package tools

// FieldType selects the coercion rule applied to an argument.
type FieldType string

// Supported argument types.
const (
	FieldString FieldType = "string"
	// FieldNumber accepts JSON numbers and digit strings; values must be
	// non-negative whole numbers.
	FieldNumber FieldType = "number"
	// FieldDate is a string in YYYY-MM-DD form.
	FieldDate FieldType = "date"
)

const datePattern = `^[0-9]{4}-[0-9]{2}-[0-9]{2}$`

// Field is one row of a tool's coercion table.
type Field struct {
	Name        string
	Type        FieldType
	Description string
	Required    bool
}

// Property is a JSON-Schema property as advertised to clients.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Pattern     string `json:"pattern,omitempty"`
	Minimum     *int   `json:"minimum,omitempty"`
}

// Schema is the JSON-Schema object describing a tool's arguments.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Descriptor is the advertised, immutable description of a tool.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"inputSchema"`
}

func schemaFor(fields []Field) Schema {
	schema := Schema{Type: "object", Properties: make(map[string]Property, len(fields))}
	for _, f := range fields {
		prop := Property{Type: string(FieldString), Description: f.Description}
		switch f.Type {
		case FieldNumber:
			zero := 0
			prop.Type = string(FieldNumber)
			prop.Minimum = &zero
		case FieldDate:
			prop.Pattern = datePattern
		}
		schema.Properties[f.Name] = prop
		if f.Required {
			schema.Required = append(schema.Required, f.Name)
		}
	}
	return schema
}

// clone returns a copy sharing no maps or slices with d.
func (d Descriptor) clone() Descriptor {
	out := d
	out.InputSchema.Properties = make(map[string]Property, len(d.InputSchema.Properties))
	for k, v := range d.InputSchema.Properties {
		if v.Minimum != nil {
			minimum := *v.Minimum
			v.Minimum = &minimum
		}
		out.InputSchema.Properties[k] = v
	}
	if d.InputSchema.Required != nil {
		out.InputSchema.Required = append([]string(nil), d.InputSchema.Required...)
	}
	return out
}
