// Package schema derives tool input schemas from Go structs.
//
// A tool's input schema is a structural description: type "object", a
// mapping from property name to a type descriptor, and the list of
// required property names. Handlers declare their input as a struct and
// the schema is generated by reflection; `json` tags name the
// properties and `jsonschema:"required"` marks them required.
package schema

import (
	"reflect"
	"strings"
)

// Schema is a JSON Schema fragment describing a tool input.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []any              `json:"enum,omitempty"`
}

const (
	typeObject  = "object"
	typeArray   = "array"
	typeString  = "string"
	typeInteger = "integer"
	typeNumber  = "number"
	typeBoolean = "boolean"
)

// Generate creates a schema describing the given value's type.
func Generate(v any) (*Schema, error) {
	return FromType(reflect.TypeOf(v))
}

// FromType creates a schema from a reflect.Type.
func FromType(t reflect.Type) (*Schema, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		return structSchema(t)
	case reflect.String:
		return &Schema{Type: typeString}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: typeInteger}, nil
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: typeNumber}, nil
	case reflect.Bool:
		return &Schema{Type: typeBoolean}, nil
	case reflect.Slice, reflect.Array:
		items, err := FromType(t.Elem())
		if err != nil {
			return nil, err
		}
		return &Schema{Type: typeArray, Items: items}, nil
	case reflect.Map:
		return &Schema{Type: typeObject}, nil
	default:
		return &Schema{}, nil
	}
}

func structSchema(t reflect.Type) (*Schema, error) {
	s := &Schema{
		Type:       typeObject,
		Properties: make(map[string]*Schema),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := field.Name
		if jsonTag != "" {
			if head, _, _ := strings.Cut(jsonTag, ","); head != "" {
				name = head
			}
		}

		prop, err := FromType(field.Type)
		if err != nil {
			return nil, err
		}
		applyTag(field.Tag.Get("jsonschema"), prop, &s.Required, name)
		s.Properties[name] = prop
	}

	return s, nil
}

// applyTag interprets the jsonschema struct tag: "required" and
// "description=..." entries, comma-separated.
func applyTag(tag string, prop *Schema, required *[]string, name string) {
	if tag == "" {
		return
	}
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "required":
			*required = append(*required, name)
		case strings.HasPrefix(part, "description="):
			prop.Description = strings.TrimPrefix(part, "description=")
		}
	}
}
