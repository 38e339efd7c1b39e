package tools

import (
	"reflect"
	"strings"
)

// buildSchema walks args's exported fields and builds the JSON-Schema-like
// description spec §4.9 calls for: primitive kinds map to
// string/integer/number/boolean; slices to array; structs/maps to object;
// pointer fields are optional (a field default-indicating no required
// entry); unknown kinds fall back to string. Special-parameter injection
// (event_bus, opaque context) has no analogue here to exclude — Go handlers
// receive those via the separate *Context argument, never via the args
// struct, so every exported field of A is model-visible by construction.
func buildSchema(t reflect.Type) Schema {
	schema := Schema{Type: "object", Properties: map[string]Property{}}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" {
			name = f.Name
		}
		description := f.Tag.Get("description")

		fieldType := f.Type
		optional := false
		if fieldType.Kind() == reflect.Ptr {
			optional = true
			fieldType = fieldType.Elem()
		}

		schema.Properties[name] = Property{
			Type:        jsonType(fieldType),
			Description: description,
		}

		if !optional {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema
}

func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct, reflect.Map:
		return "object"
	default:
		return "string"
	}
}
