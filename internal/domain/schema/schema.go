// Package schema validates untyped operation arguments against a field table
// and coerces them into a typed Bundle.
//
// Checks run in stages across all fields: presence, type, pattern, numeric
// bounds, string length. The first failure aborts validation and no partial
// Bundle is returned.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind is the primitive type of a field.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindObject  Kind = "object"
)

// Field declares one named argument.
type Field struct {
	Name        string
	Kind        Kind
	Description string
	Required    bool
	// Default is used when an optional field is absent. Must already be of
	// the coerced Go type (string, int64, float64, bool, map[string]any).
	Default     any
	Constraints []Constraint
}

// ErrValidation is wrapped by every *ValidationError.
var ErrValidation = errors.New("params validation failed")

// ValidationError names the offending field and the violated constraint.
type ValidationError struct {
	Field      string
	Constraint string
	Message    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validate checks raw against fields and returns the coerced Bundle.
// Keys in raw that no field declares are ignored.
func Validate(fields []Field, raw map[string]any) (Bundle, error) {
	for _, f := range fields {
		if f.Required && absent(raw, f.Name) {
			return nil, &ValidationError{Field: f.Name, Constraint: "required", Message: "field required"}
		}
	}

	out := make(Bundle, len(fields))
	for _, f := range fields {
		if absent(raw, f.Name) {
			if f.Default != nil {
				out[f.Name] = f.Default
			}
			continue
		}
		v, err := coerce(f.Kind, raw[f.Name])
		if err != nil {
			return nil, &ValidationError{Field: f.Name, Constraint: "type", Message: err.Error()}
		}
		out[f.Name] = v
	}

	for _, stage := range []Stage{StagePattern, StageBounds, StageLength} {
		for _, f := range fields {
			v, ok := out[f.Name]
			if !ok {
				continue
			}
			for _, c := range f.Constraints {
				if c.stage != stage || c.check(v) {
					continue
				}
				return nil, &ValidationError{Field: f.Name, Constraint: c.name, Message: c.message}
			}
		}
	}

	return out, nil
}

func absent(raw map[string]any, name string) bool {
	v, ok := raw[name]
	return !ok || v == nil
}

// JSONSchema renders fields as a JSON Schema object, used to advertise tool
// input shapes. extra properties are merged in as-is.
func JSONSchema(fields []Field, extra map[string]any) json.RawMessage {
	props := make(map[string]any, len(fields)+len(extra))
	required := make([]string, 0, len(fields))

	for _, f := range fields {
		prop := map[string]any{"type": string(f.Kind)}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		if f.Default != nil {
			prop["default"] = f.Default
		}
		for _, c := range f.Constraints {
			if c.annotate != nil {
				c.annotate(prop)
			}
		}
		props[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}
	for k, v := range extra {
		props[k] = v
	}

	doc := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		doc["required"] = required
	}

	out, _ := json.Marshal(doc)
	return out
}
