package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TypeID identifies a runtime type by its base name.
type TypeID string

// Serializer converts values of one type to and from a portable payload.
type Serializer interface {
	Serialize(value any) (json.RawMessage, error)
	Deserialize(data json.RawMessage) (any, error)
}

// Type describes a runtime type.
//
// Only ID, Pattern and Match are required. Every other field is optional
// and a nil field means the type does not support that capability.
type Type struct {
	// ID is the unique base name, e.g. "integer".
	ID TypeID

	// Pattern is the singular/plural pattern, e.g. "integer@s" or
	// "box@es". The text after '@' is the plural suffix.
	Pattern string

	// Match reports whether a Go value belongs to this type.
	Match func(value any) bool

	// Parse converts literal text. It returns false on unparsable input.
	Parse func(text string) (any, bool)

	// Render converts a value to its display string.
	Render func(value any) string

	Serializer Serializer
	Arithmetic Arithmetic

	// Values supplies every known instance of the type, for
	// "all values of type T" expressions.
	Values func() []any
}

// Singular returns the pattern with the plural marker removed.
func (t *Type) Singular() string {
	single, _, _ := strings.Cut(t.Pattern, "@")
	return single
}

// Plural returns the pattern's plural form.
func (t *Type) Plural() string {
	single, suffix, found := strings.Cut(t.Pattern, "@")
	if !found {
		return single
	}
	return single + suffix
}

func (t *Type) String() string {
	return string(t.ID)
}

func (t *Type) validate() error {
	if t.ID == "" {
		return fmt.Errorf("type has empty id")
	}
	if t.Pattern == "" {
		return fmt.Errorf("type %q has empty pattern", t.ID)
	}
	if t.Match == nil {
		return fmt.Errorf("type %q has no match predicate", t.ID)
	}
	return nil
}

// JSONSerializer serializes values of Go type T through the canonical
// payload encoding.
func JSONSerializer[T any]() Serializer {
	return jsonSerializer[T]{}
}

type jsonSerializer[T any] struct{}

func (jsonSerializer[T]) Serialize(value any) (json.RawMessage, error) {
	v, ok := value.(T)
	if !ok {
		return nil, fmt.Errorf("cannot serialize %T", value)
	}
	return MarshalCanonical(v)
}

func (jsonSerializer[T]) Deserialize(data json.RawMessage) (any, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// SerializerFunc builds a Serializer from an encoding pair of functions.
// to maps the value to a JSON-friendly form; from reverses it.
func SerializerFunc[T, W any](to func(T) W, from func(W) (T, error)) Serializer {
	return funcSerializer[T, W]{to: to, from: from}
}

type funcSerializer[T, W any] struct {
	to   func(T) W
	from func(W) (T, error)
}

func (s funcSerializer[T, W]) Serialize(value any) (json.RawMessage, error) {
	v, ok := value.(T)
	if !ok {
		return nil, fmt.Errorf("cannot serialize %T", value)
	}
	return MarshalCanonical(s.to(v))
}

func (s funcSerializer[T, W]) Deserialize(data json.RawMessage) (any, error) {
	var w W
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return s.from(w)
}
