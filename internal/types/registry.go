package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrDuplicateType is returned when a type id is registered twice.
var ErrDuplicateType = errors.New("type already registered")

// SerializedValue is a type tag plus portable payload.
type SerializedValue struct {
	Type TypeID          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Registry holds one descriptor per runtime type.
//
// Thread-safety: all methods are safe for concurrent use. Registration is
// expected to happen once at startup, lookups happen on every expression
// evaluation.
type Registry struct {
	mu     sync.RWMutex
	order  []*Type // registration order
	byID   map[TypeID]*Type
	byForm map[string]*Type // lowercase singular and plural forms
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[TypeID]*Type),
		byForm: make(map[string]*Type),
	}
}

// Register adds a type. A second registration of the same id is rejected
// with ErrDuplicateType.
func (r *Registry) Register(t Type) error {
	if err := t.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[t.ID]; exists {
		return fmt.Errorf("register %q: %w", t.ID, ErrDuplicateType)
	}

	desc := &t
	r.order = append(r.order, desc)
	r.byID[t.ID] = desc
	for _, form := range []string{desc.Singular(), desc.Plural()} {
		key := strings.ToLower(form)
		if _, taken := r.byForm[key]; !taken {
			r.byForm[key] = desc
		}
	}
	return nil
}

// MustRegister is Register for startup code where a failure is a bug.
func (r *Registry) MustRegister(t Type) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor for id.
func (r *Registry) Lookup(id TypeID) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	return t, ok
}

// ByName finds a type by its singular or plural form, case-insensitively.
func (r *Registry) ByName(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byForm[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// All returns every descriptor in registration order.
func (r *Registry) All() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Type, len(r.order))
	copy(out, r.order)
	return out
}

// TypeOf maps a Go value to its registered type. Descriptors registered
// later are checked first.
func (r *Registry) TypeOf(value any) (*Type, bool) {
	if value == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.order) - 1; i >= 0; i-- {
		if r.order[i].Match(value) {
			return r.order[i], true
		}
	}
	return nil, false
}

// ParseLiteral parses text as a literal of the given type. It returns false
// when the type is unknown, has no parser, or rejects the text.
func (r *Registry) ParseLiteral(id TypeID, text string) (any, bool) {
	t, ok := r.Lookup(id)
	if !ok || t.Parse == nil {
		return nil, false
	}
	return t.Parse(text)
}

// Render returns the display string of a value.
func (r *Registry) Render(value any) string {
	if value == nil {
		return "<none>"
	}
	if t, ok := r.TypeOf(value); ok && t.Render != nil {
		return t.Render(value)
	}
	return fmt.Sprint(value)
}

// Serialize encodes a value with its type's serializer. It returns false when
// the value's type is unknown or cannot be serialized.
func (r *Registry) Serialize(value any) (*SerializedValue, bool) {
	t, ok := r.TypeOf(value)
	if !ok || t.Serializer == nil {
		return nil, false
	}
	data, err := t.Serializer.Serialize(value)
	if err != nil {
		return nil, false
	}
	return &SerializedValue{Type: t.ID, Data: data}, true
}

// Deserialize decodes a payload produced by Serialize.
func (r *Registry) Deserialize(id TypeID, data json.RawMessage) (any, error) {
	t, ok := r.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("deserialize: unknown type %q", id)
	}
	if t.Serializer == nil {
		return nil, fmt.Errorf("deserialize: type %q has no serializer", id)
	}
	v, err := t.Serializer.Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("deserialize %q: %w", id, err)
	}
	return v, nil
}

// Arithmetic returns the arithmetic of a type, if it has one.
func (r *Registry) Arithmetic(id TypeID) (Arithmetic, bool) {
	t, ok := r.Lookup(id)
	if !ok || t.Arithmetic == nil {
		return nil, false
	}
	return t.Arithmetic, true
}

// Values returns every known instance of a type.
func (r *Registry) Values(id TypeID) ([]any, bool) {
	t, ok := r.Lookup(id)
	if !ok || t.Values == nil {
		return nil, false
	}
	return t.Values(), true
}
