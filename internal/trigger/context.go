package trigger

import "maps"

// ContextType names a kind of firing, e.g. "periodical".
type ContextType string

// Context represents exactly one firing. Contexts are compared by identity:
// two firings never share a Context value, even when they carry equal data.
type Context interface {
	ContextType() ContextType
	ID() string
}

// BaseContext is the stock Context implementation. Events that need to
// recognise their own firings embed it.
type BaseContext struct {
	id     string
	typ    ContextType
	values map[string]any
}

var defaultIDs IDGenerator = UUIDv7Generator{}

// NewContext creates a context with a fresh UUIDv7 id. values are context
// values readable by trigger bodies (e.g. script-load arguments); the map
// is copied.
func NewContext(typ ContextType, values map[string]any) *BaseContext {
	return NewContextWithID(defaultIDs.Generate(), typ, values)
}

// NewContextWithID creates a context with an explicit id.
func NewContextWithID(id string, typ ContextType, values map[string]any) *BaseContext {
	return &BaseContext{id: id, typ: typ, values: maps.Clone(values)}
}

func (c *BaseContext) ContextType() ContextType { return c.typ }
func (c *BaseContext) ID() string               { return c.id }

// Value returns a context value.
func (c *BaseContext) Value(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Values returns a copy of every context value.
func (c *BaseContext) Values() map[string]any {
	return maps.Clone(c.values)
}

// ValueOf returns a context value when ctx exposes values.
func ValueOf(ctx Context, key string) (any, bool) {
	vc, ok := ctx.(interface{ Value(string) (any, bool) })
	if !ok {
		return nil, false
	}
	return vc.Value(key)
}
