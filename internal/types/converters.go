package types

import (
	"fmt"
	"sync"
)

// ChainFlags restrict how a converter edge may take part in a two-hop
// composition F->M->T.
type ChainFlags uint8

const (
	// AllChaining allows the edge on either side of a chain.
	AllChaining ChainFlags = 0
	// NoLeftChaining forbids chaining another edge in front of this one,
	// so it can never be the second half of a chain.
	NoLeftChaining ChainFlags = 1
	// NoRightChaining forbids chaining another edge after this one,
	// so it can never be the first half of a chain.
	NoRightChaining ChainFlags = 2
	// NoChaining is a terminal edge: direct use only.
	NoChaining = NoLeftChaining | NoRightChaining
)

// ConvertFunc converts a value. It returns false when the value cannot be
// represented in the target type.
type ConvertFunc func(value any) (any, bool)

// ConverterInfo is one conversion edge.
type ConverterInfo struct {
	From    TypeID
	To      TypeID
	Convert ConvertFunc
	Flags   ChainFlags
}

func (c ConverterInfo) chainsAfter() bool  { return c.Flags&NoRightChaining == 0 }
func (c ConverterInfo) chainsBefore() bool { return c.Flags&NoLeftChaining == 0 }

// Converters indexes conversion edges by the types they relate.
type Converters struct {
	types *Registry

	mu    sync.RWMutex
	edges []ConverterInfo // registration order
}

// NewConverters creates an empty converter table over a registry.
func NewConverters(types *Registry) *Converters {
	return &Converters{types: types}
}

// Register adds a conversion edge. Both types must already be registered.
func (c *Converters) Register(info ConverterInfo) error {
	if info.Convert == nil {
		return fmt.Errorf("converter %s -> %s has no function", info.From, info.To)
	}
	if _, ok := c.types.Lookup(info.From); !ok {
		return fmt.Errorf("converter %s -> %s: unknown source type", info.From, info.To)
	}
	if _, ok := c.types.Lookup(info.To); !ok {
		return fmt.Errorf("converter %s -> %s: unknown target type", info.From, info.To)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.edges = append(c.edges, info)
	return nil
}

// Converter finds the conversion function from one type to another. A direct
// edge is preferred; otherwise a single intermediate type is tried, honouring
// the chain flags of both edges. Longer chains are never composed.
func (c *Converters) Converter(from, to TypeID) (ConvertFunc, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.edges {
		if e.From == from && e.To == to {
			return e.Convert, true
		}
	}

	for _, first := range c.edges {
		if first.From != from || !first.chainsAfter() {
			continue
		}
		for _, second := range c.edges {
			if second.From != first.To || second.To != to || !second.chainsBefore() {
				continue
			}
			return chain(first.Convert, second.Convert), true
		}
	}
	return nil, false
}

// Exists reports whether a value of type from can be converted to type to.
func (c *Converters) Exists(from, to TypeID) bool {
	if from == to {
		return true
	}
	_, ok := c.Converter(from, to)
	return ok
}

// Convert converts a value to the target type. Values that already belong to
// the target type are returned unchanged.
func (c *Converters) Convert(value any, to TypeID) (any, bool) {
	if value == nil {
		return nil, false
	}
	target, ok := c.types.Lookup(to)
	if !ok {
		return nil, false
	}
	if target.Match(value) {
		return value, true
	}
	from, ok := c.types.TypeOf(value)
	if !ok {
		return nil, false
	}
	fn, ok := c.Converter(from.ID, to)
	if !ok {
		return nil, false
	}
	return fn(value)
}

// ConvertAll converts every element, failing as a whole if any element fails.
func (c *Converters) ConvertAll(values []any, to TypeID) ([]any, bool) {
	out := make([]any, 0, len(values))
	for _, v := range values {
		cv, ok := c.Convert(v, to)
		if !ok {
			return nil, false
		}
		out = append(out, cv)
	}
	return out, true
}

func chain(first, second ConvertFunc) ConvertFunc {
	return func(value any) (any, bool) {
		mid, ok := first(value)
		if !ok {
			return nil, false
		}
		return second(mid)
	}
}
