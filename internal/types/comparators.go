package types

import (
	"fmt"
	"reflect"
	"sync"
)

// CompareFunc computes the relation between two values.
type CompareFunc func(first, second any) Relation

// ComparatorInfo is one comparison edge.
type ComparatorInfo struct {
	First   TypeID
	Second  TypeID
	Compare CompareFunc
	// SupportsOrdering is false for types that only know Equal/NotEqual.
	SupportsOrdering bool
}

// Comparators indexes comparison edges by type pair.
type Comparators struct {
	types      *Registry
	converters *Converters

	mu    sync.RWMutex
	edges map[[2]TypeID]ComparatorInfo
}

// NewComparators creates an empty comparator table. converters may be nil, in
// which case no conversion fallback is attempted.
func NewComparators(types *Registry, converters *Converters) *Comparators {
	return &Comparators{
		types:      types,
		converters: converters,
		edges:      make(map[[2]TypeID]ComparatorInfo),
	}
}

// Register adds a comparison edge. Registering the same pair twice replaces
// the earlier edge.
func (c *Comparators) Register(info ComparatorInfo) error {
	if info.Compare == nil {
		return fmt.Errorf("comparator %s/%s has no function", info.First, info.Second)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edges[[2]TypeID{info.First, info.Second}] = info
	return nil
}

// Comparator returns the edge for the exact pair, else for the swapped pair.
// swapped reports that arguments must be swapped and the result inverted.
func (c *Comparators) Comparator(first, second TypeID) (info ComparatorInfo, swapped bool, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if info, ok := c.edges[[2]TypeID{first, second}]; ok {
		return info, false, true
	}
	if info, ok := c.edges[[2]TypeID{second, first}]; ok {
		return info, true, true
	}
	return ComparatorInfo{}, false, false
}

// Compare computes the relation between a and b.
//
// Lookup order: exact pair, swapped pair (relation inverted), then converting
// one side to the other side's type and using that type's own comparator.
// Two values of the same type with no comparator at all fall back to ==
// when their Go type is comparable. It returns false otherwise.
func (c *Comparators) Compare(a, b any) (Relation, bool) {
	ta, ok := c.types.TypeOf(a)
	if !ok {
		return 0, false
	}
	tb, ok := c.types.TypeOf(b)
	if !ok {
		return 0, false
	}

	if info, swapped, ok := c.Comparator(ta.ID, tb.ID); ok {
		if swapped {
			return info.Compare(b, a).Inverse(), true
		}
		return info.Compare(a, b), true
	}

	if c.converters != nil {
		if rel, ok := c.compareConverted(a, b, ta.ID, tb.ID); ok {
			return rel, true
		}
	}

	if ta.ID == tb.ID && reflect.TypeOf(a) == reflect.TypeOf(b) && reflect.TypeOf(a).Comparable() {
		return RelationOfBool(a == b), true
	}
	return 0, false
}

func (c *Comparators) compareConverted(a, b any, ta, tb TypeID) (Relation, bool) {
	if cb, ok := c.converters.Convert(b, ta); ok {
		if info, _, ok := c.Comparator(ta, ta); ok {
			return info.Compare(a, cb), true
		}
	}
	if ca, ok := c.converters.Convert(a, tb); ok {
		if info, _, ok := c.Comparator(tb, tb); ok {
			return info.Compare(ca, b), true
		}
	}
	return 0, false
}
