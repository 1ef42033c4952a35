package types

import "iter"

// Graph bundles a type registry with its conversion, comparison and range
// tables.
type Graph struct {
	Types       *Registry
	Converters  *Converters
	Comparators *Comparators
	Ranges      *Ranges
}

// NewGraph creates empty edge tables over a registry.
func NewGraph(types *Registry) *Graph {
	conv := NewConverters(types)
	return &Graph{
		Types:       types,
		Converters:  conv,
		Comparators: NewComparators(types, conv),
		Ranges:      NewRanges(types, conv),
	}
}

// NewDefaultGraph creates a graph holding the built-in types and edges.
func NewDefaultGraph() *Graph {
	g := NewGraph(NewRegistry())
	if err := RegisterDefaults(g); err != nil {
		// Built-in registrations are static; failing here is a programming error.
		panic(err)
	}
	return g
}

// Convert converts a value to the target type.
func (g *Graph) Convert(value any, to TypeID) (any, bool) {
	return g.Converters.Convert(value, to)
}

// Compare computes the relation between two values.
func (g *Graph) Compare(a, b any) (Relation, bool) {
	return g.Comparators.Compare(a, b)
}

// Range enumerates the values between two bounds.
func (g *Graph) Range(low, high any) (iter.Seq[any], bool) {
	return g.Ranges.Range(low, high)
}

// Arithmetic returns the arithmetic registered for a type.
func (g *Graph) Arithmetic(id TypeID) (Arithmetic, bool) {
	return g.Types.Arithmetic(id)
}

// ComparatorOf adapts a typed function into a ComparatorInfo. Arguments of
// the wrong Go type compare as NotEqual.
func ComparatorOf[A, B any](first, second TypeID, ordering bool, fn func(A, B) Relation) ComparatorInfo {
	return ComparatorInfo{
		First:            first,
		Second:           second,
		SupportsOrdering: ordering,
		Compare: func(x, y any) Relation {
			a, ok1 := x.(A)
			b, ok2 := y.(B)
			if !ok1 || !ok2 {
				return NotEqual
			}
			return fn(a, b)
		},
	}
}

// ConverterOf adapts a typed function into a ConverterInfo.
func ConverterOf[F, T any](from, to TypeID, flags ChainFlags, fn func(F) (T, bool)) ConverterInfo {
	return ConverterInfo{
		From:  from,
		To:    to,
		Flags: flags,
		Convert: func(value any) (any, bool) {
			f, ok := value.(F)
			if !ok {
				return nil, false
			}
			return fn(f)
		},
	}
}

// RangeOf adapts a typed generator into a RangeInfo.
func RangeOf[B, T any](bound, element TypeID, fn func(low, high B) iter.Seq[T]) RangeInfo {
	return RangeInfo{
		Bound:   bound,
		Element: element,
		Generate: func(low, high any) iter.Seq[any] {
			l, ok1 := low.(B)
			h, ok2 := high.(B)
			return func(yield func(any) bool) {
				if !ok1 || !ok2 {
					return
				}
				for e := range fn(l, h) {
					if !yield(e) {
						return
					}
				}
			}
		},
	}
}
