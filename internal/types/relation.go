package types

// Relation is the outcome of comparing two values.
type Relation int

const (
	Equal Relation = iota + 1
	NotEqual
	Greater
	Smaller
)

// signed covers the numeric kinds comparators derive relations from.
type signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// RelationOf derives a relation from a signed difference a-b.
func RelationOf[N signed](diff N) Relation {
	switch {
	case diff == 0:
		return Equal
	case diff > 0:
		return Greater
	default:
		return Smaller
	}
}

// RelationOfBool returns Equal when eq is true and NotEqual otherwise.
// Used by comparators for unordered types.
func RelationOfBool(eq bool) Relation {
	if eq {
		return Equal
	}
	return NotEqual
}

// Inverse swaps Greater and Smaller. Equal and NotEqual are symmetric.
func (r Relation) Inverse() Relation {
	switch r {
	case Greater:
		return Smaller
	case Smaller:
		return Greater
	default:
		return r
	}
}

// Is reports whether r satisfies other. Greater and Smaller both satisfy
// NotEqual.
func (r Relation) Is(other Relation) bool {
	if r == other {
		return true
	}
	return other == NotEqual && (r == Greater || r == Smaller)
}

func (r Relation) String() string {
	switch r {
	case Equal:
		return "equal to"
	case NotEqual:
		return "not equal to"
	case Greater:
		return "greater than"
	case Smaller:
		return "smaller than"
	default:
		return "unknown"
	}
}
