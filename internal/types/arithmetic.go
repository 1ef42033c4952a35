package types

// Arithmetic lets generic operations ("increase X by D", "difference between
// A and B") work on any type that registers one.
//
// D is the relative type: for dates and times it is a duration, for numbers it
// is the number type itself. Every method returns false when an argument is
// not of the expected Go type.
type Arithmetic interface {
	Difference(first, second any) (any, bool)
	Add(value, difference any) (any, bool)
	Subtract(value, difference any) (any, bool)
	RelativeType() TypeID
}

// ArithmeticOf adapts typed functions into an Arithmetic.
func ArithmeticOf[T, D any](relative TypeID, difference func(T, T) D, add, subtract func(T, D) T) Arithmetic {
	return &typedArithmetic[T, D]{
		relative:   relative,
		difference: difference,
		add:        add,
		subtract:   subtract,
	}
}

type typedArithmetic[T, D any] struct {
	relative   TypeID
	difference func(T, T) D
	add        func(T, D) T
	subtract   func(T, D) T
}

func (a *typedArithmetic[T, D]) Difference(first, second any) (any, bool) {
	f, ok1 := first.(T)
	s, ok2 := second.(T)
	if !ok1 || !ok2 {
		return nil, false
	}
	return a.difference(f, s), true
}

func (a *typedArithmetic[T, D]) Add(value, difference any) (any, bool) {
	v, ok1 := value.(T)
	d, ok2 := difference.(D)
	if !ok1 || !ok2 {
		return nil, false
	}
	return a.add(v, d), true
}

func (a *typedArithmetic[T, D]) Subtract(value, difference any) (any, bool) {
	v, ok1 := value.(T)
	d, ok2 := difference.(D)
	if !ok1 || !ok2 {
		return nil, false
	}
	return a.subtract(v, d), true
}

func (a *typedArithmetic[T, D]) RelativeType() TypeID {
	return a.relative
}
