package types

import (
	"cmp"
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
	"time"
)

// Built-in type ids.
const (
	TypeObject   TypeID = "object"
	TypeInteger  TypeID = "integer"
	TypeNumber   TypeID = "number"
	TypeString   TypeID = "string"
	TypeBoolean  TypeID = "boolean"
	TypeDuration TypeID = "duration"
	TypeTime     TypeID = "time"
	TypeDate     TypeID = "date"
	TypeType     TypeID = "type"
	TypeColor    TypeID = "color"
)

// DateLayout is how dates render.
const DateLayout = "2006-01-02 15:04:05"

func is[T any](v any) bool {
	_, ok := v.(T)
	return ok
}

// Normalize maps Go values onto the representations the built-in types
// match: every integer kind becomes int64 and float32 becomes float64.
func Normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

// RegisterDefaults registers the built-in types, comparators, converters and
// ranges.
func RegisterDefaults(g *Graph) error {
	for _, t := range defaultTypes(g.Types) {
		if err := g.Types.Register(t); err != nil {
			return err
		}
	}
	for _, c := range defaultComparators() {
		if err := g.Comparators.Register(c); err != nil {
			return err
		}
	}
	for _, c := range defaultConverters() {
		if err := g.Converters.Register(c); err != nil {
			return err
		}
	}
	for _, r := range defaultRanges() {
		if err := g.Ranges.Register(r); err != nil {
			return err
		}
	}
	return nil
}

func defaultTypes(reg *Registry) []Type {
	return []Type{
		{
			ID:      TypeObject,
			Pattern: "object@s",
			Match:   func(any) bool { return true },
		},
		{
			ID:      TypeInteger,
			Pattern: "integer@s",
			Match:   is[int64],
			Parse: func(s string) (any, bool) {
				n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
				return n, err == nil
			},
			Render:     func(v any) string { return strconv.FormatInt(v.(int64), 10) },
			Serializer: JSONSerializer[int64](),
			Arithmetic: ArithmeticOf(TypeInteger,
				func(a, b int64) int64 { return a - b },
				func(v, d int64) int64 { return v + d },
				func(v, d int64) int64 { return v - d },
			),
		},
		{
			ID:      TypeNumber,
			Pattern: "number@s",
			Match:   is[float64],
			Parse: func(s string) (any, bool) {
				f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
				return f, err == nil
			},
			Render:     func(v any) string { return fmt.Sprintf("%.2f", v.(float64)) },
			Serializer: JSONSerializer[float64](),
			Arithmetic: ArithmeticOf(TypeNumber,
				func(a, b float64) float64 { return a - b },
				func(v, d float64) float64 { return v + d },
				func(v, d float64) float64 { return v - d },
			),
		},
		{
			ID:         TypeString,
			Pattern:    "string@s",
			Match:      is[string],
			Render:     func(v any) string { return v.(string) },
			Serializer: JSONSerializer[string](),
		},
		{
			ID:      TypeBoolean,
			Pattern: "boolean@s",
			Match:   is[bool],
			Parse: func(s string) (any, bool) {
				switch strings.ToLower(strings.TrimSpace(s)) {
				case "true":
					return true, true
				case "false":
					return false, true
				}
				return nil, false
			},
			Render:     func(v any) string { return strconv.FormatBool(v.(bool)) },
			Serializer: JSONSerializer[bool](),
			Values:     func() []any { return []any{true, false} },
		},
		{
			ID:      TypeDuration,
			Pattern: "duration@s",
			Match:   is[time.Duration],
			Parse: func(s string) (any, bool) {
				d, ok := ParseDuration(s)
				return d, ok
			},
			Render: func(v any) string { return FormatDuration(v.(time.Duration)) },
			Serializer: SerializerFunc(
				func(d time.Duration) int64 { return int64(d) },
				func(n int64) (time.Duration, error) { return time.Duration(n), nil },
			),
			Arithmetic: ArithmeticOf(TypeDuration,
				func(a, b time.Duration) time.Duration { return (a - b).Abs() },
				func(v, d time.Duration) time.Duration { return v + d },
				func(v, d time.Duration) time.Duration { return v - d },
			),
		},
		{
			ID:      TypeTime,
			Pattern: "time@s",
			Match:   is[TimeOfDay],
			Parse: func(s string) (any, bool) {
				t, ok := ParseTimeOfDay(s)
				return t, ok
			},
			Render: func(v any) string { return v.(TimeOfDay).String() },
			Serializer: SerializerFunc(
				func(t TimeOfDay) int64 { return int64(t.SinceMidnight()) },
				func(n int64) (TimeOfDay, error) { return Midnight.Add(time.Duration(n)), nil },
			),
			Arithmetic: ArithmeticOf(TypeDuration,
				func(a, b TimeOfDay) time.Duration { return a.Difference(b) },
				func(v TimeOfDay, d time.Duration) TimeOfDay { return v.Add(d) },
				func(v TimeOfDay, d time.Duration) TimeOfDay { return v.Sub(d) },
			),
		},
		{
			ID:      TypeDate,
			Pattern: "date@s",
			Match:   is[time.Time],
			Parse: func(s string) (any, bool) {
				t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
				return t, err == nil
			},
			Render: func(v any) string { return v.(time.Time).Format(DateLayout) },
			Serializer: SerializerFunc(
				func(t time.Time) int64 { return t.UnixMilli() },
				func(n int64) (time.Time, error) { return time.UnixMilli(n), nil },
			),
			Arithmetic: ArithmeticOf(TypeDuration,
				func(a, b time.Time) time.Duration { return a.Sub(b).Abs() },
				func(v time.Time, d time.Duration) time.Time { return v.Add(d) },
				func(v time.Time, d time.Duration) time.Time { return v.Add(-d) },
			),
		},
		{
			ID:      TypeType,
			Pattern: "type@s",
			Match:   is[*Type],
			Parse: func(s string) (any, bool) {
				t, ok := reg.ByName(s)
				return t, ok
			},
			Render: func(v any) string { return string(v.(*Type).ID) },
			Values: func() []any {
				all := reg.All()
				out := make([]any, len(all))
				for i, t := range all {
					out[i] = t
				}
				return out
			},
		},
		{
			ID:      TypeColor,
			Pattern: "color@s",
			Match:   is[Color],
			Parse: func(s string) (any, bool) {
				c, ok := ParseColor(s)
				return c, ok
			},
			Render: func(v any) string { return v.(Color).String() },
			Serializer: SerializerFunc(
				func(c Color) string { return c.Hex() },
				func(s string) (Color, error) {
					c, ok := ParseColor(s)
					if !ok {
						return Color{}, fmt.Errorf("invalid color %q", s)
					}
					return c, nil
				},
			),
			Values: func() []any {
				named := NamedColors()
				out := make([]any, len(named))
				for i, c := range named {
					out[i] = c
				}
				return out
			},
		},
	}
}

func defaultComparators() []ComparatorInfo {
	return []ComparatorInfo{
		ComparatorOf(TypeInteger, TypeInteger, true, func(a, b int64) Relation {
			return RelationOf(cmp.Compare(a, b))
		}),
		ComparatorOf(TypeNumber, TypeNumber, true, func(a, b float64) Relation {
			return RelationOf(cmp.Compare(a, b))
		}),
		ComparatorOf(TypeInteger, TypeNumber, true, func(a int64, b float64) Relation {
			return RelationOf(cmp.Compare(float64(a), b))
		}),
		ComparatorOf(TypeDuration, TypeDuration, true, func(a, b time.Duration) Relation {
			return RelationOf(cmp.Compare(a, b))
		}),
		ComparatorOf(TypeTime, TypeTime, true, func(a, b TimeOfDay) Relation {
			return RelationOf(cmp.Compare(a.SinceMidnight(), b.SinceMidnight()))
		}),
		ComparatorOf(TypeDate, TypeDate, true, func(a, b time.Time) Relation {
			return RelationOf(a.Compare(b))
		}),
		ComparatorOf(TypeString, TypeString, false, func(a, b string) Relation {
			return RelationOfBool(a == b)
		}),
		ComparatorOf(TypeBoolean, TypeBoolean, false, func(a, b bool) Relation {
			return RelationOfBool(a == b)
		}),
		ComparatorOf(TypeColor, TypeColor, false, func(a, b Color) Relation {
			return RelationOfBool(a == b)
		}),
		ComparatorOf(TypeType, TypeType, false, func(a, b *Type) Relation {
			return RelationOfBool(a == b)
		}),
	}
}

func defaultConverters() []ConverterInfo {
	return []ConverterInfo{
		ConverterOf(TypeDate, TypeTime, AllChaining, func(t time.Time) (TimeOfDay, bool) {
			return TimeOfDayOf(t), true
		}),
		ConverterOf(TypeInteger, TypeNumber, AllChaining, func(n int64) (float64, bool) {
			return float64(n), true
		}),
		ConverterOf(TypeNumber, TypeInteger, AllChaining, func(f float64) (int64, bool) {
			return int64(f), true
		}),
		ConverterOf(TypeDuration, TypeNumber, NoChaining, func(d time.Duration) (float64, bool) {
			return float64(d.Milliseconds()), true
		}),
	}
}

func defaultRanges() []RangeInfo {
	return []RangeInfo{
		RangeOf(TypeInteger, TypeInteger, integerRange),
		RangeOf(TypeNumber, TypeNumber, numberRange),
		RangeOf(TypeString, TypeString, characterRange),
	}
}

// integerRange stops on equality so high == math.MaxInt64 cannot overflow.
func integerRange(low, high int64) iter.Seq[int64] {
	return func(yield func(int64) bool) {
		if low >= high {
			return
		}
		for n := low; ; n++ {
			if !yield(n) || n == high {
				return
			}
		}
	}
}

// numberRange steps by one from low. Bounds beyond the precision where a
// unit step no longer changes the value yield nothing.
func numberRange(low, high float64) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		if !(low < high) || math.IsInf(low, 0) || math.IsInf(high, 0) || low+1 == low || high+1 == high {
			return
		}
		for n := low; n <= high; n++ {
			if !yield(n) {
				return
			}
		}
	}
}

// characterRange covers single-character strings.
func characterRange(low, high string) iter.Seq[string] {
	return func(yield func(string) bool) {
		l, h := []rune(low), []rune(high)
		if len(l) != 1 || len(h) != 1 || l[0] >= h[0] {
			return
		}
		for r := l[0]; r <= h[0]; r++ {
			if !yield(string(r)) {
				return
			}
		}
	}
}
