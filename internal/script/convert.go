package script

import (
	"time"

	"github.com/risor-io/risor/object"

	"github.com/roach88/tempo/internal/types"
)

// toRisor converts a variable value into a Risor object. Values without a
// Risor counterpart cross as their rendered text; convert() parses them
// back.
func toRisor(reg *types.Registry, v any) object.Object {
	switch val := v.(type) {
	case nil:
		return object.Nil
	case int64:
		return object.NewInt(val)
	case float64:
		return object.NewFloat(val)
	case string:
		return object.NewString(val)
	case bool:
		return object.NewBool(val)
	case time.Time:
		return object.NewTime(val)
	case []any:
		items := make([]object.Object, len(val))
		for i, item := range val {
			items[i] = toRisor(reg, item)
		}
		return object.NewList(items)
	case map[string]any:
		m := make(map[string]object.Object, len(val))
		for k, item := range val {
			m[k] = toRisor(reg, item)
		}
		return object.NewMap(m)
	default:
		return object.NewString(reg.Render(v))
	}
}

// fromRisor converts a Risor object into a variable value.
func fromRisor(obj object.Object) any {
	switch o := obj.(type) {
	case *object.NilType:
		return nil
	case *object.Int:
		return o.Value()
	case *object.Float:
		return o.Value()
	case *object.String:
		return o.Value()
	case *object.Bool:
		return o.Value()
	case *object.Time:
		return o.Value()
	case *object.List:
		out := make([]any, 0, len(o.Value()))
		for _, item := range o.Value() {
			out = append(out, fromRisor(item))
		}
		return out
	case *object.Map:
		out := make(map[string]any, len(o.Value()))
		for k, item := range o.Value() {
			out[k] = fromRisor(item)
		}
		return out
	default:
		return obj.Inspect()
	}
}
