package script

import (
	"context"
	"maps"
	"strings"

	"github.com/risor-io/risor/modules/all"
	"github.com/risor-io/risor/object"

	"github.com/roach88/tempo/internal/trigger"
	"github.com/roach88/tempo/internal/types"
	"github.com/roach88/tempo/internal/variables"
)

// builtinNames are the host globals added to Risor's own.
var builtinNames = []string{"get", "set", "delete", "convert", "compare", "print", "ctx"}

// globals builds the globals of one firing. Host builtins shadow Risor
// builtins of the same name.
func (e *Engine) globals(tctx trigger.Context) map[string]any {
	globals := make(map[string]any)
	for name, value := range all.Builtins() {
		globals[name] = value
	}

	store := e.rt.Store()
	reg := e.rt.Types()

	globals["get"] = object.NewBuiltin("get", func(_ context.Context, args ...object.Object) object.Object {
		n, errObj := nameArg("get", args, 1)
		if errObj != nil {
			return errObj
		}
		v, ok := store.Lookup(n, tctx)
		if !ok {
			return object.Nil
		}
		return toRisor(reg, v)
	})

	globals["set"] = object.NewBuiltin("set", func(_ context.Context, args ...object.Object) object.Object {
		n, errObj := nameArg("set", args, 2)
		if errObj != nil {
			return errObj
		}
		if err := store.Assign(n, fromRisor(args[1]), tctx); err != nil {
			return object.NewError(err)
		}
		return object.Nil
	})

	globals["delete"] = object.NewBuiltin("delete", func(_ context.Context, args ...object.Object) object.Object {
		n, errObj := nameArg("delete", args, 1)
		if errObj != nil {
			return errObj
		}
		if err := store.Assign(n, nil, tctx); err != nil {
			return object.NewError(err)
		}
		return object.Nil
	})

	globals["convert"] = object.NewBuiltin("convert", func(_ context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("convert", 2, len(args))
		}
		typeName, errObj := object.AsString(args[1])
		if errObj != nil {
			return errObj
		}
		t, ok := reg.ByName(typeName)
		if !ok {
			return object.Errorf("convert: unknown type %q", typeName)
		}
		v, ok := e.convert(fromRisor(args[0]), t)
		if !ok {
			return object.Nil
		}
		return toRisor(reg, v)
	})

	globals["compare"] = object.NewBuiltin("compare", func(_ context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("compare", 2, len(args))
		}
		rel, ok := e.rt.Compare(types.Normalize(fromRisor(args[0])), types.Normalize(fromRisor(args[1])))
		if !ok {
			return object.Nil
		}
		return object.NewString(rel.String())
	})

	globals["print"] = object.NewBuiltin("print", func(_ context.Context, args ...object.Object) object.Object {
		parts := make([]string, len(args))
		for i, arg := range args {
			if s, ok := arg.(*object.String); ok {
				parts[i] = s.Value()
				continue
			}
			parts[i] = reg.Render(fromRisor(arg))
		}
		e.print(strings.Join(parts, " "))
		return object.Nil
	})

	values := map[string]any{}
	if bc, ok := tctx.(interface{ Values() map[string]any }); ok {
		values = bc.Values()
	}
	globals["ctx"] = toRisor(reg, map[string]any{
		"type":   string(tctx.ContextType()),
		"id":     tctx.ID(),
		"values": maps.Clone(values),
	})
	return globals
}

// convert parses text literals of the target type, otherwise walks the
// conversion graph.
func (e *Engine) convert(v any, t *types.Type) (any, bool) {
	if s, ok := v.(string); ok && t.ID != types.TypeString {
		if parsed, ok := e.rt.Types().ParseLiteral(t.ID, s); ok {
			return parsed, true
		}
	}
	return e.rt.Convert(types.Normalize(v), t.ID)
}

// nameArg validates the argument count and parses args[0] as a variable
// name.
func nameArg(fn string, args []object.Object, want int) (variables.Name, *object.Error) {
	if len(args) != want {
		return variables.Name{}, object.NewArgsError(fn, want, len(args))
	}
	s, errObj := object.AsString(args[0])
	if errObj != nil {
		return variables.Name{}, errObj
	}
	n, err := variables.ParseName(s)
	if err != nil {
		return variables.Name{}, object.NewError(err)
	}
	return n, nil
}
