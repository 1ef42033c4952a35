package script

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tempo/internal/runtime"
	"github.com/roach88/tempo/internal/testutil"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{
		WithOutput(&out),
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	}, opts...)
	e, err := NewEngine(opts...)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e, &out
}

func load(t *testing.T, e *Engine, yaml string) {
	t.Helper()
	m, err := ParseManifest([]byte(yaml), "test")
	require.NoError(t, err)
	require.NoError(t, e.Load(m))
}

func global(t *testing.T, e *Engine, name string) any {
	t.Helper()
	v, ok := e.Runtime().Store().Get(name, nil, false)
	require.True(t, ok, "variable %s is not set", name)
	return v
}

func TestEngine_LoadSetsGlobals(t *testing.T) {
	e, _ := newTestEngine(t)
	load(t, e, `
triggers:
  - event: load
    code: |
      set("greeting", "hello")
      set("count", 2)
      set("ratio", 0.5)
      set("on", true)
`)
	assert.Equal(t, "hello", global(t, e, "greeting"))
	assert.Equal(t, int64(2), global(t, e, "count"))
	assert.Equal(t, 0.5, global(t, e, "ratio"))
	assert.Equal(t, true, global(t, e, "on"))
}

func TestEngine_LocalsAreScopedToTheFiring(t *testing.T) {
	e, _ := newTestEngine(t)
	load(t, e, `
triggers:
  - event: load
    code: |
      set("_tmp", 5)
      set("copy", get("_tmp") + 1)
`)
	assert.Equal(t, int64(6), global(t, e, "copy"))
	_, ok := e.Runtime().Store().Get("_tmp", nil, false)
	assert.False(t, ok)
	assert.Equal(t, 0, e.Runtime().Store().LocalCount())
}

func TestEngine_GetMissingAndDelete(t *testing.T) {
	e, _ := newTestEngine(t)
	load(t, e, `
triggers:
  - event: load
    code: |
      if get("missing") == nil { set("was_nil", true) }
      set("gone", 1)
      delete("gone")
`)
	assert.Equal(t, true, global(t, e, "was_nil"))
	_, ok := e.Runtime().Store().Get("gone", nil, false)
	assert.False(t, ok)
}

func TestEngine_ConvertAndCompare(t *testing.T) {
	e, _ := newTestEngine(t)
	load(t, e, `
triggers:
  - event: load
    code: |
      set("n", convert("42", "integer"))
      set("f", convert(3, "number"))
      set("bad", convert("abc", "integer"))
      set("rel", compare(1, 2.5))
      set("eq", compare("a", "a"))
`)
	assert.Equal(t, int64(42), global(t, e, "n"))
	assert.Equal(t, 3.0, global(t, e, "f"))
	_, ok := e.Runtime().Store().Get("bad", nil, false)
	assert.False(t, ok, "failed conversion yields nil, which deletes")
	assert.Equal(t, "smaller than", global(t, e, "rel"))
	assert.Equal(t, "equal to", global(t, e, "eq"))
}

func TestEngine_Print(t *testing.T) {
	e, out := newTestEngine(t)
	load(t, e, `
triggers:
  - event: load
    code: print("total", 3)
`)
	assert.Equal(t, "total 3\n", out.String())
}

func TestEngine_ContextValues(t *testing.T) {
	e, _ := newTestEngine(t)
	load(t, e, `
triggers:
  - event: load
    args: {user: ann}
    code: |
      set("who", ctx["values"]["user"])
      set("kind", ctx["type"])
`)
	assert.Equal(t, "ann", global(t, e, "who"))
	assert.Equal(t, "script-load", global(t, e, "kind"))
}

func TestEngine_Functions(t *testing.T) {
	e, _ := newTestEngine(t)
	load(t, e, `
name: math
functions:
  double: 'func(x) { return x * 2 }'
triggers:
  - event: load
    code: set("d", double(21))
`)
	assert.Equal(t, int64(42), global(t, e, "d"))
	assert.Equal(t, []string{"double"}, e.Functions("math"))

	e.Unload("math")
	assert.Empty(t, e.Functions("math"))
	assert.Empty(t, e.Runtime().Registry().Scripts())
}

func TestEngine_FailingBodyDoesNotStopOthers(t *testing.T) {
	e, _ := newTestEngine(t)
	load(t, e, `
triggers:
  - event: load
    code: set("a::", 1)
  - event: load
    code: set("ok", true)
`)
	assert.Equal(t, true, global(t, e, "ok"))
}

func TestEngine_CompileErrors(t *testing.T) {
	e, _ := newTestEngine(t)

	m, err := ParseManifest([]byte("triggers:\n  - event: load\n    code: 'set(\"x\",'\n"), "broken")
	require.NoError(t, err)
	assert.ErrorContains(t, e.Load(m), "parse")

	m, err = ParseManifest([]byte("triggers:\n  - event: sometimes\n    code: print(1)\n"), "broken")
	require.NoError(t, err)
	assert.ErrorContains(t, e.Load(m), "unknown event")
	assert.Empty(t, e.Runtime().Registry().Scripts())
}

func TestEngine_Periodical(t *testing.T) {
	clock := testutil.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	e, out := newTestEngine(t, WithRuntimeOptions(runtime.WithClock(clock)))
	load(t, e, `
triggers:
  - event: every 5 seconds
    code: print("tick")
`)

	clock.BlockUntil(1)
	clock.Advance(5 * time.Second)
	require.Eventually(t, func() bool {
		e.outMu.Lock()
		defer e.outMu.Unlock()
		return out.String() == "tick\n"
	}, time.Second, 5*time.Millisecond)
}
