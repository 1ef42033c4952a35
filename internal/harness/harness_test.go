package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, yaml string) *Result {
	t.Helper()
	s, err := ParseScenario([]byte(yaml), "")
	require.NoError(t, err)
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	return result
}

func TestRun_ScriptFile(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "greeting.yaml"))
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, []string{"greeter ready"}, result.Output())
	assert.Equal(t, "hello", result.Variables["greeting"])
}

func TestRun_AtTimeFiresDaily(t *testing.T) {
	result := run(t, `
name: daily
description: an at-time trigger fires once per day
start: "2024-03-01T08:00:00Z"
inline:
  - name: report
    triggers:
      - event: at 9:00
        code: |
          n := get("runs")
          if n == nil { n = 0 }
          set("runs", n + 1)
steps:
  - advance: 30m
  - advance: 30m
  - advance: 23h
  - advance: 1h
assertions:
  - type: variable
    name: runs
    equals: 2
  - type: fires
    script: report
    event: at 09:00
    count: 2
`)
	require.True(t, result.Pass, result.Errors)

	fires := result.Fires("report", "")
	require.Len(t, fires, 2)
	assert.Equal(t, "2024-03-01T09:00:00Z", fires[0].At)
	assert.Equal(t, "2024-03-02T09:00:00Z", fires[1].At)
}

func TestRun_ContextIDsAreReproducible(t *testing.T) {
	scenario := `
name: ids
description: firing contexts are numbered in order
inline:
  - name: ids
    triggers:
      - event: load
        code: print(ctx["id"])
      - event: every 1 second
        code: print(ctx["id"])
steps:
  - advance: 1s
  - advance: 1s
assertions:
  - type: output
    text: ctx-3
`
	first := run(t, scenario)
	require.True(t, first.Pass, first.Errors)
	assert.Equal(t, []string{"ctx-1", "ctx-2", "ctx-3"}, first.Output())

	second := run(t, scenario)
	assert.Equal(t, first.Output(), second.Output())
}

func TestRun_UnloadStopsEvents(t *testing.T) {
	result := run(t, `
name: unload
description: unloading a script cancels its periodical events
inline:
  - name: ticker
    triggers:
      - event: every 1 second
        code: print("tick")
steps:
  - advance: 1s
  - unload: ticker
  - advance: 10s
  - set: {after: true}
assertions:
  - type: fires
    script: ticker
    count: 1
  - type: variable
    name: after
    equals: true
`)
	require.True(t, result.Pass, result.Errors)

	var types []string
	for _, e := range result.Trace {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{"load", "advance", "fire", "output", "unload", "advance", "set"}, types)
}

func TestRun_LoadStepAndDelete(t *testing.T) {
	dir, err := filepath.Abs(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	result := run(t, `
name: late-load
description: a script loaded by a step runs its load event then
inline:
  - name: first
    triggers:
      - event: load
        code: set("first", 1)
variables:
  stale: yes
steps:
  - set: {stale: null}
  - load: `+filepath.Join(dir, "greeter.yaml")+`
assertions:
  - type: absent
    name: stale
  - type: variable
    name: greeting
    equals: hello
`)
	require.True(t, result.Pass, result.Errors)
	assert.Equal(t, "stale deleted", result.Trace[2].Detail)
	assert.Equal(t, EventLoad, result.Trace[3].Type)
	assert.Equal(t, "greeter", result.Trace[3].Script)
}

func TestRun_ConcurrentFiringsAreOrdered(t *testing.T) {
	result := run(t, `
name: ordering
description: two scripts due at the same time appear sorted
inline:
  - name: zeta
    triggers:
      - event: every 2 seconds
        code: print("z")
  - name: alpha
    triggers:
      - event: every 2 seconds
        code: print("a")
steps:
  - advance: 2s
assertions:
  - type: fires
    script: alpha
    count: 1
  - type: fires
    script: zeta
    count: 1
`)
	require.True(t, result.Pass, result.Errors)

	tail := result.Trace[len(result.Trace)-4:]
	assert.Equal(t, "alpha", tail[0].Script)
	assert.Equal(t, "zeta", tail[1].Script)
	assert.Equal(t, "a", tail[2].Detail)
	assert.Equal(t, "z", tail[3].Detail)
}

func TestRun_BodyErrorsAreTraced(t *testing.T) {
	result := run(t, `
name: failing
description: a failing body is traced and the next trigger still runs
inline:
  - name: s
    triggers:
      - event: load
        code: |
          n := 1
          n()
      - event: load
        code: set("ok", true)
assertions:
  - type: variable
    name: ok
    equals: true
`)
	require.True(t, result.Pass, result.Errors)
	fires := result.Fires("s", "on load")
	require.Len(t, fires, 2)
	assert.NotEmpty(t, fires[0].Error)
	assert.Empty(t, fires[1].Error)
}

func TestRun_FailedAssertions(t *testing.T) {
	result := run(t, `
name: failing-assertions
description: every assertion kind reports a mismatch
inline:
  - name: s
    triggers:
      - event: load
        code: |
          set("count", 2)
          print("hello")
assertions:
  - type: variable
    name: count
    equals: 3
  - type: variable
    name: missing
    equals: 1
  - type: absent
    name: count
  - type: output
    text: goodbye
  - type: fires
    script: s
    count: 5
  - type: variable
    name: count
    equals: 2.0
`)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "expected count = 3, got 2")
	assert.Contains(t, result.Errors[1], "got unset")
	assert.Contains(t, result.Errors[2], "to be unset")
	assert.Contains(t, result.Errors[3], `"goodbye"`)
	assert.Contains(t, result.Errors[4], "5 firings of s")
}

func TestRun_LoadErrors(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: broken
description: a script with an unknown event cannot load
inline:
  - name: s
    triggers:
      - event: sometimes
        code: print(1)
assertions:
  - type: output
    text: x
`), "")
	require.NoError(t, err)
	_, err = Run(context.Background(), s)
	assert.ErrorContains(t, err, "load s")

	s.Inline = nil
	s.Scripts = []string{filepath.Join(t.TempDir(), "missing.yaml")}
	_, err = Run(context.Background(), s)
	assert.Error(t, err)
}

func TestHarness_WriteSplitsLines(t *testing.T) {
	h := &Harness{}
	_, _ = h.Write([]byte("one\ntw"))
	_, _ = h.Write([]byte("o\nthree"))
	assert.Equal(t, []string{"one", "two"}, h.lines)
	assert.Equal(t, "three", h.partial.String())
}
