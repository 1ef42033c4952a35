package runtime

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tempo/internal/config"
	"github.com/roach88/tempo/internal/scheduler"
	"github.com/roach88/tempo/internal/storage/memory"
	"github.com/roach88/tempo/internal/testutil"
	"github.com/roach88/tempo/internal/trigger"
	"github.com/roach88/tempo/internal/types"
)

func newTestRuntime(t *testing.T) (*Runtime, *testutil.FakeClock) {
	t.Helper()
	clock := testutil.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	rt, err := New(WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	return rt, clock
}

func TestNew_Defaults(t *testing.T) {
	rt, _ := newTestRuntime(t)

	_, ok := rt.Types().Lookup(types.TypeInteger)
	assert.True(t, ok)
	assert.Equal(t, []string{"mem", "memory", "pg", "postgres", "postgresql", "sqlite", "sqlite3"},
		rt.Store().Backends().Aliases())
}

func TestEntryPoints(t *testing.T) {
	rt, _ := newTestRuntime(t)

	v, ok := rt.Convert(int64(3), types.TypeNumber)
	require.True(t, ok)
	assert.Equal(t, 3.0, v)

	rel, ok := rt.Compare(int64(1), 2.5)
	require.True(t, ok)
	assert.Equal(t, types.Smaller, rel)

	seq, ok := rt.Range(int64(1), int64(3))
	require.True(t, ok)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, slices.Collect(seq))

	arith, ok := rt.Arithmetic(types.TypeInteger)
	require.True(t, ok)
	diff, ok := arith.Difference(int64(10), int64(4))
	require.True(t, ok)
	assert.Equal(t, int64(6), diff)
}

func TestLoadScript_LoadEventSetsVariables(t *testing.T) {
	rt, _ := newTestRuntime(t)

	body := trigger.BodyFunc(func(ctx trigger.Context) error {
		if err := rt.Store().Set("_tmp", int64(1), ctx, true); err != nil {
			return err
		}
		return rt.Store().Set("greeting", "hello", ctx, false)
	})
	err := rt.LoadScript("hello", []*trigger.Trigger{{Event: &scheduler.ScriptLoad{}, Body: body}})
	require.NoError(t, err)

	v, ok := rt.Store().Get("greeting", nil, false)
	require.True(t, ok)
	assert.Equal(t, "hello", v)
	assert.Equal(t, 0, rt.Store().LocalCount(), "locals are cleared after dispatch")

	triggers := rt.Registry().ForScript("hello")
	require.Len(t, triggers, 1)
	assert.Equal(t, "hello", triggers[0].Script)
}

func TestLoadScript_ReloadCancelsOldEvents(t *testing.T) {
	rt, clock := newTestRuntime(t)
	old := testutil.NewRecorder()
	require.NoError(t, rt.LoadScript("tick", []*trigger.Trigger{
		{Event: &scheduler.Periodical{Interval: time.Second}, Body: old},
	}))
	clock.BlockUntil(1)

	fresh := testutil.NewRecorder()
	require.NoError(t, rt.LoadScript("tick", []*trigger.Trigger{
		{Event: &scheduler.Periodical{Interval: time.Minute}, Body: fresh},
	}))

	clock.Advance(time.Second)
	assert.False(t, old.Wait(1, 50*time.Millisecond), "old trigger never fires after reload")

	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	assert.True(t, fresh.Wait(1, time.Second))
	assert.Len(t, rt.Registry().ForScript("tick"), 1)
}

func TestLoadScript_InvalidTriggerLeavesScriptUnloaded(t *testing.T) {
	rt, _ := newTestRuntime(t)
	err := rt.LoadScript("bad", []*trigger.Trigger{
		{Event: &scheduler.ScriptLoad{}, Body: testutil.NewRecorder()},
		{Event: &scheduler.ScriptLoad{}},
	})
	assert.ErrorContains(t, err, "no body")
	assert.Empty(t, rt.Registry().Scripts())
}

func TestUnloadScript(t *testing.T) {
	rt, clock := newTestRuntime(t)
	rec := testutil.NewRecorder()
	require.NoError(t, rt.LoadScript("tick", []*trigger.Trigger{
		{Event: &scheduler.Periodical{Interval: time.Second}, Body: rec},
	}))
	clock.BlockUntil(1)

	rt.UnloadScript("tick")
	clock.Advance(time.Minute)
	assert.False(t, rec.Wait(1, 50*time.Millisecond))
	assert.Empty(t, rt.Registry().Scripts())
}

func TestDispatch_CustomContext(t *testing.T) {
	rt, _ := newTestRuntime(t)
	rec := testutil.NewRecorder()
	require.NoError(t, rt.LoadScript("custom", []*trigger.Trigger{
		{Event: anyEvent{"chat"}, Body: rec},
	}))

	assert.Equal(t, 1, rt.Dispatch(trigger.NewContext("chat", nil)))
	assert.Equal(t, 0, rt.Dispatch(trigger.NewContext("join", nil)))
	assert.Equal(t, 1, rec.Count())
}

type anyEvent struct{ typ trigger.ContextType }

func (e anyEvent) ContextTypes() []trigger.ContextType { return []trigger.ContextType{e.typ} }
func (e anyEvent) Check(trigger.Context) bool          { return true }
func (e anyEvent) String() string                      { return string(e.typ) }

func TestLoadVariablesAndClose(t *testing.T) {
	rt, _ := newTestRuntime(t)
	require.NoError(t, rt.LoadVariables(context.Background(), config.Variables{Databases: []config.Database{
		{Name: "main", Enabled: true, Type: "memory"},
	}}))

	require.NoError(t, rt.Store().Set("count", int64(2), nil, false))
	backend := rt.Store().Storages()[0].(*memory.Backend)

	rt.Close()

	rows := backend.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "count", rows[0].Name)
}
