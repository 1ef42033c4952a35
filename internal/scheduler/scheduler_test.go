package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tempo/internal/testutil"
	"github.com/roach88/tempo/internal/trigger"
	"github.com/roach88/tempo/internal/types"
)

const quiet = 50 * time.Millisecond

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 1, hour, minute, 0, 0, time.UTC)
}

func newTestScheduler(t *testing.T, start time.Time) (*Scheduler, *trigger.Registry, *testutil.FakeClock) {
	t.Helper()
	clock := testutil.NewFakeClock(start)
	reg := trigger.NewRegistry()
	s := New(reg, WithClock(clock))
	t.Cleanup(s.Stop)
	return s, reg, clock
}

func addTrigger(t *testing.T, reg *trigger.Registry, script string, e trigger.Event) (*trigger.Trigger, *testutil.Recorder) {
	t.Helper()
	rec := testutil.NewRecorder()
	tr := &trigger.Trigger{Script: script, Event: e, Body: rec}
	require.NoError(t, reg.AddTrigger(tr))
	return tr, rec
}

func TestInitialDelay(t *testing.T) {
	tests := []struct {
		name   string
		now    time.Time
		target types.TimeOfDay
		want   time.Duration
	}{
		{"later today", at(8, 0), types.NewTimeOfDay(10, 0, 0), 2 * time.Hour},
		{"tomorrow", at(14, 0), types.NewTimeOfDay(10, 0, 0), 20 * time.Hour},
		{"exactly now", at(10, 0), types.NewTimeOfDay(10, 0, 0), 0},
		{"midnight", time.Date(2024, 3, 1, 23, 59, 30, 0, time.UTC), types.Midnight, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InitialDelay(tt.now, tt.target))
		})
	}
}

func TestEvents_CheckOwnContextsOnly(t *testing.T) {
	a := &Periodical{Interval: time.Second}
	b := &Periodical{Interval: time.Second}

	assert.True(t, a.Check(NewPeriodicalContext(a)))
	assert.False(t, a.Check(NewPeriodicalContext(b)))
	assert.False(t, a.Check(trigger.NewContext(ContextPeriodical, nil)))

	load := &ScriptLoad{}
	assert.True(t, load.Check(NewScriptLoadContext(load)))
	assert.False(t, load.Check(NewScriptLoadContext(&ScriptLoad{})))

	daily := &AtTime{Time: types.NewTimeOfDay(9, 30, 0)}
	assert.True(t, daily.Check(NewAtTimeContext(daily)))
	assert.Equal(t, "at 09:30", daily.String())
}

func TestArm_ScriptLoadDispatchesSynchronously(t *testing.T) {
	s, reg, _ := newTestScheduler(t, at(12, 0))
	load := &ScriptLoad{Args: map[string]any{"reason": "startup"}}
	tr, rec := addTrigger(t, reg, "a", load)
	_, other := addTrigger(t, reg, "a", &ScriptLoad{})

	h, err := s.Arm(tr)
	require.NoError(t, err)
	assert.Equal(t, trigger.NopHandle, h)

	require.Equal(t, 1, rec.Count(), "load trigger runs before Arm returns")
	assert.Equal(t, 0, other.Count(), "only the armed event fires")

	v, ok := trigger.ValueOf(rec.Contexts()[0], "reason")
	require.True(t, ok)
	assert.Equal(t, "startup", v)
}

func TestArm_PeriodicalFiresEveryInterval(t *testing.T) {
	s, reg, clock := newTestScheduler(t, at(12, 0))
	tr, rec := addTrigger(t, reg, "a", &Periodical{Interval: 5 * time.Second})

	_, err := s.Arm(tr)
	require.NoError(t, err)

	clock.BlockUntil(1)
	clock.Advance(4 * time.Second)
	assert.False(t, rec.Wait(1, quiet), "no firing before one interval")

	clock.Advance(time.Second)
	require.True(t, rec.Wait(1, time.Second))

	clock.BlockUntil(1)
	clock.Advance(5 * time.Second)
	require.True(t, rec.Wait(2, time.Second))

	ctxs := rec.Contexts()
	assert.NotSame(t, ctxs[0], ctxs[1], "each tick is a fresh context")
	assert.Equal(t, ContextPeriodical, ctxs[0].ContextType())
}

func TestArm_PeriodicalCancel(t *testing.T) {
	s, reg, clock := newTestScheduler(t, at(12, 0))
	tr, rec := addTrigger(t, reg, "a", &Periodical{Interval: time.Second})

	h, err := s.Arm(tr)
	require.NoError(t, err)
	clock.BlockUntil(1)

	h.Cancel()
	h.Cancel()

	clock.Advance(time.Hour)
	assert.False(t, rec.Wait(1, quiet))
}

func TestArm_PeriodicalRejectsNonPositiveInterval(t *testing.T) {
	s, reg, _ := newTestScheduler(t, at(12, 0))
	tr, _ := addTrigger(t, reg, "a", &Periodical{})

	_, err := s.Arm(tr)
	assert.ErrorContains(t, err, "interval must be positive")
}

func TestArm_AtTimeWaitsUntilTarget(t *testing.T) {
	s, reg, clock := newTestScheduler(t, at(14, 0))
	tr, rec := addTrigger(t, reg, "a", &AtTime{Time: types.NewTimeOfDay(10, 0, 0)})

	_, err := s.Arm(tr)
	require.NoError(t, err)

	clock.BlockUntil(1)
	clock.Advance(20*time.Hour - time.Second)
	assert.False(t, rec.Wait(1, quiet))

	clock.Advance(time.Second)
	require.True(t, rec.Wait(1, time.Second))
	assert.Equal(t, time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC), clock.Now())

	clock.BlockUntil(1)
	clock.Advance(24 * time.Hour)
	require.True(t, rec.Wait(2, time.Second))
	assert.Equal(t, ContextAtTime, rec.Contexts()[1].ContextType())
}

type customEvent struct {
	armed int
}

func (e *customEvent) ContextTypes() []trigger.ContextType { return []trigger.ContextType{"custom"} }
func (e *customEvent) Check(trigger.Context) bool          { return true }
func (e *customEvent) String() string                      { return "custom" }

type armableEvent struct{ customEvent }

func (e *armableEvent) Arm(trigger.Dispatcher, *trigger.Trigger) (trigger.Handle, error) {
	e.armed++
	return trigger.NopHandle, nil
}

func TestArm_OtherEvents(t *testing.T) {
	s, reg, _ := newTestScheduler(t, at(12, 0))

	plain, _ := addTrigger(t, reg, "a", &customEvent{})
	_, err := s.Arm(plain)
	assert.ErrorIs(t, err, ErrNotArmable)

	ev := &armableEvent{}
	armable, _ := addTrigger(t, reg, "a", ev)
	_, err = s.Arm(armable)
	require.NoError(t, err)
	assert.Equal(t, 1, ev.armed)
}

func TestArmScript_ClearCancelsLoops(t *testing.T) {
	s, reg, clock := newTestScheduler(t, at(12, 0))
	_, periodic := addTrigger(t, reg, "a", &Periodical{Interval: time.Second})
	_, load := addTrigger(t, reg, "a", &ScriptLoad{})
	_, skipped := addTrigger(t, reg, "a", &customEvent{})

	require.NoError(t, s.ArmScript("a"))
	assert.Equal(t, 1, load.Count())
	assert.Equal(t, 0, skipped.Count())

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	require.True(t, periodic.Wait(1, time.Second))

	// Reloading clears the script first: nothing fires afterwards.
	reg.Clear("a")
	clock.Advance(time.Hour)
	assert.False(t, periodic.Wait(2, quiet))
	assert.Empty(t, reg.ForScript("a"))
}

func TestArmScript_ClearWaitsForRunningBody(t *testing.T) {
	s, reg, clock := newTestScheduler(t, at(12, 0))
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	require.NoError(t, reg.AddTrigger(&trigger.Trigger{
		Script: "s",
		Event:  &Periodical{Interval: time.Second},
		Body: trigger.BodyFunc(func(trigger.Context) error {
			close(started)
			<-release
			finished.Store(true)
			return nil
		}),
	}))
	require.NoError(t, s.ArmScript("s"))

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	<-started

	cleared := make(chan struct{})
	go func() {
		reg.Clear("s")
		close(cleared)
	}()
	select {
	case <-cleared:
		t.Fatal("Clear returned while a body of the script was running")
	case <-time.After(quiet):
	}

	close(release)
	select {
	case <-cleared:
	case <-time.After(time.Second):
		t.Fatal("Clear did not return after the body finished")
	}
	assert.True(t, finished.Load())
	assert.Equal(t, int64(0), s.Running())
}

func TestArm_ContextsUseIDGenerator(t *testing.T) {
	clock := testutil.NewFakeClock(at(12, 0))
	reg := trigger.NewRegistry()
	s := New(reg, WithClock(clock), WithIDGenerator(trigger.NewSequenceGenerator("tick")))
	t.Cleanup(s.Stop)

	_, load := addTrigger(t, reg, "a", &ScriptLoad{})
	_, periodic := addTrigger(t, reg, "a", &Periodical{Interval: time.Second})
	require.NoError(t, s.ArmScript("a"))

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	require.True(t, periodic.Wait(1, time.Second))

	assert.Equal(t, "tick-1", load.Contexts()[0].ID())
	assert.Equal(t, "tick-2", periodic.Contexts()[0].ID())
}

func TestArmScript_ReportsFailures(t *testing.T) {
	s, reg, _ := newTestScheduler(t, at(12, 0))
	addTrigger(t, reg, "a", &Periodical{})
	_, load := addTrigger(t, reg, "a", &ScriptLoad{})

	err := s.ArmScript("a")
	assert.ErrorContains(t, err, "interval must be positive")
	assert.Equal(t, 1, load.Count(), "other triggers still arm")
}

func TestStop(t *testing.T) {
	s, reg, clock := newTestScheduler(t, at(12, 0))
	tr, rec := addTrigger(t, reg, "a", &Periodical{Interval: time.Second})

	h, err := s.Arm(tr)
	require.NoError(t, err)
	clock.BlockUntil(1)

	s.Stop()
	clock.Advance(time.Minute)
	assert.False(t, rec.Wait(1, quiet))

	h.Cancel() // no-op after Stop

	_, err = s.Arm(tr)
	assert.ErrorIs(t, err, ErrStopped)
}

func TestScheduler_ProgressCounters(t *testing.T) {
	s, reg, clock := newTestScheduler(t, at(12, 0))
	tr, rec := addTrigger(t, reg, "a", &Periodical{Interval: 10 * time.Second})

	h, err := s.Arm(tr)
	require.NoError(t, err)

	assert.Equal(t, 0, s.Due(at(12, 0).Add(5*time.Second)))
	assert.Equal(t, 1, s.Due(at(12, 0).Add(10*time.Second)), "due before the loop goroutine waits")

	clock.BlockUntil(1)
	clock.Advance(10 * time.Second)
	require.Eventually(t, func() bool {
		return s.Ticks() == 1 && s.Running() == 0
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, rec.Count())

	assert.Equal(t, 0, s.Due(clock.Now()), "next deadline moved one interval on")
	assert.Equal(t, 1, s.Due(clock.Now().Add(10*time.Second)))

	h.Cancel()
	assert.Equal(t, 0, s.Due(clock.Now().Add(time.Hour)), "cancelled loops are not due")
}
