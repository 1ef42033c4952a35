package scheduler

import (
	"fmt"
	"time"

	"github.com/roach88/tempo/internal/trigger"
	"github.com/roach88/tempo/internal/types"
)

// Context types of the scheduled events.
const (
	ContextScriptLoad trigger.ContextType = "script-load"
	ContextPeriodical trigger.ContextType = "periodical"
	ContextAtTime     trigger.ContextType = "at-time"
)

// ScriptLoad fires once, right after its script is loaded. Args become the
// context values of the firing.
type ScriptLoad struct {
	Args map[string]any
}

func (e *ScriptLoad) ContextTypes() []trigger.ContextType {
	return []trigger.ContextType{ContextScriptLoad}
}

// Check accepts only contexts created for this event.
func (e *ScriptLoad) Check(ctx trigger.Context) bool {
	c, ok := ctx.(*ScriptLoadContext)
	return ok && c.Event == e
}

func (e *ScriptLoad) String() string { return "on load" }

// ScriptLoadContext is the firing of a ScriptLoad event.
type ScriptLoadContext struct {
	*trigger.BaseContext
	Event *ScriptLoad
}

// NewScriptLoadContext creates a firing of e carrying its args.
func NewScriptLoadContext(e *ScriptLoad) *ScriptLoadContext {
	return &ScriptLoadContext{BaseContext: trigger.NewContext(ContextScriptLoad, e.Args), Event: e}
}

// Periodical fires every Interval.
type Periodical struct {
	Interval time.Duration
}

func (e *Periodical) ContextTypes() []trigger.ContextType {
	return []trigger.ContextType{ContextPeriodical}
}

func (e *Periodical) Check(ctx trigger.Context) bool {
	c, ok := ctx.(*PeriodicalContext)
	return ok && c.Event == e
}

func (e *Periodical) String() string {
	return "every " + types.FormatDuration(e.Interval)
}

// PeriodicalContext is one tick of a Periodical event.
type PeriodicalContext struct {
	*trigger.BaseContext
	Event *Periodical
}

func NewPeriodicalContext(e *Periodical) *PeriodicalContext {
	return &PeriodicalContext{BaseContext: trigger.NewContext(ContextPeriodical, nil), Event: e}
}

// AtTime fires daily at a time of day.
type AtTime struct {
	Time types.TimeOfDay
}

func (e *AtTime) ContextTypes() []trigger.ContextType {
	return []trigger.ContextType{ContextAtTime}
}

func (e *AtTime) Check(ctx trigger.Context) bool {
	c, ok := ctx.(*AtTimeContext)
	return ok && c.Event == e
}

func (e *AtTime) String() string { return fmt.Sprintf("at %s", e.Time) }

// AtTimeContext is one daily firing of an AtTime event.
type AtTimeContext struct {
	*trigger.BaseContext
	Event *AtTime
}

func NewAtTimeContext(e *AtTime) *AtTimeContext {
	return &AtTimeContext{BaseContext: trigger.NewContext(ContextAtTime, nil), Event: e}
}

const day = 24 * time.Hour

// InitialDelay returns how long to wait from now until the next occurrence
// of target. When now is exactly target the delay is zero.
func InitialDelay(now time.Time, target types.TimeOfDay) time.Duration {
	current := types.TimeOfDayOf(now).SinceMidnight()
	goal := target.SinceMidnight()
	if current > goal {
		return (day - current) + goal
	}
	return goal - current
}
