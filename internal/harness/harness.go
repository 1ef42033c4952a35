package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/roach88/tempo/internal/runtime"
	"github.com/roach88/tempo/internal/script"
	"github.com/roach88/tempo/internal/testutil"
	"github.com/roach88/tempo/internal/trigger"
	"github.com/roach88/tempo/internal/types"
)

// SettleTimeout bounds how long a step may take to dispatch its due events.
var SettleTimeout = 5 * time.Second

// Harness is the execution state of one scenario run.
type Harness struct {
	engine *script.Engine
	clock  *testutil.FakeClock
	result *Result

	mu      sync.Mutex
	fires   []TraceEvent
	partial bytes.Buffer
	lines   []string
}

// Run executes a scenario and returns the result.
//
// Each scenario runs on a fresh runtime with no storage backends and a
// fake clock starting at the scenario's start time.
//
// Execution flow:
// 1. Seed variables
// 2. Load script files, then inline manifests
// 3. Execute steps, settling the scheduler after each
// 4. Evaluate assertions against the final state and trace
//
// The returned error reports a scenario that could not be executed; failed
// assertions are recorded in the result instead.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	h := &Harness{
		clock:  testutil.NewFakeClock(scenario.start),
		result: NewResult(),
	}

	eng, err := script.NewEngine(
		script.WithOutput(h),
		script.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		script.WithRuntimeOptions(
			runtime.WithClock(h.clock),
			runtime.WithObserver(h.observe),
			runtime.WithIDGenerator(trigger.NewSequenceGenerator("ctx")),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start runtime: %w", err)
	}
	defer eng.Close()
	h.engine = eng

	if err := h.set(scenario.Variables, false); err != nil {
		return nil, fmt.Errorf("variables: %w", err)
	}

	for _, path := range scenario.Scripts {
		if err := h.loadFile(ctx, path); err != nil {
			return nil, err
		}
	}
	for i := range scenario.Inline {
		m := scenario.Inline[i]
		if err := h.load(ctx, &m); err != nil {
			return nil, err
		}
	}

	for i, step := range scenario.Steps {
		if err := h.step(ctx, step); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	reg := eng.Runtime().Types()
	eng.Runtime().Store().Globals().Walk(func(name string, value any) {
		h.result.Variables[name] = reg.Render(value)
	})

	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, eng.Runtime()) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func (h *Harness) step(ctx context.Context, st Step) error {
	switch {
	case st.Advance != "":
		d := st.advance
		h.clock.Advance(d)
		h.record(TraceEvent{Type: EventAdvance, Detail: types.FormatDuration(d)})
		return h.settle(ctx)
	case st.Set != nil:
		return h.set(st.Set, true)
	case st.Load != "":
		return h.loadFile(ctx, st.Load)
	case st.Unload != "":
		h.engine.Unload(st.Unload)
		h.record(TraceEvent{Type: EventUnload, Script: st.Unload})
		return h.settle(ctx)
	}
	return fmt.Errorf("empty step")
}

func (h *Harness) loadFile(ctx context.Context, path string) error {
	m, err := script.LoadManifest(path)
	if err != nil {
		return err
	}
	return h.load(ctx, m)
}

func (h *Harness) load(ctx context.Context, m *script.Manifest) error {
	if err := h.engine.Load(m); err != nil {
		return fmt.Errorf("load %s: %w", m.Name, err)
	}
	h.record(TraceEvent{Type: EventLoad, Script: m.Name, Detail: fmt.Sprintf("%d triggers", len(m.Triggers))})
	return h.settle(ctx)
}

func (h *Harness) set(values map[string]any, trace bool) error {
	store := h.engine.Runtime().Store()
	reg := h.engine.Runtime().Types()
	for _, name := range sortedKeys(values) {
		value := types.Normalize(values[name])
		if err := store.Set(name, value, nil, false); err != nil {
			return err
		}
		if trace {
			detail := name + " = " + reg.Render(value)
			if value == nil {
				detail = name + " deleted"
			}
			h.record(TraceEvent{Type: EventSet, Detail: detail})
		}
	}
	return nil
}

// settle waits until no armed loop is due and no dispatch is running, then
// moves the firings and output collected since the last step into the
// trace.
func (h *Harness) settle(ctx context.Context) error {
	sched := h.engine.Runtime().Scheduler()
	deadline := time.Now().Add(SettleTimeout)
	for sched.Due(h.clock.Now()) > 0 || sched.Running() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("scheduler did not settle within %s", SettleTimeout)
		}
		time.Sleep(time.Millisecond)
	}
	h.flush()
	return nil
}

// observe records one body execution. It runs on dispatch goroutines.
func (h *Harness) observe(t *trigger.Trigger, _ trigger.Context, err error) {
	e := TraceEvent{Type: EventFire, Script: t.Script, Event: t.Event.String()}
	if err != nil {
		e.Error = err.Error()
	}
	h.mu.Lock()
	h.fires = append(h.fires, e)
	h.mu.Unlock()
}

// Write collects printed lines.
func (h *Harness) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.partial.Write(p)
	for {
		line, err := h.partial.ReadString('\n')
		if err != nil {
			// Incomplete line: keep it for the next write.
			h.partial.Reset()
			h.partial.WriteString(line)
			break
		}
		h.lines = append(h.lines, strings.TrimSuffix(line, "\n"))
	}
	return len(p), nil
}

func (h *Harness) flush() {
	h.mu.Lock()
	fires, lines := h.fires, h.lines
	h.fires, h.lines = nil, nil
	h.mu.Unlock()

	slices.SortStableFunc(fires, func(a, b TraceEvent) int {
		if c := strings.Compare(a.Script, b.Script); c != 0 {
			return c
		}
		return strings.Compare(a.Event, b.Event)
	})
	slices.Sort(lines)

	for _, f := range fires {
		h.record(f)
	}
	for _, l := range lines {
		h.record(TraceEvent{Type: EventOutput, Detail: l})
	}
}

func (h *Harness) record(e TraceEvent) {
	e.At = h.clock.Now().Format(time.RFC3339)
	h.result.add(e)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
