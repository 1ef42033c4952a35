package trigger

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// LocalScope releases the local variables of a context. The variable store
// implements it.
type LocalScope interface {
	ClearLocal(ctx Context)
}

// FunctionUnloader drops script-scoped function bindings when a script is
// cleared.
type FunctionUnloader interface {
	UnloadFunctions(script string)
}

// Observer is told about every body execution, after it returns.
type Observer func(t *Trigger, ctx Context, err error)

// Registry indexes triggers by script and context type.
//
// Thread-safety: all methods are safe for concurrent use. Dispatch holds no
// lock while trigger bodies run, so bodies may call back into the registry.
type Registry struct {
	logger    *slog.Logger
	locals    LocalScope
	functions FunctionUnloader
	observer  Observer

	mu      sync.RWMutex
	scripts map[string]*scriptEntry
}

type scriptEntry struct {
	byType  map[ContextType][]*Trigger
	order   []*Trigger // insertion order, each trigger once
	handles []Handle
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for body failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithLocalScope sets the store whose locals are cleared after each
// dispatch.
func WithLocalScope(s LocalScope) Option {
	return func(r *Registry) { r.locals = s }
}

// WithFunctionUnloader sets the collaborator told about cleared scripts.
func WithFunctionUnloader(u FunctionUnloader) Option {
	return func(r *Registry) { r.functions = u }
}

// WithObserver sets a callback run after each trigger body. It runs on the
// dispatching goroutine.
func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		logger:  slog.Default(),
		scripts: make(map[string]*scriptEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) entry(script string) *scriptEntry {
	e, ok := r.scripts[script]
	if !ok {
		e = &scriptEntry{byType: make(map[ContextType][]*Trigger)}
		r.scripts[script] = e
	}
	return e
}

// Add appends a trigger under script and one context type.
func (r *Registry) Add(script string, typ ContextType, t *Trigger) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.entry(script)
	e.byType[typ] = append(e.byType[typ], t)
	if !slices.Contains(e.order, t) {
		e.order = append(e.order, t)
	}
}

// AddTrigger registers t under every context type of its event, using
// t.Script as the script name.
func (r *Registry) AddTrigger(t *Trigger) error {
	if t.Event == nil {
		return fmt.Errorf("trigger in script %q has no event", t.Script)
	}
	if t.Body == nil {
		return fmt.Errorf("trigger %s has no body", t)
	}
	types := t.Event.ContextTypes()
	if len(types) == 0 {
		return fmt.Errorf("trigger %s handles no context type", t)
	}
	for _, typ := range types {
		r.Add(t.Script, typ, t)
	}
	return nil
}

// Track records an armed handle so Clear can cancel it.
func (r *Registry) Track(script string, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entry(script)
	e.handles = append(e.handles, h)
}

// Clear unregisters a script. Armed handles are cancelled, and their
// running bodies waited for, before the triggers are removed, so no
// scheduled firing can reach a removed trigger.
func (r *Registry) Clear(script string) {
	r.mu.Lock()
	var handles []Handle
	if e, ok := r.scripts[script]; ok {
		handles = e.handles
		e.handles = nil
	}
	r.mu.Unlock()

	// Cancel outside the lock: a cancelled loop may be mid-Dispatch.
	for _, h := range handles {
		h.Cancel()
	}

	r.mu.Lock()
	delete(r.scripts, script)
	r.mu.Unlock()

	if r.functions != nil {
		r.functions.UnloadFunctions(script)
	}
	r.logger.Debug("script cleared", "script", script, "handles", len(handles))
}

// Scripts returns the registered script names, sorted.
func (r *Registry) Scripts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedScripts()
}

func (r *Registry) sortedScripts() []string {
	names := make([]string, 0, len(r.scripts))
	for name := range r.scripts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// All returns every trigger: scripts sorted by name, triggers in insertion
// order.
func (r *Registry) All() []*Trigger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Trigger
	for _, name := range r.sortedScripts() {
		out = append(out, r.scripts[name].order...)
	}
	return out
}

// ForScript returns the triggers of one script in insertion order.
func (r *Registry) ForScript(script string) []*Trigger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.scripts[script]
	if !ok {
		return nil
	}
	return slices.Clone(e.order)
}

// ForContextType returns the triggers registered under typ, in dispatch
// order.
func (r *Registry) ForContextType(typ ContextType) []*Trigger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Trigger
	for _, name := range r.sortedScripts() {
		out = append(out, r.scripts[name].byType[typ]...)
	}
	return out
}

// Dispatch runs every trigger registered under ctx's type whose event
// accepts ctx. A failing body is logged and the remaining triggers still
// run. The context's local variables are always cleared afterwards.
// It returns the number of triggers that ran.
func (r *Registry) Dispatch(ctx Context) int {
	if r.locals != nil {
		defer r.locals.ClearLocal(ctx)
	}

	fired := 0
	for _, t := range r.ForContextType(ctx.ContextType()) {
		if !t.Event.Check(ctx) {
			continue
		}
		fired++
		err := r.execute(t, ctx)
		if err != nil {
			r.logger.Error("trigger failed",
				"script", t.Script,
				"event", t.Event.String(),
				"context", ctx.ID(),
				"error", err,
			)
		}
		if r.observer != nil {
			r.observer(t, ctx, err)
		}
	}
	return fired
}

func (r *Registry) execute(t *Trigger, ctx Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return t.Body.Execute(ctx)
}
