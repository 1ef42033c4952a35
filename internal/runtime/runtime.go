package runtime

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/roach88/tempo/internal/config"
	"github.com/roach88/tempo/internal/scheduler"
	"github.com/roach88/tempo/internal/storage"
	"github.com/roach88/tempo/internal/trigger"
	"github.com/roach88/tempo/internal/types"
	"github.com/roach88/tempo/internal/variables"
)

// Runtime owns one set of execution components.
//
// Thread-safety model:
//   - Dispatch, Convert, Compare, Range and the store are safe from any
//     goroutine, including trigger bodies
//   - LoadScript and UnloadScript must not be called from a trigger body of
//     the same script
//   - Close must be called once, outside trigger bodies
type Runtime struct {
	logger    *slog.Logger
	graph     *types.Graph
	store     *variables.Store
	registry  *trigger.Registry
	scheduler *scheduler.Scheduler
}

type options struct {
	logger   *slog.Logger
	graph    *types.Graph
	backends *variables.Backends
	clock    scheduler.Clock
	unloader trigger.FunctionUnloader
	seqClock *variables.Clock
	observer trigger.Observer
	ids      trigger.IDGenerator
}

// Option configures a Runtime.
type Option func(*options)

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithGraph replaces the built-in type graph.
func WithGraph(g *types.Graph) Option {
	return func(o *options) { o.graph = g }
}

// WithBackends replaces the bundled storage backends.
func WithBackends(b *variables.Backends) Option {
	return func(o *options) { o.backends = b }
}

// WithClock sets the scheduler's wall clock.
func WithClock(c scheduler.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithSequenceClock sets the logical clock stamping variable changes.
func WithSequenceClock(c *variables.Clock) Option {
	return func(o *options) { o.seqClock = c }
}

// WithFunctionUnloader sets the collaborator told when a script is unloaded.
func WithFunctionUnloader(u trigger.FunctionUnloader) Option {
	return func(o *options) { o.unloader = u }
}

// WithObserver sets a callback run after every trigger body.
func WithObserver(obs trigger.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithIDGenerator sets the generator naming scheduled firings.
func WithIDGenerator(g trigger.IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// New builds a runtime.
func New(opts ...Option) (*Runtime, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if o.graph == nil {
		o.graph = types.NewDefaultGraph()
	}
	if o.backends == nil {
		o.backends = variables.NewBackends()
		if err := storage.RegisterDefaults(o.backends); err != nil {
			return nil, fmt.Errorf("register storage backends: %w", err)
		}
	}

	storeOpts := []variables.StoreOption{
		variables.WithLogger(o.logger),
		variables.WithBackends(o.backends),
	}
	if o.seqClock != nil {
		storeOpts = append(storeOpts, variables.WithClock(o.seqClock))
	}
	store := variables.NewStore(o.graph.Types, storeOpts...)

	regOpts := []trigger.Option{
		trigger.WithLogger(o.logger),
		trigger.WithLocalScope(store),
	}
	if o.unloader != nil {
		regOpts = append(regOpts, trigger.WithFunctionUnloader(o.unloader))
	}
	if o.observer != nil {
		regOpts = append(regOpts, trigger.WithObserver(o.observer))
	}
	registry := trigger.NewRegistry(regOpts...)

	schedOpts := []scheduler.Option{scheduler.WithLogger(o.logger)}
	if o.clock != nil {
		schedOpts = append(schedOpts, scheduler.WithClock(o.clock))
	}
	if o.ids != nil {
		schedOpts = append(schedOpts, scheduler.WithIDGenerator(o.ids))
	}

	return &Runtime{
		logger:    o.logger,
		graph:     o.graph,
		store:     store,
		registry:  registry,
		scheduler: scheduler.New(registry, schedOpts...),
	}, nil
}

func (r *Runtime) Graph() *types.Graph             { return r.graph }
func (r *Runtime) Types() *types.Registry          { return r.graph.Types }
func (r *Runtime) Store() *variables.Store         { return r.store }
func (r *Runtime) Registry() *trigger.Registry     { return r.registry }
func (r *Runtime) Scheduler() *scheduler.Scheduler { return r.scheduler }

// LoadVariables opens the configured storage backends and loads their
// variables into the global scope. Failed sections are reported together;
// the rest stay loaded.
func (r *Runtime) LoadVariables(ctx context.Context, cfg config.Variables) error {
	return r.store.Load(ctx, cfg)
}

// LoadScript replaces every trigger of script with triggers and arms the
// start-on-load events. A trigger that cannot be registered aborts the
// load and leaves the script unloaded; arming failures are returned but the
// script stays loaded.
func (r *Runtime) LoadScript(script string, triggers []*trigger.Trigger) error {
	r.registry.Clear(script)

	for _, t := range triggers {
		t.Script = script
		if err := r.registry.AddTrigger(t); err != nil {
			r.registry.Clear(script)
			return fmt.Errorf("load script %s: %w", script, err)
		}
	}
	r.logger.Info("script loaded", "script", script, "triggers", len(triggers))

	if err := r.scheduler.ArmScript(script); err != nil {
		return fmt.Errorf("arm script %s: %w", script, err)
	}
	return nil
}

// UnloadScript cancels the script's scheduled events and removes its
// triggers.
func (r *Runtime) UnloadScript(script string) {
	r.registry.Clear(script)
	r.logger.Info("script unloaded", "script", script)
}

// Dispatch fires ctx through the registry and returns the number of
// triggers that ran.
func (r *Runtime) Dispatch(ctx trigger.Context) int {
	return r.registry.Dispatch(ctx)
}

// Convert converts value to the type to.
func (r *Runtime) Convert(value any, to types.TypeID) (any, bool) {
	return r.graph.Convert(value, to)
}

// Compare relates two values.
func (r *Runtime) Compare(a, b any) (types.Relation, bool) {
	return r.graph.Compare(a, b)
}

// Range yields the values between low and high inclusive.
func (r *Runtime) Range(low, high any) (iter.Seq[any], bool) {
	return r.graph.Range(low, high)
}

// Arithmetic returns the arithmetic of a type.
func (r *Runtime) Arithmetic(id types.TypeID) (types.Arithmetic, bool) {
	return r.graph.Arithmetic(id)
}

// Close unloads every script, waits for running firings, then flushes and
// closes the variable store.
func (r *Runtime) Close() {
	for _, script := range r.registry.Scripts() {
		r.registry.Clear(script)
	}
	r.scheduler.Stop()
	r.store.Close()
	r.logger.Debug("runtime closed")
}
