package script

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/compiler"
	"github.com/risor-io/risor/modules/all"
	"github.com/risor-io/risor/parser"

	"github.com/roach88/tempo/internal/runtime"
	"github.com/roach88/tempo/internal/trigger"
)

// Engine compiles manifests into triggers and loads them into the runtime
// it owns.
//
// Thread-safety: all methods are safe for concurrent use.
type Engine struct {
	rt      *runtime.Runtime
	logger  *slog.Logger
	timeout time.Duration

	outMu sync.Mutex
	out   io.Writer

	mu        sync.Mutex
	functions map[string][]string
}

type options struct {
	logger  *slog.Logger
	out     io.Writer
	timeout time.Duration
	runtime []runtime.Option
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the logger of the engine and its runtime.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithOutput sets where print writes. Default: os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithTimeout bounds each body execution. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRuntimeOptions passes options to the runtime.
func WithRuntimeOptions(opts ...runtime.Option) Option {
	return func(o *options) { o.runtime = append(o.runtime, opts...) }
}

// NewEngine creates an engine and its runtime.
func NewEngine(opts ...Option) (*Engine, error) {
	o := options{logger: slog.Default(), out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		logger:    o.logger,
		timeout:   o.timeout,
		out:       o.out,
		functions: make(map[string][]string),
	}
	rtOpts := append([]runtime.Option{
		runtime.WithLogger(o.logger),
		runtime.WithFunctionUnloader(e),
	}, o.runtime...)
	rt, err := runtime.New(rtOpts...)
	if err != nil {
		return nil, err
	}
	e.rt = rt
	return e, nil
}

// Runtime returns the runtime the engine loads scripts into.
func (e *Engine) Runtime() *runtime.Runtime { return e.rt }

// Compile turns a manifest into unregistered triggers.
func (e *Engine) Compile(m *Manifest) ([]*trigger.Trigger, error) {
	prelude := functionPrelude(m.Functions)
	triggers := make([]*trigger.Trigger, 0, len(m.Triggers))
	for i, spec := range m.Triggers {
		event, err := ParseEvent(e.rt.Types(), spec.Event, spec.Args)
		if err != nil {
			return nil, fmt.Errorf("%s: triggers[%d]: %w", m.Name, i, err)
		}
		b, err := e.compileBody(prelude + spec.Code)
		if err != nil {
			return nil, fmt.Errorf("%s: triggers[%d]: %w", m.Name, i, err)
		}
		triggers = append(triggers, &trigger.Trigger{Script: m.Name, Event: event, Body: b})
	}
	return triggers, nil
}

// functionPrelude binds each helper function by name, sorted.
func functionPrelude(functions map[string]string) string {
	var sb strings.Builder
	for _, name := range slices.Sorted(maps.Keys(functions)) {
		fmt.Fprintf(&sb, "%s := %s\n", name, strings.TrimSpace(functions[name]))
	}
	return sb.String()
}

func (e *Engine) compileBody(source string) (*body, error) {
	ast, err := parser.Parse(context.Background(), source)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	code, err := compiler.Compile(ast, compiler.WithGlobalNames(globalNames()))
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return &body{engine: e, code: code}, nil
}

// Load compiles m and replaces any loaded script of the same name.
func (e *Engine) Load(m *Manifest) error {
	triggers, err := e.Compile(m)
	if err != nil {
		return err
	}
	err = e.rt.LoadScript(m.Name, triggers)
	if len(e.rt.Registry().ForScript(m.Name)) > 0 && len(m.Functions) > 0 {
		e.mu.Lock()
		e.functions[m.Name] = slices.Sorted(maps.Keys(m.Functions))
		e.mu.Unlock()
	}
	return err
}

// LoadFile reads and loads one manifest file.
func (e *Engine) LoadFile(path string) (*Manifest, error) {
	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return m, e.Load(m)
}

// Unload removes a script.
func (e *Engine) Unload(name string) {
	e.rt.UnloadScript(name)
}

// Functions returns the helper functions bound for a loaded script.
func (e *Engine) Functions(script string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.functions[script])
}

// UnloadFunctions forgets a script's helper functions. The trigger
// registry calls it when the script is cleared.
func (e *Engine) UnloadFunctions(script string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.functions, script)
}

// Close closes the runtime.
func (e *Engine) Close() {
	e.rt.Close()
}

func (e *Engine) print(s string) {
	e.outMu.Lock()
	defer e.outMu.Unlock()
	fmt.Fprintln(e.out, s)
}

// body runs compiled Risor code for one firing.
type body struct {
	engine *Engine
	code   *compiler.Code
}

func (b *body) Execute(tctx trigger.Context) error {
	ctx := context.Background()
	if b.engine.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.engine.timeout)
		defer cancel()
	}
	if _, err := risor.EvalCode(ctx, b.code, risor.WithGlobals(b.engine.globals(tctx))); err != nil {
		return fmt.Errorf("failed to evaluate risor script: %w", err)
	}
	return nil
}

// globalNames lists every global a body may reference, sorted.
func globalNames() []string {
	names := slices.Collect(maps.Keys(all.Builtins()))
	names = append(names, builtinNames...)
	slices.Sort(names)
	return slices.Compact(names)
}
