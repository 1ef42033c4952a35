package variables

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/roach88/tempo/internal/config"
	"github.com/roach88/tempo/internal/types"
)

// SerializedVariable is a variable in portable form. A nil Value is a
// tombstone: the backend deletes the row.
type SerializedVariable struct {
	Name  string
	Value *types.SerializedValue
	Seq   int64
}

// Storage is a durable backend for global variables.
//
// LoadConfig and Load run once at startup. Accept, Serialize and Save are
// called only by the store's single flusher, so implementations need no
// locking for them beyond what Close requires.
type Storage interface {
	Name() string
	// LoadConfig reads the backend's database section.
	LoadConfig(db config.Database) error
	// Load streams every persisted variable to sink.
	Load(ctx context.Context, sink func(SerializedVariable)) error
	// Accept reports whether the backend owns a variable name.
	Accept(name string) bool
	// Serialize converts a value for Save. It returns nil to skip the
	// value, e.g. when its type has no serializer.
	Serialize(name string, value any) *SerializedVariable
	Save(ctx context.Context, v SerializedVariable) error
	// AllLoaded is called once every configured backend has loaded.
	AllLoaded()
	Close() error
}

// Env is what a backend factory receives.
type Env struct {
	// Name is the database section name.
	Name   string
	Types  *types.Registry
	Logger *slog.Logger
}

// Factory creates an unconfigured backend.
type Factory func(env Env) Storage

// Base implements the parts of Storage every backend shares: the section
// name, pattern-based Accept and serialization through the type registry.
// Backends embed it and call LoadPattern from LoadConfig.
type Base struct {
	name    string
	types   *types.Registry
	logger  *slog.Logger
	pattern *regexp.Regexp
}

// NewBase creates a Base from a factory environment.
func NewBase(env Env) Base {
	logger := env.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return Base{
		name:   env.Name,
		types:  env.Types,
		logger: logger.With("database", env.Name),
	}
}

func (b *Base) Name() string { return b.name }

// Logger returns a logger tagged with the database name.
func (b *Base) Logger() *slog.Logger { return b.logger }

// Types returns the type registry used for serialization.
func (b *Base) Types() *types.Registry { return b.types }

// LoadPattern reads the optional "pattern" option, a Go regular expression
// selecting the variable names this backend persists.
func (b *Base) LoadPattern(db config.Database) error {
	expr := db.String("pattern", "")
	if expr == "" {
		b.pattern = nil
		return nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("pattern: %w", err)
	}
	b.pattern = re
	return nil
}

// Accept matches name against the configured pattern. Without a pattern
// every name is accepted.
func (b *Base) Accept(name string) bool {
	return b.pattern == nil || b.pattern.MatchString(name)
}

// Serialize encodes value with its registered serializer. A nil value
// becomes a tombstone; a value whose type cannot be serialized returns nil.
func (b *Base) Serialize(name string, value any) *SerializedVariable {
	if value == nil {
		return &SerializedVariable{Name: name}
	}
	if b.types == nil {
		return nil
	}
	sv, ok := b.types.Serialize(value)
	if !ok {
		b.logger.Debug("value not serializable, skipping", "name", name, "type", fmt.Sprintf("%T", value))
		return nil
	}
	return &SerializedVariable{Name: name, Value: sv}
}

// AllLoaded does nothing by default.
func (b *Base) AllLoaded() {}
