// Package memory is an in-process variable backend. Rows live as long as
// the backend, so it persists nothing across runs; it is the backend used in
// tests and when no durable store is configured.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/roach88/tempo/internal/config"
	"github.com/roach88/tempo/internal/variables"
)

// Aliases are the configuration type names of this backend.
var Aliases = []string{"memory", "mem"}

// Backend keeps serialized rows in a map.
type Backend struct {
	variables.Base

	mu     sync.Mutex
	rows   map[string]variables.SerializedVariable
	closed bool
}

// New creates a memory backend.
func New(env variables.Env) variables.Storage {
	return NewBackend(env)
}

// NewBackend is New with the concrete return type.
func NewBackend(env variables.Env) *Backend {
	return &Backend{
		Base: variables.NewBase(env),
		rows: make(map[string]variables.SerializedVariable),
	}
}

func (b *Backend) LoadConfig(db config.Database) error {
	return b.LoadPattern(db)
}

// Load replays the rows already held, in seq order.
func (b *Backend) Load(_ context.Context, sink func(variables.SerializedVariable)) error {
	for _, row := range b.Rows() {
		sink(row)
	}
	return nil
}

func (b *Backend) Save(_ context.Context, v variables.SerializedVariable) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return variables.ErrClosed
	}
	if v.Value == nil {
		delete(b.rows, v.Name)
		return nil
	}
	b.rows[v.Name] = v
	return nil
}

// Rows returns the stored rows ordered by seq.
func (b *Backend) Rows() []variables.SerializedVariable {
	b.mu.Lock()
	defer b.mu.Unlock()
	rows := slices.Collect(maps.Values(b.rows))
	slices.SortFunc(rows, func(x, y variables.SerializedVariable) int {
		return int(x.Seq - y.Seq)
	})
	return rows
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
