package variables

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/tempo/internal/config"
	"github.com/roach88/tempo/internal/trigger"
	"github.com/roach88/tempo/internal/types"
)

// Store holds global and local variables and feeds global writes to the
// storage backends.
//
// Thread-safety: every method is safe for concurrent use. In-memory reads
// and writes never wait for backend I/O; only the flush is serialized.
type Store struct {
	logger   *slog.Logger
	types    *types.Registry
	backends *Backends
	clock    *Clock

	global *VariableMap
	// writeMu orders global writes with their queued changes.
	writeMu sync.Mutex

	localMu sync.Mutex
	locals  map[trigger.Context]*VariableMap

	queue   *changeQueue
	flushMu sync.Mutex // held by the single active flusher

	storageMu sync.RWMutex
	storages  []*storageState
}

type storageState struct {
	Storage
	broken atomic.Bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithBackends sets the backend registry consulted by Load.
func WithBackends(b *Backends) StoreOption {
	return func(s *Store) { s.backends = b }
}

// WithClock sets the clock stamping changes.
func WithClock(c *Clock) StoreOption {
	return func(s *Store) { s.clock = c }
}

// NewStore creates an empty store. reg serializes values for backends and
// deserializes them on load.
func NewStore(reg *types.Registry, opts ...StoreOption) *Store {
	s := &Store{
		logger:   slog.Default(),
		types:    reg,
		backends: NewBackends(),
		clock:    NewClock(),
		global:   NewVariableMap(),
		locals:   make(map[trigger.Context]*VariableMap),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.queue = newChangeQueue(s.clock)
	return s
}

// Backends returns the backend registry.
func (s *Store) Backends() *Backends { return s.backends }

// Globals returns the global map. Writes through it bypass the backends.
func (s *Store) Globals() *VariableMap { return s.global }

// Get reads a variable. Local reads need ctx; a context that never wrote a
// local variable has none.
func (s *Store) Get(name string, ctx trigger.Context, local bool) (any, bool) {
	if !local {
		return s.global.Get(name)
	}
	m := s.localMap(ctx, false)
	if m == nil {
		return nil, false
	}
	return m.Get(name)
}

// Set writes a variable; a nil value deletes it. The only error is
// ErrListAssign, for a non-nil value on a "::*" name.
func (s *Store) Set(name string, value any, ctx trigger.Context, local bool) error {
	if local {
		if ctx == nil {
			return fmt.Errorf("set local %q: no context", name)
		}
		if value == nil {
			if m := s.localMap(ctx, false); m != nil {
				return m.Set(name, nil)
			}
			return nil
		}
		return s.localMap(ctx, true).Set(name, value)
	}

	if err := s.setGlobal(name, value); err != nil {
		return err
	}
	s.TryFlush()
	return nil
}

// setGlobal writes the global map and queues the matching changes under
// one lock, so concurrent writers leave memory and storage agreeing on the
// last value. Deleting a list queues a tombstone for every removed entry.
func (s *Store) setGlobal(name string, value any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	keys, err := s.global.Update(name, value)
	if err != nil {
		return err
	}
	if !s.HasStorages() {
		return nil
	}
	for _, key := range keys {
		s.queue.Enqueue(Change{Name: key, Value: value})
	}
	return nil
}

// Lookup resolves a parsed name against the right scope.
func (s *Store) Lookup(n Name, ctx trigger.Context) (any, bool) {
	return s.Get(n.Key, ctx, n.Local)
}

// Assign writes through a parsed name.
func (s *Store) Assign(n Name, value any, ctx trigger.Context) error {
	return s.Set(n.Key, value, ctx, n.Local)
}

func (s *Store) localMap(ctx trigger.Context, create bool) *VariableMap {
	s.localMu.Lock()
	defer s.localMu.Unlock()
	m, ok := s.locals[ctx]
	if !ok && create {
		m = NewVariableMap()
		s.locals[ctx] = m
	}
	return m
}

// ClearLocal drops every local variable of ctx.
func (s *Store) ClearLocal(ctx trigger.Context) {
	s.localMu.Lock()
	defer s.localMu.Unlock()
	delete(s.locals, ctx)
}

// CopyLocal returns an independent copy of ctx's local variables, or an
// empty map when it has none.
func (s *Store) CopyLocal(from trigger.Context) *VariableMap {
	if m := s.localMap(from, false); m != nil {
		return m.Copy()
	}
	return NewVariableMap()
}

// AdoptLocal installs m as the local variables of ctx.
func (s *Store) AdoptLocal(to trigger.Context, m *VariableMap) {
	s.localMu.Lock()
	defer s.localMu.Unlock()
	s.locals[to] = m
}

// ShareLocal makes to use the same local map as from, so writes through
// either context are visible to both until one is cleared.
func (s *Store) ShareLocal(from, to trigger.Context) {
	s.localMu.Lock()
	defer s.localMu.Unlock()
	if m, ok := s.locals[from]; ok {
		s.locals[to] = m
	}
}

// LocalCount returns the number of contexts holding local variables. A
// steadily growing count means some dispatch path skipped ClearLocal.
func (s *Store) LocalCount() int {
	s.localMu.Lock()
	defer s.localMu.Unlock()
	return len(s.locals)
}

// HasStorages reports whether any backend is loaded.
func (s *Store) HasStorages() bool {
	s.storageMu.RLock()
	defer s.storageMu.RUnlock()
	return len(s.storages) > 0
}

// Storages returns the loaded backends in configuration order.
func (s *Store) Storages() []Storage {
	s.storageMu.RLock()
	defer s.storageMu.RUnlock()
	out := make([]Storage, len(s.storages))
	for i, st := range s.storages {
		out[i] = st.Storage
	}
	return out
}

// AddStorage attaches an already configured backend.
func (s *Store) AddStorage(st Storage) {
	s.storageMu.Lock()
	defer s.storageMu.Unlock()
	s.storages = append(s.storages, &storageState{Storage: st})
}

// TryFlush drains the queue unless another goroutine is already flushing.
// The active flusher re-checks the queue after releasing the lock, so a
// change enqueued while it was finishing is never stranded.
func (s *Store) TryFlush() {
	for s.queue.Len() > 0 && s.flushMu.TryLock() {
		s.drain()
		s.flushMu.Unlock()
	}
}

// Flush drains the queue, waiting for any active flusher first.
func (s *Store) Flush() {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	s.drain()
}

// drain must be called with flushMu held.
func (s *Store) drain() {
	s.storageMu.RLock()
	storages := s.storages
	s.storageMu.RUnlock()

	ctx := context.Background()
	for {
		change, ok := s.queue.TryDequeue()
		if !ok {
			return
		}
		for _, st := range storages {
			if st.broken.Load() || !st.Accept(change.Name) {
				continue
			}
			sv := st.Serialize(change.Name, change.Value)
			if sv == nil {
				continue
			}
			sv.Seq = change.Seq
			if err := st.Save(ctx, *sv); err != nil {
				st.broken.Store(true)
				s.logger.Error("storage disabled after write failure",
					"database", st.Name(),
					"variable", change.Name,
					"error", err,
				)
			}
		}
	}
}

// Pending returns the number of queued changes not yet flushed.
func (s *Store) Pending() int {
	return s.queue.Len()
}

// Load configures a backend for every enabled database section and reads
// its persisted variables into the global map. A bad section is reported
// and skipped; the others still load. Once every section has been tried,
// AllLoaded is called on each loaded backend and the queue is flushed.
//
// The returned error joins one *LoadError per failed section.
func (s *Store) Load(ctx context.Context, cfg config.Variables) error {
	var errs []error
	var loaded []Storage

	for _, db := range cfg.Databases {
		st, err := s.loadDatabase(ctx, db)
		if err != nil {
			var le *LoadError
			if errors.As(err, &le) && le.Code == ErrCodeDisabled {
				s.logger.Warn("database disabled, skipping", "database", db.Name, "code", le.Code)
				continue
			}
			s.logger.Error("database failed to load", "database", db.Name, "error", err)
			errs = append(errs, err)
			continue
		}
		s.AddStorage(st)
		loaded = append(loaded, st)
	}

	s.logger.Debug("databases loaded", "count", len(loaded))
	for _, st := range loaded {
		st.AllLoaded()
	}
	s.Flush()
	return errors.Join(errs...)
}

func (s *Store) loadDatabase(ctx context.Context, db config.Database) (Storage, error) {
	if !db.Enabled {
		return nil, &LoadError{Database: db.Name, Code: ErrCodeDisabled, Message: "database is disabled"}
	}
	if db.Type == "" {
		return nil, &LoadError{Database: db.Name, Code: ErrCodeMissingType, Message: "configuration is missing the type"}
	}
	factory, ok := s.backends.Lookup(db.Type)
	if !ok {
		return nil, &LoadError{Database: db.Name, Code: ErrCodeUnknownType,
			Message: fmt.Sprintf("no storage registered with the name %q", db.Type)}
	}

	st := factory(Env{Name: db.Name, Types: s.types, Logger: s.logger})
	if err := st.LoadConfig(db); err != nil {
		return nil, &LoadError{Database: db.Name, Code: ErrCodeConfig, Message: "invalid configuration", Err: err}
	}

	count := 0
	err := st.Load(ctx, func(sv SerializedVariable) {
		s.clock.Advance(sv.Seq)
		if sv.Value == nil {
			return
		}
		value, err := s.types.Deserialize(sv.Value.Type, sv.Value.Data)
		if err != nil {
			s.logger.Warn("skipping unreadable variable", "database", db.Name, "variable", sv.Name, "error", err)
			return
		}
		if err := s.global.Set(sv.Name, value); err != nil {
			s.logger.Warn("skipping variable", "database", db.Name, "variable", sv.Name, "error", err)
			return
		}
		count++
	})
	if err != nil {
		if cerr := st.Close(); cerr != nil {
			s.logger.Warn("close after failed load", "database", db.Name, "error", cerr)
		}
		return nil, &LoadError{Database: db.Name, Code: ErrCodeLoad, Message: "reading variables failed", Err: err}
	}

	s.logger.Info("database loaded", "database", db.Name, "type", db.Type, "variables", count)
	return st, nil
}

// Close flushes pending changes, closes every backend and clears both
// scopes. Backend close errors are logged, not returned. Global writes
// after Close stay in memory only.
func (s *Store) Close() {
	s.queue.Close()
	s.Flush()

	s.storageMu.Lock()
	storages := s.storages
	s.storages = nil
	s.storageMu.Unlock()

	for _, st := range storages {
		if err := st.Close(); err != nil {
			s.logger.Error("closing storage", "database", st.Name(), "error", err)
		}
	}

	s.localMu.Lock()
	s.locals = make(map[trigger.Context]*VariableMap)
	s.localMu.Unlock()
	s.global.Clear()
}
