package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/tempo/internal/trigger"
)

var (
	// ErrNotArmable is returned for events that schedule nothing.
	ErrNotArmable = errors.New("event is not armable")
	// ErrStopped is returned when arming after Stop.
	ErrStopped = errors.New("scheduler stopped")
)

// Scheduler arms triggers and owns their timing goroutines.
//
// Thread-safety: all methods are safe for concurrent use. Stop and handle
// cancellation wait for in-flight dispatches, so a trigger body must not
// call Stop or cancel its own loop.
type Scheduler struct {
	registry *trigger.Registry
	clock    Clock
	logger   *slog.Logger
	ids      trigger.IDGenerator

	ctx    context.Context
	cancel context.CancelFunc

	loops    sync.WaitGroup
	inflight sync.WaitGroup

	mu      sync.Mutex
	pending map[*loopState]struct{}
	ticks   atomic.Int64
	running atomic.Int64
}

// loopState is the next deadline of one armed loop.
type loopState struct {
	next time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithIDGenerator sets the generator naming the contexts of each firing.
func WithIDGenerator(g trigger.IDGenerator) Option {
	return func(s *Scheduler) { s.ids = g }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New creates a scheduler that dispatches through reg.
func New(reg *trigger.Registry, opts ...Option) *Scheduler {
	s := &Scheduler{
		registry: reg,
		clock:    SystemClock{},
		logger:   slog.Default(),
		ids:      trigger.UUIDv7Generator{},
		pending:  make(map[*loopState]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Arm starts t's event. Load events dispatch before Arm returns and yield
// a no-op handle. Events from other packages arm themselves through
// trigger.Armable.
func (s *Scheduler) Arm(t *trigger.Trigger) (trigger.Handle, error) {
	if s.ctx.Err() != nil {
		return nil, ErrStopped
	}
	switch e := t.Event.(type) {
	case *ScriptLoad:
		s.registry.Dispatch(&ScriptLoadContext{BaseContext: s.context(ContextScriptLoad, e.Args), Event: e})
		return trigger.NopHandle, nil
	case *Periodical:
		if e.Interval <= 0 {
			return nil, fmt.Errorf("%s: interval must be positive", t)
		}
		return s.loop(e.Interval, e.Interval, func() {
			s.registry.Dispatch(&PeriodicalContext{BaseContext: s.context(ContextPeriodical, nil), Event: e})
		}), nil
	case *AtTime:
		first := InitialDelay(s.clock.Now(), e.Time)
		s.logger.Debug("at-time armed", "trigger", t.String(), "first", first)
		return s.loop(first, day, func() {
			s.registry.Dispatch(&AtTimeContext{BaseContext: s.context(ContextAtTime, nil), Event: e})
		}), nil
	case trigger.Armable:
		return e.Arm(s.registry, t)
	default:
		return nil, fmt.Errorf("%s: %w", t, ErrNotArmable)
	}
}

func (s *Scheduler) context(typ trigger.ContextType, values map[string]any) *trigger.BaseContext {
	return trigger.NewContextWithID(s.ids.Generate(), typ, values)
}

// IsArmable reports whether Arm accepts e.
func IsArmable(e trigger.Event) bool {
	switch e.(type) {
	case *ScriptLoad, *Periodical, *AtTime, trigger.Armable:
		return true
	}
	return false
}

// ArmScript arms every armable trigger of script in insertion order and
// hands the handles to the registry, so clearing the script cancels them.
// Triggers that fail to arm are reported together; the rest stay armed.
func (s *Scheduler) ArmScript(script string) error {
	var errs []error
	for _, t := range s.registry.ForScript(script) {
		if !IsArmable(t.Event) {
			continue
		}
		h, err := s.Arm(t)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.registry.Track(script, h)
	}
	return errors.Join(errs...)
}

// loop fires after first and then every interval until cancelled. The
// returned handle's Cancel waits for the loop's in-flight firings, so it
// must not be called from one of them.
func (s *Scheduler) loop(first, interval time.Duration, fire func()) trigger.Handle {
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	var fires sync.WaitGroup

	// The first deadline is fixed before Arm returns, so Due already
	// counts a loop whose goroutine has not started yet.
	ls := &loopState{next: s.clock.Now().Add(first)}
	s.mu.Lock()
	s.pending[ls] = struct{}{}
	s.mu.Unlock()

	s.loops.Add(1)
	go func() {
		defer s.loops.Done()
		defer close(done)
		defer func() {
			s.mu.Lock()
			delete(s.pending, ls)
			s.mu.Unlock()
		}()

		for {
			s.mu.Lock()
			next := ls.next
			s.mu.Unlock()

			select {
			case <-ctx.Done():
				return
			case <-s.clock.After(next.Sub(s.clock.Now())):
			}
			if ctx.Err() != nil {
				return
			}

			s.inflight.Add(1)
			fires.Add(1)
			s.running.Add(1)
			go func() {
				defer s.inflight.Done()
				defer fires.Done()
				defer s.running.Add(-1)
				if ctx.Err() != nil {
					return
				}
				fire()
			}()

			now := s.clock.Now()
			next = next.Add(interval)
			for !next.After(now) {
				next = next.Add(interval)
			}
			s.mu.Lock()
			ls.next = next
			s.mu.Unlock()
			s.ticks.Add(1)
		}
	}()

	return trigger.HandleFunc(func() {
		cancel()
		<-done
		fires.Wait()
	})
}

// Due returns how many armed loops have a deadline at or before t.
func (s *Scheduler) Due(t time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for ls := range s.pending {
		if !ls.next.After(t) {
			n++
		}
	}
	return n
}

// Ticks returns how many deadlines the loops have consumed so far. Each
// tick has started its dispatch by the time it is counted.
func (s *Scheduler) Ticks() int64 { return s.ticks.Load() }

// Running returns the number of dispatches still executing.
func (s *Scheduler) Running() int64 { return s.running.Load() }

// Stop cancels every armed loop and waits for loops and in-flight
// dispatches to finish. Later Arm calls fail with ErrStopped.
func (s *Scheduler) Stop() {
	s.cancel()
	s.loops.Wait()
	s.inflight.Wait()
}
