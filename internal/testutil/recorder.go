package testutil

import (
	"sync"
	"time"

	"github.com/roach88/tempo/internal/trigger"
)

// Recorder is a trigger body that records every context it runs with.
//
// Thread-safety: All methods are safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	contexts []trigger.Context
	notify   chan struct{}
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 1)}
}

// Execute implements trigger.Body.
func (r *Recorder) Execute(ctx trigger.Context) error {
	r.mu.Lock()
	r.contexts = append(r.contexts, ctx)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
	return nil
}

// Contexts returns the recorded contexts in execution order.
func (r *Recorder) Contexts() []trigger.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]trigger.Context(nil), r.contexts...)
}

// Count returns the number of recorded executions.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.contexts)
}

// Wait blocks until at least n executions were recorded or timeout
// elapses. It reports whether n was reached.
func (r *Recorder) Wait(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if r.Count() >= n {
			return true
		}
		select {
		case <-r.notify:
		case <-deadline:
			return r.Count() >= n
		}
	}
}
