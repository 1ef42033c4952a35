package variables

import "sync"

// Change is a global write waiting to be flushed. A nil Value is a
// tombstone.
type Change struct {
	Name  string
	Value any
	Seq   int64
}

// changeQueue is an unbounded, thread-safe FIFO of pending changes.
//
// Enqueue never blocks, so a trigger body writing a global variable is never
// held up by backend I/O.
type changeQueue struct {
	mu      sync.Mutex
	clock   *Clock
	changes []Change
	closed  bool
}

func newChangeQueue(clock *Clock) *changeQueue {
	return &changeQueue{
		clock:   clock,
		changes: make([]Change, 0, 64),
	}
}

// Enqueue appends a change, stamping its Seq. Stamping under the queue lock
// keeps seq order identical to queue order. It returns false once the
// queue is closed.
func (q *changeQueue) Enqueue(c Change) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	c.Seq = q.clock.Next()
	q.changes = append(q.changes, c)
	return true
}

// TryDequeue removes the front change. It returns false when the queue is
// empty.
func (q *changeQueue) TryDequeue() (Change, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.changes) == 0 {
		return Change{}, false
	}
	c := q.changes[0]
	// Release the value for GC; the backing array outlives the slice head.
	q.changes[0] = Change{}
	if len(q.changes) == 1 {
		q.changes = q.changes[:0]
	} else {
		q.changes = q.changes[1:]
	}
	return c, true
}

// Len returns the number of pending changes.
func (q *changeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.changes)
}

// Close rejects further changes. Pending changes can still be dequeued.
func (q *changeQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
