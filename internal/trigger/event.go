package trigger

import "sync"

// Event decides which contexts a trigger handles.
type Event interface {
	// ContextTypes lists the context types the event is registered under.
	ContextTypes() []ContextType
	// Check reports whether the event fires for ctx.
	Check(ctx Context) bool
	String() string
}

// Dispatcher fires a context. Registry implements it.
type Dispatcher interface {
	Dispatch(ctx Context) int
}

// Armable is implemented by start-on-load events that schedule their own
// firings. Arm is called once after the owning script finishes loading.
type Armable interface {
	Event
	Arm(d Dispatcher, t *Trigger) (Handle, error)
}

// Handle cancels armed activity. Cancel is idempotent; once it returns, the
// handle dispatches nothing more and none of its dispatches is still
// running. Cancelling a handle whose work already finished is a no-op.
type Handle interface {
	Cancel()
}

// HandleFunc adapts a function into a Handle that runs at most once.
func HandleFunc(fn func()) Handle {
	return &funcHandle{fn: fn}
}

type funcHandle struct {
	once sync.Once
	fn   func()
}

func (h *funcHandle) Cancel() {
	h.once.Do(func() {
		if h.fn != nil {
			h.fn()
		}
	})
}

// NopHandle is returned for events with nothing to cancel.
var NopHandle Handle = HandleFunc(nil)
