package trigger

import "fmt"

// Body is the executable part of a trigger. Its structure is opaque here.
type Body interface {
	Execute(ctx Context) error
}

// BodyFunc adapts a function into a Body.
type BodyFunc func(ctx Context) error

func (f BodyFunc) Execute(ctx Context) error { return f(ctx) }

// Trigger is a registered (event, body) pair owned by one script.
type Trigger struct {
	Script string
	Event  Event
	Body   Body
}

func (t *Trigger) String() string {
	return fmt.Sprintf("%s: %s", t.Script, t.Event)
}
