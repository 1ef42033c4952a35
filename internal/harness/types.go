package harness

// Trace event types.
const (
	EventLoad    = "load"
	EventUnload  = "unload"
	EventSet     = "set"
	EventAdvance = "advance"
	EventFire    = "fire"
	EventOutput  = "output"
)

// TraceEvent is one entry of a scenario trace.
type TraceEvent struct {
	Seq    int    `json:"seq"`
	At     string `json:"at"`
	Type   string `json:"type"`
	Script string `json:"script,omitempty"`
	Event  string `json:"event,omitempty"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed assertion.
	Errors []string `json:"errors,omitempty"`

	// Variables is the final global scope, rendered.
	Variables map[string]string `json:"variables,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Trace:     []TraceEvent{},
		Errors:    []string{},
		Variables: make(map[string]string),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) add(e TraceEvent) {
	e.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, e)
}

// Fires returns the fire events of script, optionally narrowed to one
// event description.
func (r *Result) Fires(script, event string) []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.Type != EventFire || e.Script != script {
			continue
		}
		if event != "" && e.Event != event {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Output returns every printed line in trace order.
func (r *Result) Output() []string {
	var out []string
	for _, e := range r.Trace {
		if e.Type == EventOutput {
			out = append(out, e.Detail)
		}
	}
	return out
}
