package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/tempo/internal/runtime"
	"github.com/roach88/tempo/internal/types"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion and returns one message per
// failure.
func EvaluateAssertions(result *Result, assertions []Assertion, rt *runtime.Runtime) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a, rt); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d] %s", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion, rt *runtime.Runtime) error {
	switch a.Type {
	case AssertVariable:
		return assertVariable(a, rt)
	case AssertAbsent:
		if v, ok := rt.Store().Get(a.Name, nil, false); ok {
			return &AssertionError{Type: a.Type, Expected: a.Name + " to be unset", Actual: rt.Types().Render(v)}
		}
		return nil
	case AssertOutput:
		for _, line := range result.Output() {
			if strings.Contains(line, a.Text) {
				return nil
			}
		}
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("a line containing %q", a.Text),
			Actual: fmt.Sprintf("%d lines %q", len(result.Output()), result.Output())}
	case AssertFires:
		got := len(result.Fires(a.Script, a.Event))
		if got != a.Count {
			what := a.Script
			if a.Event != "" {
				what += " " + a.Event
			}
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d firings of %s", a.Count, what),
				Actual: fmt.Sprintf("%d", got)}
		}
		return nil
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// assertVariable compares through the type graph first, so 2 matches 2.0,
// and falls back to deep equality for values without a comparator.
func assertVariable(a Assertion, rt *runtime.Runtime) error {
	want := types.Normalize(a.Equals)
	got, ok := rt.Store().Get(a.Name, nil, false)
	reg := rt.Types()
	if !ok {
		return &AssertionError{Type: a.Type, Expected: a.Name + " = " + reg.Render(want), Actual: "unset"}
	}
	if rel, ok := rt.Compare(got, want); ok {
		if rel == types.Equal {
			return nil
		}
	} else if reflect.DeepEqual(got, want) {
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: a.Name + " = " + reg.Render(want), Actual: reg.Render(got)}
}
