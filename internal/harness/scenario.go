package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tempo/internal/script"
	"github.com/roach88/tempo/internal/types"
	"github.com/roach88/tempo/internal/variables"
)

// DefaultStart is the fake clock's reading when a scenario sets none.
var DefaultStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Scenario defines a script test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Start is the RFC 3339 time the fake clock starts at.
	Start string `yaml:"start,omitempty"`

	// Scripts lists manifest files loaded in order before the first step.
	// Relative paths resolve against the scenario file.
	Scripts []string `yaml:"scripts,omitempty"`

	// Inline holds manifests written directly in the scenario. They load
	// after Scripts.
	Inline []script.Manifest `yaml:"inline,omitempty"`

	// Variables seeds global variables before any script loads.
	Variables map[string]any `yaml:"variables,omitempty"`

	Steps []Step `yaml:"steps,omitempty"`

	Assertions []Assertion `yaml:"assertions"`

	start time.Time
}

// Step is one action of a scenario. Exactly one field is set.
type Step struct {
	// Advance moves the clock, e.g. "5s" or "1 minute and 30 seconds".
	Advance string `yaml:"advance,omitempty"`

	// Set assigns global variables; a null value deletes.
	Set map[string]any `yaml:"set,omitempty"`

	// Load loads one more manifest file.
	Load string `yaml:"load,omitempty"`

	// Unload removes a script by name.
	Unload string `yaml:"unload,omitempty"`

	advance time.Duration
}

// Assertion validates the final state or the trace.
type Assertion struct {
	// Type is one of variable, absent, output or fires.
	Type string `yaml:"type"`

	// Name is the variable name (variable, absent).
	Name string `yaml:"name,omitempty"`

	// Equals is the expected value (variable).
	Equals any `yaml:"equals,omitempty"`

	// Text must appear in some printed line (output).
	Text string `yaml:"text,omitempty"`

	// Script and Event select firings (fires). An empty Event matches
	// every event of the script.
	Script string `yaml:"script,omitempty"`
	Event  string `yaml:"event,omitempty"`

	// Count is the expected number of firings (fires).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertVariable = "variable"
	AssertAbsent   = "absent"
	AssertOutput   = "output"
	AssertFires    = "fires"
)

// LoadScenario reads and parses a scenario YAML file. Script paths resolve
// against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML with strict field checking. Relative
// script paths are joined to baseDir.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) || baseDir == "" {
			return p
		}
		return filepath.Join(baseDir, p)
	}
	for i, p := range s.Scripts {
		s.Scripts[i] = resolve(p)
	}
	for i := range s.Steps {
		s.Steps[i].Load = resolve(s.Steps[i].Load)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Scripts) == 0 && len(s.Inline) == 0 {
		return fmt.Errorf("scripts or inline is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	s.start = DefaultStart
	if s.Start != "" {
		t, err := time.Parse(time.RFC3339, s.Start)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		s.start = t
	}

	for i := range s.Inline {
		if err := s.Inline[i].Validate(); err != nil {
			return fmt.Errorf("inline[%d]: %w", i, err)
		}
	}
	for name := range s.Variables {
		if err := checkGlobalName(name); err != nil {
			return fmt.Errorf("variables: %w", err)
		}
	}

	for i := range s.Steps {
		if err := validateStep(&s.Steps[i]); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(st *Step) error {
	set := 0
	if st.Advance != "" {
		set++
		d, ok := types.ParseDuration(st.Advance)
		if !ok || d <= 0 {
			return fmt.Errorf("advance %q is not a positive duration", st.Advance)
		}
		st.advance = d
	}
	if st.Set != nil {
		set++
		for name := range st.Set {
			if err := checkGlobalName(name); err != nil {
				return fmt.Errorf("set: %w", err)
			}
		}
	}
	if st.Load != "" {
		set++
	}
	if st.Unload != "" {
		set++
	}
	if set != 1 {
		return fmt.Errorf("exactly one of advance, set, load or unload is required")
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertVariable:
		if a.Name == "" {
			return fmt.Errorf("name is required for variable")
		}
		if a.Equals == nil {
			return fmt.Errorf("equals is required for variable (use absent for missing variables)")
		}
	case AssertAbsent:
		if a.Name == "" {
			return fmt.Errorf("name is required for absent")
		}
	case AssertOutput:
		if a.Text == "" {
			return fmt.Errorf("text is required for output")
		}
	case AssertFires:
		if a.Script == "" {
			return fmt.Errorf("script is required for fires")
		}
		if a.Count < 0 {
			return fmt.Errorf("count must be non-negative for fires")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func checkGlobalName(raw string) error {
	n, err := variables.ParseName(raw)
	if err != nil {
		return err
	}
	if n.Local {
		return fmt.Errorf("%q is a local variable", raw)
	}
	if n.List {
		return fmt.Errorf("%q names a whole list", raw)
	}
	return nil
}
