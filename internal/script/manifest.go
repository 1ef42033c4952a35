package script

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is one script file.
type Manifest struct {
	// Name identifies the script; loading a manifest with the same name
	// replaces the earlier one. Defaults to the file's base name.
	Name string `yaml:"name"`

	Description string `yaml:"description,omitempty"`

	// Functions are helper function literals bound by name in every
	// trigger body of the script.
	Functions map[string]string `yaml:"functions,omitempty"`

	Triggers []TriggerSpec `yaml:"triggers"`
}

// TriggerSpec is one event plus the code it runs.
type TriggerSpec struct {
	Event string `yaml:"event"`

	// Args are context values of a load event.
	Args map[string]any `yaml:"args,omitempty"`

	Code string `yaml:"code"`
}

// LoadManifest reads and parses a manifest file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or is missing required fields.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m, err := ParseManifest(data, base)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseManifest parses manifest YAML. defaultName is used when the
// manifest has no name.
func ParseManifest(data []byte, defaultName string) (*Manifest, error) {
	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if m.Name == "" {
		m.Name = defaultName
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	return &m, nil
}

// Validate checks the required fields and function names.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(m.Triggers) == 0 {
		return fmt.Errorf("triggers list is required and must be non-empty")
	}
	for i, t := range m.Triggers {
		if strings.TrimSpace(t.Event) == "" {
			return fmt.Errorf("triggers[%d]: event is required", i)
		}
		if strings.TrimSpace(t.Code) == "" {
			return fmt.Errorf("triggers[%d]: code is required", i)
		}
	}
	for name := range m.Functions {
		if !isIdentifier(name) {
			return fmt.Errorf("function name %q is not an identifier", name)
		}
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
