package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a YAML configuration. Database order follows the
// document, which a plain map decode would lose.
func ParseYAML(data []byte) (*Config, error) {
	var doc struct {
		Variables struct {
			Databases yaml.Node `yaml:"databases"`
		} `yaml:"variables"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	cfg := &Config{}
	node := doc.Variables.Databases
	if node.Kind == 0 {
		return cfg, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: variables.databases must be a mapping", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: database %q must be a mapping", value.Line, key.Value)
		}
		var fields map[string]any
		if err := value.Decode(&fields); err != nil {
			return nil, fmt.Errorf("line %d: database %q: %w", value.Line, key.Value, err)
		}
		db, err := newDatabase(key.Value, fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", value.Line, err)
		}
		cfg.Variables.Databases = append(cfg.Variables.Databases, db)
	}
	return cfg, nil
}
