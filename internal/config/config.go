package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/tempo/internal/types"
)

// Config is the root of a configuration file.
type Config struct {
	Variables Variables
}

// Variables configures the variable store.
type Variables struct {
	Databases []Database
}

// Database is one storage backend section. Options holds every key of the
// section other than enabled and type.
type Database struct {
	Name    string
	Enabled bool
	Type    string
	Options map[string]any
}

// Load reads a configuration file. The format is picked from the extension;
// a directory is loaded as a CUE package.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if info.IsDir() {
		return LoadCUEDir(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".cue":
		return ParseCUE(path, data)
	default:
		return nil, fmt.Errorf("config %s: unsupported format %q", path, filepath.Ext(path))
	}
}

// Database returns the section with the given name.
func (c *Config) Database(name string) (Database, bool) {
	for _, db := range c.Variables.Databases {
		if db.Name == name {
			return db, true
		}
	}
	return Database{}, false
}

// String returns a string option, or def when it is absent. Scalars of other
// kinds are formatted.
func (d Database) String(key, def string) string {
	v, ok := d.Options[key]
	if !ok || v == nil {
		return def
	}
	switch val := v.(type) {
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// Bool returns a boolean option, or def when it is absent or not a boolean.
func (d Database) Bool(key string, def bool) bool {
	switch val := d.Options[key].(type) {
	case bool:
		return val
	case string:
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return def
}

// Int returns an integer option, or def when it is absent or not a whole
// number.
func (d Database) Int(key string, def int) int {
	switch val := d.Options[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n
		}
	}
	return def
}

// Duration returns a duration option. Strings accept Go syntax and the
// script syntax ("5 seconds"); bare numbers are milliseconds.
func (d Database) Duration(key string, def time.Duration) time.Duration {
	switch val := d.Options[key].(type) {
	case string:
		if dur, ok := types.ParseDuration(val); ok {
			return dur
		}
	case int:
		return time.Duration(val) * time.Millisecond
	case int64:
		return time.Duration(val) * time.Millisecond
	case float64:
		return time.Duration(val * float64(time.Millisecond))
	}
	return def
}

// newDatabase builds a section from its decoded fields.
func newDatabase(name string, fields map[string]any) (Database, error) {
	db := Database{Name: name, Options: make(map[string]any)}
	enabled, ok := fields["enabled"]
	if !ok {
		return db, fmt.Errorf("database %q: missing required key \"enabled\"", name)
	}
	b, ok := enabled.(bool)
	if !ok {
		return db, fmt.Errorf("database %q: \"enabled\" must be a boolean, got %T", name, enabled)
	}
	db.Enabled = b

	if t, ok := fields["type"]; ok && t != nil {
		s, ok := t.(string)
		if !ok {
			return db, fmt.Errorf("database %q: \"type\" must be a string, got %T", name, t)
		}
		db.Type = s
	}

	for k, v := range fields {
		if k == "enabled" || k == "type" {
			continue
		}
		db.Options[k] = v
	}
	return db, nil
}
