package config

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

//go:embed schema.cue
var schemaSource string

// ParseCUE compiles a single CUE file and reads it against the schema.
// filename is used for error positions only.
func ParseCUE(filename string, data []byte) (*Config, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile %s: %w", filename, err)
	}
	return decodeCUE(ctx, value)
}

// LoadCUEDir loads every .cue file of the package in dir.
func LoadCUEDir(dir string) (*Config, error) {
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("load %s: no CUE instances", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("load %s: %w", dir, inst.Err)
	}
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("build %s: %w", dir, err)
	}
	return decodeCUE(ctx, value)
}

func decodeCUE(ctx *cue.Context, value cue.Value) (*Config, error) {
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	cfg := &Config{}
	dbs := unified.LookupPath(cue.ParsePath("variables.databases"))
	if !dbs.Exists() {
		return cfg, nil
	}
	iter, err := dbs.Fields()
	if err != nil {
		return nil, fmt.Errorf("variables.databases: %w", err)
	}
	for iter.Next() {
		name := iter.Label()
		var fields map[string]any
		if err := iter.Value().Decode(&fields); err != nil {
			return nil, fmt.Errorf("database %q: %w", name, err)
		}
		db, err := newDatabase(name, fields)
		if err != nil {
			return nil, err
		}
		cfg.Variables.Databases = append(cfg.Variables.Databases, db)
	}
	return cfg, nil
}
