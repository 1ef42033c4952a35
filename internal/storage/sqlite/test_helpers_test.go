package sqlite

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/roach88/tempo/internal/config"
	"github.com/roach88/tempo/internal/types"
	"github.com/roach88/tempo/internal/variables"
)

// createTestBackend opens a backend on a fresh database file.
func createTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := New(variables.Env{Name: "test", Types: types.NewDefaultGraph().Types}).(*Backend)
	db := config.Database{Name: "test", Enabled: true, Type: "sqlite",
		Options: map[string]any{"file": filepath.Join(t.TempDir(), "test.db")}}
	if err := b.LoadConfig(db); err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

// databaseSection is a variables section backed by file.
func databaseSection(file string) config.Variables {
	return config.Variables{Databases: []config.Database{{
		Name: "main", Enabled: true, Type: "sqlite3",
		Options: map[string]any{"file": file},
	}}}
}

// verifyPragma checks that a pragma is set to the expected value.
func (b *Backend) verifyPragma(name, expected string) error {
	var value string
	if err := b.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
