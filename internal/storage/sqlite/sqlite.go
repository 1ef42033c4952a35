// Package sqlite persists global variables in a SQLite database file.
//
// Options:
//
//	file     path of the database file (required)
//	pattern  regular expression selecting persisted variable names
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/tempo/internal/config"
	"github.com/roach88/tempo/internal/types"
	"github.com/roach88/tempo/internal/variables"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on variables.seq for ordered loads
const currentSchemaVersion = 1

// Aliases are the configuration type names of this backend.
var Aliases = []string{"sqlite", "sqlite3"}

// Backend stores variables in a single SQLite table.
type Backend struct {
	variables.Base
	db   *sql.DB
	file string
}

// New creates an unopened sqlite backend.
func New(env variables.Env) variables.Storage {
	return &Backend{Base: variables.NewBase(env)}
}

// LoadConfig reads the options and opens the database.
func (b *Backend) LoadConfig(db config.Database) error {
	if err := b.LoadPattern(db); err != nil {
		return err
	}
	file := db.String("file", "")
	if file == "" {
		return errors.New("missing required option \"file\"")
	}
	conn, err := Open(file)
	if err != nil {
		return err
	}
	b.db = conn
	b.file = file
	return nil
}

// File returns the database path.
func (b *Backend) File() string { return b.file }

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return db, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates the table if needed and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_variables_seq ON variables(seq)`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// Load streams every row in seq order.
func (b *Backend) Load(ctx context.Context, sink func(variables.SerializedVariable)) error {
	if b.db == nil {
		return variables.ErrClosed
	}
	rows, err := b.db.QueryContext(ctx, `SELECT name, type, payload, seq FROM variables ORDER BY seq, name`)
	if err != nil {
		return fmt.Errorf("query variables: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, typ, payload string
			seq                int64
		)
		if err := rows.Scan(&name, &typ, &payload, &seq); err != nil {
			return fmt.Errorf("scan variable: %w", err)
		}
		sink(variables.SerializedVariable{
			Name:  name,
			Value: &types.SerializedValue{Type: types.TypeID(typ), Data: json.RawMessage(payload)},
			Seq:   seq,
		})
	}
	return rows.Err()
}

// Save upserts a row, or deletes it for a tombstone.
func (b *Backend) Save(ctx context.Context, v variables.SerializedVariable) error {
	if b.db == nil {
		return variables.ErrClosed
	}
	if v.Value == nil {
		if _, err := b.db.ExecContext(ctx, `DELETE FROM variables WHERE name = ?`, v.Name); err != nil {
			return fmt.Errorf("delete %s: %w", v.Name, err)
		}
		return nil
	}
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO variables (name, type, payload, seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			type = excluded.type,
			payload = excluded.payload,
			seq = excluded.seq
	`, v.Name, string(v.Value.Type), string(v.Value.Data), v.Seq)
	if err != nil {
		return fmt.Errorf("save %s: %w", v.Name, err)
	}
	return nil
}

func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}
