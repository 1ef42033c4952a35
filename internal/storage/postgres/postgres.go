// Package postgres persists global variables in a PostgreSQL table.
//
// Options:
//
//	dsn      lib/pq connection string or URL (required)
//	table    table name, default "variables"
//	pattern  regular expression selecting persisted variable names
//	timeout  connect timeout, default 5s
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/roach88/tempo/internal/config"
	"github.com/roach88/tempo/internal/types"
	"github.com/roach88/tempo/internal/variables"
)

// Aliases are the configuration type names of this backend.
var Aliases = []string{"postgres", "postgresql", "pg"}

const defaultTable = "variables"

// Backend stores variables in one PostgreSQL table.
type Backend struct {
	variables.Base
	db    *sql.DB
	table string // quoted identifier
}

// New creates an unconnected postgres backend.
func New(env variables.Env) variables.Storage {
	return &Backend{Base: variables.NewBase(env)}
}

// LoadConfig reads the options, connects and creates the table.
func (b *Backend) LoadConfig(db config.Database) error {
	if err := b.LoadPattern(db); err != nil {
		return err
	}
	dsn := db.String("dsn", "")
	if dsn == "" {
		return errors.New("missing required option \"dsn\"")
	}
	timeout := db.Duration("timeout", 5*time.Second)

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to database: %w", describe(err))
	}

	b.db = conn
	b.table = pq.QuoteIdentifier(db.String("table", defaultTable))
	if err := b.applySchema(ctx); err != nil {
		b.Close()
		return err
	}
	return nil
}

func (b *Backend) applySchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			name    TEXT PRIMARY KEY,
			type    TEXT NOT NULL,
			payload JSONB NOT NULL,
			seq     BIGINT NOT NULL
		)`, b.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (seq)`,
			pq.QuoteIdentifier(indexName(b.table)), b.table),
	}
	for _, stmt := range stmts {
		if _, err := b.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", describe(err))
		}
	}
	return nil
}

// indexName derives the seq index name from a quoted table identifier.
func indexName(quoted string) string {
	name := quoted
	if len(name) >= 2 && name[0] == '"' {
		name = name[1 : len(name)-1]
	}
	return name + "_seq_idx"
}

// Load streams every row in seq order.
func (b *Backend) Load(ctx context.Context, sink func(variables.SerializedVariable)) error {
	if b.db == nil {
		return variables.ErrClosed
	}
	rows, err := b.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT name, type, payload, seq FROM %s ORDER BY seq, name`, b.table))
	if err != nil {
		return fmt.Errorf("query variables: %w", describe(err))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, typ string
			payload   []byte
			seq       int64
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
		_, err := b.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE name = $1`, b.table), v.Name)
		if err != nil {
			return fmt.Errorf("delete %s: %w", v.Name, describe(err))
		}
		return nil
	}
	_, err := b.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (name, type, payload, seq)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			type = EXCLUDED.type,
			payload = EXCLUDED.payload,
			seq = EXCLUDED.seq
	`, b.table), v.Name, string(v.Value.Type), string(v.Value.Data), v.Seq)
	if err != nil {
		return fmt.Errorf("save %s: %w", v.Name, describe(err))
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

// describe adds the SQLSTATE condition name to server errors.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%w (%s)", err, pqErr.Code.Name())
	}
	return err
}
