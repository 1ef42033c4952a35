package postgres

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/roach88/tempo/internal/config"
	"github.com/roach88/tempo/internal/types"
	"github.com/roach88/tempo/internal/variables"
)

func TestIndexName(t *testing.T) {
	assert.Equal(t, "variables_seq_idx", indexName(pq.QuoteIdentifier("variables")))
	assert.Equal(t, "my table_seq_idx", indexName(pq.QuoteIdentifier("my table")))
}

func TestLoadConfig_MissingDSN(t *testing.T) {
	b := New(variables.Env{Name: "pg"})
	err := b.LoadConfig(config.Database{Name: "pg", Enabled: true, Type: "postgres"})
	assert.ErrorContains(t, err, `"dsn"`)
}

func TestLoadConfig_BadPattern(t *testing.T) {
	b := New(variables.Env{Name: "pg"})
	err := b.LoadConfig(config.Database{Name: "pg", Enabled: true, Type: "postgres",
		Options: map[string]any{"dsn": "postgres://localhost/x", "pattern": "("}})
	assert.ErrorContains(t, err, "pattern")
}

// startPostgres runs a disposable server and returns its DSN.
func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("tempo"),
		tcpostgres.WithUsername("tempo"),
		tcpostgres.WithPassword("tempo"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestStore_PersistsAcrossRuns(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()
	reg := types.NewDefaultGraph().Types
	section := config.Variables{Databases: []config.Database{{
		Name: "main", Enabled: true, Type: "pg",
		Options: map[string]any{"dsn": dsn, "table": "tempo vars", "pattern": "^keep"},
	}}}

	first := variables.NewStore(reg)
	require.NoError(t, first.Backends().Register(New, Aliases...))
	require.NoError(t, first.Load(ctx, section))
	require.NoError(t, first.Set("keep::a", int64(1), nil, false))
	require.NoError(t, first.Set("keep::b", "two", nil, false))
	require.NoError(t, first.Set("keep::a", int64(5), nil, false))
	require.NoError(t, first.Set("keep::b", nil, nil, false))
	require.NoError(t, first.Set("drop", true, nil, false))
	first.Close()

	second := variables.NewStore(reg)
	require.NoError(t, second.Backends().Register(New, Aliases...))
	require.NoError(t, second.Load(ctx, section))
	defer second.Close()

	v, ok := second.Get("keep::a", nil, false)
	require.True(t, ok)
	assert.Equal(t, int64(5), v)

	_, ok = second.Get("keep::b", nil, false)
	assert.False(t, ok)
	_, ok = second.Get("drop", nil, false)
	assert.False(t, ok)
}

func TestBackend_SaveLoadOrder(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	b := New(variables.Env{Name: "pg", Types: types.NewDefaultGraph().Types}).(*Backend)
	require.NoError(t, b.LoadConfig(config.Database{Name: "pg", Enabled: true, Type: "pg",
		Options: map[string]any{"dsn": dsn}}))
	defer b.Close()

	for i, name := range []string{"z", "y", "x"} {
		sv := b.Serialize(name, int64(i))
		sv.Seq = int64(i + 1)
		require.NoError(t, b.Save(ctx, *sv))
	}

	var names []string
	require.NoError(t, b.Load(ctx, func(v variables.SerializedVariable) { names = append(names, v.Name) }))
	assert.Equal(t, []string{"z", "y", "x"}, names)
}
