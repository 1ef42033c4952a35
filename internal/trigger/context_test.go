package trigger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContext_UUIDv7(t *testing.T) {
	ctx := NewContext("periodical", nil)

	id, err := uuid.Parse(ctx.ID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.Equal(t, ContextType("periodical"), ctx.ContextType())
}

func TestNewContext_IdentityNotValue(t *testing.T) {
	a := NewContextWithID("same", "t", nil)
	b := NewContextWithID("same", "t", nil)

	m := map[Context]int{a: 1}
	_, ok := m[b]
	assert.False(t, ok, "contexts with equal data are distinct keys")
}

func TestContext_Values(t *testing.T) {
	src := map[string]any{"arg": "x"}
	ctx := NewContext("script-load", src)
	src["arg"] = "mutated"

	v, ok := ctx.Value("arg")
	require.True(t, ok)
	assert.Equal(t, "x", v, "values are copied")

	v, ok = ValueOf(ctx, "arg")
	require.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = ValueOf(ctx, "missing")
	assert.False(t, ok)
}

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("ctx")
	assert.Equal(t, "ctx-1", gen.Generate())
	assert.Equal(t, "ctx-2", gen.Generate())

	ctx := NewContextWithID(gen.Generate(), "periodical", nil)
	assert.Equal(t, "ctx-3", ctx.ID())
}

func TestUUIDv7Generator_Unique(t *testing.T) {
	gen := UUIDv7Generator{}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := gen.Generate()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
