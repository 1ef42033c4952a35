package types

import (
	"iter"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(seq iter.Seq[any]) []any {
	return slices.Collect(seq)
}

func TestRange_Integers(t *testing.T) {
	g := NewDefaultGraph()

	seq, ok := g.Range(int64(1), int64(3))
	require.True(t, ok)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, collect(seq))
	// Restartable: a second pass yields the same elements.
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, collect(seq))
}

func TestRange_EmptyWhenLowNotBelowHigh(t *testing.T) {
	g := NewDefaultGraph()

	for _, bounds := range [][2]any{
		{int64(5), int64(1)},
		{int64(5), int64(5)},
		{3.0, 1.0},
		{"c", "a"},
		{"a", "a"},
	} {
		seq, ok := g.Range(bounds[0], bounds[1])
		require.True(t, ok, "%v", bounds)
		assert.Empty(t, collect(seq), "%v", bounds)
	}
}

func TestRange_ConvertsUpperBound(t *testing.T) {
	g := NewDefaultGraph()

	seq, ok := g.Range(int64(1), 3.0)
	require.True(t, ok)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, collect(seq))

	_, ok = g.Range(int64(1), "three")
	assert.False(t, ok)
}

func TestRange_Characters(t *testing.T) {
	g := NewDefaultGraph()

	seq, ok := g.Range("a", "d")
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b", "c", "d"}, collect(seq))

	seq, ok = g.Range("ab", "d")
	require.True(t, ok)
	assert.Empty(t, collect(seq))
}

func TestRange_Numbers(t *testing.T) {
	g := NewDefaultGraph()

	seq, ok := g.Range(0.5, 2.7)
	require.True(t, ok)
	assert.Equal(t, []any{0.5, 1.5, 2.5}, collect(seq))
}

func TestRange_EarlyStop(t *testing.T) {
	g := NewDefaultGraph()

	seq, ok := g.Range(int64(1), int64(100))
	require.True(t, ok)
	var got []any
	for v := range seq {
		got = append(got, v)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []any{int64(1), int64(2)}, got)
}

func TestRange_Unsupported(t *testing.T) {
	g := NewDefaultGraph()

	_, ok := g.Range(true, false)
	assert.False(t, ok)
	_, ok = g.Range(nil, int64(1))
	assert.False(t, ok)
}

func TestRange_HugeIntegerBoundsStayLazy(t *testing.T) {
	g := NewDefaultGraph()

	seq, ok := g.Range(int64(0), int64(math.MaxInt64))
	require.True(t, ok)
	var got []any
	for v := range seq {
		got = append(got, v)
		if len(got) == 3 {
			break
		}
	}
	assert.Equal(t, []any{int64(0), int64(1), int64(2)}, got)

	seq, ok = g.Range(int64(math.MaxInt64-2), int64(math.MaxInt64))
	require.True(t, ok)
	assert.Equal(t, []any{int64(math.MaxInt64 - 2), int64(math.MaxInt64 - 1), int64(math.MaxInt64)}, collect(seq))

	seq, ok = g.Range(int64(math.MinInt64), int64(math.MinInt64+1))
	require.True(t, ok)
	assert.Equal(t, []any{int64(math.MinInt64), int64(math.MinInt64 + 1)}, collect(seq))
}

func TestRange_NumbersBeyondUnitPrecisionAreEmpty(t *testing.T) {
	g := NewDefaultGraph()

	seq, ok := g.Range(math.Pow(2, 53), math.Pow(2, 53)+10)
	require.True(t, ok)
	assert.Empty(t, collect(seq))

	seq, ok = g.Range(0.0, math.Inf(1))
	require.True(t, ok)
	assert.Empty(t, collect(seq))

	seq, ok = g.Range(math.Pow(2, 53)-2, math.Pow(2, 53)-1)
	require.True(t, ok)
	assert.Len(t, collect(seq), 2)
}
