package variables

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseName_Valid(t *testing.T) {
	cases := []struct {
		raw   string
		key   string
		local bool
		list  bool
	}{
		{"a::b::*", "a::b::*", false, true},
		{"a::b", "a::b", false, false},
		{"score", "score", false, false},
		{"_tmp", "tmp", true, false},
		{"_ items::*", "items::*", true, true},
		{"  padded  ", "padded", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			n, err := ParseName(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.key, n.Key)
			assert.Equal(t, tc.local, n.Local)
			assert.Equal(t, tc.list, n.List)
		})
	}
}

func TestParseName_Invalid(t *testing.T) {
	cases := map[string]string{
		"list::":  "start or end",
		"::list":  "start or end",
		"a::*b":   "asterisk",
		"a*":      "asterisk",
		"*":       "asterisk",
		"a::::b":  "two list separators",
		"":        "empty",
		"_":       "empty",
		"_::x":    "start or end",
		"a::*::b": "asterisk",
	}
	for raw, reason := range cases {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseName(raw)
			require.Error(t, err)

			var ne *NameError
			require.True(t, errors.As(err, &ne))
			assert.Equal(t, raw, ne.Name)
			assert.Contains(t, ne.Error(), reason)
		})
	}
}

func TestParseName_NormalizesNFC(t *testing.T) {
	composed, err := ParseName("caf\u00e9")
	require.NoError(t, err)
	decomposed, err := ParseName("cafe\u0301")
	require.NoError(t, err)
	assert.Equal(t, composed.Key, decomposed.Key)
}

func TestName_Segments(t *testing.T) {
	n := MustParseName("a::b::c")
	assert.Equal(t, []string{"a", "b", "c"}, n.Segments())
	assert.Equal(t, "a::b", n.Parent())

	list := MustParseName("a::b::*")
	assert.Equal(t, []string{"a", "b"}, list.Segments())
	assert.Equal(t, "a::b", list.Parent())

	top := MustParseName("_solo")
	assert.Equal(t, "", top.Parent())
	assert.Equal(t, "_solo", top.String())
}

func TestMustParseName_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseName("a::") })
}
