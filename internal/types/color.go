package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an RGB color.
type Color struct {
	R, G, B uint8
}

var namedColors = []struct {
	name  string
	color Color
}{
	{"black", Color{0, 0, 0}},
	{"white", Color{255, 255, 255}},
	{"red", Color{255, 0, 0}},
	{"green", Color{0, 255, 0}},
	{"blue", Color{0, 0, 255}},
	{"yellow", Color{255, 255, 0}},
	{"cyan", Color{0, 255, 255}},
	{"magenta", Color{255, 0, 255}},
	{"orange", Color{255, 165, 0}},
	{"purple", Color{128, 0, 128}},
	{"gray", Color{128, 128, 128}},
}

// ParseColor accepts "#rrggbb", "rrggbb" and the named colors.
func ParseColor(s string) (Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, nc := range namedColors {
		if nc.name == s {
			return nc.color, true
		}
	}
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Color{}, false
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, false
	}
	return Color{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, true
}

// Hex returns the "#rrggbb" form.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// String returns the color name when it has one, otherwise the hex form.
func (c Color) String() string {
	for _, nc := range namedColors {
		if nc.color == c {
			return nc.name
		}
	}
	return c.Hex()
}

// NamedColors returns every named color in declaration order.
func NamedColors() []Color {
	out := make([]Color, len(namedColors))
	for i, nc := range namedColors {
		out[i] = nc.color
	}
	return out
}
