package scene

import (
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// DefaultInk is used when a primitive carries no usable color
const DefaultInk = "#000000"

// Transparent is the fill value for outline-only shapes
const Transparent = "transparent"

// ParseColor resolves a CSS-style color: "#rgb", "#rrggbb", "#rrggbbaa",
// "transparent", or an SVG/CSS color keyword. Colors arrive from the
// instruction protocol unvalidated, so resolution happens here.
func ParseColor(s string) (color.RGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return color.RGBA{}, false
	}
	if s == Transparent {
		return color.RGBA{}, true
	}
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		return parseHex(hex)
	}
	c, ok := colornames.Map[s]
	return c, ok
}

// ResolveColor is ParseColor with a fallback for unknown values
func ResolveColor(s string, fallback color.RGBA) color.RGBA {
	if c, ok := ParseColor(s); ok {
		return c
	}
	return fallback
}

func parseHex(hex string) (color.RGBA, bool) {
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]}) + "ff"
	case 6:
		hex += "ff"
	case 8:
	default:
		return color.RGBA{}, false
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, true
}
