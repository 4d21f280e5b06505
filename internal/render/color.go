package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseColor accepts "R,G,B" decimal triples and "#RRGGBB" (or "#RGB") hex
// notation. The returned color is fully opaque.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.Contains(s, ","):
		return parseTriple(s)
	}
	return color.RGBA{}, fmt.Errorf("invalid color %q: use #RRGGBB or R,G,B", s)
}

func parseHex(h string) (color.RGBA, error) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: hex form needs 6 digits", "#"+h)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", "#"+h, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func parseTriple(s string) (color.RGBA, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want three components", s)
	}
	var c [3]uint8
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		if n < 0 || n > 255 {
			return color.RGBA{}, fmt.Errorf("invalid color %q: component %d out of range 0-255", s, n)
		}
		c[i] = uint8(n)
	}
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: 0xff}, nil
}
