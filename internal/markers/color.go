package markers

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseColor reads an RGB hex color ("#ff8800", "0xff8800" or "ff8800"). The result has
// the marker opacity as alpha.
func ParseColor(s string) (color.RGBA, error) {
	h := strings.TrimSpace(s)
	h = strings.TrimPrefix(h, "#")
	h = strings.TrimPrefix(strings.TrimPrefix(h, "0x"), "0X")
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: DefaultColor.A}, nil
}
