// Package colorutil provides shared color utilities for the mosaic pipeline.
package colorutil

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Common colors used for canvases and borders.
var (
	Black = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	White = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// Luminance returns the 8-bit luma of c using the ITU-R BT.601 weights,
// the same conversion OpenCV applies for BGR to gray.
func Luminance(c color.Color) uint8 {
	r, g, b, _ := c.RGBA()
	return Luma8(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// Luma8 is Luminance for 8-bit channel values.
func Luma8(r, g, b uint8) uint8 {
	// Fixed-point 0.299, 0.587, 0.114 scaled by 2^16.
	y := (19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16
	return uint8(y)
}

// ParseHex parses "#rrggbb" or "rrggbb" into an opaque color.
func ParseHex(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// Hex formats c as "#rrggbb".
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
