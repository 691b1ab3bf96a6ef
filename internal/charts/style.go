package charts

import (
	"image/color"
	"strconv"
	"strings"

	"gonum.org/v1/plot/vg"
)

// Palette used across the figures
var (
	Blue   = Hex("#3498db")
	Red    = Hex("#e74c3c")
	Green  = Hex("#2ecc71")
	Orange = Hex("#f39c12")
	Purple = Hex("#9b59b6")
	Teal   = Hex("#1abc9c")
	Sea    = Hex("#16a085")
	Navy   = Hex("#2980b9")
)

// Hex parses "#rrggbb"; malformed input yields black
func Hex(s string) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// Translucent returns c with alpha scaled to a (0..1), premultiplied
func Translucent(c color.RGBA, a float64) color.RGBA {
	scale := func(v uint8) uint8 { return uint8(float64(v) * a) }
	return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: scale(c.A)}
}

var dashed = []vg.Length{vg.Points(6), vg.Points(3)}
