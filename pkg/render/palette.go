package render

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// goldenAngle spaces consecutive hues as far apart as possible.
const goldenAngle = 137.50776405003785

// Palette returns n distinct colors as "#rrggbb" strings. Hues step around
// the color wheel by the golden angle, so any prefix of the palette is well
// spread and Palette(n)[:k] equals Palette(k).
func Palette(n int) []string {
	out := make([]string, n)
	for i := range out {
		hue := math.Mod(float64(i)*goldenAngle+210, 360)
		out[i] = colorful.Hsv(hue, 0.62, 0.85).Hex()
	}
	return out
}
