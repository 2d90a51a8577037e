package chargers

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Indicator colours.
var (
	ColorWhite = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	ColorRed   = color.RGBA{R: 255, A: 255}
	ColorGray  = color.RGBA{R: 130, G: 130, B: 130, A: 255}
)

// FormatValue renders a number compactly for an indicator: 12345 -> "12.3K".
func FormatValue(v float64) string {
	switch {
	case v > 9999999:
		return fmt.Sprintf("%.1fM", v/1000000)
	case v > 9999:
		return fmt.Sprintf("%.1fK", v/1000)
	default:
		return fmt.Sprintf("%.0f", math.Ceil(v))
	}
}

// NumberColor grades value between min (red) and max (green). Above max is white.
func NumberColor(value, max, min float64) color.RGBA {
	if value > max {
		return ColorWhite
	}
	if value <= min {
		return ColorRed
	}

	const greenHue = 120.0
	percentOfMax := (value - min) / (max - min)
	r, g, b := colorful.Hsv(percentOfMax*greenHue, 1, 0.8).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
