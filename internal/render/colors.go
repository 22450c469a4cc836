// Package render draws sunrise frames onto pixel buffers.
package render

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/jwulff/sunrise-go/internal/domain"
)

// ColorBlack is the idle background.
var ColorBlack = domain.NewRGB(0, 0, 0)

// DimColor reduces the brightness of a color by a factor (0-1).
// Sinks without hardware brightness use it to apply the ramp in software.
func DimColor(c domain.RGB, factor float64) domain.RGB {
	if factor <= 0 {
		return ColorBlack
	}
	if factor >= 1 {
		return c
	}
	return domain.NewRGB(
		uint8(float64(c.R)*factor),
		uint8(float64(c.G)*factor),
		uint8(float64(c.B)*factor),
	)
}

// Lightness returns the perceptual lightness (CIE L*, 0-1) of a color.
func Lightness(c domain.RGB) float64 {
	l, _, _ := toColorful(c).Lab()
	return clamp01(l)
}

// Hex returns the color as a #rrggbb string for log output.
func Hex(c domain.RGB) string {
	return toColorful(c).Hex()
}

func toColorful(c domain.RGB) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
