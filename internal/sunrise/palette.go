package sunrise

import (
	"time"

	"github.com/jwulff/sunrise-go/internal/domain"
)

// Sky colors, in the order they appear.
var (
	DarkBlue     = domain.NewRGB(0, 17, 131)
	BrighterBlue = domain.NewRGB(0, 125, 219)
	Pink         = domain.NewRGB(255, 117, 249)
	Orange       = domain.NewRGB(255, 117, 117)
	PaleYellow   = domain.NewRGB(246, 255, 163)
	PalerYellow  = domain.NewRGB(250, 255, 199)
	White        = domain.NewRGB(255, 255, 255)
)

type colorStop struct {
	fraction float64
	color    domain.RGB
}

// stops are checked in order; the first fraction the elapsed time falls
// strictly below wins. Past the last stop the sky is White.
var stops = []colorStop{
	{0.2, DarkBlue},
	{0.3, BrighterBlue},
	{0.4, Pink},
	{0.5, Orange},
	{0.6, PaleYellow},
	{0.7, PalerYellow},
}

// Palette returns the seven sky colors from first to last.
func Palette() []domain.RGB {
	colors := make([]domain.RGB, 0, len(stops)+1)
	for _, s := range stops {
		colors = append(colors, s.color)
	}
	return append(colors, White)
}

// SkyColorAt returns the sky color elapsed into a sunrise whose ramp lasts
// ramp. It is total: negative input is DarkBlue, and the hold period and
// beyond are White.
func SkyColorAt(elapsed, ramp time.Duration) domain.RGB {
	e, r := elapsed.Seconds(), ramp.Seconds()
	for _, s := range stops {
		if e < r*s.fraction {
			return s.color
		}
	}
	return White
}
