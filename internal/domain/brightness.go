package domain

import (
	"fmt"
	"math"
)

// Brightness is a display brightness scalar in [0, 1].
type Brightness float64

// Percent converts the brightness to the 0-100 scale used by Pixoo devices.
// Any positive brightness maps to at least 1 so a dim sunrise never reads as off.
func (b Brightness) Percent() int {
	if b <= 0 {
		return 0
	}
	p := int(math.Round(float64(b) * 100))
	if p < 1 {
		return 1
	}
	if p > 100 {
		return 100
	}
	return p
}

// String formats the brightness with three decimals.
func (b Brightness) String() string {
	return fmt.Sprintf("%.3f", float64(b))
}
