package sunrise

import (
	"time"

	"github.com/jwulff/sunrise-go/internal/domain"
)

// Ramp maps elapsed time to a brightness rising linearly from Start to End
// over Duration.
type Ramp struct {
	Duration time.Duration
	Start    domain.Brightness
	End      domain.Brightness
}

// At returns the brightness after elapsed. Any input is clamped into
// [Start, End]: negative jitter yields Start, anything past Duration yields End.
func (r Ramp) At(elapsed time.Duration) domain.Brightness {
	if r.Duration <= 0 {
		return r.End
	}
	start, end := float64(r.Start), float64(r.End)
	raw := start + (end-start)*(elapsed.Seconds()/r.Duration.Seconds())
	return domain.Brightness(Clamp(raw, start, end))
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
