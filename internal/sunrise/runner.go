package sunrise

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwulff/sunrise-go/internal/domain"
	"github.com/jwulff/sunrise-go/internal/render"
)

// Clock supplies the wall clock for alarm matching, a monotonic reading for
// elapsed time, and the only suspension point of the control loop.
type Clock interface {
	Now() time.Time
	Monotonic() time.Duration
	Sleep(ctx context.Context, d time.Duration) error
}

// Sink is the display a sunrise is drawn on. Pixel and brightness writes
// compose a frame; Flush pushes it out and is the only call that can fail.
type Sink interface {
	SetBrightness(b domain.Brightness)
	WritePixel(x, y int, c domain.RGB)
	Clear()
	Flush(ctx context.Context) error
	Size() domain.DisplaySize
}

// RunResult summarizes one sunrise run.
type RunResult struct {
	ID              string
	Frames          int
	Elapsed         time.Duration
	FinalBrightness domain.Brightness
	LastColor       domain.RGB
}

// Runner owns the render loop of a single sunrise.
type Runner struct {
	cfg      Config
	clock    Clock
	sink     Sink
	speckler *render.Speckler
}

// NewRunner creates a runner. cfg must already be validated.
func NewRunner(cfg Config, clock Clock, sink Sink, speckler *render.Speckler) *Runner {
	if speckler == nil {
		speckler = render.NewSpeckler()
	}
	return &Runner{cfg: cfg, clock: clock, sink: sink, speckler: speckler}
}

// Run draws frames until the ramp and hold have elapsed. Elapsed time is
// recomputed from the monotonic clock each tick, so jitter changes frame
// spacing but frames are always pushed in increasing elapsed order. The
// last frame is the first one at or past the total duration.
//
// A flush failure aborts the run with an error wrapping ErrDisplay. A
// cancelled ctx aborts it with ctx.Err().
func (r *Runner) Run(ctx context.Context) (RunResult, error) {
	res := RunResult{ID: uuid.NewString()}
	logger := log.With().Str("run_id", res.ID).Logger()

	ramp := r.cfg.Ramp()
	total := r.cfg.Total()
	size := r.sink.Size()
	start := r.clock.Monotonic()

	logger.Info().
		Dur("ramp", r.cfg.RampDuration).
		Dur("hold", r.cfg.HoldDuration).
		Msg("Sunrise started")

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		elapsed := r.clock.Monotonic() - start
		brightness := ramp.At(elapsed)
		color := SkyColorAt(elapsed, r.cfg.RampDuration)

		r.speckler.Speckle(r.sink, size, color, r.cfg.PixelsPerTick)
		r.sink.SetBrightness(brightness)
		if err := r.sink.Flush(ctx); err != nil {
			return res, fmt.Errorf("%w: frame %d at %s: %w", ErrDisplay, res.Frames+1, elapsed, err)
		}

		if res.Frames == 0 || !color.Equals(res.LastColor) {
			logger.Info().
				Str("color", render.Hex(color)).
				Dur("elapsed", elapsed).
				Stringer("brightness", brightness).
				Msg("Sky color changed")
		}
		res.Frames++
		res.Elapsed = elapsed
		res.FinalBrightness = brightness
		res.LastColor = color

		if elapsed >= total {
			logger.Info().
				Int("frames", res.Frames).
				Dur("elapsed", elapsed).
				Msg("Sunrise complete")
			return res, nil
		}

		if err := r.clock.Sleep(ctx, r.cfg.TickInterval); err != nil {
			return res, err
		}
	}
}
