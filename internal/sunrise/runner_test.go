package sunrise

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jwulff/sunrise-go/internal/clock"
	"github.com/jwulff/sunrise-go/internal/display"
	"github.com/jwulff/sunrise-go/internal/domain"
	"github.com/jwulff/sunrise-go/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var morning = time.Date(2026, 10, 18, 6, 30, 0, 0, time.UTC)

func shortConfig() Config {
	cfg := DefaultConfig()
	cfg.RampDuration = 10 * time.Second
	cfg.HoldDuration = 5 * time.Second
	cfg.TickInterval = time.Second
	cfg.PollInterval = time.Second
	cfg.Location = time.UTC
	return cfg
}

// jitterClock oversleeps by a repeating pattern of delays.
type jitterClock struct {
	*clock.Fake
	jitter []time.Duration
	n      int
}

func (c *jitterClock) Sleep(ctx context.Context, d time.Duration) error {
	extra := c.jitter[c.n%len(c.jitter)]
	c.n++
	return c.Fake.Sleep(ctx, d+extra)
}

func TestRunnerFullSunrise(t *testing.T) {
	cfg := DefaultConfig()
	clk := clock.NewFake(morning)
	rec := display.NewRecorder(domain.DisplaySize{Width: 4, Height: 4})

	res, err := NewRunner(cfg, clk, rec, render.NewSeededSpeckler(1)).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 2400*time.Second, res.Elapsed)
	assert.Equal(t, 24001, res.Frames)
	assert.Equal(t, domain.Brightness(1.0), res.FinalBrightness)
	assert.Equal(t, White, res.LastColor)
	require.Len(t, rec.Snapshots, 24001)

	assert.Equal(t, domain.Brightness(0.01), rec.Snapshots[0].Brightness)
	assert.Equal(t, domain.Brightness(1.0), rec.Last().Brightness)
	assert.Equal(t, 2400*time.Second, clk.Monotonic())
}

func TestRunnerBrightnessNeverDecreases(t *testing.T) {
	cfg := shortConfig()
	clk := &jitterClock{
		Fake:   clock.NewFake(morning),
		jitter: []time.Duration{0, 300 * time.Millisecond, 20 * time.Millisecond, 2 * time.Second},
	}
	rec := display.NewRecorder(domain.DisplaySize{Width: 8, Height: 8})

	res, err := NewRunner(cfg, clk, rec, render.NewSeededSpeckler(2)).Run(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.Elapsed, cfg.Total())
	assert.Less(t, res.Elapsed, cfg.Total()+cfg.TickInterval+2*time.Second)
	for i := 1; i < len(rec.Snapshots); i++ {
		assert.GreaterOrEqual(t, rec.Snapshots[i].Brightness, rec.Snapshots[i-1].Brightness, "frame %d", i)
	}
	assert.Equal(t, cfg.BrightnessEnd, rec.Last().Brightness)
}

func TestRunnerZeroHoldEndsAtRamp(t *testing.T) {
	cfg := shortConfig()
	cfg.HoldDuration = 0
	clk := clock.NewFake(morning)
	rec := display.NewRecorder(domain.DisplaySize{Width: 2, Height: 2})

	res, err := NewRunner(cfg, clk, rec, render.NewSeededSpeckler(3)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, res.Elapsed)
	assert.Equal(t, 11, res.Frames)
	assert.Equal(t, domain.Brightness(1.0), res.FinalBrightness)
}

func TestRunnerPixelsStayOnDisplayAndUsePalette(t *testing.T) {
	cfg := shortConfig()
	cfg.PixelsPerTick = 5
	clk := clock.NewFake(morning)
	rec := display.NewRecorder(domain.DisplaySize{Width: 3, Height: 2})
	rec.KeepFrames = true

	_, err := NewRunner(cfg, clk, rec, render.NewSeededSpeckler(4)).Run(context.Background())
	require.NoError(t, err)

	known := map[domain.RGB]bool{{}: true}
	for _, c := range Palette() {
		known[c] = true
	}
	for _, snap := range rec.Snapshots {
		require.NotNil(t, snap.Frame)
		assert.Equal(t, 3, snap.Frame.Width)
		assert.Equal(t, 2, snap.Frame.Height)
		for y := 0; y < 2; y++ {
			for x := 0; x < 3; x++ {
				assert.True(t, known[*snap.Frame.GetPixel(x, y)])
			}
		}
	}
	assert.Positive(t, rec.Last().Lit)
}

func TestRunnerFlushFailureAborts(t *testing.T) {
	cfg := shortConfig()
	clk := clock.NewFake(morning)
	rec := display.NewRecorder(domain.DisplaySize{Width: 4, Height: 4})
	rec.FailAfter = 3
	rec.Err = errors.New("connection refused")

	res, err := NewRunner(cfg, clk, rec, nil).Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDisplay)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 3, res.Frames)
	assert.Len(t, rec.Snapshots, 3)
}

func TestRunnerCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := display.NewRecorder(domain.DisplaySize{Width: 4, Height: 4})

	res, err := NewRunner(shortConfig(), clock.NewFake(morning), rec, nil).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Frames)
	assert.Empty(t, rec.Snapshots)
}

// cancelSink cancels the run after a number of flushes.
type cancelSink struct {
	*display.Recorder
	after  int
	cancel context.CancelFunc
}

func (s *cancelSink) Flush(ctx context.Context) error {
	if err := s.Recorder.Flush(ctx); err != nil {
		return err
	}
	if len(s.Snapshots) == s.after {
		s.cancel()
	}
	return nil
}

func TestRunnerCancelledMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := &cancelSink{
		Recorder: display.NewRecorder(domain.DisplaySize{Width: 4, Height: 4}),
		after:    4,
		cancel:   cancel,
	}

	res, err := NewRunner(shortConfig(), clock.NewFake(morning), sink, nil).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, res.Frames)
	assert.NotEmpty(t, res.ID)
}

func TestRunnerUniqueIDs(t *testing.T) {
	cfg := shortConfig()
	cfg.RampDuration = time.Second
	cfg.HoldDuration = 0
	rec := display.NewRecorder(domain.DisplaySize{Width: 1, Height: 1})
	r := NewRunner(cfg, clock.NewFake(morning), rec, nil)

	a, err := r.Run(context.Background())
	require.NoError(t, err)
	b, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}
