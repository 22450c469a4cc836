package sunrise

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwulff/sunrise-go/internal/domain"
	"github.com/jwulff/sunrise-go/internal/render"
)

// resetTimeout bounds the best-effort display clear after a run or on shutdown.
const resetTimeout = 5 * time.Second

// Controller is the single control loop: it polls the clock while idle and
// hands the display to a Runner while a sunrise is active. Nothing else
// writes to the sink.
type Controller struct {
	cfg    Config
	clock  Clock
	sink   Sink
	runner *Runner
}

// NewController validates cfg and wires the loop.
func NewController(cfg Config, clock Clock, sink Sink, speckler *render.Speckler) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Controller{
		cfg:    cfg,
		clock:  clock,
		sink:   sink,
		runner: NewRunner(cfg, clock, sink, speckler),
	}, nil
}

// Run resets the display to idle and then polls until ctx is cancelled.
// Sunrise failures are logged and never stop the loop.
func (c *Controller) Run(ctx context.Context) error {
	log.Info().
		Stringer("alarm", c.cfg.Alarm).
		Str("timezone", c.cfg.location().String()).
		Dur("poll_interval", c.cfg.PollInterval).
		Msg("Controller started")

	c.reset(ctx)

	m := NewMachine(c.cfg.Alarm)
	for {
		m = c.Poll(ctx, m)

		if err := c.clock.Sleep(ctx, c.cfg.PollInterval); err != nil {
			log.Info().Msg("Controller stopping")
			return nil
		}
	}
}

// Poll performs one poll: it reads the wall clock, advances the state
// machine, and runs a full sunrise when the alarm fires. The returned
// machine is always idle.
func (c *Controller) Poll(ctx context.Context, m Machine) Machine {
	now := WallClockAt(c.clock.Now().In(c.cfg.location()))

	m, fire := m.Poll(now)
	if !fire {
		return m
	}

	log.Info().Stringer("alarm", c.cfg.Alarm).Stringer("now", now).Msg("Alarm triggered")

	res, err := c.runner.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Warn().Str("run_id", res.ID).Int("frames", res.Frames).Msg("Sunrise cancelled")
	default:
		log.Error().Err(err).Str("run_id", res.ID).Int("frames", res.Frames).Msg("Sunrise aborted")
	}

	c.reset(ctx)
	return m.Finish()
}

// reset clears the display even when ctx is already cancelled.
func (c *Controller) reset(ctx context.Context) {
	resetCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resetTimeout)
	defer cancel()

	if err := ResetIdle(resetCtx, c.sink, c.cfg.BrightnessStart); err != nil {
		log.Warn().Err(err).Msg("Failed to reset display")
	}
}

// ResetIdle puts the display in its idle state: cleared, at minimum
// brightness. Calling it repeatedly yields the same state.
func ResetIdle(ctx context.Context, sink Sink, minimum domain.Brightness) error {
	sink.SetBrightness(minimum)
	sink.Clear()
	if err := sink.Flush(ctx); err != nil {
		return fmt.Errorf("%w: idle reset: %w", ErrDisplay, err)
	}
	return nil
}
