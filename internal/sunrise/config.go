// Package sunrise is the sunrise simulation engine: the brightness ramp,
// the sky color sequence, the alarm state machine, and the render loop.
package sunrise

import (
	"errors"
	"fmt"
	"time"

	"github.com/jwulff/sunrise-go/internal/domain"
)

var (
	// ErrInvalidConfig is wrapped by every configuration validation error.
	ErrInvalidConfig = errors.New("invalid sunrise configuration")
	// ErrDisplay is wrapped by display failures that abort a run.
	ErrDisplay = errors.New("display write failed")
)

// Defaults match a 30 minute sunrise held for 10 minutes at 06:30.
const (
	DefaultRampDuration    = 30 * time.Minute
	DefaultHoldDuration    = 10 * time.Minute
	DefaultBrightnessStart = domain.Brightness(0.01)
	DefaultBrightnessEnd   = domain.Brightness(1.0)
	DefaultTickInterval    = 100 * time.Millisecond
	DefaultPollInterval    = time.Second
	DefaultPixelsPerTick   = 1
)

// Config is fixed at startup and never reloaded during a run.
type Config struct {
	Alarm           AlarmTime
	RampDuration    time.Duration
	HoldDuration    time.Duration
	BrightnessStart domain.Brightness
	BrightnessEnd   domain.Brightness
	TickInterval    time.Duration
	PollInterval    time.Duration
	PixelsPerTick   int
	// Location is the timezone the alarm time is matched in. Nil means time.Local.
	Location *time.Location
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		Alarm:           AlarmTime{Hour: 6, Minute: 30},
		RampDuration:    DefaultRampDuration,
		HoldDuration:    DefaultHoldDuration,
		BrightnessStart: DefaultBrightnessStart,
		BrightnessEnd:   DefaultBrightnessEnd,
		TickInterval:    DefaultTickInterval,
		PollInterval:    DefaultPollInterval,
		PixelsPerTick:   DefaultPixelsPerTick,
	}
}

// Validate rejects configurations that would make the ramp or the color
// sequence degenerate. It must pass before the control loop starts.
func (c Config) Validate() error {
	if err := c.Alarm.Validate(); err != nil {
		return err
	}
	if c.RampDuration <= 0 {
		return fmt.Errorf("%w: ramp duration must be positive, got %s", ErrInvalidConfig, c.RampDuration)
	}
	if c.HoldDuration < 0 {
		return fmt.Errorf("%w: hold duration must not be negative, got %s", ErrInvalidConfig, c.HoldDuration)
	}
	if c.BrightnessStart <= 0 || c.BrightnessEnd > 1 {
		return fmt.Errorf("%w: brightness must lie in (0, 1], got %s..%s", ErrInvalidConfig, c.BrightnessStart, c.BrightnessEnd)
	}
	if c.BrightnessStart > c.BrightnessEnd {
		return fmt.Errorf("%w: brightness start %s exceeds end %s", ErrInvalidConfig, c.BrightnessStart, c.BrightnessEnd)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive", ErrInvalidConfig)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidConfig)
	}
	if c.PixelsPerTick < 1 {
		return fmt.Errorf("%w: pixels per tick must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// Ramp returns the brightness ramp described by c.
func (c Config) Ramp() Ramp {
	return Ramp{Duration: c.RampDuration, Start: c.BrightnessStart, End: c.BrightnessEnd}
}

// Total is the length of a full run: ramp plus hold.
func (c Config) Total() time.Duration {
	return c.RampDuration + c.HoldDuration
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}
