// Package clock provides the time sources used by the sunrise controller.
//
// Every clock exposes two readings: a wall clock used to match the alarm
// time, and a monotonic reading used to measure elapsed time within a run.
// The wall clock may jump when it is resynchronized; the monotonic reading
// never goes backwards.
package clock

import (
	"context"
	"sync"
	"time"
)

// Clock is the interface for time operations.
type Clock interface {
	Now() time.Time
	Monotonic() time.Duration
	Sleep(ctx context.Context, d time.Duration) error
}

// System provides the actual system time.
type System struct {
	origin time.Time
}

// NewSystem creates a system clock whose monotonic reading starts at zero.
func NewSystem() *System {
	return &System{origin: time.Now()}
}

// Now returns the current system time.
func (c *System) Now() time.Time {
	return time.Now()
}

// Monotonic returns the time elapsed since the clock was created.
// time.Since uses the monotonic reading carried by origin.
func (c *System) Monotonic() time.Duration {
	return time.Since(c.origin)
}

// Sleep blocks for d or until ctx is done.
func (c *System) Sleep(ctx context.Context, d time.Duration) error {
	return sleepContext(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Offset shifts the wall clock of an underlying clock by a fixed amount,
// typically the offset reported by a network time sync.
type Offset struct {
	Base   Clock
	Offset time.Duration
}

// WithOffset wraps base so that Now reports base.Now()+offset.
func WithOffset(base Clock, offset time.Duration) *Offset {
	return &Offset{Base: base, Offset: offset}
}

// Now returns the corrected wall clock time.
func (c *Offset) Now() time.Time {
	return c.Base.Now().Add(c.Offset)
}

// Monotonic is not affected by the offset.
func (c *Offset) Monotonic() time.Duration {
	return c.Base.Monotonic()
}

// Sleep delegates to the base clock.
func (c *Offset) Sleep(ctx context.Context, d time.Duration) error {
	return c.Base.Sleep(ctx, d)
}

// Scaled runs time faster than its base clock by Factor. It is used to
// preview a full sunrise in a fraction of the configured duration.
type Scaled struct {
	Base   Clock
	Factor float64

	start     time.Time
	startMono time.Duration
}

// NewScaled creates a scaled clock anchored at the base clock's current reading.
func NewScaled(base Clock, factor float64) *Scaled {
	if factor <= 0 {
		factor = 1
	}
	return &Scaled{
		Base:      base,
		Factor:    factor,
		start:     base.Now(),
		startMono: base.Monotonic(),
	}
}

// Now returns the accelerated wall clock.
func (c *Scaled) Now() time.Time {
	return c.start.Add(c.scaled())
}

// Monotonic returns the accelerated monotonic reading.
func (c *Scaled) Monotonic() time.Duration {
	return c.startMono + c.scaled()
}

// Sleep sleeps d of scaled time, i.e. d/Factor of base time.
func (c *Scaled) Sleep(ctx context.Context, d time.Duration) error {
	return c.Base.Sleep(ctx, time.Duration(float64(d)/c.Factor))
}

func (c *Scaled) scaled() time.Duration {
	return time.Duration(float64(c.Base.Monotonic()-c.startMono) * c.Factor)
}

// Fake is a test clock with controllable time. Sleep advances the clock
// instead of blocking.
type Fake struct {
	mu   sync.RWMutex
	wall time.Time
	mono time.Duration
}

// NewFake creates a fake clock set to the given wall time.
func NewFake(t time.Time) *Fake {
	return &Fake{wall: t}
}

// Now returns the fake wall time.
func (c *Fake) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wall
}

// Monotonic returns the fake monotonic reading.
func (c *Fake) Monotonic() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mono
}

// Sleep advances the clock by d. It fails only if ctx is already done.
func (c *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Advance(d)
	return nil
}

// Advance moves both readings forward by d.
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wall = c.wall.Add(d)
	c.mono += d
}

// Set jumps the wall clock to t without touching the monotonic reading,
// the same way a resync would.
func (c *Fake) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wall = t
}

var (
	_ Clock = (*System)(nil)
	_ Clock = (*Offset)(nil)
	_ Clock = (*Scaled)(nil)
	_ Clock = (*Fake)(nil)
)
