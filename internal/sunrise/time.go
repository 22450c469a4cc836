package sunrise

import (
	"fmt"
	"time"
)

// AlarmTime is the configured hour and minute a sunrise starts.
type AlarmTime struct {
	Hour   int
	Minute int
}

// ParseAlarmTime parses "HH:MM" (24h).
func ParseAlarmTime(s string) (AlarmTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return AlarmTime{}, fmt.Errorf("%w: alarm %q is not HH:MM", ErrInvalidConfig, s)
	}
	return AlarmTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Validate checks the hour and minute ranges.
func (a AlarmTime) Validate() error {
	if a.Hour < 0 || a.Hour > 23 {
		return fmt.Errorf("%w: alarm hour %d out of range 0-23", ErrInvalidConfig, a.Hour)
	}
	if a.Minute < 0 || a.Minute > 59 {
		return fmt.Errorf("%w: alarm minute %d out of range 0-59", ErrInvalidConfig, a.Minute)
	}
	return nil
}

func (a AlarmTime) String() string {
	return fmt.Sprintf("%02d:%02d", a.Hour, a.Minute)
}

// Matches reports whether now falls in the alarm minute. Seconds are ignored.
func (a AlarmTime) Matches(now WallClockTime) bool {
	return a.Hour == now.Hour && a.Minute == now.Minute
}

// WallClockTime is a snapshot of the wall clock taken once per poll.
type WallClockTime struct {
	Hour   int
	Minute int
	Second int
}

// WallClockAt extracts the wall clock fields of t in t's location.
func WallClockAt(t time.Time) WallClockTime {
	return WallClockTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

func (w WallClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", w.Hour, w.Minute, w.Second)
}
