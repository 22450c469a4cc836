package sunrise

// Phase is the controller state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	default:
		return "unknown"
	}
}

// Machine is the alarm state machine. It is a value owned by the control
// loop; transitions return the next value instead of mutating shared state.
//
// A trigger disarms the machine. It re-arms on the first poll outside the
// alarm minute, so the ~60 polls inside that minute start one sunrise, not
// sixty, even when the run finishes before the minute is over.
type Machine struct {
	Phase Phase
	Armed bool
	Alarm AlarmTime
}

// NewMachine returns an idle, armed machine.
func NewMachine(alarm AlarmTime) Machine {
	return Machine{Phase: PhaseIdle, Armed: true, Alarm: alarm}
}

// Poll feeds one wall clock reading. It reports true exactly when the
// machine moves from idle to active.
func (m Machine) Poll(now WallClockTime) (Machine, bool) {
	match := m.Alarm.Matches(now)
	if !match {
		m.Armed = true
		return m, false
	}
	if m.Phase != PhaseIdle || !m.Armed {
		return m, false
	}
	m.Phase = PhaseActive
	m.Armed = false
	return m, true
}

// Finish returns the machine to idle after a run, whatever its outcome.
func (m Machine) Finish() Machine {
	m.Phase = PhaseIdle
	return m
}
