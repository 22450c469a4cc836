package display

import (
	"context"

	"github.com/jwulff/sunrise-go/internal/domain"
)

// Snapshot is one flush captured by a Recorder. Frame is only set when the
// recorder keeps frames.
type Snapshot struct {
	Brightness domain.Brightness
	Lit        int
	Frame      *domain.Frame
}

// Recorder keeps every flushed frame in memory. It backs dry runs and tests.
type Recorder struct {
	*Buffer
	Snapshots  []Snapshot
	KeepFrames bool
	// FailAfter makes Flush fail once this many frames were recorded (0 = never).
	FailAfter int
	Err       error
}

// NewRecorder creates a recording sink.
func NewRecorder(size domain.DisplaySize) *Recorder {
	return &Recorder{Buffer: NewBuffer(size)}
}

// Flush stores a copy of the frame.
func (r *Recorder) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.FailAfter > 0 && len(r.Snapshots) >= r.FailAfter {
		return r.Err
	}
	snap := Snapshot{
		Brightness: r.Brightness(),
		Lit:        r.Frame().Size().Width*r.Frame().Size().Height - r.Frame().CountColor(domain.RGB{}),
	}
	if r.KeepFrames {
		snap.Frame = r.Frame().Clone()
	}
	r.Snapshots = append(r.Snapshots, snap)
	return nil
}

// Last returns the most recent snapshot, or nil if nothing was flushed.
func (r *Recorder) Last() *Snapshot {
	if len(r.Snapshots) == 0 {
		return nil
	}
	return &r.Snapshots[len(r.Snapshots)-1]
}
