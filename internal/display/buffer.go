// Package display provides the sinks a sunrise is rendered to.
//
// A sink composes a frame in memory (WritePixel, Clear, SetBrightness) and
// pushes it to the output on Flush. Sinks are not safe for concurrent use;
// the control loop is their only writer.
package display

import (
	"github.com/jwulff/sunrise-go/internal/domain"
)

// Buffer holds the composed frame and brightness shared by all sinks.
type Buffer struct {
	frame      *domain.Frame
	brightness domain.Brightness
}

// NewBuffer creates a black buffer of the given size.
func NewBuffer(size domain.DisplaySize) *Buffer {
	return &Buffer{frame: domain.NewFrame(size.Width, size.Height)}
}

// SetBrightness records the brightness to apply on the next flush.
func (b *Buffer) SetBrightness(v domain.Brightness) {
	b.brightness = v
}

// Brightness returns the pending brightness.
func (b *Buffer) Brightness() domain.Brightness {
	return b.brightness
}

// WritePixel sets one pixel; out of range coordinates are ignored.
func (b *Buffer) WritePixel(x, y int, c domain.RGB) {
	b.frame.SetPixel(x, y, c)
}

// Clear blanks the composed frame.
func (b *Buffer) Clear() {
	b.frame.Clear()
}

// Size returns the display dimensions.
func (b *Buffer) Size() domain.DisplaySize {
	return b.frame.Size()
}

// Frame returns the composed frame. Callers must not keep it across flushes.
func (b *Buffer) Frame() *domain.Frame {
	return b.frame
}
