// Package domain contains core domain types for the sunrise controller.
package domain

import "fmt"

// Pixoo64Size is the default Pixoo64 display size (64x64).
const Pixoo64Size = 64

// BytesPerPixel is the number of bytes per pixel (RGB).
const BytesPerPixel = 3

// RGB represents an RGB color with 8-bit channels.
type RGB struct {
	R, G, B uint8
}

// NewRGB creates a new RGB color.
func NewRGB(r, g, b uint8) RGB {
	return RGB{R: r, G: g, B: b}
}

// Equals checks if two RGB colors are equal.
func (c RGB) Equals(other RGB) bool {
	return c.R == other.R && c.G == other.G && c.B == other.B
}

// String returns a string representation of the RGB color.
func (c RGB) String() string {
	return fmt.Sprintf("RGB(%d, %d, %d)", c.R, c.G, c.B)
}

// DisplaySize represents display dimensions.
type DisplaySize struct {
	Width  int
	Height int
}

// Contains reports whether (x, y) lies on the display.
func (s DisplaySize) Contains(x, y int) bool {
	return x >= 0 && x < s.Width && y >= 0 && y < s.Height
}

// Frame represents a single frame of pixel data.
type Frame struct {
	Width  int
	Height int
	// Pixels is a flat array of RGB values: [r0,g0,b0, r1,g1,b1, ...]
	Pixels []byte
}

// NewFrame creates a new frame filled with black (0, 0, 0).
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pixels: make([]byte, width*height*BytesPerPixel),
	}
}

// Size returns the frame dimensions.
func (f *Frame) Size() DisplaySize {
	return DisplaySize{Width: f.Width, Height: f.Height}
}

// SetPixel sets a single pixel in the frame. Out of bounds coordinates are silently ignored.
func (f *Frame) SetPixel(x, y int, color RGB) {
	if !f.Size().Contains(x, y) {
		return
	}
	offset := (y*f.Width + x) * BytesPerPixel
	f.Pixels[offset] = color.R
	f.Pixels[offset+1] = color.G
	f.Pixels[offset+2] = color.B
}

// GetPixel returns the color at the specified coordinates, or nil if out of bounds.
func (f *Frame) GetPixel(x, y int) *RGB {
	if !f.Size().Contains(x, y) {
		return nil
	}
	offset := (y*f.Width + x) * BytesPerPixel
	return &RGB{
		R: f.Pixels[offset],
		G: f.Pixels[offset+1],
		B: f.Pixels[offset+2],
	}
}

// Clear clears the frame to black (0, 0, 0).
func (f *Frame) Clear() {
	clear(f.Pixels)
}

// IsBlank reports whether every pixel is black.
func (f *Frame) IsBlank() bool {
	for _, b := range f.Pixels {
		if b != 0 {
			return false
		}
	}
	return true
}

// Clone creates a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	clone := &Frame{
		Width:  f.Width,
		Height: f.Height,
		Pixels: make([]byte, len(f.Pixels)),
	}
	copy(clone.Pixels, f.Pixels)
	return clone
}

// CountColor returns how many pixels hold exactly the given color.
func (f *Frame) CountColor(color RGB) int {
	n := 0
	for i := 0; i+2 < len(f.Pixels); i += BytesPerPixel {
		if f.Pixels[i] == color.R && f.Pixels[i+1] == color.G && f.Pixels[i+2] == color.B {
			n++
		}
	}
	return n
}
