package display

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/jwulff/sunrise-go/internal/domain"
	"github.com/jwulff/sunrise-go/internal/render"
)

// shades maps lightness to glyphs, darkest first.
var shades = []rune{' ', '·', '░', '▒', '▓', '█'}

// Terminal renders frames as shaded text. Brightness is applied in
// software since a terminal has no backlight control.
type Terminal struct {
	*Buffer
	out     io.Writer
	animate bool
	Frames  int
}

// NewTerminal creates a terminal sink writing to out. When animate is set
// every flush moves the cursor home first so frames overwrite each other.
func NewTerminal(out io.Writer, size domain.DisplaySize, animate bool) *Terminal {
	return &Terminal{
		Buffer:  NewBuffer(size),
		out:     out,
		animate: animate,
	}
}

// Flush draws the current frame.
func (t *Terminal) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w := bufio.NewWriter(t.out)
	if t.animate {
		fmt.Fprint(w, "\x1b[H")
	}
	frame := t.Frame()
	factor := float64(t.Brightness())

	fmt.Fprint(w, "┌")
	for x := 0; x < frame.Width; x++ {
		fmt.Fprint(w, "─")
	}
	fmt.Fprintln(w, "┐")

	for y := 0; y < frame.Height; y++ {
		fmt.Fprint(w, "│")
		for x := 0; x < frame.Width; x++ {
			fmt.Fprint(w, string(Shade(render.DimColor(*frame.GetPixel(x, y), factor))))
		}
		fmt.Fprintln(w, "│")
	}

	fmt.Fprint(w, "└")
	for x := 0; x < frame.Width; x++ {
		fmt.Fprint(w, "─")
	}
	fmt.Fprintf(w, "┘ brightness=%s\n", t.Brightness())

	if err := w.Flush(); err != nil {
		return fmt.Errorf("write terminal frame: %w", err)
	}
	t.Frames++
	return nil
}

// Shade picks the glyph for a color by its perceptual lightness.
func Shade(c domain.RGB) rune {
	l := render.Lightness(c)
	idx := int(l * float64(len(shades)))
	if idx >= len(shades) {
		idx = len(shades) - 1
	}
	return shades[idx]
}
