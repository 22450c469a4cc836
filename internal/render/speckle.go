package render

import (
	"math/rand/v2"

	"github.com/jwulff/sunrise-go/internal/domain"
)

// PixelWriter accepts single pixel writes.
type PixelWriter interface {
	WritePixel(x, y int, c domain.RGB)
}

// Speckler scatters pixels of one color at random positions, building up a
// sparse fill over many frames instead of redrawing the whole display.
type Speckler struct {
	rng *rand.Rand
}

// NewSpeckler creates a speckler seeded from the runtime's random source.
func NewSpeckler() *Speckler {
	return &Speckler{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededSpeckler creates a deterministic speckler.
func NewSeededSpeckler(seed uint64) *Speckler {
	return &Speckler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Speckle writes n pixels of color c at random coordinates in [0,w)x[0,h).
func (s *Speckler) Speckle(w PixelWriter, size domain.DisplaySize, c domain.RGB, n int) {
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	for i := 0; i < n; i++ {
		w.WritePixel(s.rng.IntN(size.Width), s.rng.IntN(size.Height), c)
	}
}
