package render

import (
	"testing"

	"github.com/jwulff/sunrise-go/internal/domain"
	"github.com/stretchr/testify/assert"
)

type recordedPixel struct {
	x, y int
	c    domain.RGB
}

type pixelRecorder struct {
	pixels []recordedPixel
}

func (r *pixelRecorder) WritePixel(x, y int, c domain.RGB) {
	r.pixels = append(r.pixels, recordedPixel{x: x, y: y, c: c})
}

func TestSpeckleStaysInBounds(t *testing.T) {
	s := NewSeededSpeckler(42)
	rec := &pixelRecorder{}
	size := domain.DisplaySize{Width: 16, Height: 16}
	pink := domain.NewRGB(255, 117, 249)

	s.Speckle(rec, size, pink, 5000)

	assert.Len(t, rec.pixels, 5000)
	for _, p := range rec.pixels {
		assert.True(t, size.Contains(p.x, p.y), "pixel (%d, %d) out of bounds", p.x, p.y)
		assert.Equal(t, pink, p.c)
	}
}

func TestSpeckleReachesEdges(t *testing.T) {
	s := NewSeededSpeckler(7)
	rec := &pixelRecorder{}
	size := domain.DisplaySize{Width: 4, Height: 4}

	s.Speckle(rec, size, ColorBlack, 2000)

	var maxX, maxY int
	for _, p := range rec.pixels {
		maxX = max(maxX, p.x)
		maxY = max(maxY, p.y)
	}
	assert.Equal(t, 3, maxX)
	assert.Equal(t, 3, maxY)
}

func TestSpeckleDeterministicWithSeed(t *testing.T) {
	size := domain.DisplaySize{Width: 64, Height: 64}
	a, b := &pixelRecorder{}, &pixelRecorder{}

	NewSeededSpeckler(1).Speckle(a, size, ColorBlack, 10)
	NewSeededSpeckler(1).Speckle(b, size, ColorBlack, 10)

	assert.Equal(t, a.pixels, b.pixels)
}

func TestSpeckleEmptyDisplay(t *testing.T) {
	rec := &pixelRecorder{}

	NewSpeckler().Speckle(rec, domain.DisplaySize{}, ColorBlack, 10)

	assert.Empty(t, rec.pixels)
}
