package display

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jwulff/sunrise-go/internal/domain"
)

// PixooClient is the subset of the Pixoo API the sink needs.
type PixooClient interface {
	SetBrightness(ctx context.Context, brightness int) error
	SendFrame(ctx context.Context, frame *domain.Frame) error
}

// Pixoo pushes frames to a Pixoo device over its HTTP API.
type Pixoo struct {
	*Buffer
	client      PixooClient
	sentPercent int
}

// NewPixoo creates a sink for the device behind client.
func NewPixoo(client PixooClient, size domain.DisplaySize) *Pixoo {
	return &Pixoo{
		Buffer:      NewBuffer(size),
		client:      client,
		sentPercent: -1,
	}
}

// Flush sends the brightness, when its device percentage changed, and the frame.
func (p *Pixoo) Flush(ctx context.Context) error {
	percent := p.Brightness().Percent()
	if percent != p.sentPercent {
		if err := p.client.SetBrightness(ctx, percent); err != nil {
			return fmt.Errorf("set brightness %d: %w", percent, err)
		}
		log.Debug().Int("percent", percent).Msg("Pixoo brightness updated")
		p.sentPercent = percent
	}

	if err := p.client.SendFrame(ctx, p.Frame()); err != nil {
		return fmt.Errorf("send frame: %w", err)
	}
	return nil
}
