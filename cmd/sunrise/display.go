package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/jwulff/sunrise-go/internal/config"
	"github.com/jwulff/sunrise-go/internal/display"
	"github.com/jwulff/sunrise-go/internal/pixoo"
	"github.com/jwulff/sunrise-go/internal/storage"
	"github.com/jwulff/sunrise-go/internal/storage/sqlite"
	"github.com/jwulff/sunrise-go/internal/sunrise"
)

var errNoPixoo = errors.New("no Pixoo configured: set display.address or display.device, or run 'sunrise scan'")

// resolveAddress returns the Pixoo IP, looking a device name up in the
// registry when no address is configured.
func resolveAddress(ctx context.Context, cfg *config.Config, store storage.DeviceStore) (string, error) {
	if cfg.Display.Address != "" {
		return cfg.Display.Address, nil
	}
	if cfg.Display.Device == "" {
		return "", errNoPixoo
	}
	device, err := store.GetDeviceByName(ctx, cfg.Display.Device)
	if err != nil {
		return "", fmt.Errorf("resolve device %q: %w", cfg.Display.Device, err)
	}
	return device.IP, nil
}

// openDisplay builds the configured sink.
func openDisplay(ctx context.Context, cfg *config.Config) (sunrise.Sink, error) {
	size := cfg.DisplaySize()

	if cfg.Display.Type == config.DisplayTerminal {
		fmt.Print("\x1b[2J")
		return display.NewTerminal(os.Stdout, size, true), nil
	}

	var store storage.DeviceStore
	if cfg.Display.Address == "" {
		s, err := sqlite.NewFileStore(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("open device registry: %w", err)
		}
		defer s.Close()
		store = s
	}

	ip, err := resolveAddress(ctx, cfg, store)
	if err != nil {
		return nil, err
	}

	client := pixoo.NewClient(ip).WithTimeout(cfg.Display.Timeout.Duration())
	if !client.IsReachable(ctx) {
		log.Warn().Str("ip", ip).Msg("Pixoo not reachable, continuing anyway")
	} else {
		log.Info().Str("ip", ip).Msg("Pixoo connected")
	}
	return display.NewPixoo(client, size), nil
}
