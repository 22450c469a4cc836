package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/jwulff/sunrise-go/internal/clock"
	"github.com/jwulff/sunrise-go/internal/display"
	"github.com/jwulff/sunrise-go/internal/domain"
	"github.com/jwulff/sunrise-go/internal/pixoo"
	"github.com/jwulff/sunrise-go/internal/render"
	"github.com/jwulff/sunrise-go/internal/storage"
	"github.com/jwulff/sunrise-go/internal/storage/sqlite"
	"github.com/jwulff/sunrise-go/internal/sunrise"
	"github.com/jwulff/sunrise-go/internal/timesync"
)

// previewFrameInterval is the real time between frames drawn by preview.
const previewFrameInterval = 100 * time.Millisecond

func runCommand(args []string) error {
	cfg, err := loadConfig("run", args, nil)
	if err != nil {
		return err
	}
	sc, err := cfg.Engine()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	log.Info().Str("version", version).Stringer("alarm", sc.Alarm).Str("display", cfg.Display.Type).Msg("Starting sunrise")

	sink, err := openDisplay(ctx, cfg)
	if err != nil {
		return err
	}

	// The display goes dark before anything that may take a while.
	if err := sunrise.ResetIdle(ctx, sink, sc.BrightnessStart); err != nil {
		log.Warn().Err(err).Msg("Initial display reset failed")
	}

	var clk sunrise.Clock = clock.NewSystem()
	if cfg.TimeSync.Enabled {
		syncer := timesync.New(cfg.TimeSync.Servers, cfg.TimeSync.Attempts,
			cfg.TimeSync.Timeout.Duration(), cfg.TimeSync.Backoff.Duration())
		clk = syncClock(ctx, clk, syncer)
	}

	now := clk.Now()
	log.Info().
		Str("utc", now.UTC().Format(time.DateTime)).
		Str("local", now.In(sc.Location).Format(time.DateTime)).
		Str("timezone", sc.Location.String()).
		Msg("Clock ready")

	controller, err := sunrise.NewController(sc, clk, sink, nil)
	if err != nil {
		return err
	}
	return controller.Run(ctx)
}

// syncClock corrects the wall clock by the network time offset. Failure
// leaves the clock untouched.
func syncClock(ctx context.Context, base sunrise.Clock, syncer *timesync.Syncer) sunrise.Clock {
	offset, err := syncer.Sync(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Time sync failed, using local clock")
		return base
	}
	log.Info().Dur("offset", offset).Msg("Time synchronized")
	return clock.WithOffset(base, offset)
}

func previewCommand(args []string) error {
	var speed float64
	var width, height int
	cfg, err := loadConfig("preview", args, func(fs *pflag.FlagSet) {
		fs.Float64Var(&speed, "speed", 60, "Playback speed factor")
		fs.IntVar(&width, "width", 32, "Preview width")
		fs.IntVar(&height, "height", 16, "Preview height")
	})
	if err != nil {
		return err
	}
	if speed <= 0 || width <= 0 || height <= 0 {
		return fmt.Errorf("%w: speed, width and height must be positive", sunrise.ErrInvalidConfig)
	}
	sc, err := cfg.Engine()
	if err != nil {
		return err
	}
	sc.TickInterval, sc.PixelsPerTick = previewTick(sc.TickInterval, sc.PixelsPerTick, speed)

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Print("\x1b[2J")
	sink := display.NewTerminal(os.Stdout, domain.DisplaySize{Width: width, Height: height}, true)
	clk := clock.NewScaled(clock.NewSystem(), speed)

	res, err := sunrise.NewRunner(sc, clk, sink, render.NewSpeckler()).Run(ctx)
	if resetErr := sunrise.ResetIdle(context.WithoutCancel(ctx), sink, sc.BrightnessStart); resetErr != nil {
		log.Warn().Err(resetErr).Msg("Failed to reset preview")
	}
	if err != nil && ctx.Err() == nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Sunrise %s: %d frames, %s simulated\n", res.ID, res.Frames, res.Elapsed.Round(time.Second))
	fmt.Print("Colors:")
	for _, c := range sunrise.Palette() {
		fmt.Printf(" %s", render.Hex(c))
	}
	fmt.Println()
	return nil
}

// previewTick stretches the tick so that a sped up run still draws frames
// at previewFrameInterval, drawing proportionally more pixels per frame.
func previewTick(tick time.Duration, pixels int, speed float64) (time.Duration, int) {
	scaled := time.Duration(float64(previewFrameInterval) * speed)
	if scaled <= tick {
		return tick, pixels
	}
	factor := float64(scaled) / float64(tick)
	return scaled, int(math.Ceil(float64(pixels) * factor))
}

func scanCommand(args []string) error {
	var subnet string
	var timeout time.Duration
	cfg, err := loadConfig("scan", args, func(fs *pflag.FlagSet) {
		fs.StringVar(&subnet, "subnet", "", "Subnet to scan, e.g. 192.168.1 (detected when empty)")
		fs.DurationVar(&timeout, "timeout", 30*time.Second, "Overall scan timeout")
	})
	if err != nil {
		return err
	}

	store, err := sqlite.NewFileStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open device registry: %w", err)
	}
	defer store.Close()

	ctx, cancel := signalContext()
	defer cancel()
	ctx, cancelScan := context.WithTimeout(ctx, timeout)
	defer cancelScan()

	fmt.Println("Scanning for Pixoo devices on local network...")
	found, err := pixoo.ScanForDevices(ctx, pixoo.ScanOptions{
		Subnet: subnet,
		OnProgress: func(current, total int) {
			pct := current * 100 / total
			bar := strings.Repeat("█", pct/5) + strings.Repeat("░", 20-pct/5)
			fmt.Printf("\r  [%s] %d%% (%d/%d)", bar, pct, current, total)
		},
	})
	fmt.Println()
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if len(found) == 0 {
		fmt.Println("No Pixoo devices found.")
		fmt.Println()
		fmt.Println("Make sure your Pixoo is:")
		fmt.Println("  1. Powered on")
		fmt.Println("  2. Connected to the same WiFi network")
		fmt.Println("  3. Not in sleep mode")
		return nil
	}

	devices, added, err := recordDevices(context.WithoutCancel(ctx), store, found, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("Found %d device(s), %d new:\n", len(devices), added)
	printDevices(devices)
	fmt.Println()
	fmt.Println("To use the first one:")
	fmt.Printf("  sunrise run --device %q\n", devices[0].Name)
	return nil
}

// recordDevices stores scan results in the registry and reports how many
// addresses were not known before.
func recordDevices(ctx context.Context, store storage.DeviceStore, found []pixoo.DiscoveredDevice, seen time.Time) ([]*storage.Device, int, error) {
	devices := make([]*storage.Device, 0, len(found))
	added := 0
	for _, d := range found {
		_, err := store.GetDeviceByIP(ctx, d.IP)
		switch {
		case storage.IsNotFound(err):
			added++
		case err != nil:
			return nil, 0, fmt.Errorf("lookup %s: %w", d.IP, err)
		}

		device, err := store.RecordSeen(ctx, d.IP, d.Name, storage.DeviceTypePixoo64, seen)
		if err != nil {
			return nil, 0, fmt.Errorf("record %s: %w", d.IP, err)
		}
		log.Debug().Str("id", device.ID).Str("ip", device.IP).Msg("Device recorded")
		devices = append(devices, device)
	}
	return devices, added, nil
}

func devicesCommand(args []string) error {
	var forget string
	cfg, err := loadConfig("devices", args, func(fs *pflag.FlagSet) {
		fs.StringVar(&forget, "forget", "", "Remove a remembered device by ID or name")
	})
	if err != nil {
		return err
	}

	store, err := sqlite.NewFileStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open device registry: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if forget != "" {
		device, err := forgetDevice(ctx, store, forget)
		if err != nil {
			return err
		}
		fmt.Printf("Forgot %s (%s)\n", device.Name, device.IP)
		return nil
	}

	devices, err := store.GetDevices(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("No devices registered. Run 'sunrise scan' first.")
		return nil
	}
	printDevices(devices)
	return nil
}

// forgetDevice removes a device given either its ID or its name.
func forgetDevice(ctx context.Context, store storage.DeviceStore, key string) (*storage.Device, error) {
	device, err := store.GetDevice(ctx, key)
	if storage.IsNotFound(err) {
		device, err = store.GetDeviceByName(ctx, key)
	}
	if err != nil {
		return nil, err
	}
	if err := store.DeleteDevice(ctx, device.ID); err != nil {
		return nil, err
	}
	log.Info().Str("id", device.ID).Str("name", device.Name).Msg("Device removed")
	return device, nil
}

func printDevices(devices []*storage.Device) {
	for i, d := range devices {
		fmt.Printf("  %d. %s - %s (last seen %s)\n", i+1, d.Name, d.IP, d.LastSeen.Local().Format(time.DateTime))
	}
}

func clearCommand(args []string) error {
	cfg, err := loadConfig("clear", args, nil)
	if err != nil {
		return err
	}
	sc, err := cfg.Engine()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Display.Timeout.Duration()*3)
	defer cancel()

	sink, err := openDisplay(ctx, cfg)
	if err != nil {
		return err
	}
	if err := sunrise.ResetIdle(ctx, sink, sc.BrightnessStart); err != nil {
		return err
	}
	log.Info().Stringer("brightness", sc.BrightnessStart).Msg("Display cleared")
	return nil
}
