// Package main is the entry point for the sunrise alarm controller.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/jwulff/sunrise-go/internal/config"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		showUsage()
		return
	}

	var err error
	args := os.Args[2:]
	switch os.Args[1] {
	case "run":
		err = runCommand(args)
	case "preview":
		err = previewCommand(args)
	case "scan":
		err = scanCommand(args)
	case "devices":
		err = devicesCommand(args)
	case "clear":
		err = clearCommand(args)
	case "version":
		fmt.Println("sunrise", version)
	default:
		showUsage()
		os.Exit(2)
	}

	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("Command failed")
	}
}

func showUsage() {
	fmt.Println("Sunrise - wake-up light for Pixoo displays")
	fmt.Println("Version:", version)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  sunrise run      - Wait for the alarm and play the sunrise (until Ctrl+C)")
	fmt.Println("  sunrise preview  - Play one sunrise now on the terminal, sped up")
	fmt.Println("  sunrise scan     - Scan for Pixoo devices and remember them")
	fmt.Println("  sunrise devices  - List remembered devices (--forget NAME to remove one)")
	fmt.Println("  sunrise clear    - Put the display in its idle state")
	fmt.Println()
	fmt.Println("Common flags:")
	fmt.Println("  -c, --config     - YAML configuration file")
	fmt.Println("  --alarm HH:MM    - Alarm time")
	fmt.Println("  --display TYPE   - pixoo or terminal")
	fmt.Println("  --address IP     - Pixoo address")
	fmt.Println("  --device NAME    - Remembered Pixoo name")
	fmt.Println()
	fmt.Println("Environment variables with the SUNRISE_ prefix override the file,")
	fmt.Println("e.g. SUNRISE_ALARM=07:00 or SUNRISE_DISPLAY_ADDRESS=192.168.1.50.")
}

// loadConfig resolves configuration for a subcommand: file, then
// environment, then flags. extra registers command-specific flags.
func loadConfig(name string, args []string, extra func(fs *pflag.FlagSet)) (*config.Config, error) {
	pre := pflag.NewFlagSet(name, pflag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.SetOutput(io.Discard)
	path := pre.StringP("config", "c", "", "")
	_ = pre.Parse(args)

	cfg, err := config.Load(*path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("config", "c", *path, "Path to configuration file")
	cfg.BindFlags(fs)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setupLogging(cfg.Log.Level, cfg.Log.JSON, cfg.Log.Colors)
	if *path != "" {
		log.Debug().Str("config", *path).Msg("Configuration loaded")
	}
	return cfg, nil
}

func setupLogging(level string, useJSON bool, colors bool) {
	// ISO 8601 format with timezone
	zerolog.TimeFieldFormat = time.RFC3339

	if useJSON {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    !colors,
		})
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Warn().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
