// Package config loads the sunrise controller configuration from YAML, the
// environment and command line flags, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/jwulff/sunrise-go/internal/domain"
	"github.com/jwulff/sunrise-go/internal/pixoo"
	"github.com/jwulff/sunrise-go/internal/sunrise"
	"github.com/jwulff/sunrise-go/internal/timesync"
)

// Display types.
const (
	DisplayPixoo    = "pixoo"
	DisplayTerminal = "terminal"
)

// Config represents the application configuration
type Config struct {
	Alarm        string         `yaml:"alarm"`
	Timezone     string         `yaml:"timezone"`
	PollInterval Duration       `yaml:"poll_interval"`
	Sunrise      SunriseConfig  `yaml:"sunrise"`
	Display      DisplayConfig  `yaml:"display"`
	TimeSync     TimeSyncConfig `yaml:"timesync"`
	Log          LogConfig      `yaml:"log"`
	Database     DatabaseConfig `yaml:"database"`
}

// SunriseConfig contains the ramp and render settings
type SunriseConfig struct {
	RampDuration    Duration `yaml:"ramp_duration"`
	HoldDuration    Duration `yaml:"hold_duration"`
	BrightnessStart float64  `yaml:"brightness_start"`
	BrightnessEnd   float64  `yaml:"brightness_end"`
	TickInterval    Duration `yaml:"tick_interval"`
	PixelsPerTick   int      `yaml:"pixels_per_tick"`
}

// DisplayConfig selects and addresses the output device
type DisplayConfig struct {
	Type    string   `yaml:"type"`
	Address string   `yaml:"address"` // Pixoo IP, takes precedence over Device
	Device  string   `yaml:"device"`  // Name of a registered device
	Width   int      `yaml:"width"`
	Height  int      `yaml:"height"`
	Timeout Duration `yaml:"timeout"` // HTTP timeout for a single frame push
}

// TimeSyncConfig contains network time settings
type TimeSyncConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Servers  []string `yaml:"servers"`
	Attempts int      `yaml:"attempts"`
	Timeout  Duration `yaml:"timeout"`
	Backoff  Duration `yaml:"backoff"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	JSON   bool   `yaml:"json"`
	Colors bool   `yaml:"colors"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling.
// It accepts Go duration strings ("30m") or a plain number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// ParseDuration parses "90s", "1h30m" or a bare number of seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Alarm:        "06:30",
		Timezone:     "Local",
		PollInterval: Duration(sunrise.DefaultPollInterval),
		Sunrise: SunriseConfig{
			RampDuration:    Duration(sunrise.DefaultRampDuration),
			HoldDuration:    Duration(sunrise.DefaultHoldDuration),
			BrightnessStart: float64(sunrise.DefaultBrightnessStart),
			BrightnessEnd:   float64(sunrise.DefaultBrightnessEnd),
			TickInterval:    Duration(sunrise.DefaultTickInterval),
			PixelsPerTick:   sunrise.DefaultPixelsPerTick,
		},
		Display: DisplayConfig{
			Type:    DisplayPixoo,
			Width:   domain.Pixoo64Size,
			Height:  domain.Pixoo64Size,
			Timeout: Duration(5 * time.Second),
		},
		TimeSync: TimeSyncConfig{
			Enabled:  true,
			Servers:  append([]string(nil), timesync.DefaultServers...),
			Attempts: timesync.DefaultAttempts,
			Timeout:  Duration(timesync.DefaultTimeout),
			Backoff:  Duration(timesync.DefaultBackoff),
		},
		Log: LogConfig{
			Level:  "info",
			Colors: true,
		},
		Database: DatabaseConfig{
			Path: "./sunrise.sqlite",
		},
	}
}

// Load reads and parses the configuration file on top of the defaults, so
// keys missing from the file keep their default and explicit zeros (such as
// hold_duration: 0) are preserved. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.fillBlanks()
	return cfg, nil
}

// fillBlanks restores defaults for string settings left empty, typically by
// an unset ${VAR} reference.
func (c *Config) fillBlanks() {
	def := Default()
	if c.Alarm == "" {
		c.Alarm = def.Alarm
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.Display.Type == "" {
		c.Display.Type = def.Display.Type
	}
	if len(c.TimeSync.Servers) == 0 {
		c.TimeSync.Servers = def.TimeSync.Servers
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Database.Path == "" {
		c.Database.Path = def.Database.Path
	}
}

// LoadFromEnv applies overrides from environment variables with the SUNRISE_ prefix
func (c *Config) LoadFromEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = Duration(d)
		}
	}
	num := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("SUNRISE_ALARM", &c.Alarm)
	str("SUNRISE_TIMEZONE", &c.Timezone)
	dur("SUNRISE_RAMP_DURATION", &c.Sunrise.RampDuration)
	dur("SUNRISE_HOLD_DURATION", &c.Sunrise.HoldDuration)
	num("SUNRISE_BRIGHTNESS_START", &c.Sunrise.BrightnessStart)
	num("SUNRISE_BRIGHTNESS_END", &c.Sunrise.BrightnessEnd)
	str("SUNRISE_DISPLAY", &c.Display.Type)
	str("SUNRISE_DISPLAY_ADDRESS", &c.Display.Address)
	str("SUNRISE_DISPLAY_DEVICE", &c.Display.Device)
	boolean("SUNRISE_TIMESYNC", &c.TimeSync.Enabled)
	if v := os.Getenv("SUNRISE_TIMESYNC_SERVERS"); v != "" {
		c.TimeSync.Servers = splitList(v)
	}
	str("SUNRISE_LOG_LEVEL", &c.Log.Level)
	boolean("SUNRISE_LOG_JSON", &c.Log.JSON)
	str("SUNRISE_DATABASE", &c.Database.Path)

	return errors.Join(errs...)
}

// BindFlags registers flags that override the loaded configuration.
// Call fs.Parse afterwards.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Alarm, "alarm", c.Alarm, "Alarm time (HH:MM)")
	fs.StringVar(&c.Timezone, "timezone", c.Timezone, "IANA timezone used to match the alarm")
	fs.StringVar(&c.Display.Type, "display", c.Display.Type, "Display type (pixoo, terminal)")
	fs.StringVar(&c.Display.Address, "address", c.Display.Address, "Pixoo IP address")
	fs.StringVar(&c.Display.Device, "device", c.Display.Device, "Registered device name")
	fs.BoolVar(&c.TimeSync.Enabled, "timesync", c.TimeSync.Enabled, "Synchronize with network time on startup")
	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "Log level (debug, info, warn, error)")
	fs.BoolVar(&c.Log.JSON, "log-json", c.Log.JSON, "Log as JSON")
	fs.StringVar(&c.Database.Path, "db", c.Database.Path, "Device registry database path")
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", sunrise.ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// DisplaySize returns the configured display dimensions.
func (c *Config) DisplaySize() domain.DisplaySize {
	return domain.DisplaySize{Width: c.Display.Width, Height: c.Display.Height}
}

// Engine converts the file configuration into engine settings.
func (c *Config) Engine() (sunrise.Config, error) {
	alarm, err := sunrise.ParseAlarmTime(c.Alarm)
	if err != nil {
		return sunrise.Config{}, err
	}
	loc, err := c.Location()
	if err != nil {
		return sunrise.Config{}, err
	}
	return sunrise.Config{
		Alarm:           alarm,
		RampDuration:    c.Sunrise.RampDuration.Duration(),
		HoldDuration:    c.Sunrise.HoldDuration.Duration(),
		BrightnessStart: domain.Brightness(c.Sunrise.BrightnessStart),
		BrightnessEnd:   domain.Brightness(c.Sunrise.BrightnessEnd),
		TickInterval:    c.Sunrise.TickInterval.Duration(),
		PollInterval:    c.PollInterval.Duration(),
		PixelsPerTick:   c.Sunrise.PixelsPerTick,
		Location:        loc,
	}, nil
}

// Validate checks the whole configuration. All errors wrap
// sunrise.ErrInvalidConfig.
func (c *Config) Validate() error {
	sc, err := c.Engine()
	if err != nil {
		return err
	}
	if err := sc.Validate(); err != nil {
		return err
	}

	switch c.Display.Type {
	case DisplayPixoo, DisplayTerminal:
	default:
		return fmt.Errorf("%w: unknown display type %q", sunrise.ErrInvalidConfig, c.Display.Type)
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("%w: display size %dx%d", sunrise.ErrInvalidConfig, c.Display.Width, c.Display.Height)
	}
	if c.Display.Type == DisplayPixoo && !pixoo.IsSupportedSize(c.Display.Width, c.Display.Height) {
		return fmt.Errorf("%w: pixoo display must be square and one of %v, got %dx%d",
			sunrise.ErrInvalidConfig, pixoo.SupportedSizes, c.Display.Width, c.Display.Height)
	}
	if c.Display.Timeout <= 0 {
		return fmt.Errorf("%w: display timeout must be positive", sunrise.ErrInvalidConfig)
	}
	if c.TimeSync.Enabled && len(c.TimeSync.Servers) == 0 {
		return fmt.Errorf("%w: time sync enabled without servers", sunrise.ErrInvalidConfig)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if val := os.Getenv(parts[1]); val != "" {
			return val
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}
