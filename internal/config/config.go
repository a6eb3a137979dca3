package config

import (
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"glyphclock/internal/layout"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

// Face modes.
const (
	ModeGlyph = "glyph"
	ModeText  = "text"
)

// ColorsConfig holds "#rrggbb" colors for the text face.
type ColorsConfig struct {
	Time string `yaml:"time" json:"time"`
	AmPm string `yaml:"ampm" json:"ampm"`
	Date string `yaml:"date" json:"date"`
}

// ClockConfig controls what is drawn and how often.
type ClockConfig struct {
	// Mode is "glyph" (image digits, differential redraw) or "text".
	Mode string `yaml:"mode" json:"mode"`

	// AssetsDir holds the glyph images (digit0.png ... timeseparator.png).
	AssetsDir string `yaml:"assets_dir" json:"assets_dir"`

	// UpdateInterval is the tick period in seconds.
	UpdateInterval int `yaml:"update_interval" json:"update_interval"`

	// Schedule is a cron spec for ticks (e.g. "@every 1s", "* * * * * *").
	// If empty it is derived from UpdateInterval.
	Schedule string `yaml:"schedule" json:"schedule"`

	// TwoPhasePresent presents the blanked frame before the new digits.
	TwoPhasePresent bool `yaml:"two_phase_present" json:"two_phase_present"`

	// DateStyle is "short" ("Oct 19") or "ordinal" ("Oct 19th").
	DateStyle string `yaml:"date_style" json:"date_style"`

	Layout layout.Offsets `yaml:"layout" json:"layout"`
	Colors ColorsConfig   `yaml:"colors" json:"colors"`
}

// DisplayConfig selects and sizes the output device.
type DisplayConfig struct {
	// Driver is one of "memory", "png", "oled", "window".
	Driver string `yaml:"driver" json:"driver"`

	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`

	// PNGPath is written on every present when Driver is "png".
	PNGPath string `yaml:"png_path" json:"png_path"`

	// I2CBus is the periph.io bus name for the OLED ("" for the default bus).
	I2CBus string `yaml:"i2c_bus" json:"i2c_bus"`
	// Rotated flips the OLED 180 degrees.
	Rotated bool `yaml:"rotated" json:"rotated"`

	// WindowScale enlarges the desktop window.
	WindowScale int `yaml:"window_scale" json:"window_scale"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the preview server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA zone the clock shows (e.g. "America/Chicago").
	// Unknown zones fall back to UTC with a warning.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is "debug", "info", "warn" or "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Listen is the preview HTTP address. Empty disables the server.
	Listen string `yaml:"listen" json:"listen"`

	Clock   ClockConfig   `yaml:"clock" json:"clock"`
	Display DisplayConfig `yaml:"display" json:"display"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// preview endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultTimezone  = "UTC"
	defaultAssetsDir = "/usr/share/glyphclock/clock"
	defaultPNGPath   = "./cache/preview.png"
	defaultWidth     = 128
	defaultHeight    = 32
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone: defaultTimezone,
		LogLevel: "info",
		Listen:   "",
		Clock: ClockConfig{
			Mode:            ModeGlyph,
			AssetsDir:       defaultAssetsDir,
			UpdateInterval:  1,
			Schedule:        "",
			TwoPhasePresent: false,
			DateStyle:       "short",
			Layout:          layout.DefaultOffsets(),
			Colors: ColorsConfig{
				Time: "#ffffff",
				AmPm: "#ffff80",
				Date: "#ff6400",
			},
		},
		Display: DisplayConfig{
			Driver:      "memory",
			Width:       defaultWidth,
			Height:      defaultHeight,
			PNGPath:     defaultPNGPath,
			WindowScale: 4,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	switch c.Clock.Mode {
	case ModeGlyph, ModeText:
		// ok
	default:
		// Unknown value; the glyph face is the stock look.
		c.Clock.Mode = ModeGlyph
	}
	if c.Clock.AssetsDir == "" {
		c.Clock.AssetsDir = defaultAssetsDir
	}
	if c.Clock.UpdateInterval <= 0 {
		c.Clock.UpdateInterval = 1
	}
	c.Clock.Schedule = strings.TrimSpace(c.Clock.Schedule)
	switch c.Clock.DateStyle {
	case "short", "ordinal":
	default:
		c.Clock.DateStyle = "short"
	}
	// A zero layout means the section was omitted entirely.
	if c.Clock.Layout == (layout.Offsets{}) {
		c.Clock.Layout = layout.DefaultOffsets()
	}
	def := DefaultConfig().Clock.Colors
	if c.Clock.Colors.Time == "" {
		c.Clock.Colors.Time = def.Time
	}
	if c.Clock.Colors.AmPm == "" {
		c.Clock.Colors.AmPm = def.AmPm
	}
	if c.Clock.Colors.Date == "" {
		c.Clock.Colors.Date = def.Date
	}

	switch c.Display.Driver {
	case "memory", "png", "oled", "window":
	case "":
		c.Display.Driver = "memory"
	default:
		// Left as is; display.Open reports unknown drivers.
	}
	if c.Display.Width <= 0 {
		c.Display.Width = defaultWidth
	}
	if c.Display.Height <= 0 {
		c.Display.Height = defaultHeight
	}
	if c.Display.PNGPath == "" {
		c.Display.PNGPath = defaultPNGPath
	}
	if c.Display.WindowScale <= 0 {
		c.Display.WindowScale = 4
	}
}

// TickSchedule returns the cron spec driving the clock: Schedule if set,
// otherwise "@every <UpdateInterval>s".
func (c ClockConfig) TickSchedule() string {
	if c.Schedule != "" {
		return c.Schedule
	}
	interval := c.UpdateInterval
	if interval <= 0 {
		interval = 1
	}
	return fmt.Sprintf("@every %ds", interval)
}

// ParseColor parses "#rrggbb" or "#rgb" into an opaque color.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("config: bad color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("config: bad color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".glyphclock-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
