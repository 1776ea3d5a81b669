// Package config provides configuration loading and access for the landing page.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all landing page configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Profile    ProfileConfig    `yaml:"profile"`
	Petals     PetalsConfig     `yaml:"petals"`
	HTTP       HTTPConfig       `yaml:"http"`
	Codeforces CodeforcesConfig `yaml:"codeforces"`
	Bangumi    BangumiConfig    `yaml:"bangumi"`
	Device     DeviceConfig     `yaml:"device"`
	Widgets    WidgetsConfig    `yaml:"widgets"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
}

// ProfileConfig holds the profile card text.
type ProfileConfig struct {
	Name     string `yaml:"name"`
	Greeting string `yaml:"greeting"`
	Motto    string `yaml:"motto"`
	Links    []Link `yaml:"links"`
}

// Link is a labelled profile link.
type Link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

// PetalsConfig holds the falling petal field parameters.
type PetalsConfig struct {
	AreaPerPetal float64  `yaml:"area_per_petal"` // Viewport pixels per petal (0 = use fixed_count)
	FixedCount   int      `yaml:"fixed_count"`
	RadiusMin    float64  `yaml:"radius_min"`
	RadiusMax    float64  `yaml:"radius_max"`
	SpeedMin     float64  `yaml:"speed_min"` // Pixels per frame
	SpeedMax     float64  `yaml:"speed_max"`
	DriftMin     float64  `yaml:"drift_min"` // Horizontal pixels per frame
	DriftMax     float64  `yaml:"drift_max"`
	OpacityMin   float64  `yaml:"opacity_min"`
	OpacityMax   float64  `yaml:"opacity_max"`
	Aspect       float64  `yaml:"aspect"`       // Minor/major axis ratio
	RotationDeg  float64  `yaml:"rotation_deg"` // Ellipse rotation
	WrapX        bool     `yaml:"wrap_x"`       // Recycle petals that leave horizontally
	RespawnBand  float64  `yaml:"respawn_band"` // Recycled petals restart within this band above the top (0 = full height)
	Color        [3]uint8 `yaml:"color"`
}

// HTTPConfig holds shared HTTP client settings for the widget sources.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// CodeforcesConfig holds the submissions widget settings.
type CodeforcesConfig struct {
	BaseURL string `yaml:"base_url"`
	Handle  string `yaml:"handle"`
	Count   int    `yaml:"count"`
}

// BangumiConfig holds the anime collection widget settings.
type BangumiConfig struct {
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`
	PageSize int    `yaml:"page_size"`
}

// DeviceConfig holds the device status widget settings.
type DeviceConfig struct {
	Endpoint string        `yaml:"endpoint"` // Empty disables the widget
	MaxAge   time.Duration `yaml:"max_age"`
}

// WidgetsConfig holds widget board settings.
type WidgetsConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"` // 0 = load once at startup
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	LogInterval         float64 `yaml:"log_interval"` // Seconds between perf log lines (0 = off)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW32   float32 // Screen.Width as float32
	ScreenH32   float32 // Screen.Height as float32
	RotationRad float32 // Petals.RotationDeg in radians
	FrameTime   time.Duration
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.computeDerived()

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return fmt.Errorf("screen size must be positive, got %dx%d", c.Screen.Width, c.Screen.Height)
	}
	if c.Petals.AreaPerPetal < 0 {
		return fmt.Errorf("petals.area_per_petal must not be negative")
	}
	if c.Petals.AreaPerPetal == 0 && c.Petals.FixedCount <= 0 {
		return fmt.Errorf("petals.fixed_count must be positive when area_per_petal is 0")
	}
	if c.Petals.RadiusMax < c.Petals.RadiusMin || c.Petals.SpeedMax < c.Petals.SpeedMin ||
		c.Petals.DriftMax < c.Petals.DriftMin || c.Petals.OpacityMax < c.Petals.OpacityMin {
		return fmt.Errorf("petals: every max must be >= its min")
	}
	if c.Bangumi.PageSize <= 0 {
		return fmt.Errorf("bangumi.page_size must be positive, got %d", c.Bangumi.PageSize)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.RotationRad = float32(c.Petals.RotationDeg * math.Pi / 180)

	fps := c.Screen.TargetFPS
	if fps <= 0 {
		fps = 60
	}
	c.Derived.FrameTime = time.Second / time.Duration(fps)

	if c.Petals.Aspect == 0 {
		c.Petals.Aspect = 1
	}
	if c.Telemetry.PerfCollectorWindow <= 0 {
		c.Telemetry.PerfCollectorWindow = fps
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
