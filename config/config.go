// Package config provides configuration loading and access for the visualizer.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all visualizer configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Camera    CameraConfig    `yaml:"camera"`
	Field     FieldConfig     `yaml:"field"`
	Formation FormationConfig `yaml:"formation"`
	Audio     AudioConfig     `yaml:"audio"`
	Render    RenderConfig    `yaml:"render"`
	Bloom     BloomConfig     `yaml:"bloom"`
	Cycle     CycleConfig     `yaml:"cycle"`
	Assets    AssetsConfig    `yaml:"assets"`
	Media     MediaConfig     `yaml:"media"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Params    Params          `yaml:"params"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// CameraConfig holds the initial orbit camera placement.
type CameraConfig struct {
	Position [3]float64 `yaml:"position"`
	FOV      float64    `yaml:"fov"` // Vertical field of view in degrees
	Near     float64    `yaml:"near"`
	Far      float64    `yaml:"far"`
	Damping  float64    `yaml:"damping"`
	MinDist  float64    `yaml:"min_distance"`
	MaxDist  float64    `yaml:"max_distance"`
}

// FieldConfig holds particle field synthesis parameters.
type FieldConfig struct {
	Seed            int64   `yaml:"seed"`             // Synthesis RNG seed (same image -> same field)
	MetadataSeed    int64   `yaml:"metadata_seed"`    // Seed for per-index metadata (0 = time-based)
	LumaThreshold   float64 `yaml:"luma_threshold"`   // Pixels with mean channel <= this are background
	Spread          float64 `yaml:"spread"`           // World units spanned by the image height
	DepthScale      float64 `yaml:"depth_scale"`      // Z offset per unit of luminance
	AuraChance      float64 `yaml:"aura_chance"`      // Probability an accepted pixel also spawns aura
	AuraAttenuation float64 `yaml:"aura_attenuation"` // Aura colour multiplier
	MaxWorkingSide  int     `yaml:"max_working_side"` // Upper bound on the resampled width/height
	ThumbnailSize   int     `yaml:"thumbnail_size"`
}

// FormationConfig holds vortex-to-settled timing.
type FormationConfig struct {
	Hold float64 `yaml:"hold"` // Seconds formation stays at 0 after a load
	Ramp float64 `yaml:"ramp"` // Seconds of linear ramp to 1
}

// AudioConfig holds spectrum analysis and playback parameters.
type AudioConfig struct {
	SampleRate      int     `yaml:"sample_rate"`
	FFTSize         int     `yaml:"fft_size"`
	TimeSmoothing   float64 `yaml:"time_smoothing"` // Analyser smoothing constant
	MinDecibels     float64 `yaml:"min_decibels"`
	MaxDecibels     float64 `yaml:"max_decibels"`
	BassSmoothing   float64 `yaml:"bass_smoothing"`
	MidSmoothing    float64 `yaml:"mid_smoothing"`
	TrebleSmoothing float64 `yaml:"treble_smoothing"`
	LevelSmoothing  float64 `yaml:"level_smoothing"`
	Volume          float64 `yaml:"volume"`
	Loop            bool    `yaml:"loop"`
}

// RenderConfig holds CPU pipeline settings.
type RenderConfig struct {
	Workers      int        `yaml:"workers"` // 0 = GOMAXPROCS
	PointScale   float64    `yaml:"point_scale"`
	MaxPointSize float64    `yaml:"max_point_size"`
	Background   [3]float64 `yaml:"background"`
	RenderScale  float64    `yaml:"render_scale"` // Framebuffer size relative to the window
}

// BloomConfig holds post-process bloom parameters.
type BloomConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Strength  float64 `yaml:"strength"`
	Radius    float64 `yaml:"radius"`
	Threshold float64 `yaml:"threshold"`
}

// CycleConfig holds gallery cycling behaviour.
type CycleConfig struct {
	Auto       bool `yaml:"auto"`
	QueueSize  int  `yaml:"queue_size"`  // Pending synthesis jobs before new work is dropped
	Workers    int  `yaml:"workers"`     // Synthesis workers
	NoticeSecs int  `yaml:"notice_secs"` // How long a notice stays visible
}

// AssetsConfig holds the local asset store location.
type AssetsConfig struct {
	Dir      string `yaml:"dir"`
	Database string `yaml:"database"` // Relative to Dir unless absolute
}

// MediaConfig holds the media provider endpoint.
type MediaConfig struct {
	BaseURL      string  `yaml:"base_url"`
	SessionToken string  `yaml:"session_token"`
	Timeout      float64 `yaml:"timeout"` // Seconds per request
	MaxRetries   int     `yaml:"max_retries"`
	BackoffMs    int     `yaml:"backoff_ms"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	FormationHold time.Duration
	FormationRamp time.Duration
	SpectrumBins  int
	Timeout       time.Duration
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
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

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

	cfg.Params = cfg.Params.Clamped()
	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.FormationHold = seconds(c.Formation.Hold)
	c.Derived.FormationRamp = seconds(c.Formation.Ramp)

	if c.Audio.FFTSize < 32 || c.Audio.FFTSize&(c.Audio.FFTSize-1) != 0 {
		c.Audio.FFTSize = 512
	}
	c.Derived.SpectrumBins = c.Audio.FFTSize / 2

	if c.Media.Timeout <= 0 {
		c.Media.Timeout = 10
	}
	c.Derived.Timeout = seconds(c.Media.Timeout)

	if c.Render.RenderScale <= 0 || c.Render.RenderScale > 1 {
		c.Render.RenderScale = 1
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

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
