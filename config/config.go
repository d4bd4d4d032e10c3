// Package config provides configuration loading and access for range
// simulation scenarios.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rangeday/steelrange/wind"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all scenario parameters.
type Config struct {
	Bullet     BulletConfig     `yaml:"bullet"`
	Atmosphere AtmosphereConfig `yaml:"atmosphere"`
	Wind       WindConfig       `yaml:"wind"`
	Shot       ShotConfig       `yaml:"shot"`
	Target     TargetConfig     `yaml:"target"`
	Detector   DetectorConfig   `yaml:"detector"`
	Output     OutputConfig     `yaml:"output"`
}

// BulletConfig describes the projectile.
type BulletConfig struct {
	MassKg               float64 `yaml:"mass_kg"`
	DiameterM            float64 `yaml:"diameter_m"`
	LengthM              float64 `yaml:"length_m"`
	BallisticCoefficient float64 `yaml:"ballistic_coefficient"`
	DragFunction         string  `yaml:"drag_function"` // G1 or G7
	TwistPitchM          float64 `yaml:"twist_pitch_m"` // barrel twist, signed; 0 = no spin
}

// AtmosphereConfig describes shooting conditions.
type AtmosphereConfig struct {
	TemperatureK float64 `yaml:"temperature_k"`
	AltitudeM    float64 `yaml:"altitude_m"`
	Humidity     float64 `yaml:"humidity"`    // 0..1
	PressurePa   float64 `yaml:"pressure_pa"` // 0 = barometric formula at altitude
}

// WindConfig selects a condition preset and its noise seed.
type WindConfig struct {
	Preset string `yaml:"preset"`
	Seed   int64  `yaml:"seed"`
}

// ShotConfig describes the firing solution search and flight integration.
type ShotConfig struct {
	MuzzleVelocityMs  float64 `yaml:"muzzle_velocity_ms"`
	TimeStepS         float64 `yaml:"time_step_s"`
	MaxFlightTimeS    float64 `yaml:"max_flight_time_s"`
	SpinDecay         float64 `yaml:"spin_decay"` // 1/s
	ZeroToleranceM    float64 `yaml:"zero_tolerance_m"`
	MaxZeroIterations int     `yaml:"max_zero_iterations"`
}

// ChainConfig hangs the plate from a fixed point. The attachment is in
// plate-local coordinates; the fixed point is an offset from the plate
// center in world coordinates.
type ChainConfig struct {
	Local       [3]float64 `yaml:"local"`
	FixedOffset [3]float64 `yaml:"fixed_offset"`
}

// TargetConfig describes the steel plate and its rigging.
type TargetConfig struct {
	Shape         string        `yaml:"shape"` // rectangle or ellipse
	WidthM        float64       `yaml:"width_m"`
	HeightM       float64       `yaml:"height_m"`
	ThicknessM    float64       `yaml:"thickness_m"`
	DistanceM     float64       `yaml:"distance_m"`
	CrossrangeM   float64       `yaml:"crossrange_m"`
	CenterHeightM float64       `yaml:"center_height_m"`
	Chains        []ChainConfig `yaml:"chains"`
}

// DetectorConfig sizes the collision grid.
type DetectorConfig struct {
	CellSizeM float64 `yaml:"cell_size_m"`
	MinXM     float64 `yaml:"min_x_m"`
	MaxXM     float64 `yaml:"max_x_m"`
	MinZM     float64 `yaml:"min_z_m"`
	MaxZM     float64 `yaml:"max_z_m"`
}

// OutputConfig controls where run artifacts land.
type OutputConfig struct {
	Directory  string `yaml:"directory"`
	Trajectory bool   `yaml:"trajectory"`
	Impacts    bool   `yaml:"impacts"`
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded
// defaults if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
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
		// Unmarshal into the same struct - only overwrites fields present
		// in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the domain constructors would refuse later,
// so a bad scenario fails at load time with a config-relative message.
func (c *Config) Validate() error {
	if c.Bullet.MassKg <= 0 {
		return fmt.Errorf("config: bullet.mass_kg must be positive, got %v", c.Bullet.MassKg)
	}
	if c.Bullet.DiameterM <= 0 {
		return fmt.Errorf("config: bullet.diameter_m must be positive, got %v", c.Bullet.DiameterM)
	}
	if c.Bullet.BallisticCoefficient <= 0 {
		return fmt.Errorf("config: bullet.ballistic_coefficient must be positive, got %v", c.Bullet.BallisticCoefficient)
	}
	if c.Shot.MuzzleVelocityMs <= 0 {
		return fmt.Errorf("config: shot.muzzle_velocity_ms must be positive, got %v", c.Shot.MuzzleVelocityMs)
	}
	if c.Shot.TimeStepS <= 0 {
		return fmt.Errorf("config: shot.time_step_s must be positive, got %v", c.Shot.TimeStepS)
	}
	if c.Shot.MaxZeroIterations <= 0 {
		return fmt.Errorf("config: shot.max_zero_iterations must be positive, got %d", c.Shot.MaxZeroIterations)
	}
	if c.Target.DistanceM <= 0 {
		return fmt.Errorf("config: target.distance_m must be positive, got %v", c.Target.DistanceM)
	}
	if c.Detector.CellSizeM <= 0 {
		return fmt.Errorf("config: detector.cell_size_m must be positive, got %v", c.Detector.CellSizeM)
	}
	if c.Wind.Preset != "" && !wind.HasPreset(c.Wind.Preset) {
		return fmt.Errorf("config: unknown wind preset %q (have %v)", c.Wind.Preset, wind.PresetNames())
	}
	return nil
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
