// Package config provides configuration loading and access for the charge simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/cyclops-charge/charging"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration parameters.
type Config struct {
	Charge     ChargeConfig     `yaml:"charge"`
	Simulation SimulationConfig `yaml:"simulation"`
	Chargers   ChargersConfig   `yaml:"chargers"`
	Fleet      []SubConfig      `yaml:"fleet"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Screen     ScreenConfig     `yaml:"screen"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ChargeConfig holds the arbitration knobs.
type ChargeConfig struct {
	RechargePenalty      float64 `yaml:"recharge_penalty"`       // Multiplier on all produced energy (0-1)
	MinimumEnergyDeficit float64 `yaml:"minimum_energy_deficit"` // Deficit above which non-renewables may drain
}

// Settings converts to the arbiter's settings.
func (c ChargeConfig) Settings() charging.Settings {
	return charging.Settings{
		RechargePenalty:      c.RechargePenalty,
		MinimumEnergyDeficit: c.MinimumEnergyDeficit,
	}
}

// SimulationConfig holds tick loop parameters.
type SimulationConfig struct {
	DT            float64 `yaml:"dt"`             // Seconds per tick
	TimeScale     float64 `yaml:"time_scale"`     // 0 = paused, headless runs refuse it
	GameMode      string  `yaml:"game_mode"`      // survival, freedom, hardcore, creative
	NoPowerCheat  bool    `yaml:"no_power_cheat"` // Exempts all subs from power consumption
	DayLength     float64 `yaml:"day_length"`     // Seconds per full day/night cycle
	DepthDrift    float64 `yaml:"depth_drift"`    // Max depth change per second (metres)
	LegacyThermal float64 `yaml:"legacy_thermal"` // Built-in thermal charge per tick at full heat
}

// ChargersConfig holds per-variant charger parameters.
type ChargersConfig struct {
	Solar      SolarConfig      `yaml:"solar"`
	Thermal    ThermalConfig    `yaml:"thermal"`
	Nuclear    ReserveConfig    `yaml:"nuclear"`
	BioReactor BioReactorConfig `yaml:"bioreactor"`
	Battery    ReserveConfig    `yaml:"battery"`
}

// SolarConfig configures the solar charger.
type SolarConfig struct {
	Enabled       bool    `yaml:"enabled"`
	RatePerModule float64 `yaml:"rate_per_module"` // Energy per tick at full light on the surface
	MaxDepth      float64 `yaml:"max_depth"`       // Depth where light no longer reaches the hull
}

// ThermalConfig configures the thermal charger.
type ThermalConfig struct {
	Enabled        bool    `yaml:"enabled"`
	RatePerModule  float64 `yaml:"rate_per_module"` // Energy per tick at MaxTemperature
	MinTemperature float64 `yaml:"min_temperature"` // No output at or below this
	MaxTemperature float64 `yaml:"max_temperature"` // Full output at or above this
}

// ReserveConfig configures a charger that drains a finite per-module reserve.
type ReserveConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Capacity  float64 `yaml:"capacity"`   // Reserve energy per installed module
	DrainRate float64 `yaml:"drain_rate"` // Fraction of per-module capacity released per tick
}

// BioReactorConfig configures the bioreactor charger.
type BioReactorConfig struct {
	ReserveConfig  `yaml:",inline"`
	BoostPerModule float64 `yaml:"boost_per_module"` // Extra rate per booster module
	MaxBoosters    int     `yaml:"max_boosters"`
}

// SubConfig describes one submarine in the fleet.
type SubConfig struct {
	Name          string         `yaml:"name"`
	MaxEnergy     float64        `yaml:"max_energy"`
	InitialEnergy float64        `yaml:"initial_energy"` // 0 = full charge
	Depth         float64        `yaml:"depth"`
	VentTemp      float64        `yaml:"vent_temp"`    // Extra heat near thermal vents
	EngineDrain   float64        `yaml:"engine_drain"` // Energy consumed per tick
	Modules       map[string]int `yaml:"modules"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // Seconds per stats window
}

// ScreenConfig holds viewer window settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Mode           charging.GameMode
	TicksPerWindow int32
	SubIndex       map[string]int // name -> fleet index
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
		// Only overwrites fields present in file. A fleet list replaces the default fleet.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// computeDerived validates and calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	mode, err := charging.ParseGameMode(c.Simulation.GameMode)
	if err != nil {
		return fmt.Errorf("%w: simulation.game_mode: %w", ErrInvalid, err)
	}
	c.Derived.Mode = mode

	if c.Charge.RechargePenalty < 0 || c.Charge.RechargePenalty > 1 {
		return fmt.Errorf("%w: charge.recharge_penalty %v outside [0, 1]", ErrInvalid, c.Charge.RechargePenalty)
	}
	if c.Charge.MinimumEnergyDeficit < 0 {
		return fmt.Errorf("%w: charge.minimum_energy_deficit must not be negative", ErrInvalid)
	}
	if c.Simulation.DT <= 0 {
		return fmt.Errorf("%w: simulation.dt must be positive", ErrInvalid)
	}
	if !(c.Simulation.TimeScale >= 0) {
		return fmt.Errorf("%w: simulation.time_scale %v must not be negative", ErrInvalid, c.Simulation.TimeScale)
	}

	ticks := int32(c.Telemetry.StatsWindow / c.Simulation.DT)
	if ticks < 1 {
		ticks = 1
	}
	c.Derived.TicksPerWindow = ticks

	c.Derived.SubIndex = make(map[string]int, len(c.Fleet))
	for i := range c.Fleet {
		sub := &c.Fleet[i]
		if sub.Name == "" {
			sub.Name = fmt.Sprintf("cyclops-%d", i+1)
		}
		if _, dup := c.Derived.SubIndex[sub.Name]; dup {
			return fmt.Errorf("%w: duplicate fleet name %q", ErrInvalid, sub.Name)
		}
		if sub.MaxEnergy <= 0 {
			return fmt.Errorf("%w: fleet %q: max_energy must be positive", ErrInvalid, sub.Name)
		}
		// Initial energy defaults to a full charge
		if sub.InitialEnergy == 0 || sub.InitialEnergy > sub.MaxEnergy {
			sub.InitialEnergy = sub.MaxEnergy
		}
		c.Derived.SubIndex[sub.Name] = i
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
