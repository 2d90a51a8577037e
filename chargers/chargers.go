// Package chargers provides the stock charger variants: solar and thermal renewables,
// and nuclear, bioreactor and battery-bank reserves.
package chargers

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/pthm-cable/cyclops-charge/charging"
	"github.com/pthm-cable/cyclops-charge/config"
)

// Charger names as registered.
const (
	NameSolar      = "solar"
	NameThermal    = "thermal"
	NameNuclear    = "nuclear"
	NameBioReactor = "bioreactor"
	NameBattery    = "battery"
)

// Upgrade module kinds read from the owner.
const (
	ModuleSolar      = "solar"
	ModuleSolarMk2   = "solar_mk2"
	ModuleThermal    = "thermal"
	ModuleThermalMk2 = "thermal_mk2"
	ModuleNuclear    = "nuclear"
	ModuleBioReactor = "bioreactor"
	ModuleBioBooster = "bio_booster"
	ModuleBattery    = "battery"
)

// Mk2ChargeRateModifier is the 15% charge-rate bonus of Mk2 modules.
const Mk2ChargeRateModifier = 1.15

// BatteryDrainRate is the default fraction of a battery module released per tick.
const BatteryDrainRate = 0.01

// ErrInvalidConfig is returned by factories given unusable parameters.
var ErrInvalidConfig = errors.New("invalid charger config")

// RegisterDefaults registers every enabled stock charger with reg.
// It returns the names that were accepted.
func RegisterDefaults(reg *charging.Registry, cfg config.ChargersConfig) []string {
	var accepted []string
	add := func(enabled bool, name string, f charging.Factory) {
		if enabled && reg.Register(name, f) {
			accepted = append(accepted, name)
		}
	}

	// Renewables first so listings read in arbitration order.
	add(cfg.Solar.Enabled, NameSolar, SolarFactory(cfg.Solar))
	add(cfg.Thermal.Enabled, NameThermal, ThermalFactory(cfg.Thermal))
	add(cfg.Nuclear.Enabled, NameNuclear, NuclearFactory(cfg.Nuclear))
	add(cfg.BioReactor.Enabled, NameBioReactor, BioReactorFactory(cfg.BioReactor))
	add(cfg.Battery.Enabled, NameBattery, BatteryFactory(cfg.Battery))
	return accepted
}

func invalid(name, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", name, ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// display holds a charger's indicator state.
type display struct {
	status charging.Status
}

// Status returns the indicator set by the last UpdateStatus.
func (d *display) Status() charging.Status {
	return d.status
}

func (d *display) set(text string, col color.RGBA) {
	d.status = charging.Status{Text: text, Color: col}
}
