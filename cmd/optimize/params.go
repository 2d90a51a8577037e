// Package main tunes the fallback threshold and reserve drain rates with CMA-ES.
package main

import (
	"github.com/pthm-cable/cyclops-charge/config"
)

// Param is one tunable config value with its search bounds.
type Param struct {
	Name     string
	Min, Max float64
	get      func(*config.Config) float64
	set      func(*config.Config, float64)
}

// clamp limits v to the param's bounds.
func (p Param) clamp(v float64) float64 {
	return min(max(v, p.Min), p.Max)
}

// ParamVector maps between config values and the optimizer's unit cube.
type ParamVector struct {
	Params []Param
}

// NewParamVector returns the arbitration knobs worth tuning.
func NewParamVector() *ParamVector {
	return &ParamVector{Params: []Param{
		{
			Name: "min_energy_deficit", Min: 0, Max: 1000,
			get: func(c *config.Config) float64 { return c.Charge.MinimumEnergyDeficit },
			set: func(c *config.Config, v float64) { c.Charge.MinimumEnergyDeficit = v },
		},
		{
			Name: "nuclear_drain", Min: 0.0001, Max: 0.005,
			get: func(c *config.Config) float64 { return c.Chargers.Nuclear.DrainRate },
			set: func(c *config.Config, v float64) { c.Chargers.Nuclear.DrainRate = v },
		},
		{
			Name: "bio_drain", Min: 0.0005, Max: 0.02,
			get: func(c *config.Config) float64 { return c.Chargers.BioReactor.DrainRate },
			set: func(c *config.Config, v float64) { c.Chargers.BioReactor.DrainRate = v },
		},
		{
			Name: "battery_drain", Min: 0.0005, Max: 0.02,
			get: func(c *config.Config) float64 { return c.Chargers.Battery.DrainRate },
			set: func(c *config.Config, v float64) { c.Chargers.Battery.DrainRate = v },
		},
	}}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Params)
}

// ToUnit maps config values into [0, 1], clamping out-of-range values first.
func (pv *ParamVector) ToUnit(raw []float64) []float64 {
	out := make([]float64, len(pv.Params))
	for i, p := range pv.Params {
		out[i] = (p.clamp(raw[i]) - p.Min) / (p.Max - p.Min)
	}
	return out
}

// FromUnit maps optimizer coordinates back to clamped config values.
func (pv *ParamVector) FromUnit(unit []float64) []float64 {
	out := make([]float64, len(pv.Params))
	for i, p := range pv.Params {
		out[i] = p.clamp(p.Min + unit[i]*(p.Max-p.Min))
	}
	return out
}

// Apply writes values into cfg, clamped to each param's bounds.
func (pv *ParamVector) Apply(cfg *config.Config, values []float64) {
	for i, p := range pv.Params {
		p.set(cfg, p.clamp(values[i]))
	}
}

// Extract reads the current values from cfg.
func (pv *ParamVector) Extract(cfg *config.Config) []float64 {
	out := make([]float64, len(pv.Params))
	for i, p := range pv.Params {
		out[i] = p.get(cfg)
	}
	return out
}

// EvalRecord is one row of optimize_log.csv.
type EvalRecord struct {
	Eval             int     `csv:"eval"`
	Fitness          float64 `csv:"fitness"`
	Quality          float64 `csv:"quality"`
	MinEnergyDeficit float64 `csv:"min_energy_deficit"`
	NuclearDrain     float64 `csv:"nuclear_drain"`
	BioDrain         float64 `csv:"bio_drain"`
	BatteryDrain     float64 `csv:"battery_drain"`
}

// Record builds a log row from values in Params order.
func (pv *ParamVector) Record(eval int, fitness, quality float64, values []float64) EvalRecord {
	return EvalRecord{
		Eval:             eval,
		Fitness:          fitness,
		Quality:          quality,
		MinEnergyDeficit: values[0],
		NuclearDrain:     values[1],
		BioDrain:         values[2],
		BatteryDrain:     values[3],
	}
}
