package chargers

import (
	"math"

	"github.com/pthm-cable/cyclops-charge/charging"
	"github.com/pthm-cable/cyclops-charge/config"
)

// reserve tracks a finite energy store sized by the number of installed modules.
// Modules are interchangeable: a removed module leaves with its share of the charge
// and comes back with it. Only modules beyond any seen before arrive full.
type reserve struct {
	module    string
	perModule float64
	installed int
	energy    float64
	shelved   []float64 // charge held by uninstalled modules, last removed first out
}

// sync reconciles the reserve with the owner's current module count.
func (r *reserve) sync(owner charging.Owner) {
	n := max(owner.ModuleCount(r.module), 0)
	for ; r.installed > n; r.installed-- {
		share := r.energy / float64(r.installed)
		r.energy -= share
		r.shelved = append(r.shelved, share)
	}
	for ; r.installed < n; r.installed++ {
		charge := r.perModule
		if k := len(r.shelved); k > 0 {
			charge = r.shelved[k-1]
			r.shelved = r.shelved[:k-1]
		}
		r.energy += charge
	}
	if r.installed == 0 {
		r.energy = 0
	}
}

// draw removes up to amount from the reserve and returns what was taken.
func (r *reserve) draw(amount float64) float64 {
	if amount <= 0 || r.energy <= 0 {
		return 0
	}
	taken := math.Min(amount, r.energy)
	r.energy -= taken
	return taken
}

func (r *reserve) capacity() float64 {
	return float64(r.installed) * r.perModule
}

// render writes the reserve as an indicator.
func (r *reserve) render(d *display) {
	switch {
	case r.installed == 0:
		d.set("", ColorGray)
	case r.energy < charging.MinimalPowerValue:
		d.set("Depleted", ColorRed)
	default:
		d.set(FormatValue(r.energy), NumberColor(r.energy, r.capacity()*0.99, 0))
	}
}

func validReserve(name string, cfg config.ReserveConfig) error {
	if cfg.Capacity <= 0 {
		return invalid(name, "capacity %v", cfg.Capacity)
	}
	if cfg.DrainRate <= 0 || cfg.DrainRate > 1 {
		return invalid(name, "drain_rate %v outside (0, 1]", cfg.DrainRate)
	}
	return nil
}

// Nuclear drains fuel rods at a fixed rate per installed module.
type Nuclear struct {
	display
	reserve
	owner charging.Owner
	cfg   config.ReserveConfig
}

// NuclearFactory returns a factory for nuclear chargers.
func NuclearFactory(cfg config.ReserveConfig) charging.FactoryFunc {
	return func(owner charging.Owner) (charging.Charger, error) {
		if err := validReserve(NameNuclear, cfg); err != nil {
			return nil, err
		}
		n := &Nuclear{
			owner:   owner,
			cfg:     cfg,
			reserve: reserve{module: ModuleNuclear, perModule: cfg.Capacity},
		}
		n.sync(owner)
		return n, nil
	}
}

func (n *Nuclear) IsRenewable() bool { return false }

func (n *Nuclear) TotalReserveEnergy() float64 { return n.energy }

func (n *Nuclear) ProducePower(deficit float64) (float64, error) {
	n.sync(n.owner)
	if deficit < charging.MinimalPowerValue {
		return 0, nil
	}
	rate := n.cfg.Capacity * n.cfg.DrainRate * float64(n.installed)
	return n.draw(math.Min(deficit, rate)), nil
}

func (n *Nuclear) UpdateStatus() {
	n.sync(n.owner)
	n.render(&n.display)
}

// BioReactor burns stored biomass. Booster modules raise the burn rate.
type BioReactor struct {
	display
	reserve
	owner charging.Owner
	cfg   config.BioReactorConfig
}

// BioReactorFactory returns a factory for bioreactor chargers.
func BioReactorFactory(cfg config.BioReactorConfig) charging.FactoryFunc {
	return func(owner charging.Owner) (charging.Charger, error) {
		if err := validReserve(NameBioReactor, cfg.ReserveConfig); err != nil {
			return nil, err
		}
		b := &BioReactor{
			owner:   owner,
			cfg:     cfg,
			reserve: reserve{module: ModuleBioReactor, perModule: cfg.Capacity},
		}
		b.sync(owner)
		return b, nil
	}
}

func (b *BioReactor) IsRenewable() bool { return false }

func (b *BioReactor) TotalReserveEnergy() float64 { return b.energy }

// Boosters returns the effective booster count, capped at MaxBoosters.
func (b *BioReactor) Boosters() int {
	n := b.owner.ModuleCount(ModuleBioBooster)
	if b.cfg.MaxBoosters > 0 && n > b.cfg.MaxBoosters {
		n = b.cfg.MaxBoosters
	}
	if n < 0 {
		n = 0
	}
	return n
}

func (b *BioReactor) ProducePower(deficit float64) (float64, error) {
	b.sync(b.owner)
	if deficit < charging.MinimalPowerValue {
		return 0, nil
	}
	boost := 1 + float64(b.Boosters())*b.cfg.BoostPerModule
	rate := b.cfg.Capacity * b.cfg.DrainRate * float64(b.installed) * boost
	return b.draw(math.Min(deficit, rate)), nil
}

func (b *BioReactor) UpdateStatus() {
	b.sync(b.owner)
	b.render(&b.display)
}

// Battery drains a bank of charged batteries.
type Battery struct {
	display
	reserve
	owner charging.Owner
	cfg   config.ReserveConfig
}

// BatteryFactory returns a factory for battery-bank chargers.
// A zero drain rate falls back to BatteryDrainRate.
func BatteryFactory(cfg config.ReserveConfig) charging.FactoryFunc {
	if cfg.DrainRate == 0 {
		cfg.DrainRate = BatteryDrainRate
	}
	return func(owner charging.Owner) (charging.Charger, error) {
		if err := validReserve(NameBattery, cfg); err != nil {
			return nil, err
		}
		b := &Battery{
			owner:   owner,
			cfg:     cfg,
			reserve: reserve{module: ModuleBattery, perModule: cfg.Capacity},
		}
		b.sync(owner)
		return b, nil
	}
}

func (b *Battery) IsRenewable() bool { return false }

func (b *Battery) TotalReserveEnergy() float64 { return b.energy }

func (b *Battery) ProducePower(deficit float64) (float64, error) {
	b.sync(b.owner)
	if deficit < charging.MinimalPowerValue {
		return 0, nil
	}
	rate := b.cfg.Capacity * b.cfg.DrainRate * float64(b.installed)
	return b.draw(math.Min(deficit, rate)), nil
}

func (b *Battery) UpdateStatus() {
	b.sync(b.owner)
	b.render(&b.display)
}
