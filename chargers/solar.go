package chargers

import (
	"math"

	"github.com/pthm-cable/cyclops-charge/charging"
	"github.com/pthm-cable/cyclops-charge/config"
)

// Solar charges from ambient light. Output falls off linearly with depth.
type Solar struct {
	display
	owner charging.Owner
	cfg   config.SolarConfig
}

// SolarFactory returns a factory for solar chargers.
func SolarFactory(cfg config.SolarConfig) charging.FactoryFunc {
	return func(owner charging.Owner) (charging.Charger, error) {
		if cfg.RatePerModule <= 0 {
			return nil, invalid(NameSolar, "rate_per_module %v", cfg.RatePerModule)
		}
		if cfg.MaxDepth <= 0 {
			return nil, invalid(NameSolar, "max_depth %v", cfg.MaxDepth)
		}
		return &Solar{owner: owner, cfg: cfg}, nil
	}
}

func (s *Solar) IsRenewable() bool { return true }

func (s *Solar) TotalReserveEnergy() float64 { return 0 }

// modules returns the installed module count weighted by the Mk2 bonus.
func (s *Solar) modules() float64 {
	return float64(s.owner.ModuleCount(ModuleSolar)) +
		float64(s.owner.ModuleCount(ModuleSolarMk2))*Mk2ChargeRateModifier
}

// efficiency is the fraction of surface sunlight reaching the hull.
func (s *Solar) efficiency() float64 {
	amb := s.owner.Ambient()
	return clamp01(amb.Light) * clamp01(1-amb.Depth/s.cfg.MaxDepth)
}

func (s *Solar) ProducePower(deficit float64) (float64, error) {
	if deficit < charging.MinimalPowerValue {
		return 0, nil
	}
	modules := s.modules()
	if modules == 0 {
		return 0, nil
	}
	return math.Min(deficit, s.cfg.RatePerModule*modules*s.efficiency()), nil
}

func (s *Solar) UpdateStatus() {
	if s.modules() == 0 {
		s.set("", ColorGray)
		return
	}
	pct := s.efficiency() * 100
	s.set(FormatValue(pct)+"%", NumberColor(pct, 90, 5))
}
