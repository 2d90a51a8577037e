package chargers

import (
	"math"

	"github.com/pthm-cable/cyclops-charge/charging"
	"github.com/pthm-cable/cyclops-charge/config"
)

// Thermal charges from hot water. No output at or below MinTemperature.
type Thermal struct {
	display
	owner charging.Owner
	cfg   config.ThermalConfig
}

// ThermalFactory returns a factory for thermal chargers.
func ThermalFactory(cfg config.ThermalConfig) charging.FactoryFunc {
	return func(owner charging.Owner) (charging.Charger, error) {
		if cfg.RatePerModule <= 0 {
			return nil, invalid(NameThermal, "rate_per_module %v", cfg.RatePerModule)
		}
		if cfg.MaxTemperature <= cfg.MinTemperature {
			return nil, invalid(NameThermal, "max_temperature %v not above min_temperature %v", cfg.MaxTemperature, cfg.MinTemperature)
		}
		return &Thermal{owner: owner, cfg: cfg}, nil
	}
}

func (t *Thermal) IsRenewable() bool { return true }

func (t *Thermal) TotalReserveEnergy() float64 { return 0 }

func (t *Thermal) modules() float64 {
	return float64(t.owner.ModuleCount(ModuleThermal)) +
		float64(t.owner.ModuleCount(ModuleThermalMk2))*Mk2ChargeRateModifier
}

// heat maps water temperature onto [0, 1] between the configured bounds.
func (t *Thermal) heat() float64 {
	temp := t.owner.Ambient().Temperature
	return clamp01((temp - t.cfg.MinTemperature) / (t.cfg.MaxTemperature - t.cfg.MinTemperature))
}

func (t *Thermal) ProducePower(deficit float64) (float64, error) {
	if deficit < charging.MinimalPowerValue {
		return 0, nil
	}
	modules := t.modules()
	if modules == 0 {
		return 0, nil
	}
	return math.Min(deficit, t.cfg.RatePerModule*modules*t.heat()), nil
}

func (t *Thermal) UpdateStatus() {
	if t.modules() == 0 {
		t.set("", ColorGray)
		return
	}
	temp := t.owner.Ambient().Temperature
	t.set(FormatValue(temp)+"°C", NumberColor(temp, t.cfg.MaxTemperature, t.cfg.MinTemperature))
}
