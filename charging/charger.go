// Package charging arbitrates per-tick energy production for submarine power cells.
//
// Extensions register named charger factories with a Registry. Each submarine owns an
// Arbiter that builds one Charger per factory, then once per tick asks renewable chargers
// for power first and falls back to non-renewable chargers only when nothing renewable
// was produced and the deficit is large enough to justify draining finite reserves.
package charging

import "image/color"

// MinimalPowerValue is "practically zero". Any energy value below this is treated as none.
const MinimalPowerValue = 0.001

// Charger is one energy source bound to one owning submarine.
type Charger interface {
	// IsRenewable is fixed at construction and selects the charger's arbitration phase.
	IsRenewable() bool

	// ProducePower returns the energy delivered this tick for the given deficit.
	// Implementations may draw down their own reserves.
	ProducePower(deficit float64) (float64, error)

	// TotalReserveEnergy reports stored energy available to this source.
	TotalReserveEnergy() float64

	// UpdateStatus refreshes display state. Called every non-paused tick.
	UpdateStatus()
}

// Status is a charger's display indicator.
type Status struct {
	Text  string
	Color color.RGBA
}

// Indicator is implemented by chargers that expose a display indicator.
type Indicator interface {
	Status() Status
}

// Ambient is a snapshot of the environment around an owner.
type Ambient struct {
	Light       float64 // 0 (dark) to 1 (full sun at surface)
	Temperature float64 // water temperature, degrees C
	Depth       float64 // metres below surface
}

// Owner is the entity a charger is bound to.
type Owner interface {
	Name() string
	Ambient() Ambient
	// ModuleCount returns how many upgrade modules of the given kind are installed.
	// The count can change between ticks.
	ModuleCount(module string) int
}

// EnergyPool is the owner's shared power cell store.
type EnergyPool interface {
	CurrentEnergy() float64
	MaxEnergy() float64
	// AddEnergy stores up to amount, clamped to available headroom, and returns what was stored.
	AddEnergy(amount float64) float64
}

// Factory builds a Charger for one owner.
type Factory interface {
	NewCharger(owner Owner) (Charger, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(owner Owner) (Charger, error)

// NewCharger calls f(owner).
func (f FactoryFunc) NewCharger(owner Owner) (Charger, error) {
	return f(owner)
}
