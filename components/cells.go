package components

import "math"

// PowerCells is a submarine's shared power store. It implements charging.EnergyPool.
type PowerCells struct {
	Current float64
	Max     float64
}

func (p *PowerCells) CurrentEnergy() float64 { return p.Current }

func (p *PowerCells) MaxEnergy() float64 { return p.Max }

// AddEnergy stores up to amount, clamped to headroom, and returns the amount stored.
func (p *PowerCells) AddEnergy(amount float64) float64 {
	if amount <= 0 || math.IsNaN(amount) {
		return 0
	}
	stored := math.Min(amount, p.Max-p.Current)
	if stored < 0 {
		stored = 0
	}
	p.Current += stored
	return stored
}

// ConsumeEnergy removes up to amount and returns the amount removed.
func (p *PowerCells) ConsumeEnergy(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	used := math.Min(amount, p.Current)
	p.Current -= used
	return used
}

// Fill returns the charge fraction in [0, 1].
func (p *PowerCells) Fill() float64 {
	if p.Max <= 0 {
		return 0
	}
	return p.Current / p.Max
}
