package sim

import "github.com/pthm-cable/cyclops-charge/charging"

// ChargerState is one charger's indicator as shown on a sub's HUD.
type ChargerState struct {
	Name      string
	Renewable bool
	Reserve   float64
	Status    charging.Status
}

// SubState is a point-in-time view of one submarine.
type SubState struct {
	Name         string
	Energy       float64
	Max          float64
	Fill         float64
	Depth        float64
	Light        float64
	Temperature  float64
	Throttle     float64
	Reserve      float64
	ReservePower int
	Legacy       bool
	Chargers     []ChargerState
}

// Snapshot returns the current state of every sub in spawn order.
func (f *Fleet) Snapshot() []SubState {
	out := make([]SubState, 0, len(f.subs))
	for _, s := range f.subs {
		a := f.arbiters[s.id]
		cells := s.cells()
		env := s.env()

		st := SubState{
			Name:         s.name,
			Energy:       cells.Current,
			Max:          cells.Max,
			Fill:         cells.Fill(),
			Depth:        env.Depth,
			Light:        env.Light,
			Temperature:  env.Temperature,
			Throttle:     s.engine().Throttle,
			Reserve:      a.TotalReserveEnergy(),
			ReservePower: a.TotalReservePower(),
			Legacy:       a.RequiresLegacyCharging(),
		}

		names := a.ChargerNames()
		for i, c := range a.Chargers() {
			cs := ChargerState{
				Name:      names[i],
				Renewable: c.IsRenewable(),
				Reserve:   c.TotalReserveEnergy(),
			}
			if ind, ok := c.(charging.Indicator); ok {
				cs.Status = ind.Status()
			}
			st.Chargers = append(st.Chargers, cs)
		}
		out = append(out, st)
	}
	return out
}

// SubSummary accumulates one submarine's energy flow over a run.
type SubSummary struct {
	Name         string
	Energy       float64
	Fill         float64
	Reserve      float64
	Renewable    float64
	NonRenewable float64
	Legacy       float64 // built-in thermal charge
	Stored       float64
	Consumed     float64
	Fallbacks    int
	Faults       int
	Brownouts    int // ticks where engine demand exceeded stored energy
}

// Summary totals a run.
type Summary struct {
	Ticks   int32
	SimTime float64
	Subs    []SubSummary

	Renewable    float64
	NonRenewable float64
	Legacy       float64
	Stored       float64
	Consumed     float64
	Fallbacks    int
	Faults       int
	Brownouts    int
	MinFill      float64
}

// RenewableShare returns the fraction of produced energy that came from renewables.
func (s Summary) RenewableShare() float64 {
	produced := s.Renewable + s.NonRenewable
	if produced <= 0 {
		return 0
	}
	return s.Renewable / produced
}

// Summary returns run totals with current energy levels.
func (f *Fleet) Summary() Summary {
	sum := Summary{Ticks: f.tick, SimTime: f.simTime, MinFill: 1}
	if len(f.subs) == 0 {
		sum.MinFill = 0
	}
	for _, s := range f.subs {
		t := *f.totals[s.id]
		cells := s.cells()
		t.Energy = cells.Current
		t.Fill = cells.Fill()
		t.Reserve = f.arbiters[s.id].TotalReserveEnergy()

		sum.Subs = append(sum.Subs, t)
		sum.Renewable += t.Renewable
		sum.NonRenewable += t.NonRenewable
		sum.Legacy += t.Legacy
		sum.Stored += t.Stored
		sum.Consumed += t.Consumed
		sum.Fallbacks += t.Fallbacks
		sum.Faults += t.Faults
		sum.Brownouts += t.Brownouts
		if t.Fill < sum.MinFill {
			sum.MinFill = t.Fill
		}
	}
	return sum
}
