package charging

import (
	"io"
	"log/slog"
	"math"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeCharger returns a fixed amount and counts calls.
type fakeCharger struct {
	renewable bool
	out       float64
	err       error
	panicMsg  string
	reserve   float64

	produceCalls int
	statusCalls  int
	lastDeficit  float64
}

func (c *fakeCharger) IsRenewable() bool { return c.renewable }

func (c *fakeCharger) ProducePower(deficit float64) (float64, error) {
	c.produceCalls++
	c.lastDeficit = deficit
	if c.panicMsg != "" {
		panic(c.panicMsg)
	}
	if c.err != nil {
		return 0, c.err
	}
	return math.Min(c.out, math.Max(deficit, 0)), nil
}

func (c *fakeCharger) TotalReserveEnergy() float64 { return c.reserve }

func (c *fakeCharger) UpdateStatus() { c.statusCalls++ }

// fixed is a factory that always hands out the same charger.
type fixed struct{ c Charger }

func (f fixed) NewCharger(Owner) (Charger, error) { return f.c, nil }

type fakeOwner struct{ modules map[string]int }

func (o fakeOwner) Name() string                  { return "test-sub" }
func (o fakeOwner) Ambient() Ambient              { return Ambient{Light: 1} }
func (o fakeOwner) ModuleCount(module string) int { return o.modules[module] }

type fakePool struct {
	current, max float64
	adds         int
}

func (p *fakePool) CurrentEnergy() float64 { return p.current }
func (p *fakePool) MaxEnergy() float64     { return p.max }

func (p *fakePool) AddEnergy(amount float64) float64 {
	p.adds++
	stored := math.Min(amount, p.max-p.current)
	if stored < 0 {
		stored = 0
	}
	p.current += stored
	return stored
}

// newTestArbiter registers chargers under generated names and initializes an arbiter.
func newTestArbiter(pool *fakePool, settings Settings, chargers ...*fakeCharger) *Arbiter {
	reg := NewRegistry()
	reg.SetLogger(quiet)
	for i, c := range chargers {
		reg.Register(string(rune('a'+i)), fixed{c})
	}
	a := NewArbiter(fakeOwner{}, pool, Options{Registry: reg, Settings: &settings, Logger: quiet})
	a.Initialize()
	return a
}

var running = Frame{TimeScale: 1, Mode: ModeSurvival}
