package charging

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
)

const eps = 1e-9

func TestTickScenarios(t *testing.T) {
	tests := []struct {
		name         string
		pool         fakePool
		settings     Settings
		renewable    []float64
		nonRenewable []float64
		wantStored   float64
		wantFallback bool
	}{
		{
			name:       "renewable covers deficit",
			pool:       fakePool{current: 900, max: 1000},
			settings:   Settings{RechargePenalty: 0.8, MinimumEnergyDeficit: 10},
			renewable:  []float64{100},
			wantStored: 80,
		},
		{
			name:         "fallback above threshold",
			pool:         fakePool{current: 900, max: 1000},
			settings:     Settings{RechargePenalty: 0.5, MinimumEnergyDeficit: 10},
			renewable:    []float64{0},
			nonRenewable: []float64{40},
			wantStored:   20,
			wantFallback: true,
		},
		{
			name:         "deficit below threshold",
			pool:         fakePool{current: 995, max: 1000},
			settings:     Settings{RechargePenalty: 1, MinimumEnergyDeficit: 10},
			renewable:    []float64{0},
			nonRenewable: []float64{40},
			wantStored:   0,
		},
		{
			name:         "deficit equal to threshold",
			pool:         fakePool{current: 990, max: 1000},
			settings:     Settings{RechargePenalty: 1, MinimumEnergyDeficit: 10},
			nonRenewable: []float64{40},
			wantStored:   0,
		},
		{
			name:         "no renewables at all",
			pool:         fakePool{current: 0, max: 1000},
			settings:     Settings{RechargePenalty: 1, MinimumEnergyDeficit: 10},
			nonRenewable: []float64{15, 25},
			wantStored:   40,
			wantFallback: true,
		},
		{
			name:       "renewables summed",
			pool:       fakePool{current: 0, max: 1000},
			settings:   Settings{RechargePenalty: 1},
			renewable:  []float64{0.5, 0.25},
			wantStored: 0.75,
		},
		{
			name:       "clamped by headroom",
			pool:       fakePool{current: 950, max: 1000},
			settings:   Settings{RechargePenalty: 1},
			renewable:  []float64{30, 30},
			wantStored: 50,
		},
		{
			name:       "below minimal power not committed",
			pool:       fakePool{current: 0, max: 1000},
			settings:   Settings{RechargePenalty: 1, MinimumEnergyDeficit: 2000},
			renewable:  []float64{0.0005},
			wantStored: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var all []*fakeCharger
			var non []*fakeCharger
			for _, out := range tt.renewable {
				all = append(all, &fakeCharger{renewable: true, out: out})
			}
			for _, out := range tt.nonRenewable {
				c := &fakeCharger{out: out}
				non = append(non, c)
				all = append(all, c)
			}

			pool := tt.pool
			start := pool.current
			a := newTestArbiter(&pool, tt.settings, all...)
			res := a.Tick(running)

			if got := pool.current - start; math.Abs(got-tt.wantStored) > eps {
				t.Errorf("pool gained %v, want %v", got, tt.wantStored)
			}
			if math.Abs(res.Stored-tt.wantStored) > eps {
				t.Errorf("Stored = %v, want %v", res.Stored, tt.wantStored)
			}
			if res.Fallback != tt.wantFallback {
				t.Errorf("Fallback = %v, want %v", res.Fallback, tt.wantFallback)
			}
			for _, c := range non {
				if !tt.wantFallback && c.produceCalls != 0 {
					t.Error("non-renewable invoked without fallback")
				}
			}
			if res.Produced() > MinimalPowerValue {
				if want := res.Produced() * tt.settings.RechargePenalty; math.Abs(res.Committed-want) > eps {
					t.Errorf("Committed = %v, want %v", res.Committed, want)
				}
			}
		})
	}
}

func TestRenewableSufficiencySkipsNonRenewables(t *testing.T) {
	// Renewables meeting any deficit keep reserves untouched, however large the gap.
	for _, deficit := range []float64{1, 50, 500, 5000} {
		sun := &fakeCharger{renewable: true, out: deficit}
		nuke := &fakeCharger{out: 100}
		pool := &fakePool{max: 10000, current: 10000 - deficit}
		a := newTestArbiter(pool, Settings{RechargePenalty: 1}, sun, nuke)

		a.Tick(running)

		if nuke.produceCalls != 0 {
			t.Errorf("deficit %v: non-renewable ProducePower called", deficit)
		}
		if math.Abs(pool.current-pool.max) > eps {
			t.Errorf("deficit %v: pool %v, want full", deficit, pool.current)
		}
	}
}

func TestPausedTickIsNoOp(t *testing.T) {
	sun := &fakeCharger{renewable: true, out: 10}
	nuke := &fakeCharger{out: 10}
	pool := &fakePool{current: 0, max: 100}
	a := newTestArbiter(pool, Settings{RechargePenalty: 1}, sun, nuke)

	res := a.Tick(Frame{TimeScale: 0})

	if !res.Skipped {
		t.Error("paused tick not reported as skipped")
	}
	if sun.produceCalls+sun.statusCalls+nuke.produceCalls+nuke.statusCalls != 0 {
		t.Error("charger invoked while paused")
	}
	if pool.current != 0 || pool.adds != 0 {
		t.Error("pool touched while paused")
	}
}

func TestUpdateStatusEveryTick(t *testing.T) {
	sun := &fakeCharger{renewable: true}
	nuke := &fakeCharger{}
	pool := &fakePool{current: 100, max: 100} // full: nothing to produce
	a := newTestArbiter(pool, Settings{RechargePenalty: 1}, sun, nuke)

	for i := 0; i < 5; i++ {
		a.Tick(running)
	}
	a.Tick(Frame{TimeScale: 0})

	if sun.statusCalls != 5 || nuke.statusCalls != 5 {
		t.Errorf("status calls = %d, %d, want 5 each", sun.statusCalls, nuke.statusCalls)
	}
	if pool.adds != 0 {
		t.Errorf("AddEnergy called %d times with nothing produced", pool.adds)
	}
}

func TestFaultingChargerIsolated(t *testing.T) {
	tests := []struct {
		name   string
		broken *fakeCharger
	}{
		{"panic", &fakeCharger{renewable: true, panicMsg: "boom"}},
		{"error", &fakeCharger{renewable: true, err: errors.New("jammed")}},
		{"nan", &fakeCharger{renewable: true, out: math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			healthy := &fakeCharger{renewable: true, out: 7}
			pool := &fakePool{current: 0, max: 100}
			a := newTestArbiter(pool, Settings{RechargePenalty: 1}, tt.broken, healthy)

			res := a.Tick(running)

			if res.Faults != 1 {
				t.Errorf("Faults = %d, want 1", res.Faults)
			}
			if healthy.produceCalls != 1 {
				t.Error("remaining charger not invoked after fault")
			}
			if math.Abs(pool.current-7) > eps {
				t.Errorf("pool = %v, want 7", pool.current)
			}
			if tt.broken.statusCalls != 1 {
				t.Error("UpdateStatus not called on faulting charger")
			}
		})
	}
}

// panickyStatus panics from UpdateStatus only.
type panickyStatus struct{ fakeCharger }

func (p *panickyStatus) UpdateStatus() { panic("display broke") }

func TestStatusPanicIsolated(t *testing.T) {
	reg := NewRegistry()
	reg.SetLogger(quiet)
	bad := &panickyStatus{fakeCharger{renewable: true, out: 3}}
	good := &fakeCharger{renewable: true}
	reg.Register("bad", fixed{bad})
	reg.Register("good", fixed{good})

	pool := &fakePool{max: 100}
	a := NewArbiter(fakeOwner{}, pool, Options{Registry: reg, Logger: quiet})
	a.Initialize()
	res := a.Tick(running)

	if res.Faults != 1 {
		t.Errorf("Faults = %d, want 1", res.Faults)
	}
	if good.statusCalls != 1 {
		t.Error("later charger skipped after status panic")
	}
	if math.Abs(pool.current-3) > eps {
		t.Errorf("pool = %v, want 3", pool.current)
	}
}

func TestNegativeOutputClamped(t *testing.T) {
	// fakeCharger clamps to deficit, so use a func factory for a raw negative value.
	reg := NewRegistry()
	reg.SetLogger(quiet)
	reg.Register("drain", FactoryFunc(func(Owner) (Charger, error) {
		return negative{}, nil
	}))
	reg.Register("sun", fixed{&fakeCharger{renewable: true, out: 5}})

	pool := &fakePool{max: 100}
	a := NewArbiter(fakeOwner{}, pool, Options{Registry: reg, Logger: quiet})
	a.Initialize()
	res := a.Tick(running)

	if math.Abs(res.Renewable-5) > eps || res.Faults != 0 {
		t.Errorf("Renewable = %v Faults = %d, want 5 and 0", res.Renewable, res.Faults)
	}
}

type negative struct{}

func (negative) IsRenewable() bool                     { return true }
func (negative) ProducePower(float64) (float64, error) { return -10, nil }
func (negative) TotalReserveEnergy() float64           { return 0 }
func (negative) UpdateStatus()                         {}

func TestExemptModesUseZeroDeficit(t *testing.T) {
	frames := []Frame{
		{TimeScale: 1, Mode: ModeCreative},
		{TimeScale: 1, Mode: ModeSurvival, NoPowerCheat: true},
	}
	for _, frame := range frames {
		sun := &fakeCharger{renewable: true, out: 10}
		nuke := &fakeCharger{out: 10}
		pool := &fakePool{current: 0, max: 100}
		a := newTestArbiter(pool, Settings{RechargePenalty: 1}, sun, nuke)

		res := a.Tick(frame)

		if res.Deficit != 0 {
			t.Errorf("%+v: Deficit = %v, want 0", frame, res.Deficit)
		}
		if sun.produceCalls != 1 || sun.lastDeficit != 0 {
			t.Errorf("%+v: renewable should be asked with zero deficit", frame)
		}
		if nuke.produceCalls != 0 {
			t.Errorf("%+v: non-renewable invoked with zero deficit", frame)
		}
		if pool.current != 0 {
			t.Errorf("%+v: pool = %v, want 0", frame, pool.current)
		}
	}
}

func TestOverfullPoolHasZeroDeficit(t *testing.T) {
	sun := &fakeCharger{renewable: true, out: 10}
	pool := &fakePool{current: 120, max: 100}
	a := newTestArbiter(pool, Settings{RechargePenalty: 1}, sun)

	res := a.Tick(running)
	if res.Deficit != 0 {
		t.Errorf("Deficit = %v, want 0", res.Deficit)
	}
}

func TestTickBeforeInitialize(t *testing.T) {
	reg := NewRegistry()
	reg.SetLogger(quiet)
	sun := &fakeCharger{renewable: true, out: 10}
	reg.Register("sun", fixed{sun})

	pool := &fakePool{max: 100}
	a := NewArbiter(fakeOwner{}, pool, Options{Registry: reg, Logger: quiet})

	if res := a.Tick(running); !res.Skipped {
		t.Error("tick before Initialize not skipped")
	}
	if sun.produceCalls != 0 || pool.current != 0 {
		t.Error("uninitialized arbiter touched chargers or pool")
	}
	if a.TotalReserveEnergy() != 0 || a.Chargers() != nil {
		t.Error("uninitialized arbiter reported chargers")
	}
}

// countingFactory counts constructions.
type countingFactory struct {
	n *atomic.Int32
	c Charger
}

func (f countingFactory) NewCharger(Owner) (Charger, error) {
	f.n.Add(1)
	return f.c, nil
}

func TestInitializeOnce(t *testing.T) {
	var n atomic.Int32
	reg := NewRegistry()
	reg.SetLogger(quiet)
	reg.Register("sun", countingFactory{n: &n, c: &fakeCharger{renewable: true}})

	a := NewArbiter(fakeOwner{}, &fakePool{max: 1}, Options{Registry: reg, Logger: quiet})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Initialize()
		}()
	}
	wg.Wait()
	a.Initialize()

	if n.Load() != 1 {
		t.Errorf("factory called %d times, want 1", n.Load())
	}
	if !a.Initialized() || a.ChargerCount() != 1 {
		t.Errorf("Initialized = %v ChargerCount = %d", a.Initialized(), a.ChargerCount())
	}
}

func TestConstructionFailuresOmitted(t *testing.T) {
	var typedNil *fakeCharger
	reg := NewRegistry()
	reg.SetLogger(quiet)
	reg.Register("error", FactoryFunc(func(Owner) (Charger, error) { return nil, errors.New("no parts") }))
	reg.Register("nil", FactoryFunc(func(Owner) (Charger, error) { return nil, nil }))
	reg.Register("typed-nil", FactoryFunc(func(Owner) (Charger, error) { return typedNil, nil }))
	reg.Register("panic", FactoryFunc(func(Owner) (Charger, error) { panic("factory exploded") }))
	reg.Register("ok", fixed{&fakeCharger{out: 1}})

	a := NewArbiter(fakeOwner{}, &fakePool{max: 1}, Options{Registry: reg, Logger: quiet})
	a.Initialize()

	if a.ChargerCount() != 1 {
		t.Fatalf("ChargerCount = %d, want 1", a.ChargerCount())
	}
	if _, ok := a.Charger("ok"); !ok {
		t.Error("healthy charger missing")
	}
	if _, ok := a.Charger("panic"); ok {
		t.Error("panicking factory produced a charger")
	}
}

func TestLegacyChargingEvaluatedOnce(t *testing.T) {
	calls := 0
	reg := NewRegistry()
	reg.SetLogger(quiet)
	a := NewArbiter(fakeOwner{modules: map[string]int{"thermal": 1}}, &fakePool{max: 10}, Options{
		Registry: reg,
		Logger:   quiet,
		LegacyCharging: func(o Owner) bool {
			calls++
			return o.ModuleCount("thermal") > 0
		},
	})
	a.Initialize()

	for i := 0; i < 3; i++ {
		if res := a.Tick(running); !res.LegacyCharging {
			t.Error("LegacyCharging not reported")
		}
	}
	if calls != 1 {
		t.Errorf("legacy check ran %d times, want 1", calls)
	}
	if !a.RequiresLegacyCharging() {
		t.Error("RequiresLegacyCharging = false")
	}
}

func TestReserveQueries(t *testing.T) {
	sun := &fakeCharger{renewable: true}
	nuke := &fakeCharger{reserve: 1234.9}
	bio := &fakeCharger{reserve: 0.5}
	a := newTestArbiter(&fakePool{max: 10}, DefaultSettings(), sun, nuke, bio)

	if got := a.TotalReserveEnergy(); math.Abs(got-1235.4) > eps {
		t.Errorf("TotalReserveEnergy = %v, want 1235.4", got)
	}
	if got := a.TotalReservePower(); got != 1235 {
		t.Errorf("TotalReservePower = %d, want 1235", got)
	}
	if nuke.produceCalls+nuke.statusCalls != 0 {
		t.Error("reserve query had side effects")
	}
}

func TestChargerLookup(t *testing.T) {
	reg := NewRegistry()
	reg.SetLogger(quiet)
	nuke := &fakeCharger{}
	sun := &fakeCharger{renewable: true}
	reg.Register("nuclear", fixed{nuke})
	reg.Register("solar", fixed{sun})
	reg.Register("odd", FactoryFunc(func(Owner) (Charger, error) { return negative{}, nil }))

	a := NewArbiter(fakeOwner{}, &fakePool{max: 10}, Options{Registry: reg, Logger: quiet})
	a.Initialize()

	got, ok := Find[*fakeCharger](a, "nuclear")
	if !ok || got != nuke {
		t.Error("Find did not return the nuclear charger")
	}
	if _, ok := Find[*fakeCharger](a, "odd"); ok {
		t.Error("Find matched a charger of another type")
	}
	if _, ok := Find[*fakeCharger](a, "missing"); ok {
		t.Error("Find matched a missing name")
	}

	// Renewables first, each set in registration order.
	names := a.ChargerNames()
	want := []string{"solar", "odd", "nuclear"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("ChargerNames = %v, want %v", names, want)
		}
	}
	if a.RenewableCount() != 2 {
		t.Errorf("RenewableCount = %d, want 2", a.RenewableCount())
	}
}

func TestRechargePenaltyClamped(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.5, 0.5},
		{-1, 0},
		{2, 1},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		a := NewArbiter(fakeOwner{}, &fakePool{}, Options{Registry: NewRegistry(), Settings: &Settings{RechargePenalty: tt.in}, Logger: quiet})
		if got := a.Settings().RechargePenalty; got != tt.want {
			t.Errorf("NewArbiter penalty %v -> %v, want %v", tt.in, got, tt.want)
		}
		a.SetRechargePenalty(tt.in)
		if got := a.Settings().RechargePenalty; got != tt.want {
			t.Errorf("SetRechargePenalty(%v) -> %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNilSettingsUseDefaults(t *testing.T) {
	reg := NewRegistry()
	reg.SetLogger(quiet)
	reg.Register("sun", fixed{&fakeCharger{renewable: true, out: 10}})
	pool := &fakePool{max: 1000}
	a := NewArbiter(fakeOwner{}, pool, Options{Registry: reg, Logger: quiet})
	a.Initialize()

	if got := a.Settings(); got != DefaultSettings() {
		t.Fatalf("Settings = %+v, want %+v", got, DefaultSettings())
	}
	if res := a.Tick(running); math.Abs(res.Committed-10) > eps || math.Abs(pool.current-10) > eps {
		t.Errorf("committed %v, pool %v, want 10", res.Committed, pool.current)
	}

	// An explicit zero penalty is honoured.
	zero := NewArbiter(fakeOwner{}, &fakePool{max: 1000}, Options{Registry: reg, Settings: &Settings{}, Logger: quiet})
	if got := zero.Settings().RechargePenalty; got != 0 {
		t.Errorf("explicit zero penalty became %v", got)
	}
}

func TestRuntimePenaltyChange(t *testing.T) {
	sun := &fakeCharger{renewable: true, out: 10}
	pool := &fakePool{max: 1000}
	a := newTestArbiter(pool, Settings{RechargePenalty: 1}, sun)

	a.Tick(running)
	a.SetRechargePenalty(0.25)
	a.Tick(running)

	if math.Abs(pool.current-12.5) > eps {
		t.Errorf("pool = %v, want 12.5", pool.current)
	}
}
