package main

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/cyclops-charge/config"
	"github.com/pthm-cable/cyclops-charge/sim"
	"github.com/pthm-cable/cyclops-charge/telemetry"
)

func TestParamVectorRoundTrip(t *testing.T) {
	pv := NewParamVector()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}

	raw := pv.Extract(cfg)
	if len(raw) != pv.Dim() {
		t.Fatalf("Extract returned %d values, want %d", len(raw), pv.Dim())
	}
	back := pv.FromUnit(pv.ToUnit(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s: %v -> %v", pv.Params[i].Name, raw[i], back[i])
		}
	}

	unit := pv.ToUnit([]float64{5000, 0, 0.01, 0.02})
	if unit[0] != 1 || unit[1] != 0 || unit[3] != 1 {
		t.Errorf("ToUnit did not clamp: %v", unit)
	}

	// Out-of-range values are clamped when applied.
	pv.Apply(cfg, []float64{-5, 1, 1, 1})
	if cfg.Charge.MinimumEnergyDeficit != 0 {
		t.Errorf("MinimumEnergyDeficit = %v, want 0", cfg.Charge.MinimumEnergyDeficit)
	}
	if cfg.Chargers.Battery.DrainRate != 0.02 {
		t.Errorf("Battery.DrainRate = %v, want 0.02", cfg.Chargers.Battery.DrainRate)
	}
}

func TestComputeFitnessPrefersNoBrownouts(t *testing.T) {
	subs := make([]sim.SubSummary, 3)
	healthy := sim.Summary{Ticks: 100, Subs: subs, Renewable: 50, NonRenewable: 50}
	starving := sim.Summary{Ticks: 100, Subs: subs, Renewable: 100, Brownouts: 30}

	if computeFitness(healthy, 0) >= computeFitness(starving, 0) {
		t.Error("brownouts should cost more than reserve use")
	}
	if !math.IsInf(computeFitness(sim.Summary{}, 0), 1) {
		t.Error("empty run should score +Inf")
	}
}

func TestComputeQuality(t *testing.T) {
	if q := computeQuality(nil); q != 0 {
		t.Errorf("no windows: quality = %v, want 0", q)
	}

	full := make([]telemetry.WindowStats, 5)
	for i := range full {
		full[i] = telemetry.WindowStats{FillP10: 0.8}
	}
	if q := computeQuality(full); math.Abs(q-1) > 1e-9 {
		t.Errorf("ideal windows: quality = %v, want 1", q)
	}

	empty := make([]telemetry.WindowStats, 5)
	if computeQuality(empty) >= computeQuality(full) {
		t.Error("drained fleet should score below a healthy one")
	}
}

func TestParamRecord(t *testing.T) {
	pv := NewParamVector()
	r := pv.Record(7, 0.5, 0.9, []float64{100, 0.001, 0.002, 0.003})
	if r.Eval != 7 || r.MinEnergyDeficit != 100 || r.BatteryDrain != 0.003 {
		t.Errorf("Record = %+v", r)
	}
}

func TestPausedConfigFailsEvaluation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("simulation:\n  time_scale: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, 100, []int64{1, 2}, path)
	x := pv.Extract(cfg)

	if _, err := fe.runSimulation(x, 1); !errors.Is(err, sim.ErrStalled) {
		t.Errorf("runSimulation err = %v, want ErrStalled", err)
	}
	if f := fe.Evaluate(x); !math.IsInf(f, 1) {
		t.Errorf("Evaluate = %v, want +Inf", f)
	}
}
