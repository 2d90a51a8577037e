package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/cyclops-charge/charging"
)

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(1.0, 0.1)
	if c.WindowDurationTicks() != 10 {
		t.Fatalf("WindowDurationTicks = %d, want 10", c.WindowDurationTicks())
	}

	c.RecordResult(charging.Result{Skipped: true})
	c.RecordResult(charging.Result{Renewable: 3, Committed: 3, Stored: 2})
	c.RecordResult(charging.Result{Renewable: 1, NonRenewable: 4, Committed: 2.5, Stored: 2.5, Fallback: true, Faults: 1})
	c.RecordResult(charging.Result{LegacyCharging: true})
	c.RecordConsumption(1.5)

	if c.ShouldFlush(9) {
		t.Error("ShouldFlush(9) = true before window end")
	}
	if !c.ShouldFlush(10) {
		t.Fatal("ShouldFlush(10) = false at window end")
	}

	s := c.Flush(10, []float64{0.5, 1}, 1234)

	if s.Ticks != 3 || s.SkippedTicks != 1 || s.Fallbacks != 1 || s.Faults != 1 || s.LegacyTicks != 1 {
		t.Errorf("counts = %+v", s)
	}
	if s.Renewable != 4 || s.NonRenewable != 4 || s.Committed != 5.5 || s.Stored != 4.5 {
		t.Errorf("energy = renewable %v non %v committed %v stored %v", s.Renewable, s.NonRenewable, s.Committed, s.Stored)
	}
	if math.Abs(s.PenaltyLoss-2.5) > 1e-9 {
		t.Errorf("PenaltyLoss = %v, want 2.5", s.PenaltyLoss)
	}
	if math.Abs(s.RenewableFrac-0.5) > 1e-9 {
		t.Errorf("RenewableFrac = %v, want 0.5", s.RenewableFrac)
	}
	if s.Consumed != 1.5 {
		t.Errorf("Consumed = %v, want 1.5", s.Consumed)
	}
	if math.Abs(s.FillMean-0.75) > 1e-9 {
		t.Errorf("FillMean = %v, want 0.75", s.FillMean)
	}
	if s.TotalReserve != 1234 {
		t.Errorf("TotalReserve = %v, want 1234", s.TotalReserve)
	}
	if math.Abs(s.SimTimeSec-1.0) > 1e-9 {
		t.Errorf("SimTimeSec = %v, want 1", s.SimTimeSec)
	}

	// Counters reset, next window starts at 10.
	if c.ShouldFlush(19) {
		t.Error("ShouldFlush(19) = true in second window")
	}
	next := c.Flush(20, nil, 0)
	if next.WindowStartTick != 10 || next.Ticks != 0 || next.Renewable != 0 || next.RenewableFrac != 0 {
		t.Errorf("second window not reset: %+v", next)
	}
}

func TestCollectorMinimumWindow(t *testing.T) {
	c := NewCollector(0.01, 0.05)
	if c.WindowDurationTicks() != 1 {
		t.Errorf("WindowDurationTicks = %d, want 1", c.WindowDurationTicks())
	}
}
