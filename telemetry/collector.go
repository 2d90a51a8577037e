package telemetry

import "github.com/pthm-cable/cyclops-charge/charging"

// Collector accumulates arbitration results within time windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Counters for current window
	ticks        int
	skipped      int
	fallbacks    int
	faults       int
	legacyTicks  int
	renewable    float64
	nonRenewable float64
	committed    float64
	stored       float64
	consumed     float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordResult records one arbiter tick.
func (c *Collector) RecordResult(r charging.Result) {
	if r.Skipped {
		c.skipped++
		return
	}
	c.ticks++
	if r.Fallback {
		c.fallbacks++
	}
	if r.LegacyCharging {
		c.legacyTicks++
	}
	c.faults += r.Faults
	c.renewable += r.Renewable
	c.nonRenewable += r.NonRenewable
	c.committed += r.Committed
	c.stored += r.Stored
}

// RecordConsumption records energy drawn from a pool by engines.
func (c *Collector) RecordConsumption(amount float64) {
	c.consumed += amount
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// fills are per-sub charge fractions at window end; reserve is the fleet's total reserve energy.
func (c *Collector) Flush(currentTick int32, fills []float64, reserve float64) WindowStats {
	fillMean, fillStd, fillP10, fillP50, fillP90 := ComputeFillStats(fills)

	produced := c.renewable + c.nonRenewable
	var renewableFrac, penaltyLoss float64
	if produced > 0 {
		renewableFrac = c.renewable / produced
		penaltyLoss = produced - c.committed
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Ticks:        c.ticks,
		SkippedTicks: c.skipped,
		Fallbacks:    c.fallbacks,
		Faults:       c.faults,
		LegacyTicks:  c.legacyTicks,

		Renewable:     c.renewable,
		NonRenewable:  c.nonRenewable,
		Committed:     c.committed,
		Stored:        c.stored,
		Consumed:      c.consumed,
		PenaltyLoss:   penaltyLoss,
		RenewableFrac: renewableFrac,

		FillMean: fillMean,
		FillStd:  fillStd,
		FillP10:  fillP10,
		FillP50:  fillP50,
		FillP90:  fillP90,

		TotalReserve: reserve,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.ticks = 0
	c.skipped = 0
	c.fallbacks = 0
	c.faults = 0
	c.legacyTicks = 0
	c.renewable = 0
	c.nonRenewable = 0
	c.committed = 0
	c.stored = 0
	c.consumed = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
