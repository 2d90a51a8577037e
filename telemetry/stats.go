package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated fleet charging statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Tick counts during window (summed over subs)
	Ticks        int `csv:"ticks"`
	SkippedTicks int `csv:"skipped_ticks"`
	Fallbacks    int `csv:"fallbacks"`
	Faults       int `csv:"faults"`
	LegacyTicks  int `csv:"legacy_ticks"`

	// Energy flow during window
	Renewable     float64 `csv:"renewable"`
	NonRenewable  float64 `csv:"non_renewable"`
	Committed     float64 `csv:"committed"`
	Stored        float64 `csv:"stored"`
	Consumed      float64 `csv:"consumed"`
	PenaltyLoss   float64 `csv:"penalty_loss"` // produced but not committed
	RenewableFrac float64 `csv:"renewable_frac"`

	// Fill ratio distribution across the fleet (sampled at window end)
	FillMean float64 `csv:"fill_mean"`
	FillStd  float64 `csv:"fill_std"`
	FillP10  float64 `csv:"fill_p10"`
	FillP50  float64 `csv:"fill_p50"`
	FillP90  float64 `csv:"fill_p90"`

	// Reserve energy left in non-renewable chargers
	TotalReserve float64 `csv:"total_reserve"`
}

// SubStats is one submarine's state at a window boundary.
type SubStats struct {
	WindowEndTick int32   `csv:"window_end"`
	Name          string  `csv:"sub"`
	Energy        float64 `csv:"energy"`
	Fill          float64 `csv:"fill"`
	Reserve       float64 `csv:"reserve"`
	Depth         float64 `csv:"depth"`
	Light         float64 `csv:"light"`
	Temperature   float64 `csv:"temperature"`
}

// ComputeFillStats calculates mean, std and percentiles of fill ratios.
func ComputeFillStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.MeanStdDev(values, nil)
	if n == 1 {
		std = 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)

	return mean, std, p10, p50, p90
}

// Sum adds values.
func Sum(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Sum(values)
}

// LogStats outputs the window stats via slog.
func (s WindowStats) LogStats() {
	slog.Info("charge",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"ticks", s.Ticks,
		"fallbacks", s.Fallbacks,
		"faults", s.Faults,
		"renewable", s.Renewable,
		"non_renewable", s.NonRenewable,
		"stored", s.Stored,
		"consumed", s.Consumed,
		"fill_mean", s.FillMean,
		"fill_p10", s.FillP10,
		"reserve", s.TotalReserve,
	)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("renewable", s.Renewable),
		slog.Float64("non_renewable", s.NonRenewable),
		slog.Float64("stored", s.Stored),
		slog.Float64("fill_mean", s.FillMean),
	)
}
