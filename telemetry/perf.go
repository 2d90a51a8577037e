package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase is one stage of a fleet step.
type Phase uint8

const (
	PhaseEnvironment Phase = iota
	PhaseEngines
	PhaseArbitration
	PhaseTelemetry
	numPhases
)

// Phases lists the step phases in execution order.
var Phases = []Phase{PhaseEnvironment, PhaseEngines, PhaseArbitration, PhaseTelemetry}

var phaseNames = [numPhases]string{
	PhaseEnvironment: "environment",
	PhaseEngines:     "engines",
	PhaseArbitration: "arbitration",
	PhaseTelemetry:   "telemetry",
}

func (p Phase) String() string {
	if p < numPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// phaseTimes holds one duration per phase.
type phaseTimes [numPhases]time.Duration

// perfSample is the timing of a single step.
type perfSample struct {
	tick   time.Duration
	phases phaseTimes
}

// PerfCollector times fleet steps over a rolling window of ticks.
type PerfCollector struct {
	samples     []perfSample
	writeIndex  int
	sampleCount int
	arbiters    int // arbiter ticks per step

	current    phaseTimes
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool

	// Frame timing (chargeview only)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector over windowSize ticks for a fleet of arbiters.
func NewPerfCollector(windowSize, arbiters int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		samples:  make([]perfSample, windowSize),
		arbiters: arbiters,
	}
}

// StartTick begins timing a new step.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = phaseTimes{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts timing the next.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
	p.inPhase = phase < numPhases
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.current[p.phase] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
}

// EndTick finishes the step and records the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)

	p.samples[p.writeIndex] = perfSample{tick: now.Sub(p.tickStart), phases: p.current}
	p.writeIndex = (p.writeIndex + 1) % len(p.samples)
	if p.sampleCount < len(p.samples) {
		p.sampleCount++
	}
}

// RecordFrame records viewer frame timing.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgTickDuration time.Duration
	P50TickDuration time.Duration
	P99TickDuration time.Duration
	MaxTickDuration time.Duration

	// Per-phase average duration and share of the average tick
	PhaseAvg [numPhases]time.Duration
	PhasePct [numPhases]float64

	TicksPerSecond        float64
	ArbiterTicksPerSecond float64 // TicksPerSecond times fleet size

	FrameDuration time.Duration
	FPS           float64
}

// Stats computes statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{FrameDuration: p.frameDuration}
	if p.frameDuration > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.sampleCount == 0 {
		return s
	}

	ticks := make([]float64, p.sampleCount)
	var phaseSum phaseTimes
	for i := 0; i < p.sampleCount; i++ {
		sample := p.samples[i]
		ticks[i] = float64(sample.tick)
		for ph, d := range sample.phases {
			phaseSum[ph] += d
		}
	}
	sort.Float64s(ticks)

	s.AvgTickDuration = time.Duration(stat.Mean(ticks, nil))
	s.P50TickDuration = time.Duration(stat.Quantile(0.50, stat.Empirical, ticks, nil))
	s.P99TickDuration = time.Duration(stat.Quantile(0.99, stat.Empirical, ticks, nil))
	s.MaxTickDuration = time.Duration(ticks[len(ticks)-1])

	n := time.Duration(p.sampleCount)
	for ph := range phaseSum {
		s.PhaseAvg[ph] = phaseSum[ph] / n
		if s.AvgTickDuration > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) / float64(s.AvgTickDuration) * 100
		}
	}

	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
		s.ArbiterTicksPerSecond = s.TicksPerSecond * float64(p.arbiters)
	}
	return s
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("p99_tick_us", s.P99TickDuration.Microseconds()),
		slog.Int("arbiter_ticks_per_sec", int(s.ArbiterTicksPerSecond)),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for _, ph := range Phases {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd          int32   `csv:"window_end"`
	AvgTickUS          int64   `csv:"avg_tick_us"`
	P50TickUS          int64   `csv:"p50_tick_us"`
	P99TickUS          int64   `csv:"p99_tick_us"`
	MaxTickUS          int64   `csv:"max_tick_us"`
	TicksPerSec        float64 `csv:"ticks_per_sec"`
	ArbiterTicksPerSec float64 `csv:"arbiter_ticks_per_sec"`
	FPS                float64 `csv:"fps"`
	EnvironmentPct     float64 `csv:"environment_pct"`
	EnginesPct         float64 `csv:"engines_pct"`
	ArbitrationPct     float64 `csv:"arbitration_pct"`
	TelemetryPct       float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:          windowEnd,
		AvgTickUS:          s.AvgTickDuration.Microseconds(),
		P50TickUS:          s.P50TickDuration.Microseconds(),
		P99TickUS:          s.P99TickDuration.Microseconds(),
		MaxTickUS:          s.MaxTickDuration.Microseconds(),
		TicksPerSec:        s.TicksPerSecond,
		ArbiterTicksPerSec: s.ArbiterTicksPerSecond,
		FPS:                s.FPS,
		EnvironmentPct:     s.PhasePct[PhaseEnvironment],
		EnginesPct:         s.PhasePct[PhaseEngines],
		ArbitrationPct:     s.PhasePct[PhaseArbitration],
		TelemetryPct:       s.PhasePct[PhaseTelemetry],
	}
}
