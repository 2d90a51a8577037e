package sim

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/cyclops-charge/charging"
	"github.com/pthm-cable/cyclops-charge/telemetry"
)

// Water temperature model
const (
	deepWaterTemp    = 4.0   // degrees C far below the thermocline
	surfaceWaterTemp = 24.0  // added at the surface
	thermocline      = 300.0 // e-folding depth in metres
	homePull         = 0.01  // fraction of the distance to home depth recovered per second
)

// waterTemperature returns ambient temperature at depth plus any vent heat.
func waterTemperature(depth, vent float64) float64 {
	return deepWaterTemp + (surfaceWaterTemp-deepWaterTemp)*math.Exp(-depth/thermocline) + vent
}

// lightAt returns surface light for a simulation time. The cycle starts at noon.
func (f *Fleet) lightAt(t float64) float64 {
	day := f.cfg.Simulation.DayLength
	if day <= 0 {
		return 1
	}
	return math.Max(0, math.Cos(2*math.Pi*t/day))
}

// frame builds the arbiter frame for this step.
func (f *Fleet) frame() charging.Frame {
	scale := f.timeScale
	if f.paused {
		scale = 0
	}
	return charging.Frame{
		TimeScale:    scale,
		Mode:         f.cfg.Derived.Mode,
		NoPowerCheat: f.cfg.Simulation.NoPowerCheat,
	}
}

// Step advances the simulation by one tick.
func (f *Fleet) Step() {
	frame := f.frame()

	if frame.Paused() {
		// Arbiters treat a paused frame as a no-op; the call keeps them on the same path.
		for _, s := range f.subs {
			f.collector.RecordResult(f.arbiters[s.id].Tick(frame))
		}
		return
	}

	dt := f.cfg.Simulation.DT * frame.TimeScale

	f.perfCollector.StartTick()

	f.perfCollector.StartPhase(telemetry.PhaseEnvironment)
	f.simTime += dt
	f.updateEnvironment(dt)

	f.perfCollector.StartPhase(telemetry.PhaseEngines)
	if frame.RequiresPower() {
		f.updateEngines(frame.TimeScale)
	}

	f.perfCollector.StartPhase(telemetry.PhaseArbitration)
	f.arbitrate(frame)

	f.tick++

	f.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	f.flushTelemetry()

	f.perfCollector.EndTick()
}

// updateEnvironment applies the day/night cycle, depth drift and water temperature.
func (f *Fleet) updateEnvironment(dt float64) {
	light := f.lightAt(f.simTime)
	drift := f.cfg.Simulation.DepthDrift

	query := f.subFilter.Query()
	for query.Next() {
		_, _, env, engine := query.Get()

		env.Depth += (f.rng.Float64()*2 - 1) * drift * dt
		env.Depth += (env.HomeDepth - env.Depth) * homePull * dt
		if env.Depth < 0 {
			env.Depth = 0
		}
		env.Light = light
		env.Temperature = waterTemperature(env.Depth, env.VentTemp)

		// Throttle wanders between idle and full ahead.
		engine.Throttle += (f.rng.Float64()*2 - 1) * 0.05
		engine.Throttle = math.Max(0.1, math.Min(1, engine.Throttle))
	}
}

// updateEngines drains power cells by engine demand.
func (f *Fleet) updateEngines(timeScale float64) {
	query := f.subFilter.Query()
	for query.Next() {
		hull, cells, _, engine := query.Get()

		demand := engine.Drain * engine.Throttle * timeScale
		if demand <= 0 {
			continue
		}
		used := cells.ConsumeEnergy(demand)
		f.collector.RecordConsumption(used)

		t := f.totals[hull.ID]
		t.Consumed += used
		if used < demand {
			t.Brownouts++
		}
	}
}

// arbitrate runs every sub's arbiter and the built-in thermal path where flagged.
func (f *Fleet) arbitrate(frame charging.Frame) {
	for _, s := range f.subs {
		res := f.arbiters[s.id].Tick(frame)
		f.collector.RecordResult(res)

		t := f.totals[s.id]
		t.Renewable += res.Renewable
		t.NonRenewable += res.NonRenewable
		t.Stored += res.Stored
		t.Faults += res.Faults
		if res.Fallback {
			t.Fallbacks++
		}

		if res.LegacyCharging && frame.RequiresPower() {
			t.Legacy += f.legacyThermal(s, frame.TimeScale)
		}
	}
}

// legacyThermal charges a sub from its thermal modules when no thermal charger is registered.
func (f *Fleet) legacyThermal(s *sub, timeScale float64) float64 {
	th := f.cfg.Chargers.Thermal
	if th.MaxTemperature <= th.MinTemperature {
		return 0
	}
	heat := (s.env().Temperature - th.MinTemperature) / (th.MaxTemperature - th.MinTemperature)
	heat = math.Max(0, math.Min(1, heat))
	amount := f.cfg.Simulation.LegacyThermal * heat * timeScale
	if amount < charging.MinimalPowerValue {
		return 0
	}
	return s.AddEnergy(amount)
}

// flushTelemetry checks if the stats window should be flushed.
func (f *Fleet) flushTelemetry() {
	if !f.collector.ShouldFlush(f.tick) {
		return
	}

	states := f.Snapshot()
	fills := make([]float64, len(states))
	reserves := make([]float64, len(states))
	subStats := make([]telemetry.SubStats, len(states))
	for i, st := range states {
		fills[i] = st.Fill
		reserves[i] = st.Reserve
		subStats[i] = telemetry.SubStats{
			WindowEndTick: f.tick,
			Name:          st.Name,
			Energy:        st.Energy,
			Fill:          st.Fill,
			Reserve:       st.Reserve,
			Depth:         st.Depth,
			Light:         st.Light,
			Temperature:   st.Temperature,
		}
	}

	stats := f.collector.Flush(f.tick, fills, telemetry.Sum(reserves))
	perfStats := f.perfCollector.Stats()

	marks := f.bookmarks.Check(stats)
	f.marks = append(f.marks, marks...)

	if f.statsCallback != nil {
		f.statsCallback(stats)
	}

	if f.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}
	for _, b := range marks {
		b.LogBookmark(f.logger)
	}

	if f.outputManager != nil {
		if err := f.outputManager.WriteCharge(stats); err != nil {
			slog.Error("failed to write charge stats", "error", err)
		}
		if err := f.outputManager.WriteSubs(subStats); err != nil {
			slog.Error("failed to write sub stats", "error", err)
		}
		if err := f.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		if err := f.outputManager.WriteBookmarks(marks); err != nil {
			slog.Error("failed to write bookmarks", "error", err)
		}
	}
}
