// Package sim drives a fleet of submarines through the charge arbitration loop.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/cyclops-charge/chargers"
	"github.com/pthm-cable/cyclops-charge/charging"
	"github.com/pthm-cable/cyclops-charge/components"
	"github.com/pthm-cable/cyclops-charge/config"
	"github.com/pthm-cable/cyclops-charge/telemetry"
)

// ErrStalled is returned when a run is asked to advance a fleet that cannot move.
var ErrStalled = errors.New("sim: fleet is paused and would never advance")

// bookmarkHistory is the number of windows bookmark detection looks back over.
const bookmarkHistory = 10

// Options configures a fleet.
type Options struct {
	Config    *config.Config     // nil = config.Cfg()
	Registry  *charging.Registry // nil = fresh registry with the stock chargers
	Seed      int64
	OutputDir string // empty disables CSV output
	Logger    *slog.Logger
	LogStats  bool // log each window via slog

	// StatsCallback is called after each telemetry window is flushed.
	StatsCallback func(telemetry.WindowStats)
}

// Fleet holds the complete simulation state.
type Fleet struct {
	cfg    *config.Config
	world  *ecs.World
	rng    *rand.Rand
	logger *slog.Logger

	subMapper *ecs.Map4[
		components.Hull,
		components.PowerCells,
		components.Environment,
		components.Engine,
	]
	subFilter *ecs.Filter4[
		components.Hull,
		components.PowerCells,
		components.Environment,
		components.Engine,
	]

	hullMap   *ecs.Map1[components.Hull]
	cellsMap  *ecs.Map1[components.PowerCells]
	envMap    *ecs.Map1[components.Environment]
	engineMap *ecs.Map1[components.Engine]

	registry *charging.Registry

	// Arbiter storage (per sub by hull ID)
	arbiters map[uint32]*charging.Arbiter
	subs     []*sub // spawn order

	// State
	tick      int32
	simTime   float64
	paused    bool
	timeScale float64
	lastScale float64 // most recent non-zero time scale, restored by Resume
	nextID    uint32

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	bookmarks     *telemetry.BookmarkDetector
	marks         []telemetry.Bookmark
	logStats      bool
	statsCallback func(telemetry.WindowStats)

	totals map[uint32]*SubSummary
}

// NewFleet builds the world, spawns the configured fleet and initializes one arbiter per submarine.
func NewFleet(opts Options) (*Fleet, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reg := opts.Registry
	if reg == nil {
		reg = charging.NewRegistry()
		reg.SetLogger(logger)
		chargers.RegisterDefaults(reg, cfg.Chargers)
	}

	world := ecs.NewWorld()
	f := &Fleet{
		cfg:       cfg,
		world:     world,
		rng:       rand.New(rand.NewSource(opts.Seed)),
		logger:    logger,
		registry:  reg,
		arbiters:  make(map[uint32]*charging.Arbiter),
		lastScale: 1,
		nextID:    1,
		subMapper: ecs.NewMap4[
			components.Hull,
			components.PowerCells,
			components.Environment,
			components.Engine,
		](world),
		subFilter: ecs.NewFilter4[
			components.Hull,
			components.PowerCells,
			components.Environment,
			components.Engine,
		](world),
		hullMap:   ecs.NewMap1[components.Hull](world),
		cellsMap:  ecs.NewMap1[components.PowerCells](world),
		envMap:    ecs.NewMap1[components.Environment](world),
		engineMap: ecs.NewMap1[components.Engine](world),

		collector:     telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Simulation.DT),
		perfCollector: telemetry.NewPerfCollector(int(cfg.Derived.TicksPerWindow), len(cfg.Fleet)),
		bookmarks:     telemetry.NewBookmarkDetector(bookmarkHistory),
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
		totals:        make(map[uint32]*SubSummary),
	}
	f.SetTimeScale(cfg.Simulation.TimeScale)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	f.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	for _, sc := range cfg.Fleet {
		f.spawnSub(sc)
	}

	// Construct every charger up front so the first tick is a real one.
	for _, s := range f.subs {
		f.arbiters[s.id].Initialize()
	}

	logger.Info("fleet ready",
		"subs", len(f.subs),
		"chargers", reg.Names(),
		"mode", cfg.Derived.Mode.String(),
		"seed", opts.Seed,
	)
	return f, nil
}

// spawnSub creates a submarine entity and its arbiter.
func (f *Fleet) spawnSub(sc config.SubConfig) {
	id := f.nextID
	f.nextID++

	modules := make(map[string]int, len(sc.Modules))
	for k, v := range sc.Modules {
		modules[k] = v
	}

	hull := components.Hull{ID: id, Name: sc.Name, Modules: modules}
	cells := components.PowerCells{Current: sc.InitialEnergy, Max: sc.MaxEnergy}
	env := components.Environment{Depth: sc.Depth, HomeDepth: sc.Depth, VentTemp: sc.VentTemp}
	env.Temperature = waterTemperature(env.Depth, env.VentTemp)
	env.Light = f.lightAt(0)
	engine := components.Engine{Drain: sc.EngineDrain, Throttle: 0.5}

	entity := f.subMapper.NewEntity(&hull, &cells, &env, &engine)

	s := &sub{fleet: f, entity: entity, id: id, name: sc.Name}
	f.subs = append(f.subs, s)
	f.totals[id] = &SubSummary{Name: sc.Name}

	settings := f.cfg.Charge.Settings()
	f.arbiters[id] = charging.NewArbiter(s, s, charging.Options{
		Registry:       f.registry,
		Settings:       &settings,
		Logger:         f.logger,
		LegacyCharging: f.requiresLegacyThermal,
	})
}

// requiresLegacyThermal reports whether a sub carries thermal modules that no
// registered charger will serve, so the built-in thermal path must charge them.
func (f *Fleet) requiresLegacyThermal(owner charging.Owner) bool {
	if f.registry.Has(chargers.NameThermal) {
		return false
	}
	return owner.ModuleCount(chargers.ModuleThermal)+owner.ModuleCount(chargers.ModuleThermalMk2) > 0
}

// Close flushes and closes output files.
func (f *Fleet) Close() error {
	return f.outputManager.Close()
}

// Tick returns the number of non-paused steps taken.
func (f *Fleet) Tick() int32 {
	return f.tick
}

// SimTime returns elapsed simulation seconds.
func (f *Fleet) SimTime() float64 {
	return f.simTime
}

// Paused reports whether the simulation is paused.
func (f *Fleet) Paused() bool {
	return f.paused || f.timeScale == 0
}

// SetPaused pauses or resumes the simulation.
func (f *Fleet) SetPaused(paused bool) {
	f.paused = paused
}

// TimeScale returns the current time scale.
func (f *Fleet) TimeScale() float64 {
	return f.timeScale
}

// SetTimeScale changes simulation speed. Zero pauses every arbiter.
func (f *Fleet) SetTimeScale(scale float64) {
	if scale < 0 {
		scale = 0
	}
	if scale > 0 {
		f.lastScale = scale
	}
	f.timeScale = scale
}

// Resume clears the pause flag and, if the time scale is zero, restores the last
// running scale so the fleet actually advances.
func (f *Fleet) Resume() {
	f.paused = false
	if f.timeScale == 0 {
		f.timeScale = f.lastScale
	}
}

// RunTicks steps until the tick counter reaches maxTicks. A paused fleet returns
// ErrStalled instead of spinning.
func (f *Fleet) RunTicks(maxTicks int32) error {
	if f.Paused() && f.tick < maxTicks {
		return fmt.Errorf("%w (time scale %v)", ErrStalled, f.timeScale)
	}
	for f.tick < maxTicks {
		f.Step()
	}
	return nil
}

// RechargePenalty returns the penalty currently applied by the arbiters.
func (f *Fleet) RechargePenalty() float64 {
	if len(f.subs) == 0 {
		return f.cfg.Charge.RechargePenalty
	}
	return f.arbiters[f.subs[0].id].Settings().RechargePenalty
}

// SetRechargePenalty updates the penalty on every arbiter.
func (f *Fleet) SetRechargePenalty(penalty float64) {
	for _, a := range f.arbiters {
		a.SetRechargePenalty(penalty)
	}
}

// Registry returns the charger registry the fleet was built from.
func (f *Fleet) Registry() *charging.Registry {
	return f.registry
}

// Arbiter returns the arbiter for the named submarine.
func (f *Fleet) Arbiter(name string) (*charging.Arbiter, bool) {
	for _, s := range f.subs {
		if s.name == name {
			return f.arbiters[s.id], true
		}
	}
	return nil, false
}

// SubNames returns submarine names in spawn order.
func (f *Fleet) SubNames() []string {
	names := make([]string, len(f.subs))
	for i, s := range f.subs {
		names[i] = s.name
	}
	return names
}

// Perf returns the current performance window.
func (f *Fleet) Perf() telemetry.PerfStats {
	return f.perfCollector.Stats()
}

// Bookmarks returns every bookmark triggered so far.
func (f *Fleet) Bookmarks() []telemetry.Bookmark {
	return f.marks
}

// RecordFrame records viewer frame timing.
func (f *Fleet) RecordFrame() {
	f.perfCollector.RecordFrame()
}
