package charging

import (
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"sync"
	"sync/atomic"
)

// Settings are the arbitration knobs supplied by configuration.
type Settings struct {
	// RechargePenalty multiplies all produced energy before it reaches the pool (0-1).
	RechargePenalty float64
	// MinimumEnergyDeficit gates the non-renewable fallback phase.
	MinimumEnergyDeficit float64
}

// DefaultSettings returns a penalty of 1 and no fallback threshold.
func DefaultSettings() Settings {
	return Settings{RechargePenalty: 1.0}
}

// Options configure a new Arbiter.
type Options struct {
	Registry *Registry // nil = Default()
	Settings *Settings // nil = DefaultSettings(); a zero penalty must be asked for explicitly
	Logger   *slog.Logger // nil = slog.Default()

	// LegacyCharging is evaluated once at initialization. When it returns true every
	// Result carries LegacyCharging so the host keeps running its built-in charging path.
	LegacyCharging func(owner Owner) bool
}

// Result describes the outcome of one tick.
type Result struct {
	Skipped        bool // paused or uninitialized; nothing was touched
	Deficit        float64
	Renewable      float64 // produced in phase 1
	NonRenewable   float64 // produced in phase 2
	Committed      float64 // (Renewable+NonRenewable) * penalty, offered to the pool
	Stored         float64 // accepted by the pool after headroom clamp
	Fallback       bool    // phase 2 ran
	Faults         int
	LegacyCharging bool
}

// Produced returns total production before the penalty.
func (r Result) Produced() float64 {
	return r.Renewable + r.NonRenewable
}

type namedCharger struct {
	name    string
	charger Charger
}

// Arbiter drives the charging protocol for one owner.
type Arbiter struct {
	owner    Owner
	pool     EnergyPool
	registry *Registry
	logger   *slog.Logger
	legacy   func(Owner) bool

	settings Settings

	initOnce    sync.Once
	initialized atomic.Bool

	renewable    []namedCharger
	nonRenewable []namedCharger
	byName       map[string]Charger

	requiresLegacy bool
}

// NewArbiter creates an uninitialized arbiter. Call Initialize before the first Tick.
func NewArbiter(owner Owner, pool EnergyPool, opts Options) *Arbiter {
	reg := opts.Registry
	if reg == nil {
		reg = Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if owner != nil {
		logger = logger.With("owner", owner.Name())
	}

	a := &Arbiter{
		owner:    owner,
		pool:     pool,
		registry: reg,
		logger:   logger,
		legacy:   opts.LegacyCharging,
		byName:   make(map[string]Charger),
	}
	settings := DefaultSettings()
	if opts.Settings != nil {
		settings = *opts.Settings
	}
	a.settings = Settings{
		RechargePenalty:      clampPenalty(settings.RechargePenalty),
		MinimumEnergyDeficit: settings.MinimumEnergyDeficit,
	}
	return a
}

// Initialize builds one charger per registered factory. Repeated and concurrent calls
// after the first are no-ops; the registry is read exactly once.
func (a *Arbiter) Initialize() {
	a.initOnce.Do(a.initialize)
}

// Initialized reports whether Initialize has completed.
func (a *Arbiter) Initialized() bool {
	return a.initialized.Load()
}

func (a *Arbiter) initialize() {
	entries := a.registry.snapshot()
	a.logger.Debug("initializing chargers", "factories", len(entries))

	for _, e := range entries {
		charger, err := a.construct(e)
		if err != nil {
			a.logger.Warn("charger construction failed", "charger", e.name, "error", err)
			continue
		}

		nc := namedCharger{name: e.name, charger: charger}
		if charger.IsRenewable() {
			a.renewable = append(a.renewable, nc)
		} else {
			a.nonRenewable = append(a.nonRenewable, nc)
		}
		a.byName[e.name] = charger
		a.logger.Debug("created charger", "charger", e.name, "renewable", charger.IsRenewable())
	}

	if a.legacy != nil {
		a.requiresLegacy = a.legacy(a.owner)
	}

	a.initialized.Store(true)
}

func (a *Arbiter) construct(e registration) (charger Charger, err error) {
	defer func() {
		if v := recover(); v != nil {
			charger, err = nil, recovered(v)
		}
	}()

	charger, err = e.factory.NewCharger(a.owner)
	if err != nil {
		return nil, err
	}
	if charger == nil || isNilValue(charger) {
		return nil, ErrNilCharger
	}
	return charger, nil
}

func isNilValue(c Charger) bool {
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Tick runs one arbitration cycle.
func (a *Arbiter) Tick(frame Frame) Result {
	if frame.Paused() {
		return Result{Skipped: true}
	}
	if !a.Initialized() {
		a.logger.Debug("tick before initialization ignored")
		return Result{Skipped: true}
	}

	res := Result{LegacyCharging: a.requiresLegacy}

	// Exempt modes still run the chargers with zero deficit so each decides its own no-op.
	if frame.RequiresPower() {
		res.Deficit = a.pool.MaxEnergy() - a.pool.CurrentEnergy()
		if res.Deficit < 0 {
			res.Deficit = 0
		}
	}

	for _, nc := range a.renewable {
		res.Renewable += a.produce(nc, res.Deficit, &res.Faults)
	}

	if res.Renewable < MinimalPowerValue && res.Deficit > a.settings.MinimumEnergyDeficit {
		res.Fallback = true
		for _, nc := range a.nonRenewable {
			res.NonRenewable += a.produce(nc, res.Deficit, &res.Faults)
		}
	}

	if produced := res.Produced(); produced > MinimalPowerValue {
		res.Committed = produced * a.settings.RechargePenalty
		res.Stored = a.pool.AddEnergy(res.Committed)
	}

	for _, nc := range a.renewable {
		a.updateStatus(nc, &res.Faults)
	}
	for _, nc := range a.nonRenewable {
		a.updateStatus(nc, &res.Faults)
	}

	return res
}

// produce calls ProducePower with fault isolation. Faults count as zero production.
func (a *Arbiter) produce(nc namedCharger, deficit float64, faults *int) (out float64) {
	defer func() {
		if v := recover(); v != nil {
			*faults++
			a.logger.Warn("charger produce failed", "charger", nc.name, "error", recovered(v))
			out = 0
		}
	}()

	power, err := nc.charger.ProducePower(deficit)
	if err != nil {
		*faults++
		a.logger.Warn("charger produce failed", "charger", nc.name, "error", fmt.Errorf("%w: %w", ErrChargerFault, err))
		return 0
	}
	if math.IsNaN(power) || math.IsInf(power, 0) {
		*faults++
		a.logger.Warn("charger produce failed", "charger", nc.name, "error", fmt.Errorf("%w: non-finite power %v", ErrChargerFault, power))
		return 0
	}
	if power < 0 {
		return 0
	}
	return power
}

func (a *Arbiter) updateStatus(nc namedCharger, faults *int) {
	defer func() {
		if v := recover(); v != nil {
			*faults++
			a.logger.Warn("charger status update failed", "charger", nc.name, "error", recovered(v))
		}
	}()
	nc.charger.UpdateStatus()
}

// TotalReserveEnergy sums reserve energy over all chargers. It has no side effects.
func (a *Arbiter) TotalReserveEnergy() float64 {
	if !a.Initialized() {
		return 0
	}
	var total float64
	for _, nc := range a.renewable {
		total += nc.charger.TotalReserveEnergy()
	}
	for _, nc := range a.nonRenewable {
		total += nc.charger.TotalReserveEnergy()
	}
	return total
}

// TotalReservePower is TotalReserveEnergy floored for display.
func (a *Arbiter) TotalReservePower() int {
	return int(math.Floor(a.TotalReserveEnergy()))
}

// Charger returns the charger created from the named factory.
func (a *Arbiter) Charger(name string) (Charger, bool) {
	if !a.Initialized() {
		return nil, false
	}
	c, ok := a.byName[name]
	return c, ok
}

// Find returns the named charger as type T.
func Find[T Charger](a *Arbiter, name string) (T, bool) {
	var zero T
	c, ok := a.Charger(name)
	if !ok {
		return zero, false
	}
	t, ok := c.(T)
	return t, ok
}

// Chargers returns all chargers, renewable first, each set in registration order.
func (a *Arbiter) Chargers() []Charger {
	if !a.Initialized() {
		return nil
	}
	out := make([]Charger, 0, len(a.renewable)+len(a.nonRenewable))
	for _, nc := range a.renewable {
		out = append(out, nc.charger)
	}
	for _, nc := range a.nonRenewable {
		out = append(out, nc.charger)
	}
	return out
}

// ChargerNames returns charger names in the same order as Chargers.
func (a *Arbiter) ChargerNames() []string {
	if !a.Initialized() {
		return nil
	}
	out := make([]string, 0, len(a.renewable)+len(a.nonRenewable))
	for _, nc := range a.renewable {
		out = append(out, nc.name)
	}
	for _, nc := range a.nonRenewable {
		out = append(out, nc.name)
	}
	return out
}

// ChargerCount returns the number of constructed chargers.
func (a *Arbiter) ChargerCount() int {
	return len(a.renewable) + len(a.nonRenewable)
}

// RenewableCount returns the size of the renewable set.
func (a *Arbiter) RenewableCount() int {
	return len(a.renewable)
}

// Settings returns the current arbitration settings.
func (a *Arbiter) Settings() Settings {
	return a.settings
}

// SetRechargePenalty changes the penalty multiplier, clamped to [0, 1].
func (a *Arbiter) SetRechargePenalty(penalty float64) {
	a.settings.RechargePenalty = clampPenalty(penalty)
}

// RequiresLegacyCharging reports the flag resolved at initialization.
func (a *Arbiter) RequiresLegacyCharging() bool {
	return a.requiresLegacy
}

func clampPenalty(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
