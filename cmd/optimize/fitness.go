package main

import (
	"io"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/cyclops-charge/config"
	"github.com/pthm-cable/cyclops-charge/sim"
	"github.com/pthm-cable/cyclops-charge/telemetry"
)

// FitnessEvaluator runs headless fleets and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int32
	seeds      []int64
	configPath string

	mu          sync.Mutex
	bestFitness float64
	bestSummary *sim.Summary
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, configPath string) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		configPath:  configPath,
		bestFitness: math.Inf(1),
	}
}

// BestSummary returns the fleet summary of the best seed from the best evaluation.
func (fe *FitnessEvaluator) BestSummary() *sim.Summary {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestSummary
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the results from a single fleet run.
type runResult struct {
	summary     sim.Summary
	windowStats []telemetry.WindowStats // collected via StatsCallback each window
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
	summary sim.Summary
}

// Evaluate computes fitness for a parameter vector (lower = better).
// A failed run scores +Inf.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))

	// Seeds share nothing but the parameter vector.
	var g errgroup.Group
	for i, seed := range fe.seeds {
		g.Go(func() error {
			result, err := fe.runSimulation(x, seed)
			if err != nil {
				return err
			}
			quality := computeQuality(result.windowStats)
			results[i] = seedResult{
				fitness: computeFitness(result.summary, quality),
				quality: quality,
				summary: result.summary,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Warn("evaluation failed", "error", err)
		return math.Inf(1)
	}

	// Aggregate results
	var totalFitness, totalQuality float64
	bestSeed := 0
	for i, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if r.fitness < results[bestSeed].fitness {
			bestSeed = i
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		best := results[bestSeed].summary
		fe.bestSummary = &best
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless run for maxTicks.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) (*runResult, error) {
	cfg, err := fe.loadConfig()
	if err != nil {
		return nil, err
	}
	fe.params.Apply(cfg, x)

	result := &runResult{}

	fleet, err := sim.NewFleet(sim.Options{
		Config: cfg,
		Seed:   seed,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		return nil, err
	}
	defer fleet.Close()

	if err := fleet.RunTicks(fe.maxTicks); err != nil {
		return nil, err
	}

	result.summary = fleet.Summary()
	return result, nil
}

// loadConfig returns a fresh copy of the base config for one run.
func (fe *FitnessEvaluator) loadConfig() (*config.Config, error) {
	return config.Load(fe.configPath)
}

// Fitness weights.
const (
	fitnessWeightBrownout = 100.0 // per fraction of sub-ticks browned out
	fitnessWeightReserve  = 1.0   // per fraction of produced energy drawn from reserves
	fitnessWeightQuality  = 0.5
)

// computeFitness calculates the scalar fitness (lower = better).
// Brownouts dominate; among configs that keep the engines running, the one
// spending the least reserve energy and holding the healthiest charge wins.
func computeFitness(s sim.Summary, quality float64) float64 {
	subTicks := float64(s.Ticks) * float64(len(s.Subs))
	if subTicks == 0 {
		return math.Inf(1)
	}
	brownoutFrac := float64(s.Brownouts) / subTicks
	reserveFrac := 1 - s.RenewableShare()
	if s.Renewable+s.NonRenewable == 0 {
		reserveFrac = 0
	}
	return fitnessWeightBrownout*brownoutFrac +
		fitnessWeightReserve*reserveFrac -
		fitnessWeightQuality*quality
}

const qualityWarmupWindows = 2 // skip first N windows (warmup)

// computeQuality scores charge health in [0, 1] from window stats: the worst-off
// sub (p10 fill) should stay well charged without the fleet spread getting wide.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}

	valid := windows[qualityWarmupWindows:]
	var sum float64
	for _, w := range valid {
		floor := math.Exp(-math.Pow((w.FillP10-0.8)/0.3, 2))
		spread := math.Exp(-w.FillStd / 0.2)
		sum += 0.7*floor + 0.3*spread
	}
	return clamp01(sum / float64(len(valid)))
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
