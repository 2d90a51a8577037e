package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/cyclops-charge/config"
)

type options struct {
	configPath string
	maxTicks   int
	seeds      int
	maxEvals   int
	population int
	outputDir  string
}

func main() {
	var opts options

	cmd := &cobra.Command{
		Use:          "optimize",
		Short:        "Tune the fallback threshold and reserve drain rates with CMA-ES",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	f.IntVar(&opts.maxTicks, "max-ticks", 48000, "Simulation duration in ticks per run")
	f.IntVar(&opts.seeds, "seeds", 3, "Number of seeds per evaluation")
	f.IntVar(&opts.maxEvals, "max-evals", 100, "Maximum number of evaluations")
	f.IntVar(&opts.population, "population", 0, "CMA-ES population size (0 = auto)")
	f.StringVar(&opts.outputDir, "output", "", "Output directory for results")
	_ = cmd.MarkFlagRequired("output")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// tracker logs every evaluation and remembers the best one.
type tracker struct {
	params    *ParamVector
	evaluator *FitnessEvaluator
	log       *os.File
	header    bool
	maxEvals  int
	start     time.Time

	evals       int
	bestFitness float64
	best        []float64
}

func (t *tracker) observe(x []float64) float64 {
	values := t.params.FromUnit(x)
	fitness := t.evaluator.Evaluate(values)
	quality := t.evaluator.LastQuality()
	t.evals++

	if t.best == nil || fitness < t.bestFitness {
		t.bestFitness = fitness
		t.best = values
	}

	rows := []EvalRecord{t.params.Record(t.evals, fitness, quality, values)}
	var err error
	if t.header {
		err = gocsv.MarshalWithoutHeaders(rows, t.log)
	} else {
		err = gocsv.Marshal(rows, t.log)
		t.header = true
	}
	if err != nil {
		color.Yellow("failed to log evaluation %d: %v", t.evals, err)
	}

	elapsed := time.Since(t.start)
	eta := time.Duration(t.maxEvals-t.evals) * (elapsed / time.Duration(t.evals))
	fmt.Printf("Eval %d/%d: fitness=%.4f quality=%.2f (best=%.4f) | elapsed %s, ETA %s\n",
		t.evals, t.maxEvals, fitness, quality, t.bestFitness,
		elapsed.Round(time.Second), eta.Round(time.Second))
	return fitness
}

func run(opts options) error {
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	baseCfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	params := NewParamVector()
	seeds := make([]int64, opts.seeds)
	for i := range seeds {
		seeds[i] = int64(i*1000 + 42)
	}

	logFile, err := os.Create(filepath.Join(opts.outputDir, "optimize_log.csv"))
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()

	t := &tracker{
		params:    params,
		evaluator: NewFitnessEvaluator(params, int32(opts.maxTicks), seeds, opts.configPath),
		log:       logFile,
		maxEvals:  opts.maxEvals,
		start:     time.Now(),
	}

	popSize := opts.population
	if popSize == 0 {
		popSize = 4 + 3*params.Dim()/2
	}

	fmt.Printf("CMA-ES over %d parameters, population=%d, max_evals=%d, %d seeds x %d ticks\n",
		params.Dim(), popSize, opts.maxEvals, opts.seeds, opts.maxTicks)

	// Seeds already run in parallel inside each evaluation.
	result, err := optimize.Minimize(
		optimize.Problem{Func: t.observe},
		params.ToUnit(params.Extract(baseCfg)),
		&optimize.Settings{FuncEvaluations: opts.maxEvals},
		&optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize},
	)
	if err != nil {
		color.Yellow("optimization ended: %v", err)
	}
	if t.best == nil && result != nil {
		t.best = params.FromUnit(result.X)
	}
	if t.best == nil {
		return fmt.Errorf("no evaluation completed")
	}

	color.New(color.FgCyan, color.Bold).Printf("\nBest of %d evaluations in %s: fitness %.4f\n",
		t.evals, time.Since(t.start).Round(time.Second), t.bestFitness)

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithHeader([]string{"Param", "Base", "Best"}))
	base := params.Extract(baseCfg)
	for i, p := range params.Params {
		_ = table.Append([]string{p.Name, fmt.Sprintf("%.6g", base[i]), fmt.Sprintf("%.6g", t.best[i])})
	}
	_ = table.Render()

	if s := t.evaluator.BestSummary(); s != nil {
		fmt.Printf("Best run: renewable share %.1f%%, %d brownout ticks, min fill %.0f%%\n",
			s.RenewableShare()*100, s.Brownouts, s.MinFill*100)
	}

	params.Apply(baseCfg, t.best)
	out := filepath.Join(opts.outputDir, "best_config.yaml")
	if err := baseCfg.WriteYAML(out); err != nil {
		return err
	}
	color.Green("Best config saved to %s", out)
	return nil
}
