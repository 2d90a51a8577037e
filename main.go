package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/cyclops-charge/chargers"
	"github.com/pthm-cable/cyclops-charge/charging"
	"github.com/pthm-cable/cyclops-charge/config"
	"github.com/pthm-cable/cyclops-charge/sim"
	"github.com/pthm-cable/cyclops-charge/telemetry"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "cyclops-charge",
		Short: "Submarine charge arbitration simulator",
		Long: `Runs a fleet of submarines whose power cells are topped up each tick by
competing chargers: renewables first, finite reserves only when needed.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Initialize config before anything else
			return config.Init(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (empty = use defaults)")

	rootCmd.AddCommand(newRunCmd(), newChargersCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var (
		seed      int64
		maxTicks  int
		outputDir string
		logStats  bool
		penalty   float64
		timeScale float64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the fleet headless and print a charge summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Cfg()

			// Set up seed
			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			// Set up slog (JSON to stdout for structured logging)
			logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
			slog.SetDefault(logger)

			fleet, err := sim.NewFleet(sim.Options{
				Config:    cfg,
				Seed:      seed,
				OutputDir: outputDir,
				Logger:    logger,
				LogStats:  logStats,
			})
			if err != nil {
				return err
			}
			defer fleet.Close()

			if cmd.Flags().Changed("penalty") {
				fleet.SetRechargePenalty(penalty)
			}
			if cmd.Flags().Changed("time-scale") {
				fleet.SetTimeScale(timeScale)
			}

			slog.Info("starting headless simulation",
				"seed", seed,
				"max_ticks", maxTicks,
				"penalty", fleet.RechargePenalty(),
			)

			if err := fleet.RunTicks(int32(maxTicks)); err != nil {
				return err
			}
			slog.Info("max ticks reached", "tick", fleet.Tick())

			printSummary(fleet.Summary())
			printBookmarks(fleet.Bookmarks())
			return nil
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed (0 = time-based)")
	cmd.Flags().IntVar(&maxTicks, "max-ticks", 24000, "Stop after N ticks")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Output directory for CSV logs and config snapshot")
	cmd.Flags().BoolVar(&logStats, "log-stats", false, "Output window stats via slog")
	cmd.Flags().Float64Var(&penalty, "penalty", 1, "Override charge.recharge_penalty")
	cmd.Flags().Float64Var(&timeScale, "time-scale", 1, "Override simulation.time_scale")
	return cmd
}

func newChargersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chargers [name...]",
		Short: "List the stock chargers, or look up chargers by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Cfg()

			// Keep registration chatter off the table output.
			reg := charging.NewRegistry()
			reg.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
			chargers.RegisterDefaults(reg, cfg.Chargers)

			printChargers(reg, cfg)

			var missing int
			for _, name := range args {
				if reg.Has(name) {
					color.Green("%s: registered", name)
					continue
				}
				missing++
				if s := reg.Suggest(name); len(s) > 0 {
					color.Red("%s: not registered (did you mean %s?)", name, strings.Join(s, ", "))
				} else {
					color.Red("%s: not registered", name)
				}
			}
			if missing > 0 {
				return fmt.Errorf("%d unknown charger(s)", missing)
			}
			return nil
		},
	}
}

func printChargers(reg *charging.Registry, cfg *config.Config) {
	titleColor := color.New(color.FgCyan, color.Bold)
	titleColor.Println("\nRegistered chargers (arbitration order within each set):")

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Charger", "Kind", "Modules", "Rate"}),
	)

	c := cfg.Chargers
	describe := map[string][]string{
		chargers.NameSolar:      {"renewable", "solar, solar_mk2", fmt.Sprintf("%.2f/module at full light", c.Solar.RatePerModule)},
		chargers.NameThermal:    {"renewable", "thermal, thermal_mk2", fmt.Sprintf("%.2f/module at %.0f°C", c.Thermal.RatePerModule, c.Thermal.MaxTemperature)},
		chargers.NameNuclear:    {"reserve", "nuclear", fmt.Sprintf("%s x %.2f%%", chargers.FormatValue(c.Nuclear.Capacity), c.Nuclear.DrainRate*100)},
		chargers.NameBioReactor: {"reserve", "bioreactor, bio_booster", fmt.Sprintf("%s x %.2f%%", chargers.FormatValue(c.BioReactor.Capacity), c.BioReactor.DrainRate*100)},
		chargers.NameBattery:    {"reserve", "battery", fmt.Sprintf("%s x %.2f%%", chargers.FormatValue(c.Battery.Capacity), c.Battery.DrainRate*100)},
	}

	for _, name := range reg.Names() {
		row := append([]string{name}, describe[name]...)
		_ = table.Append(row)
	}
	_ = table.Render()
}

func printBookmarks(marks []telemetry.Bookmark) {
	if len(marks) == 0 {
		return
	}
	color.New(color.FgCyan, color.Bold).Println("\nBookmarks:")
	for _, b := range marks {
		fmt.Printf("   %7d  %-20s %s\n", b.Tick, b.Type, b.Description)
	}
}

func printSummary(s sim.Summary) {
	titleColor := color.New(color.FgCyan, color.Bold)
	successColor := color.New(color.FgGreen, color.Bold)
	warnColor := color.New(color.FgYellow, color.Bold)

	titleColor.Printf("\nFleet summary after %d ticks (%.0f s)\n", s.Ticks, s.SimTime)

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Sub", "Energy", "Fill", "Renewable", "Reserve Used", "Legacy", "Consumed", "Reserve Left", "Fallbacks", "Faults", "Brownouts"}),
	)
	for _, sub := range s.Subs {
		row := []string{
			sub.Name,
			chargers.FormatValue(sub.Energy),
			fmt.Sprintf("%.0f%%", sub.Fill*100),
			fmt.Sprintf("%.1f", sub.Renewable),
			fmt.Sprintf("%.1f", sub.NonRenewable),
			fmt.Sprintf("%.1f", sub.Legacy),
			fmt.Sprintf("%.1f", sub.Consumed),
			chargers.FormatValue(sub.Reserve),
			fmt.Sprintf("%d", sub.Fallbacks),
			fmt.Sprintf("%d", sub.Faults),
			fmt.Sprintf("%d", sub.Brownouts),
		}
		_ = table.Append(row)
	}
	_ = table.Render()

	fmt.Printf("   Renewable share: %.1f%%\n", s.RenewableShare()*100)
	fmt.Printf("   Stored: %.1f  Consumed: %.1f\n", s.Stored, s.Consumed)
	if s.Brownouts > 0 || s.Faults > 0 {
		warnColor.Printf("   %d brownout ticks, %d charger faults\n", s.Brownouts, s.Faults)
		return
	}
	successColor.Println("   No brownouts")
}
