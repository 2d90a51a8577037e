// Charge viewer - live fleet power bars with arbitration controls.
//
// Usage: go run ./cmd/chargeview [-config path]
package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/cyclops-charge/config"
	"github.com/pthm-cable/cyclops-charge/sim"
	"github.com/pthm-cable/cyclops-charge/ui"
)

const (
	panelWidth = 320
	barWidth   = 220
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 42, "RNG seed")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	fleet, err := sim.NewFleet(sim.Options{Config: cfg, Seed: *seed})
	if err != nil {
		slog.Error("failed to build fleet", "error", err)
		os.Exit(1)
	}
	defer fleet.Close()

	width, height := int32(cfg.Screen.Width), int32(cfg.Screen.Height)
	rl.InitWindow(width, height, "Cyclops Charge")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	theme := ui.DefaultTheme()
	subPanel := ui.NewSubPanel(barWidth)
	controlsPanel := ui.NewControlsPanel(width-panelWidth, 10, panelWidth)
	hud := ui.NewHUD()
	perfPanel := ui.NewPerfPanel()

	controls := ui.Controls{
		Penalty:       float32(fleet.RechargePenalty()),
		TimeScale:     float32(fleet.TimeScale()),
		StepsPerFrame: 20,
	}

	for !rl.WindowShouldClose() {
		fleet.RecordFrame()
		for i := 0; i < int(controls.StepsPerFrame); i++ {
			fleet.Step()
		}

		rl.BeginDrawing()
		rl.ClearBackground(theme.Background)

		y := int32(10)
		for _, st := range fleet.Snapshot() {
			y = subPanel.Draw(st, 10, y)
		}

		controls.Paused = fleet.Paused()
		panelY, changed := controlsPanel.Draw(&controls)
		if changed.Penalty {
			fleet.SetRechargePenalty(float64(controls.Penalty))
		}
		if changed.TimeScale {
			fleet.SetTimeScale(float64(controls.TimeScale))
		}
		if changed.PauseToggle {
			if controls.Paused {
				fleet.SetPaused(true)
			} else {
				// Also lifts a zero time scale, so the slider follows.
				fleet.Resume()
				controls.TimeScale = float32(fleet.TimeScale())
			}
		}

		panelY = hud.Draw(fleet.Summary(), fleet.Paused(), width-panelWidth, panelY)
		perfPanel.Draw(fleet.Perf(), width-panelWidth, panelY+10)

		hud.DrawFooter(height, width-panelWidth, "Press C to copy charge settings as YAML")
		if rl.IsKeyPressed(rl.KeyC) {
			copyChargeYAML(cfg.Charge, controls.Penalty)
		}

		rl.EndDrawing()
	}
}

// copyChargeYAML puts the live charge settings on the clipboard as a config overlay.
func copyChargeYAML(charge config.ChargeConfig, penalty float32) {
	charge.RechargePenalty = float64(penalty)
	data, err := yaml.Marshal(map[string]config.ChargeConfig{"charge": charge})
	if err != nil {
		slog.Warn("failed to marshal charge settings", "error", err)
		return
	}
	rl.SetClipboardText(string(data))
}
