package ui

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cyclops-charge/sim"
	"github.com/pthm-cable/cyclops-charge/telemetry"
)

// HUD renders the fleet totals under the controls.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the run summary and returns the new Y position.
func (h *HUD) Draw(sum sim.Summary, paused bool, x, y int32) int32 {
	r := h.renderer

	status := "Running"
	col := r.Theme.ValueColor
	if paused {
		status = "PAUSED"
		col = r.Theme.SectionHeader
	}
	rl.DrawText(status, x, y, r.Theme.FontSize+2, col)
	y += r.Theme.LineHeight + 2

	y = r.DrawLine(x, y, fmt.Sprintf("Time: %.0fs  Tick: %d", sum.SimTime, sum.Ticks))
	y = r.DrawLine(x, y, fmt.Sprintf("Renewable share: %.1f%%", sum.RenewableShare()*100))
	y = r.DrawLine(x, y, fmt.Sprintf("Fallback ticks: %d", sum.Fallbacks))
	y = r.DrawLine(x, y, fmt.Sprintf("Brownouts: %d  Faults: %d", sum.Brownouts, sum.Faults))
	return y
}

// DrawFooter renders the key legend at the bottom of the screen.
func (h *HUD) DrawFooter(screenHeight int32, x int32, text string) {
	rl.DrawText(text, x, screenHeight-30, h.renderer.Theme.FontSize, h.renderer.Theme.MutedColor)
}

// PerfPanel renders the tick phase breakdown.
type PerfPanel struct {
	renderer *Renderer
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel() *PerfPanel {
	return &PerfPanel{renderer: NewRenderer()}
}

// Draw renders the performance panel and returns the new Y position.
func (p *PerfPanel) Draw(perf telemetry.PerfStats, x, y int32) int32 {
	r := p.renderer
	y = r.DrawSectionHeader(x, y, "Performance")
	y = r.DrawLine(x, y, fmt.Sprintf("FPS: %.0f  Tick: %s  p99 %s", perf.FPS,
		perf.AvgTickDuration.Round(time.Microsecond), perf.P99TickDuration.Round(time.Microsecond)))

	for _, phase := range SortedPhases(perf) {
		pct := perf.PhasePct[phase]
		col := r.Theme.LabelColor
		if pct > 50 {
			col = rl.Red
		} else if pct > 25 {
			col = r.Theme.WarnColor
		}
		rl.DrawText(fmt.Sprintf("%-12s %8s %5.1f%%", phase, perf.PhaseAvg[phase].Round(time.Microsecond), pct), x, y, r.Theme.FontSize, col)
		y += r.Theme.LineHeight - 2
	}
	return y
}

// SortedPhases returns the known phases, slowest first.
func SortedPhases(perf telemetry.PerfStats) []telemetry.Phase {
	phases := slices.Clone(telemetry.Phases)
	slices.SortStableFunc(phases, func(a, b telemetry.Phase) int {
		return cmp.Compare(perf.PhaseAvg[b], perf.PhaseAvg[a])
	})
	return phases
}
