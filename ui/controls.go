package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	gui "github.com/gen2brain/raylib-go/raygui"
)

// Controls holds the viewer's adjustable values.
type Controls struct {
	Penalty       float32
	TimeScale     float32
	StepsPerFrame float32
	Paused        bool
}

// ControlsChange reports which controls moved this frame.
type ControlsChange struct {
	Penalty     bool
	TimeScale   bool
	PauseToggle bool
}

// ControlsPanel renders the arbitration sliders and pause button.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// Draw renders the controls, updates c in place and returns the Y below the panel.
func (p *ControlsPanel) Draw(c *Controls) (int32, ControlsChange) {
	r := p.renderer
	var ch ControlsChange

	x := float32(p.x)
	y := r.DrawTitle(p.x, p.y, "Arbitration")
	sliderWidth := float32(p.width - 80)

	slider := func(label, minLabel, maxLabel, format string, v, min, max float32) float32 {
		y = r.DrawLine(p.x, y, label) + 2
		nv := gui.SliderBar(rl.Rectangle{X: x, Y: float32(y), Width: sliderWidth, Height: 20}, minLabel, maxLabel, v, min, max)
		r.DrawValueRight(p.x+p.width-70, y, format, nv)
		y += 35
		return nv
	}

	if v := slider("Recharge penalty", "0", "1", "%.2f", c.Penalty, 0, 1); v != c.Penalty {
		c.Penalty = v
		ch.Penalty = true
	}
	if v := slider("Time scale", "0", "4", "%.2f", c.TimeScale, 0, 4); v != c.TimeScale {
		c.TimeScale = v
		ch.TimeScale = true
	}
	c.StepsPerFrame = slider("Steps per frame", "1", "200", "%.0f", c.StepsPerFrame, 1, 200)
	y += 5

	label := "Pause"
	if c.Paused {
		label = "Resume"
	}
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: 120, Height: 30}, label) {
		c.Paused = !c.Paused
		ch.PauseToggle = true
	}
	return y + 50, ch
}
