package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cyclops-charge/chargers"
	"github.com/pthm-cable/cyclops-charge/sim"
)

// SubPanel renders one submarine: power bar, ambient readout and charger indicators.
type SubPanel struct {
	renderer *Renderer
	barWidth int32
}

// NewSubPanel creates a sub panel with the given power bar width.
func NewSubPanel(barWidth int32) *SubPanel {
	return &SubPanel{renderer: NewRenderer(), barWidth: barWidth}
}

// Draw renders st at (x, y) and returns the Y below it.
func (p *SubPanel) Draw(st sim.SubState, x, y int32) int32 {
	r := p.renderer

	if st.Legacy {
		rl.DrawText("legacy thermal", x+200, y+4, r.Theme.FontSize, r.Theme.WarnColor)
	}
	y = r.DrawTitle(x, y, st.Name)

	fillCol := ToRL(chargers.NumberColor(st.Fill*100, 99, 5))
	caption := fmt.Sprintf("%s / %s", chargers.FormatValue(st.Energy), chargers.FormatValue(st.Max))
	y = r.DrawFillBar(x, y, p.barWidth, st.Fill, fillCol, caption)

	y = r.DrawLine(x, y, fmt.Sprintf("depth %.0fm  %.1f°C  light %.0f%%  throttle %.0f%%",
		st.Depth, st.Temperature, st.Light*100, st.Throttle*100))
	y = r.DrawLine(x, y, fmt.Sprintf("reserve %d", st.ReservePower))
	y += 4

	for _, c := range st.Chargers {
		if c.Status.Text == "" {
			continue
		}
		label := c.Name
		if !c.Renewable {
			label += " *"
		}
		y = r.DrawLabelValue(x+10, y, label, c.Status.Text, ToRL(c.Status.Color))
	}
	return y + r.Theme.Padding
}

