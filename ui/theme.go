// Package ui draws the charge viewer panels with raylib.
package ui

import (
	"fmt"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Theme holds UI styling constants.
type Theme struct {
	Background    rl.Color
	PanelBg       rl.Color
	PanelBorder   rl.Color
	SectionHeader rl.Color
	LabelColor    rl.Color
	ValueColor    rl.Color
	MutedColor    rl.Color
	WarnColor     rl.Color
	BarBg         rl.Color
	Padding       int32
	LineHeight    int32
	LabelWidth    int32
	BarHeight     int32
	FontSize      int32
	TitleFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		Background:    rl.Color{R: 18, G: 24, B: 38, A: 255},
		PanelBg:       rl.Color{R: 20, G: 25, B: 30, A: 240},
		PanelBorder:   rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader: rl.Yellow,
		LabelColor:    rl.LightGray,
		ValueColor:    rl.RayWhite,
		MutedColor:    rl.Gray,
		WarnColor:     rl.Orange,
		BarBg:         rl.Color{R: 40, G: 48, B: 64, A: 255},
		Padding:       10,
		LineHeight:    16,
		LabelWidth:    120,
		BarHeight:     16,
		FontSize:      12,
		TitleFontSize: 18,
	}
}

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawTitle draws a panel title and returns the new Y position.
func (r *Renderer) DrawTitle(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.TitleFontSize, r.Theme.ValueColor)
	return y + r.Theme.TitleFontSize + 6
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.FontSize+2, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight + 2
}

// DrawLine draws a line of muted text and returns the new Y position.
func (r *Renderer) DrawLine(x, y int32, text string) int32 {
	rl.DrawText(text, x, y, r.Theme.FontSize, r.Theme.LabelColor)
	return y + r.Theme.LineHeight
}

// DrawLabelValue draws a label and a coloured value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string, col rl.Color) int32 {
	rl.DrawText(label, x, y, r.Theme.FontSize+2, r.Theme.MutedColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize+2, col)
	return y + r.Theme.LineHeight
}

// DrawFillBar draws a [0, 1] bar with a caption to its right.
func (r *Renderer) DrawFillBar(x, y, width int32, fill float64, col rl.Color, caption string) int32 {
	if fill < 0 {
		fill = 0
	}
	if fill > 1 {
		fill = 1
	}
	h := r.Theme.BarHeight
	rl.DrawRectangle(x, y, width, h, r.Theme.BarBg)
	rl.DrawRectangle(x, y, int32(float64(width)*fill), h, col)
	rl.DrawRectangleLines(x, y, width, h, r.Theme.MutedColor)
	rl.DrawText(caption, x+width+10, y, r.Theme.FontSize+4, r.Theme.ValueColor)
	return y + h + 6
}

// DrawValueRight draws a formatted float right of a control.
func (r *Renderer) DrawValueRight(x, y int32, format string, v float32) {
	rl.DrawText(fmt.Sprintf(format, v), x, y+2, r.Theme.FontSize+4, r.Theme.ValueColor)
}

// ToRL converts an indicator colour to a raylib colour.
func ToRL(c color.RGBA) rl.Color {
	return rl.NewColor(c.R, c.G, c.B, c.A)
}
