package chargers

import (
	"image/color"
	"testing"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{12.2, "13"},
		{9999, "9999"},
		{12345, "12.3K"},
		{25000000, "25.0M"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNumberColor(t *testing.T) {
	tests := []struct {
		name            string
		value, max, min float64
		want            color.RGBA
	}{
		{"above max", 101, 100, 0, ColorWhite},
		{"at min", 0, 100, 0, ColorRed},
		{"below min", -5, 100, 0, ColorRed},
		{"at max", 100, 100, 0, color.RGBA{G: 204, A: 255}},
		{"halfway", 50, 100, 0, color.RGBA{R: 204, G: 204, A: 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NumberColor(tt.value, tt.max, tt.min); got != tt.want {
				t.Errorf("NumberColor = %+v, want %+v", got, tt.want)
			}
		})
	}
}
