package telemetry

import (
	"math"
	"testing"
)

func TestComputeFillStats(t *testing.T) {
	tests := []struct {
		name                string
		values              []float64
		mean, p10, p50, p90 float64
	}{
		{"single", []float64{0.4}, 0.4, 0.4, 0.4, 0.4},
		{"odd", []float64{5, 1, 3, 2, 4}, 3, 1, 3, 5},
		{"ten", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 5.5, 1, 5, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, _, p10, p50, p90 := ComputeFillStats(tt.values)
			if math.Abs(mean-tt.mean) > 0.001 {
				t.Errorf("mean = %v, want %v", mean, tt.mean)
			}
			if math.Abs(p10-tt.p10) > 0.001 {
				t.Errorf("p10 = %v, want %v", p10, tt.p10)
			}
			if math.Abs(p50-tt.p50) > 0.001 {
				t.Errorf("p50 = %v, want %v", p50, tt.p50)
			}
			if math.Abs(p90-tt.p90) > 0.001 {
				t.Errorf("p90 = %v, want %v", p90, tt.p90)
			}
		})
	}
}

func TestComputeFillStatsDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	ComputeFillStats(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("input was modified: %v", values)
	}
}

func TestComputeFillStatsStd(t *testing.T) {
	_, std, _, _, _ := ComputeFillStats([]float64{0.4})
	if std != 0 {
		t.Errorf("single value std = %v, want 0", std)
	}

	_, std, _, _, _ = ComputeFillStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	// Sample standard deviation
	if math.Abs(std-2.138) > 0.001 {
		t.Errorf("std = %v, want ~2.138", std)
	}
}

func TestComputeFillStatsEmpty(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeFillStats(nil)
	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
	if Sum(nil) != 0 {
		t.Error("Sum(nil) should be 0")
	}
	if Sum([]float64{1, 2, 3.5}) != 6.5 {
		t.Error("Sum mismatch")
	}
}
