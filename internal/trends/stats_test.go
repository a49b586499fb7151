package trends

import (
	"math"
	"testing"
)

func TestMean(t *testing.T) {
	tests := []struct {
		xs       []float64
		expected float64
	}{
		{nil, 0},
		{[]float64{}, 0},
		{[]float64{2, 4, 6}, 4},
		{[]float64{-1, 1}, 0},
	}

	for _, tt := range tests {
		if got := Mean(tt.xs); got != tt.expected {
			t.Errorf("Mean(%v) = %v, expected %v", tt.xs, got, tt.expected)
		}
	}
}

func TestStddev(t *testing.T) {
	tests := []struct {
		xs       []float64
		expected float64
	}{
		{nil, 0},
		{[]float64{5}, 0},
		{[]float64{0, 2}, math.Sqrt2},
		{[]float64{3, 3, 3, 3}, 0},
		{[]float64{2, 4, 4, 4, 5, 5, 7, 9}, 2.13809},
	}

	for _, tt := range tests {
		if got := Stddev(tt.xs); math.Abs(got-tt.expected) > 1e-5 {
			t.Errorf("Stddev(%v) = %v, expected %v", tt.xs, got, tt.expected)
		}
	}
}
