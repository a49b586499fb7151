// Package trends compares current keyword frequencies against a rolling
// weekly baseline and reports the keywords that spiked.
package trends

import "math"

// Mean returns the arithmetic mean, 0 for an empty series
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Stddev returns the sample standard deviation (N-1 denominator).
// Series shorter than two values have no spread and return 0.
func Stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
