// Package stats provides small statistical helpers used by the metric
// computers: descriptive summaries, running means, and time-series gap
// analysis.
package stats

import "math"

// Summary holds descriptive statistics for a sample.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Describe computes count, mean, population standard deviation, min and max
// for the given values. An empty input yields a zero Summary.
func Describe(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	s := Summary{
		Count: len(values),
		Min:   values[0],
		Max:   values[0],
	}

	var sum float64
	for _, v := range values {
		sum += v

		if v < s.Min {
			s.Min = v
		}

		if v > s.Max {
			s.Max = v
		}
	}

	s.Mean = sum / float64(len(values))

	var sqDiff float64
	for _, v := range values {
		d := v - s.Mean
		sqDiff += d * d
	}

	s.StdDev = math.Sqrt(sqDiff / float64(len(values)))

	return s
}

// Welford accumulates a running mean and variance without storing samples.
type Welford struct {
	n    int64
	mean float64
	m2   float64
}

// Observe feeds one value into the accumulator.
func (w *Welford) Observe(v float64) {
	w.n++
	delta := v - w.mean
	w.mean += delta / float64(w.n)
	w.m2 += delta * (v - w.mean)
}

// Count returns the number of observed values.
func (w *Welford) Count() int64 {
	return w.n
}

// Mean returns the running mean (0 before any observation).
func (w *Welford) Mean() float64 {
	return w.mean
}

// StdDev returns the running population standard deviation.
func (w *Welford) StdDev() float64 {
	if w.n == 0 {
		return 0
	}

	return math.Sqrt(w.m2 / float64(w.n))
}
