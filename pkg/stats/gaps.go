package stats

// GapStats summarizes coverage gaps in one time-ordered sample sequence.
// All durations share the unit of the input timestamps.
type GapStats struct {
	// Span is the distance between the first and last sample.
	Span int64
	// GapSum is the total duration of all deltas exceeding the threshold.
	GapSum int64
	// GapCount is the number of deltas exceeding the threshold.
	GapCount int64
	// MaxGap is the largest single gap (0 when there are no gaps).
	MaxGap int64
}

// Completeness returns the covered fraction of the span as a percentage
// in [0, 100]. The second return value is false when the span is zero,
// in which case completeness is undefined.
func (g GapStats) Completeness() (float64, bool) {
	if g.Span <= 0 {
		return 0, false
	}

	return float64(g.Span-g.GapSum) / float64(g.Span) * 100, true
}

// AnalyzeGaps computes gap statistics for a time-ordered sequence of sample
// timestamps. A delta between consecutive samples strictly greater than
// threshold counts as a gap. Sequences with fewer than two samples or a zero
// span carry no signal; the second return value is false for those.
//
// Aggregation across many series must sum spans and gap durations before
// dividing. Averaging per-series completeness percentages would weight a
// two-sample series the same as one with millions of samples.
func AnalyzeGaps(timestamps []int64, threshold int64) (GapStats, bool) {
	if len(timestamps) < 2 {
		return GapStats{}, false
	}

	g := GapStats{Span: timestamps[len(timestamps)-1] - timestamps[0]}
	if g.Span <= 0 {
		return GapStats{}, false
	}

	for i := 1; i < len(timestamps); i++ {
		delta := timestamps[i] - timestamps[i-1]
		if delta > threshold {
			g.GapSum += delta
			g.GapCount++

			if delta > g.MaxGap {
				g.MaxGap = delta
			}
		}
	}

	return g, true
}
