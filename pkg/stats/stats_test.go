package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dqaudit/dqaudit/pkg/stats"
)

func TestDescribe_Empty(t *testing.T) {
	t.Parallel()

	s := stats.Describe(nil)
	assert.Equal(t, 0, s.Count)
	assert.InDelta(t, 0, s.Mean, 0.0001)
}

func TestDescribe_SingleValue(t *testing.T) {
	t.Parallel()

	s := stats.Describe([]float64{5})
	assert.Equal(t, 1, s.Count)
	assert.InDelta(t, 5, s.Mean, 0.0001)
	assert.InDelta(t, 0, s.StdDev, 0.0001)
	assert.InDelta(t, 5, s.Min, 0.0001)
	assert.InDelta(t, 5, s.Max, 0.0001)
}

func TestDescribe_KnownValues(t *testing.T) {
	t.Parallel()

	s := stats.Describe([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 8, s.Count)
	assert.InDelta(t, 5, s.Mean, 0.0001)
	assert.InDelta(t, 2, s.StdDev, 0.0001)
	assert.InDelta(t, 2, s.Min, 0.0001)
	assert.InDelta(t, 9, s.Max, 0.0001)
}

func TestWelford_MatchesDescribe(t *testing.T) {
	t.Parallel()

	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	var w stats.Welford
	for _, v := range values {
		w.Observe(v)
	}

	want := stats.Describe(values)
	assert.Equal(t, int64(want.Count), w.Count())
	assert.InDelta(t, want.Mean, w.Mean(), 0.0001)
	assert.InDelta(t, want.StdDev, w.StdDev(), 0.0001)
}

func TestAnalyzeGaps_FewerThanTwoSamples(t *testing.T) {
	t.Parallel()

	_, ok := stats.AnalyzeGaps(nil, 5)
	assert.False(t, ok)

	_, ok = stats.AnalyzeGaps([]int64{42}, 5)
	assert.False(t, ok)
}

func TestAnalyzeGaps_ZeroSpan(t *testing.T) {
	t.Parallel()

	_, ok := stats.AnalyzeGaps([]int64{7, 7, 7}, 5)
	assert.False(t, ok)
}

func TestAnalyzeGaps_SingleGap(t *testing.T) {
	t.Parallel()

	g, ok := stats.AnalyzeGaps([]int64{0, 1, 2, 100, 101}, 5)
	assert.True(t, ok)
	assert.Equal(t, int64(101), g.Span)
	assert.Equal(t, int64(98), g.GapSum)
	assert.Equal(t, int64(1), g.GapCount)
	assert.Equal(t, int64(98), g.MaxGap)

	pct, defined := g.Completeness()
	assert.True(t, defined)
	assert.InDelta(t, 2.9703, pct, 0.001)
}

func TestAnalyzeGaps_NoGaps(t *testing.T) {
	t.Parallel()

	g, ok := stats.AnalyzeGaps([]int64{0, 2, 4, 6}, 5)
	assert.True(t, ok)
	assert.Equal(t, int64(0), g.GapCount)

	pct, defined := g.Completeness()
	assert.True(t, defined)
	assert.InDelta(t, 100, pct, 0.0001)
}

func TestAnalyzeGaps_ThresholdIsExclusive(t *testing.T) {
	t.Parallel()

	// A delta exactly equal to the threshold is not a gap.
	g, ok := stats.AnalyzeGaps([]int64{0, 5, 10}, 5)
	assert.True(t, ok)
	assert.Equal(t, int64(0), g.GapCount)
}
