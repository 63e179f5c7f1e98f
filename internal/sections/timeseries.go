package sections

import (
	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/document"
	"github.com/dqaudit/dqaudit/internal/entity"
)

// TimeSeries computes coverage-gap statistics from the sums folded in at
// ingest time. Completeness is derived from aggregate span and gap totals,
// never from averaging per-series percentages: a two-sample series must not
// weigh as much as one with millions of samples.
type TimeSeries struct{}

// Name implements Section.
func (t *TimeSeries) Name() string {
	return NameTimeSeries
}

// EntityTypes implements Section.
func (t *TimeSeries) EntityTypes() []entity.Type {
	return []entity.Type{entity.TypeTimeSeries}
}

// Compute implements Section.
func (t *TimeSeries) Compute(acc *accumulator.Accumulator) (document.SectionMetrics, error) {
	unique := acc.Counts(entity.TypeTimeSeries).Unique
	measured := acc.Counter(accumulator.KeyTSMeasured)
	spanSum := acc.Counter(accumulator.KeyTSSpanSum)
	gapSum := acc.Counter(accumulator.KeyTSGapSum)
	gapCount := acc.Counter(accumulator.KeyTSGapCount)

	metrics := document.SectionMetrics{
		"series_total":      unique,
		"series_measured":   measured,
		"series_skipped":    acc.Counter(accumulator.KeyTSSkipped),
		"series_with_gaps":  acc.Counter(accumulator.KeyTSWithGaps),
		"gap_count":         gapCount,
		"gap_duration_sum":  gapSum,
		"span_sum":          spanSum,
		"asset_link_rate":   document.Rate(acc.LinkCount(accumulator.KeyTSAssetLinks), unique),
		"string_valued":     acc.Counter(accumulator.KeyTSString),
		"unit_distribution": acc.Hist(accumulator.KeyTSUnits),
		"gap_rate":          document.Rate(acc.Counter(accumulator.KeyTSWithGaps), measured),
	}

	// Undefined when nothing was measurable; null, never 0%.
	if spanSum > 0 {
		metrics["completeness_pct"] = document.Pct(float64(spanSum-gapSum) / float64(spanSum) * 100)
	} else {
		metrics["completeness_pct"] = (*float64)(nil)
	}

	if gapCount > 0 {
		mean := float64(gapSum) / float64(gapCount)
		metrics["mean_gap_duration"] = &mean
	} else {
		metrics["mean_gap_duration"] = (*float64)(nil)
	}

	return metrics, nil
}
