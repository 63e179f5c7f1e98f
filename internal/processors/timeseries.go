package processors

import (
	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/entity"
	"github.com/dqaudit/dqaudit/pkg/stats"
)

// TimeSeriesProcessor folds time-series pages. Gap analysis runs per series
// at ingest time and only its sums survive in the accumulator (span, gap
// duration, gap count). Dividing is deferred to the section computer so that
// aggregation across shards stays a plain sum.
type TimeSeriesProcessor struct {
	// GapThreshold is the minimum inter-sample delta counted as a gap.
	GapThreshold int64
}

// Type implements Processor.
func (p *TimeSeriesProcessor) Type() entity.Type {
	return entity.TypeTimeSeries
}

// Process implements Processor.
func (p *TimeSeriesProcessor) Process(batch entity.Batch, acc *accumulator.Accumulator) {
	for _, e := range batch.Items {
		if !acc.Observe(entity.TypeTimeSeries, e.ID) {
			continue
		}

		if unit := e.Props.String("unit", ""); unit != "" {
			acc.IncHist(accumulator.KeyTSUnits, unit)
		}

		if e.Props.Bool("isString", false) {
			acc.AddCounter(accumulator.KeyTSString, 1)
		}

		if assetID := e.Props.String("assetId", ""); assetID != "" {
			acc.AddLink(accumulator.KeyTSAssetLinks, e.ID, assetID)
		}

		g, ok := stats.AnalyzeGaps(e.Props.Int64s("sampleTimestamps"), p.GapThreshold)
		if !ok {
			acc.AddCounter(accumulator.KeyTSSkipped, 1)

			continue
		}

		acc.AddCounter(accumulator.KeyTSMeasured, 1)
		acc.AddCounter(accumulator.KeyTSSpanSum, g.Span)
		acc.AddCounter(accumulator.KeyTSGapSum, g.GapSum)
		acc.AddCounter(accumulator.KeyTSGapCount, g.GapCount)

		if g.GapCount > 0 {
			acc.AddCounter(accumulator.KeyTSWithGaps, 1)
		}
	}
}
