package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricEntitiesTotal       = "dqaudit.ingest.entities.total"
	metricPagesTotal          = "dqaudit.ingest.pages.total"
	metricPageDuration        = "dqaudit.ingest.page.duration.seconds"
	metricSectionDuration     = "dqaudit.section.duration.seconds"
	metricHistoryFetchesTotal = "dqaudit.history.fetches.total"

	attrEntityType = "entity_type"
	attrOutcome    = "outcome"
	attrSection    = "section"

	// Entity outcomes after dedup.
	outcomeUnique    = "unique"
	outcomeDuplicate = "duplicate"
	outcomeSkipped   = "skipped"

	// Generic success/error outcomes.
	outcomeOK    = "ok"
	outcomeError = "error"
)

// durationBucketBoundaries covers 10ms to 600s: page processing is usually
// sub-second, full section computation over large datasets can take minutes.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// IngestMetrics holds the OTel instruments for ingest and section computation.
type IngestMetrics struct {
	entitiesTotal   metric.Int64Counter
	pagesTotal      metric.Int64Counter
	pageDuration    metric.Float64Histogram
	sectionDuration metric.Float64Histogram
	historyFetches  metric.Int64Counter
}

// NewIngestMetrics creates ingest metric instruments from the given meter.
func NewIngestMetrics(mt metric.Meter) (*IngestMetrics, error) {
	b := newMetricBuilder(mt)

	im := &IngestMetrics{
		entitiesTotal:   b.counter(metricEntitiesTotal, "Entities processed by type and dedup outcome", "{entity}"),
		pagesTotal:      b.counter(metricPagesTotal, "Pages fetched by entity type", "{page}"),
		pageDuration:    b.histogram(metricPageDuration, "Per-page processing duration in seconds", "s", durationBucketBoundaries...),
		sectionDuration: b.histogram(metricSectionDuration, "Per-section computation duration in seconds", "s", durationBucketBoundaries...),
		historyFetches:  b.counter(metricHistoryFetchesTotal, "Execution-history fetches by outcome", "{fetch}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return im, nil
}

// RecordPage records one processed page with its dedup outcome counts.
// Safe to call on a nil receiver (no-op).
func (im *IngestMetrics) RecordPage(
	ctx context.Context,
	entityType string,
	unique, duplicates, skipped int64,
	duration time.Duration,
) {
	if im == nil {
		return
	}

	typeAttr := attribute.String(attrEntityType, entityType)

	im.entitiesTotal.Add(ctx, unique, metric.WithAttributes(
		typeAttr, attribute.String(attrOutcome, outcomeUnique)))
	im.entitiesTotal.Add(ctx, duplicates, metric.WithAttributes(
		typeAttr, attribute.String(attrOutcome, outcomeDuplicate)))
	im.entitiesTotal.Add(ctx, skipped, metric.WithAttributes(
		typeAttr, attribute.String(attrOutcome, outcomeSkipped)))

	im.pagesTotal.Add(ctx, 1, metric.WithAttributes(typeAttr))
	im.pageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(typeAttr))
}

// RecordSection records one section computation.
// Safe to call on a nil receiver (no-op).
func (im *IngestMetrics) RecordSection(ctx context.Context, section string, failed bool, duration time.Duration) {
	if im == nil {
		return
	}

	outcome := outcomeOK
	if failed {
		outcome = outcomeError
	}

	im.sectionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(attrSection, section),
		attribute.String(attrOutcome, outcome),
	))
}

// RecordHistoryFetches records execution-history fetch outcomes.
// Safe to call on a nil receiver (no-op).
func (im *IngestMetrics) RecordHistoryFetches(ctx context.Context, succeeded, failed int64) {
	if im == nil {
		return
	}

	im.historyFetches.Add(ctx, succeeded, metric.WithAttributes(
		attribute.String(attrOutcome, outcomeOK)))
	im.historyFetches.Add(ctx, failed, metric.WithAttributes(
		attribute.String(attrOutcome, outcomeError)))
}
