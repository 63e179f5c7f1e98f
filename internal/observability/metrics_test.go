package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/dqaudit/dqaudit/internal/observability"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)

	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			out[m.Name] = m
		}
	}

	return out
}

func sumInt64(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestIngestMetrics_RecordPage(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	im, err := observability.NewIngestMetrics(meter)
	require.NoError(t, err)

	im.RecordPage(context.Background(), "asset", 95, 3, 2, 150*time.Millisecond)
	im.RecordPage(context.Background(), "asset", 100, 0, 0, 90*time.Millisecond)

	metrics := collect(t, reader)

	assert.Equal(t, int64(200), sumInt64(t, metrics["dqaudit.ingest.entities.total"]))
	assert.Equal(t, int64(2), sumInt64(t, metrics["dqaudit.ingest.pages.total"]))

	hist, ok := metrics["dqaudit.ingest.page.duration.seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
}

func TestIngestMetrics_RecordSectionAndHistory(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	im, err := observability.NewIngestMetrics(meter)
	require.NoError(t, err)

	im.RecordSection(context.Background(), "hierarchy", false, 2*time.Second)
	im.RecordSection(context.Background(), "timeseries", true, time.Second)
	im.RecordHistoryFetches(context.Background(), 40, 2)

	metrics := collect(t, reader)

	hist, ok := metrics["dqaudit.section.duration.seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, 2)

	assert.Equal(t, int64(42), sumInt64(t, metrics["dqaudit.history.fetches.total"]))
}

func TestIngestMetrics_NilReceiverIsNoop(t *testing.T) {
	t.Parallel()

	var im *observability.IngestMetrics

	im.RecordPage(context.Background(), "asset", 1, 0, 0, time.Millisecond)
	im.RecordSection(context.Background(), "files", false, time.Millisecond)
	im.RecordHistoryFetches(context.Background(), 1, 0)
}
