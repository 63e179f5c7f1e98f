package document_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqaudit/dqaudit/internal/document"
)

func sampleDocument(runID string) *document.Document {
	doc := document.New(runID)
	doc.Metadata.ComputedAt = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	doc.Metadata.ExecutionTimeSeconds = 12.5
	doc.Metadata.InstanceCounts["asset"] = document.InstanceCount{Total: 100, Unique: 95, Duplicates: 5}
	doc.Sections["hierarchy"] = document.SectionMetrics{
		"max_depth":  float64(4),
		"root_count": float64(2),
	}
	doc.Sections["timeseries"] = document.SectionMetrics{
		"completeness_pct": 97.3,
	}

	return doc
}

func TestDocument_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	doc := sampleDocument("run-1")

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"hierarchy_metrics"`)
	assert.Contains(t, string(data), `"timeseries_metrics"`)

	var got document.Document
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, doc.Metadata.RunID, got.Metadata.RunID)
	assert.Equal(t, []string{"hierarchy", "timeseries"}, got.SectionNames())
	assert.Equal(t, doc.Sections["hierarchy"], got.Sections["hierarchy"])
}

func TestRate_NullPropagation(t *testing.T) {
	t.Parallel()

	// Zero denominator means "not applicable", never 0%.
	assert.Nil(t, document.Rate(0, 0))
	assert.Nil(t, document.Rate(5, 0))

	got := document.Rate(1, 4)
	require.NotNil(t, got)
	assert.InDelta(t, 25, *got, 0.0001)

	zero := document.Rate(0, 4)
	require.NotNil(t, zero)
	assert.InDelta(t, 0, *zero, 0.0001)
}

func TestRate_SerializesAsNull(t *testing.T) {
	t.Parallel()

	doc := document.New("run-1")
	doc.Sections["equipment"] = document.SectionMetrics{
		"critical_coverage_rate": document.Rate(0, 0),
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"critical_coverage_rate":null`)
}

func TestMergeSelective_PassThrough(t *testing.T) {
	t.Parallel()

	cached := sampleDocument("run-old")
	cached.Metadata.InstanceCounts["timeseries"] = document.InstanceCount{Total: 10, Unique: 10}

	fresh := document.New("run-new")
	fresh.Metadata.ComputedAt = time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	fresh.Metadata.ExecutionTimeSeconds = 0.1

	merged := document.MergeSelective(cached, fresh, nil, nil)

	// Identical to the cached document except run metadata.
	assert.Equal(t, cached.Sections, merged.Sections)
	assert.Equal(t, cached.Metadata.InstanceCounts, merged.Metadata.InstanceCounts)
	assert.Equal(t, "run-new", merged.Metadata.RunID)
	assert.True(t, merged.Metadata.PartialRecompute)
	assert.Empty(t, merged.Metadata.RecomputedSections)
	assert.NotEqual(t, cached.Metadata.ComputedAt, merged.Metadata.ComputedAt)
}

func TestMergeSelective_OverwritesRequestedSections(t *testing.T) {
	t.Parallel()

	cached := sampleDocument("run-old")
	cached.Metadata.InstanceCounts["timeseries"] = document.InstanceCount{Total: 10, Unique: 10}

	fresh := document.New("run-new")
	fresh.Sections["timeseries"] = document.SectionMetrics{"completeness_pct": 50.0}
	fresh.Metadata.InstanceCounts["timeseries"] = document.InstanceCount{Total: 20, Unique: 19, Duplicates: 1}

	merged := document.MergeSelective(cached, fresh, []string{"timeseries"}, map[string][]string{
		"timeseries": {"timeseries"},
	})

	assert.Equal(t, cached.Sections["hierarchy"], merged.Sections["hierarchy"])
	assert.Equal(t, fresh.Sections["timeseries"], merged.Sections["timeseries"])
	assert.Equal(t, []string{"timeseries"}, merged.Metadata.RecomputedSections)

	// The recomputed section's types take fresh counts; cached types stay.
	assert.Equal(t, int64(20), merged.Metadata.InstanceCounts["timeseries"].Total)
	assert.Equal(t, int64(100), merged.Metadata.InstanceCounts["asset"].Total)
}

func TestValidate_AcceptsWellFormedDocument(t *testing.T) {
	t.Parallel()

	doc := sampleDocument("run-1")
	require.NoError(t, document.Validate(doc))
}

func TestValidate_RejectsMalformedMetadata(t *testing.T) {
	t.Parallel()

	doc := sampleDocument("run-1")
	doc.Metadata.ExecutionTimeSeconds = -1

	err := document.Validate(doc)
	require.ErrorIs(t, err, document.ErrSchemaViolation)
}

func TestValidate_RejectsNegativeCounts(t *testing.T) {
	t.Parallel()

	doc := sampleDocument("run-1")
	doc.Metadata.InstanceCounts["asset"] = document.InstanceCount{Total: -5}

	err := document.Validate(doc)
	require.ErrorIs(t, err, document.ErrSchemaViolation)
}
