package orchestrator_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/document"
	"github.com/dqaudit/dqaudit/internal/entity"
	"github.com/dqaudit/dqaudit/internal/orchestrator"
	"github.com/dqaudit/dqaudit/internal/sections"
	"github.com/dqaudit/dqaudit/internal/source"
	"github.com/dqaudit/dqaudit/internal/store"
	"github.com/dqaudit/dqaudit/pkg/checkpoint"
	"github.com/dqaudit/dqaudit/pkg/persist"
)

const testDataset = "ds-test"

func asset(id, parent string, critical bool) entity.Entity {
	return entity.Entity{
		Type: entity.TypeAsset,
		ID:   id,
		Props: entity.Bag{
			"parentId": parent,
			"critical": critical,
		},
	}
}

func workOrder(id, assetID, status string) entity.Entity {
	return entity.Entity{
		Type: entity.TypeMaintenance,
		ID:   id,
		Props: entity.Bag{
			"assetId": assetID,
			"status":  status,
		},
	}
}

func seedSource() *source.MemorySource {
	src := source.NewMemorySource()

	src.Add(entity.TypeAsset,
		asset("a1", "", true),
		asset("a2", "a1", false),
		asset("a3", "a2", false),
		asset("a2", "a1", false), // duplicate delivery
		entity.Entity{Type: entity.TypeAsset, Props: entity.Bag{}}, // missing id
	)

	src.Add(entity.TypeTimeSeries, entity.Entity{
		Type: entity.TypeTimeSeries,
		ID:   "ts1",
		Props: entity.Bag{
			"assetId":          "a2",
			"unit":             "bar",
			"sampleTimestamps": []any{float64(0), float64(10), float64(20), float64(120)},
		},
	})

	src.Add(entity.TypeEquipment)
	src.Add(entity.TypeFile)
	src.Add(entity.TypeAnnotation)
	src.Add(entity.TypeThreeD)
	src.Add(entity.TypeMaintenance,
		workOrder("wo1", "a1", "closed"),
		workOrder("wo2", "a3", "open"),
	)

	return src
}

type runnerEnv struct {
	runner *orchestrator.Runner
	store  *store.FileStore
	ckpt   *checkpoint.Manager[accumulator.Snapshot]
	opts   orchestrator.Options
}

func newEnv(t *testing.T, src source.DataSource, history source.HistoryFetcher) *runnerEnv {
	t.Helper()

	docStore, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	ckpt := checkpoint.NewManager[accumulator.Snapshot](t.TempDir(), testDataset, persist.NewLZ4Codec())

	runner := orchestrator.NewRunner(orchestrator.Deps{
		Source:  src,
		History: history,
		Store:   docStore,
		Ckpt:    ckpt,
	})

	return &runnerEnv{
		runner: runner,
		store:  docStore,
		ckpt:   ckpt,
		opts: orchestrator.Options{
			DatasetID:    testDataset,
			GapThreshold: 50,
		},
	}
}

func TestRun_FullRecompute(t *testing.T) {
	t.Parallel()

	env := newEnv(t, seedSource(), nil)

	result, err := env.runner.Run(context.Background(), env.opts)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusSuccess, result.Status)
	require.NotNil(t, result.Document)
	assert.False(t, result.Checkpointed)

	counts := result.Document.Metadata.InstanceCounts["asset"]
	assert.Equal(t, int64(5), counts.Total)
	assert.Equal(t, int64(3), counts.Unique)
	assert.Equal(t, int64(1), counts.Duplicates)
	assert.Equal(t, int64(1), counts.Skipped)

	// All sections computed and flagged.
	for _, name := range env.runner.SectionNames() {
		require.Contains(t, result.Document.Sections, name)
		assert.Equal(t, true, result.Document.Sections[name][name+"_has_data"], name)
	}

	// The single series has one 100-delta gap over a 120 span.
	ts := result.Document.Sections[sections.NameTimeSeries]
	assert.Equal(t, int64(1), ts["series_measured"])
	assert.Equal(t, int64(1), ts["gap_count"])

	// Document is persisted under the dataset key.
	loaded, err := env.store.Get(context.Background(), testDataset)
	require.NoError(t, err)
	assert.Equal(t, result.RunID, loaded.Metadata.RunID)
}

func TestRun_UnknownSection(t *testing.T) {
	t.Parallel()

	env := newEnv(t, seedSource(), nil)
	env.opts.Sections = []string{"bogus"}

	_, err := env.runner.Run(context.Background(), env.opts)
	require.ErrorIs(t, err, orchestrator.ErrUnknownSection)
}

func TestRun_SelectiveRecompute(t *testing.T) {
	t.Parallel()

	src := seedSource()
	env := newEnv(t, src, nil)

	first, err := env.runner.Run(context.Background(), env.opts)
	require.NoError(t, err)

	// New asset appears before the selective run.
	src.Add(entity.TypeAsset, asset("a4", "a1", false))

	env.opts.Sections = []string{sections.NameHierarchy}

	second, err := env.runner.Run(context.Background(), env.opts)
	require.NoError(t, err)
	require.NotNil(t, second.Document)

	meta := second.Document.Metadata
	assert.True(t, meta.PartialRecompute)
	assert.Equal(t, []string{sections.NameHierarchy}, meta.RecomputedSections)

	// Asset counts come from the fresh ingest, other types stay cached.
	assert.Equal(t, int64(4), meta.InstanceCounts["asset"].Unique)
	assert.Equal(t, first.Document.Metadata.InstanceCounts["timeseries"],
		meta.InstanceCounts["timeseries"])

	// Non-recomputed sections are carried over verbatim.
	assert.Equal(t, first.Document.Sections[sections.NameTimeSeries],
		second.Document.Sections[sections.NameTimeSeries])
}

func TestRun_SelectiveCacheMissDegradesToFull(t *testing.T) {
	t.Parallel()

	env := newEnv(t, seedSource(), nil)
	env.opts.Sections = []string{sections.NameHierarchy}

	result, err := env.runner.Run(context.Background(), env.opts)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusPartial, result.Status)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "full recompute")

	// Degradation computed everything, not just the requested section.
	require.NotNil(t, result.Document)
	assert.False(t, result.Document.Metadata.PartialRecompute)
	assert.Contains(t, result.Document.Sections, sections.NameMaintenance)
}

func TestRun_InstanceLimit(t *testing.T) {
	t.Parallel()

	src := source.NewMemorySource()
	for _, typ := range entity.AllTypes() {
		src.Add(typ)
	}

	for i := 0; i < 100; i++ {
		src.Add(entity.TypeAsset, asset(fmt.Sprintf("a%d", i), "", false))
	}

	env := newEnv(t, src, nil)
	env.opts.Views = source.DefaultViews()
	env.opts.Views[entity.TypeAsset] = source.View{Type: entity.TypeAsset, PageSize: 10}
	env.opts.Limits = map[entity.Type]int64{entity.TypeAsset: 25}

	result, err := env.runner.Run(context.Background(), env.opts)
	require.NoError(t, err)

	counts := result.Document.Metadata.InstanceCounts["asset"]
	assert.Equal(t, int64(30), counts.Total, "cap is soft, checked at page boundaries")
}

func TestRun_TimeBudgetCheckpointsAndResumes(t *testing.T) {
	t.Parallel()

	env := newEnv(t, seedSource(), nil)
	env.opts.TimeBudget = time.Nanosecond

	result, err := env.runner.Run(context.Background(), env.opts)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusPartial, result.Status)
	assert.True(t, result.Checkpointed)
	assert.Nil(t, result.Document)
	assert.True(t, env.ckpt.Exists())

	// Nothing was persisted.
	_, err = env.store.Get(context.Background(), testDataset)
	require.ErrorIs(t, err, store.ErrNotFound)

	// Resume without a budget completes the run.
	env.opts.TimeBudget = 0

	resumed, err := env.runner.Resume(context.Background(), env.opts)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusSuccess, resumed.Status)
	require.NotNil(t, resumed.Document)

	counts := resumed.Document.Metadata.InstanceCounts["asset"]
	assert.Equal(t, int64(3), counts.Unique)
}

func TestRun_TimeBudgetWithoutCheckpointFails(t *testing.T) {
	t.Parallel()

	docStore, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	runner := orchestrator.NewRunner(orchestrator.Deps{
		Source: seedSource(),
		Store:  docStore,
	})

	_, err = runner.Run(context.Background(), orchestrator.Options{
		DatasetID:  testDataset,
		TimeBudget: time.Nanosecond,
	})
	require.ErrorIs(t, err, orchestrator.ErrBudgetExhausted)
}

func TestResume_NoCheckpoint(t *testing.T) {
	t.Parallel()

	env := newEnv(t, seedSource(), nil)

	_, err := env.runner.Resume(context.Background(), env.opts)
	require.ErrorIs(t, err, orchestrator.ErrNoCheckpoint)
}

func TestFinalize_MergesShards(t *testing.T) {
	t.Parallel()

	env := newEnv(t, seedSource(), nil)

	// Two shards ingested the same dataset range with a 50-asset overlap.
	shardA := accumulator.New()
	for i := 0; i < 1000; i++ {
		shardA.Observe(entity.TypeAsset, fmt.Sprintf("a%d", i))
	}

	shardB := accumulator.New()
	for i := 950; i < 1450; i++ {
		shardB.Observe(entity.TypeAsset, fmt.Sprintf("a%d", i))
	}

	types := []string{"asset"}
	require.NoError(t, env.ckpt.SaveShard(
		checkpoint.ShardProgress{ShardID: "00"}, types, shardA.Snapshot))
	require.NoError(t, env.ckpt.SaveShard(
		checkpoint.ShardProgress{ShardID: "01"}, types, shardB.Snapshot))

	result, err := env.runner.Finalize(context.Background(), env.opts)
	require.NoError(t, err)
	require.NotNil(t, result.Document)

	counts := result.Document.Metadata.InstanceCounts["asset"]
	assert.Equal(t, int64(1500), counts.Total)
	assert.Equal(t, int64(1450), counts.Unique)
	assert.Equal(t, int64(50), counts.Duplicates)

	// Successful finalize clears the checkpoint.
	assert.False(t, env.ckpt.Exists())
}

func TestFinalize_NoCheckpoint(t *testing.T) {
	t.Parallel()

	env := newEnv(t, seedSource(), nil)

	_, err := env.runner.Finalize(context.Background(), env.opts)
	require.ErrorIs(t, err, orchestrator.ErrNoCheckpoint)
}

func TestRun_HistoryFetch(t *testing.T) {
	t.Parallel()

	history := &source.MemoryHistory{
		Records: map[string][]source.ExecutionRecord{
			"wo1": {
				{WorkOrderID: "wo1", Status: "completed", Timestamp: 10},
				{WorkOrderID: "wo1", Status: "completed", Timestamp: 20},
			},
		},
		Fail: map[string]error{"wo2": errors.New("backend unavailable")},
	}

	env := newEnv(t, seedSource(), history)

	result, err := env.runner.Run(context.Background(), env.opts)
	require.NoError(t, err)
	require.NotNil(t, result.Document)

	maint := result.Document.Sections[sections.NameMaintenance]
	assert.Equal(t, int64(2), maint["executions_total"])
	assert.Equal(t, int64(1), maint["execution_fetch_failures"])

	statuses, ok := maint["execution_status"].(map[string]int64)
	require.True(t, ok)
	assert.Equal(t, int64(2), statuses["completed"])
}

func TestRun_SectionFailureIsolated(t *testing.T) {
	t.Parallel()

	env := newEnv(t, seedSource(), nil)
	env.runner.RegisterSection(&failingSection{})

	result, err := env.runner.Run(context.Background(), env.opts)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusPartial, result.Status)
	assert.Equal(t, []string{"flaky"}, result.FailedSections)

	flaky := result.Document.Sections["flaky"]
	assert.Equal(t, false, flaky["flaky_has_data"])
	assert.Equal(t, "synthetic failure", flaky["error"])

	// Other sections are unaffected.
	assert.Equal(t, true, result.Document.Sections[sections.NameHierarchy]["hierarchy_has_data"])
}

type failingSection struct{}

func (s *failingSection) Name() string { return "flaky" }

func (s *failingSection) EntityTypes() []entity.Type { return nil }

func (s *failingSection) Compute(*accumulator.Accumulator) (document.SectionMetrics, error) {
	return nil, errors.New("synthetic failure")
}
