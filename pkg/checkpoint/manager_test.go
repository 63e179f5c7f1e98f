package checkpoint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqaudit/dqaudit/pkg/checkpoint"
	"github.com/dqaudit/dqaudit/pkg/persist"
)

type shardState struct {
	Seen     []string
	Total    int64
	Counters map[string]int64
}

func newManager(t *testing.T, datasetID string) *checkpoint.Manager[shardState] {
	t.Helper()

	return checkpoint.NewManager[shardState](t.TempDir(), datasetID, persist.NewLZ4Codec())
}

func TestManager_SaveLoadShardRoundTrip(t *testing.T) {
	t.Parallel()

	m := newManager(t, "ds-1")

	state := &shardState{
		Seen:     []string{"a", "b", "c"},
		Total:    3,
		Counters: map[string]int64{"asset": 3},
	}

	progress := checkpoint.ShardProgress{
		ShardID:        "shard-0",
		Cursors:        map[string]string{"asset": "3000"},
		CompletedTypes: []string{"timeseries"},
	}

	err := m.SaveShard(progress, []string{"asset", "timeseries"}, func() *shardState {
		return state
	})
	require.NoError(t, err)
	require.True(t, m.Exists())

	var restored shardState

	loadErr := m.LoadShard("shard-0", func(s *shardState) {
		restored = *s
	})
	require.NoError(t, loadErr)
	assert.Equal(t, *state, restored)

	meta, err := m.LoadMetadata()
	require.NoError(t, err)
	assert.Equal(t, "ds-1", meta.DatasetID)
	assert.Equal(t, checkpoint.MetadataVersion, meta.Version)
	assert.Equal(t, "3000", meta.Shards["shard-0"].Cursors["asset"])
	assert.Equal(t, []string{"timeseries"}, meta.Shards["shard-0"].CompletedTypes)
	assert.NotEmpty(t, meta.Shards["shard-0"].SavedAt)
}

func TestManager_MultipleShardsSortedIDs(t *testing.T) {
	t.Parallel()

	m := newManager(t, "ds-1")
	types := []string{"asset"}

	for _, id := range []string{"shard-2", "shard-0", "shard-1"} {
		shardID := id

		err := m.SaveShard(checkpoint.ShardProgress{ShardID: shardID}, types, func() *shardState {
			return &shardState{Seen: []string{shardID}}
		})
		require.NoError(t, err)
	}

	ids, err := m.ShardIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"shard-0", "shard-1", "shard-2"}, ids)

	// Each shard keeps its own snapshot.
	var restored shardState

	require.NoError(t, m.LoadShard("shard-1", func(s *shardState) { restored = *s }))
	assert.Equal(t, []string{"shard-1"}, restored.Seen)
}

func TestManager_SecondSavePreservesOtherShards(t *testing.T) {
	t.Parallel()

	m := newManager(t, "ds-1")
	types := []string{"asset"}

	require.NoError(t, m.SaveShard(checkpoint.ShardProgress{
		ShardID: "shard-0",
		Cursors: map[string]string{"asset": "1000"},
	}, types, func() *shardState { return &shardState{} }))

	require.NoError(t, m.SaveShard(checkpoint.ShardProgress{
		ShardID: "shard-1",
		Cursors: map[string]string{"asset": "2000"},
	}, types, func() *shardState { return &shardState{} }))

	meta, err := m.LoadMetadata()
	require.NoError(t, err)
	require.Len(t, meta.Shards, 2)
	assert.Equal(t, "1000", meta.Shards["shard-0"].Cursors["asset"])
	assert.Equal(t, "2000", meta.Shards["shard-1"].Cursors["asset"])
}

func TestManager_Validate(t *testing.T) {
	t.Parallel()

	m := newManager(t, "ds-1")
	types := []string{"asset", "timeseries"}

	require.NoError(t, m.SaveShard(checkpoint.ShardProgress{ShardID: "shard-0"}, types,
		func() *shardState { return &shardState{} }))

	assert.NoError(t, m.Validate("ds-1", types))

	err := m.Validate("ds-2", types)
	require.ErrorIs(t, err, checkpoint.ErrDatasetMismatch)

	err = m.Validate("ds-1", []string{"asset"})
	require.ErrorIs(t, err, checkpoint.ErrTypeMismatch)
}

func TestManager_LoadUnknownShard(t *testing.T) {
	t.Parallel()

	m := newManager(t, "ds-1")

	require.NoError(t, m.SaveShard(checkpoint.ShardProgress{ShardID: "shard-0"}, []string{"asset"},
		func() *shardState { return &shardState{} }))

	err := m.LoadShard("shard-9", func(*shardState) {})
	require.ErrorIs(t, err, checkpoint.ErrShardNotFound)
}

func TestManager_Clear(t *testing.T) {
	t.Parallel()

	m := newManager(t, "ds-1")

	// Clearing a checkpoint that never existed is fine.
	require.NoError(t, m.Clear())

	require.NoError(t, m.SaveShard(checkpoint.ShardProgress{ShardID: "shard-0"}, []string{"asset"},
		func() *shardState { return &shardState{} }))
	require.True(t, m.Exists())

	require.NoError(t, m.Clear())
	assert.False(t, m.Exists())
}

func TestDatasetHash_StableAndShort(t *testing.T) {
	t.Parallel()

	assert.Equal(t, checkpoint.DatasetHash("ds-1"), checkpoint.DatasetHash("ds-1"))
	assert.NotEqual(t, checkpoint.DatasetHash("ds-1"), checkpoint.DatasetHash("ds-2"))
	assert.Len(t, checkpoint.DatasetHash("ds-1"), 16)
}
