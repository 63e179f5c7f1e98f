package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqaudit/dqaudit/internal/document"
	"github.com/dqaudit/dqaudit/internal/store"
)

func sampleDoc(runID string) *document.Document {
	doc := document.New(runID)
	doc.Metadata.ComputedAt = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	doc.Metadata.ExecutionTimeSeconds = 4.2
	doc.Metadata.InstanceCounts["asset"] = document.InstanceCount{
		Total: 100, Unique: 95, Duplicates: 3, Skipped: 2,
	}
	doc.Sections["hierarchy"] = document.SectionMetrics{
		"hierarchy_has_data": true,
		"total_assets":       float64(95),
		"root_rate":          document.Rate(4, 95),
	}

	return doc
}

func testStore(t *testing.T, s store.Store) {
	t.Helper()

	ctx := context.Background()

	_, err := s.Get(ctx, "ds-1")
	require.ErrorIs(t, err, store.ErrNotFound)

	doc := sampleDoc("run-1")
	require.NoError(t, s.Put(ctx, "ds-1", doc))

	loaded, err := s.Get(ctx, "ds-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.Metadata.RunID)
	assert.Equal(t, int64(95), loaded.Metadata.InstanceCounts["asset"].Unique)
	require.Contains(t, loaded.Sections, "hierarchy")
	assert.Equal(t, true, loaded.Sections["hierarchy"]["hierarchy_has_data"])

	// Overwrite replaces the previous document.
	require.NoError(t, s.Put(ctx, "ds-1", sampleDoc("run-2")))

	loaded, err = s.Get(ctx, "ds-1")
	require.NoError(t, err)
	assert.Equal(t, "run-2", loaded.Metadata.RunID)

	// Keys are independent.
	_, err = s.Get(ctx, "ds-2")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	s, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	testStore(t, s)
}

func TestFileStore_NoTempLeftovers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	s, err := store.NewFileStore(dir)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(context.Background(), "ds-1", sampleDoc("run-1")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ds-1.json", entries[0].Name())
}

func TestFileStore_CorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	s, err := store.NewFileStore(dir)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ds-1.json"), []byte("{broken"), 0o600))

	_, err = s.Get(context.Background(), "ds-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()

	s, err := store.OpenSQLiteStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	testStore(t, s)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	s, err := store.OpenSQLiteStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "ds-1", sampleDoc("run-1")))
	require.NoError(t, s.Close())

	reopened, err := store.OpenSQLiteStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Get(ctx, "ds-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.Metadata.RunID)
}
