package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/adrg/xdg"

	"github.com/dqaudit/dqaudit/pkg/persist"
)

// Sentinel errors for checkpoint validation.
var (
	ErrDatasetMismatch = errors.New("dataset mismatch")
	ErrTypeMismatch    = errors.New("entity type mismatch")
	ErrShardNotFound   = errors.New("shard not found")
)

// Basename for per-shard snapshot files.
const snapshotBasename = "accumulator"

// Directory permissions for checkpoints.
const dirPerm = 0o750

// DefaultDir returns the default checkpoint directory under the XDG data home.
func DefaultDir() string {
	return filepath.Join(xdg.DataHome, "dqaudit", "checkpoints")
}

// DatasetHash computes a short hash of the dataset ID for use as a
// directory name.
func DatasetHash(datasetID string) string {
	h := sha256.Sum256([]byte(datasetID))

	return hex.EncodeToString(h[:8])
}

// Manager coordinates shard checkpoints for one dataset. T is the snapshot
// type persisted per shard.
type Manager[T any] struct {
	BaseDir     string
	DatasetID   string
	DatasetHash string

	persister *persist.Persister[T]
}

// NewManager creates a manager rooted at baseDir. Snapshots are written
// with codec; persist.NewLZ4Codec is the usual choice for large dedup sets.
func NewManager[T any](baseDir, datasetID string, codec persist.Codec) *Manager[T] {
	return &Manager[T]{
		BaseDir:     baseDir,
		DatasetID:   datasetID,
		DatasetHash: DatasetHash(datasetID),
		persister:   persist.NewPersister[T](snapshotBasename, codec),
	}
}

// Dir returns the directory for this dataset's checkpoint.
func (m *Manager[T]) Dir() string {
	return filepath.Join(m.BaseDir, m.DatasetHash)
}

// MetadataPath returns the path to the metadata file.
func (m *Manager[T]) MetadataPath() string {
	return filepath.Join(m.Dir(), "state.json")
}

func (m *Manager[T]) shardDir(shardID string) string {
	return filepath.Join(m.Dir(), "shard_"+shardID)
}

// Exists returns true if a checkpoint exists for this dataset.
func (m *Manager[T]) Exists() bool {
	_, err := os.Stat(m.MetadataPath())

	return err == nil
}

// Clear removes the checkpoint for this dataset.
func (m *Manager[T]) Clear() error {
	dir := m.Dir()

	_, statErr := os.Stat(dir)
	if os.IsNotExist(statErr) {
		return nil
	}

	err := os.RemoveAll(dir)
	if err != nil {
		return fmt.Errorf("remove checkpoint dir: %w", err)
	}

	return nil
}

// SaveShard persists one shard's snapshot and records its progress in the
// metadata file. Existing progress for other shards is preserved.
func (m *Manager[T]) SaveShard(
	progress ShardProgress,
	entityTypes []string,
	buildState func() *T,
) error {
	shardDir := m.shardDir(progress.ShardID)

	err := os.MkdirAll(shardDir, dirPerm)
	if err != nil {
		return fmt.Errorf("create shard dir: %w", err)
	}

	saveErr := m.persister.Save(shardDir, buildState)
	if saveErr != nil {
		return fmt.Errorf("save shard %s snapshot: %w", progress.ShardID, saveErr)
	}

	meta, loadErr := m.LoadMetadata()
	if loadErr != nil {
		meta = &Metadata{
			Version:     MetadataVersion,
			DatasetID:   m.DatasetID,
			DatasetHash: m.DatasetHash,
			CreatedAt:   time.Now().UTC().Format(time.RFC3339),
			EntityTypes: entityTypes,
			Shards:      make(map[string]ShardProgress),
		}
	}

	progress.SavedAt = time.Now().UTC().Format(time.RFC3339)
	meta.Shards[progress.ShardID] = progress

	return m.writeMetadata(meta)
}

// LoadShard restores one shard's snapshot through restoreState.
func (m *Manager[T]) LoadShard(shardID string, restoreState func(*T)) error {
	meta, err := m.LoadMetadata()
	if err != nil {
		return err
	}

	_, ok := meta.Shards[shardID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrShardNotFound, shardID)
	}

	loadErr := m.persister.Load(m.shardDir(shardID), restoreState)
	if loadErr != nil {
		return fmt.Errorf("load shard %s snapshot: %w", shardID, loadErr)
	}

	return nil
}

// ShardIDs returns the checkpointed shard IDs in sorted order.
func (m *Manager[T]) ShardIDs() ([]string, error) {
	meta, err := m.LoadMetadata()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(meta.Shards))
	for id := range meta.Shards {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids, nil
}

// LoadMetadata loads the checkpoint metadata.
func (m *Manager[T]) LoadMetadata() (*Metadata, error) {
	data, err := os.ReadFile(m.MetadataPath())
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var meta Metadata

	unmarshalErr := json.Unmarshal(data, &meta)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", unmarshalErr)
	}

	if meta.Shards == nil {
		meta.Shards = make(map[string]ShardProgress)
	}

	return &meta, nil
}

// Validate checks that the checkpoint matches the dataset and entity types
// of the resuming run.
func (m *Manager[T]) Validate(datasetID string, entityTypes []string) error {
	meta, err := m.LoadMetadata()
	if err != nil {
		return err
	}

	if meta.DatasetID != datasetID {
		return fmt.Errorf("%w: checkpoint has %q, got %q", ErrDatasetMismatch, meta.DatasetID, datasetID)
	}

	if !stringSlicesEqual(meta.EntityTypes, entityTypes) {
		return fmt.Errorf("%w: checkpoint has %v, got %v", ErrTypeMismatch, meta.EntityTypes, entityTypes)
	}

	return nil
}

func (m *Manager[T]) writeMetadata(meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	writeErr := os.WriteFile(m.MetadataPath(), data, 0o600)
	if writeErr != nil {
		return fmt.Errorf("write metadata: %w", writeErr)
	}

	return nil
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
