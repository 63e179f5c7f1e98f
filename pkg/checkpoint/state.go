// Package checkpoint persists ingest progress across bounded executions.
// A dataset's checkpoint is one directory holding a metadata file plus one
// serialized accumulator snapshot per shard.
package checkpoint

// MetadataVersion is the current checkpoint metadata format version.
const MetadataVersion = 1

// ShardProgress records how far one shard's ingest has advanced.
type ShardProgress struct {
	ShardID string `json:"shard_id"`
	// Cursors maps entity type to the next page cursor for that type.
	// A type absent from the map has not started.
	Cursors map[string]string `json:"cursors"`
	// CompletedTypes lists entity types whose page stream is exhausted.
	CompletedTypes []string `json:"completed_types"`
	SavedAt        string   `json:"saved_at"`
}

// Metadata holds checkpoint metadata for validation and resume.
type Metadata struct {
	Version     int                      `json:"version"`
	DatasetID   string                   `json:"dataset_id"`
	DatasetHash string                   `json:"dataset_hash"`
	CreatedAt   string                   `json:"created_at"`
	EntityTypes []string                 `json:"entity_types"`
	Shards      map[string]ShardProgress `json:"shards"`
}
