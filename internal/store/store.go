// Package store persists output documents between runs. Selective
// recompute loads the previous document through this interface, so a
// missing key is an expected condition and carries its own sentinel.
package store

import (
	"context"
	"errors"

	"github.com/dqaudit/dqaudit/internal/document"
)

// ErrNotFound is returned by Get when no document exists for the key.
var ErrNotFound = errors.New("document not found")

// Store reads and writes output documents keyed by dataset ID. Put must be
// atomic: a failed write leaves the previous good document in place.
type Store interface {
	// Get loads the document stored under key. Returns ErrNotFound when the
	// key has never been written.
	Get(ctx context.Context, key string) (*document.Document, error)

	// Put replaces the document stored under key.
	Put(ctx context.Context, key string, doc *document.Document) error

	// Close releases any underlying resources.
	Close() error
}
