// Package source defines the paginated read interface the engine consumes
// and two local implementations: an in-memory source for tests and a
// JSON-lines file source for local runs. The engine never assumes anything
// about the wire format behind this interface.
package source

import (
	"context"
	"errors"

	"github.com/dqaudit/dqaudit/internal/entity"
)

// ErrUnknownType is returned when a source has no data for an entity type.
var ErrUnknownType = errors.New("unknown entity type")

// Filter narrows a page stream. A stream always starts from the beginning
// of what the filter selects; resuming mid-dataset is expressed by setting
// Cursor, not by restarting an existing iterator.
type Filter struct {
	// Cursor positions the stream after a previously returned page cursor.
	// Empty starts from the first page.
	Cursor string
	// DatasetID optionally restricts records to one dataset.
	DatasetID string
}

// Iterator yields pages of one entity type. It is finite and not
// restartable: once Next returns done, the stream is exhausted.
type Iterator interface {
	// Next returns the next page. done is true when the stream is exhausted,
	// in which case the batch is empty.
	Next(ctx context.Context) (batch entity.Batch, done bool, err error)
}

// DataSource is the paginated read interface of the remote system.
type DataSource interface {
	// Pages opens a page stream for one entity type.
	Pages(ctx context.Context, t entity.Type, pageSize int, filter Filter) (Iterator, error)
}

// ExecutionRecord is one derived record of a work order's execution history.
type ExecutionRecord struct {
	WorkOrderID string
	Status      string
	Timestamp   int64
}

// HistoryFetcher retrieves per-work-order execution history. Fetches for
// different work orders are independent and safe to run concurrently.
type HistoryFetcher interface {
	ExecutionHistory(ctx context.Context, workOrderID string) ([]ExecutionRecord, error)
}
