package source

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dqaudit/dqaudit/internal/entity"
)

// MemorySource serves pages from in-process slices. It is the test double
// for the remote source and also backs synthetic benchmark datasets.
// Duplicate delivery can be simulated by seeding repeated records.
type MemorySource struct {
	data map[entity.Type][]entity.Entity
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{data: make(map[entity.Type][]entity.Entity)}
}

// Add appends records for one entity type, preserving delivery order.
func (s *MemorySource) Add(t entity.Type, records ...entity.Entity) {
	s.data[t] = append(s.data[t], records...)
}

// Pages implements DataSource. Cursors encode the absolute record offset so
// a new stream can resume after a checkpointed page boundary.
func (s *MemorySource) Pages(_ context.Context, t entity.Type, pageSize int, filter Filter) (Iterator, error) {
	records, ok := s.data[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}

	offset := 0

	if filter.Cursor != "" {
		parsed, err := strconv.Atoi(filter.Cursor)
		if err != nil {
			return nil, fmt.Errorf("parse cursor %q: %w", filter.Cursor, err)
		}

		offset = parsed
	}

	if filter.DatasetID != "" {
		filtered := make([]entity.Entity, 0, len(records))

		for _, r := range records {
			if r.Props.String("datasetId", "") == filter.DatasetID {
				filtered = append(filtered, r)
			}
		}

		records = filtered
	}

	return &memoryIterator{records: records, pageSize: pageSize, offset: offset, typ: t}, nil
}

type memoryIterator struct {
	records  []entity.Entity
	typ      entity.Type
	pageSize int
	offset   int
}

// Next implements Iterator.
func (it *memoryIterator) Next(ctx context.Context) (entity.Batch, bool, error) {
	if ctx.Err() != nil {
		return entity.Batch{}, false, ctx.Err()
	}

	if it.offset >= len(it.records) {
		return entity.Batch{}, true, nil
	}

	end := it.offset + it.pageSize
	if end > len(it.records) {
		end = len(it.records)
	}

	batch := entity.Batch{
		Type:       it.typ,
		Items:      it.records[it.offset:end],
		NextCursor: strconv.Itoa(end),
	}

	if end == len(it.records) {
		batch.NextCursor = ""
	}

	it.offset = end

	return batch, false, nil
}

// MemoryHistory is a HistoryFetcher backed by in-process maps, for tests.
type MemoryHistory struct {
	Records map[string][]ExecutionRecord
	// Fail lists work-order IDs whose fetch should error.
	Fail map[string]error
}

// ExecutionHistory implements HistoryFetcher.
func (h *MemoryHistory) ExecutionHistory(_ context.Context, workOrderID string) ([]ExecutionRecord, error) {
	if err, ok := h.Fail[workOrderID]; ok {
		return nil, err
	}

	return h.Records[workOrderID], nil
}
