package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dqaudit/dqaudit/internal/entity"
)

// Line-scanner buffer bounds; property bags can carry large sample lists.
const (
	scanInitialBuffer = 64 * 1024
	scanMaxBuffer     = 16 * 1024 * 1024
)

// JSONLSource reads entity pages from a directory of JSON-lines files, one
// file per entity type (e.g. asset.jsonl). Each line is one record:
// {"id": "...", ...properties}. Used for local runs against exported data.
type JSONLSource struct {
	dir string
}

// NewJSONLSource creates a source reading from dir.
func NewJSONLSource(dir string) *JSONLSource {
	return &JSONLSource{dir: dir}
}

// Pages implements DataSource. The whole file for the type is decoded on
// open; cursors are absolute record offsets, matching MemorySource.
func (s *JSONLSource) Pages(ctx context.Context, t entity.Type, pageSize int, filter Filter) (Iterator, error) {
	path := filepath.Join(s.dir, string(t)+".jsonl")

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
		}

		return nil, fmt.Errorf("open source file: %w", err)
	}
	defer file.Close()

	var records []entity.Entity

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, scanInitialBuffer), scanMaxBuffer)

	line := 0

	for scanner.Scan() {
		line++

		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var props entity.Bag

		decodeErr := json.Unmarshal(raw, &props)
		if decodeErr != nil {
			// Undecodable lines become identifier-less records so the
			// accumulator counts them as skipped instead of losing them
			// silently.
			records = append(records, entity.Entity{Type: t})

			continue
		}

		records = append(records, entity.Entity{
			Type:  t,
			ID:    props.String("id", ""),
			Props: props,
		})
	}

	scanErr := scanner.Err()
	if scanErr != nil {
		return nil, fmt.Errorf("scan %s line %d: %w", path, line, scanErr)
	}

	mem := NewMemorySource()
	mem.Add(t, records...)

	return mem.Pages(ctx, t, pageSize, filter)
}

// executionsFile holds the work-order execution history next to the entity
// files.
const executionsFile = "executions.jsonl"

// JSONLHistory is a HistoryFetcher backed by an executions.jsonl file in the
// source directory. Each line is one record:
// {"workOrderId": "...", "status": "...", "timestamp": N}.
// A missing file means no history, not an error.
type JSONLHistory struct {
	dir string

	once    sync.Once
	loadErr error
	byOrder map[string][]ExecutionRecord
}

// NewJSONLHistory creates a history fetcher reading from dir.
func NewJSONLHistory(dir string) *JSONLHistory {
	return &JSONLHistory{dir: dir}
}

// ExecutionHistory implements HistoryFetcher. The file is decoded once on
// first use and served from memory afterwards.
func (h *JSONLHistory) ExecutionHistory(_ context.Context, workOrderID string) ([]ExecutionRecord, error) {
	h.once.Do(h.load)

	if h.loadErr != nil {
		return nil, h.loadErr
	}

	return h.byOrder[workOrderID], nil
}

func (h *JSONLHistory) load() {
	h.byOrder = map[string][]ExecutionRecord{}

	path := filepath.Join(h.dir, executionsFile)

	file, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			h.loadErr = fmt.Errorf("open executions file: %w", err)
		}

		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, scanInitialBuffer), scanMaxBuffer)

	line := 0

	for scanner.Scan() {
		line++

		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var rec struct {
			WorkOrderID string `json:"workOrderId"`
			Status      string `json:"status"`
			Timestamp   int64  `json:"timestamp"`
		}

		decodeErr := json.Unmarshal(raw, &rec)
		if decodeErr != nil || rec.WorkOrderID == "" {
			continue
		}

		h.byOrder[rec.WorkOrderID] = append(h.byOrder[rec.WorkOrderID], ExecutionRecord{
			WorkOrderID: rec.WorkOrderID,
			Status:      rec.Status,
			Timestamp:   rec.Timestamp,
		})
	}

	scanErr := scanner.Err()
	if scanErr != nil {
		h.loadErr = fmt.Errorf("scan %s line %d: %w", path, line, scanErr)
	}
}
