package workpool_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqaudit/dqaudit/pkg/workpool"
)

var errBroken = errors.New("broken unit")

func TestRun_CollectsAllRecords(t *testing.T) {
	t.Parallel()

	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	var (
		mu       sync.Mutex
		received []string
	)

	summary, err := workpool.Run(context.Background(), items, 4,
		func(_ context.Context, item int) ([]string, error) {
			return []string{fmt.Sprintf("r-%d-a", item), fmt.Sprintf("r-%d-b", item)}, nil
		},
		func(records []string) error {
			mu.Lock()
			defer mu.Unlock()
			received = append(received, records...)

			return nil
		},
	)

	require.NoError(t, err)
	assert.Equal(t, 50, summary.Units)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 100, summary.Records)
	assert.Len(t, received, 100)
}

func TestRun_WithinWorkerOrderPreserved(t *testing.T) {
	t.Parallel()

	var batches [][]int

	_, err := workpool.Run(context.Background(), []string{"only"}, 2,
		func(_ context.Context, _ string) ([]int, error) {
			return []int{1, 2, 3, 4}, nil
		},
		func(records []int) error {
			batches = append(batches, records)

			return nil
		},
	)

	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, []int{1, 2, 3, 4}, batches[0])
}

func TestRun_FailedWorkerDoesNotAbortOthers(t *testing.T) {
	t.Parallel()

	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	summary, err := workpool.Run(context.Background(), items, 3,
		func(_ context.Context, item int) ([]int, error) {
			if item%2 == 0 {
				return nil, fmt.Errorf("%w: %d", errBroken, item)
			}

			return []int{item}, nil
		},
		func([]int) error { return nil },
	)

	require.NoError(t, err)
	assert.Equal(t, 5, summary.Failed)
	assert.Equal(t, 5, summary.Records)
	assert.Len(t, summary.Errors, 5)
	require.ErrorIs(t, summary.Errors[0], errBroken)
}

func TestRun_SinkFailureStopsPool(t *testing.T) {
	t.Parallel()

	errSink := errors.New("sink full")
	items := make([]int, 100)

	_, err := workpool.Run(context.Background(), items, 2,
		func(_ context.Context, _ int) ([]int, error) { return []int{1}, nil },
		func([]int) error { return errSink },
	)

	require.ErrorIs(t, err, errSink)
}

func TestRun_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	const workers = 3

	var (
		inFlight atomic.Int32
		peak     atomic.Int32
	)

	items := make([]int, 60)

	_, err := workpool.Run(context.Background(), items, workers,
		func(_ context.Context, _ int) ([]int, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)

			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}

			return nil, nil
		},
		func([]int) error { return nil },
	)

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(workers))
}

func TestRun_ZeroWorkersUsesDefault(t *testing.T) {
	t.Parallel()

	summary, err := workpool.Run(context.Background(), []int{1, 2}, 0,
		func(_ context.Context, item int) ([]int, error) { return []int{item}, nil },
		func([]int) error { return nil },
	)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Records)
}
