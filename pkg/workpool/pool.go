// Package workpool runs embarrassingly-parallel per-item work on a bounded
// worker pool with a single, lock-protected output sink. Each worker handles
// one item end-to-end and returns derived records; ordering across workers
// is not guaranteed, ordering within one worker's output is preserved. A
// failing worker contributes zero records and a failure count, never an
// abort of its siblings; only a sink failure stops the pool.
package workpool

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the pool size used when the caller passes 0.
const DefaultWorkers = 8

// Summary reports the outcome of one pool run.
type Summary struct {
	// Units is the number of items submitted.
	Units int
	// Failed is the number of items whose worker returned an error.
	Failed int
	// Records is the number of derived records delivered to the sink.
	Records int
	// Errors holds one error per failed unit, in no particular order.
	Errors []error
}

// Run processes items with at most workers concurrent invocations of work.
// Every successful worker's records are flushed to sink as one batch under
// an internal lock. Run returns early only when ctx is cancelled or sink
// fails; worker errors are collected in the summary.
func Run[T, R any](
	ctx context.Context,
	items []T,
	workers int,
	work func(ctx context.Context, item T) ([]R, error),
	sink func(records []R) error,
) (Summary, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	summary := Summary{Units: len(items)}

	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for _, item := range items {
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}

			records, err := work(groupCtx, item)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				summary.Failed++
				summary.Errors = append(summary.Errors, err)

				return nil
			}

			if len(records) == 0 {
				return nil
			}

			sinkErr := sink(records)
			if sinkErr != nil {
				return sinkErr
			}

			summary.Records += len(records)

			return nil
		})
	}

	err := group.Wait()

	return summary, err
}
