package accumulator

import (
	"errors"
	"fmt"

	"github.com/dqaudit/dqaudit/internal/entity"
)

// ErrBatchAlreadyMerged is returned by MergeBatch when a shard ID appears in
// the ledger of either accumulator.
var ErrBatchAlreadyMerged = errors.New("batch already merged")

// MergeFrom folds other's state into a. Sets union, counters and histograms
// sum key-wise, link maps union key-wise, and last-value maps take other's
// value per key. The operation is associative and commutative for counts and
// sets, and it is deliberately NOT idempotent: merging the same accumulator
// twice doubles every counter. Each logical batch must be attributed to
// exactly one merge; use MergeBatch when a shard ID is available so the
// ledger can enforce that.
func (a *Accumulator) MergeFrom(other *Accumulator) {
	for t, seen := range other.idsSeen {
		dst, ok := a.idsSeen[t]
		if !ok {
			dst = make(map[string]struct{}, len(seen))
			a.idsSeen[t] = dst
		}

		for id := range seen {
			dst[id] = struct{}{}
		}
	}

	for t, tc := range other.typeCounts {
		dst := a.typeCount(t)
		dst.Total += tc.Total
		dst.Skipped += tc.Skipped
	}

	// Unique is defined by the merged dedup sets; duplicates absorb the
	// remainder so Total = Unique + Duplicates + Skipped holds across shards.
	for t := range a.typeCounts {
		tc := a.typeCounts[t]
		tc.Unique = int64(len(a.idsSeen[t]))
		tc.Duplicates = tc.Total - tc.Unique - tc.Skipped
	}

	for name, v := range other.counters {
		a.counters[name] += v
	}

	for name, rs := range other.sums {
		dst, ok := a.sums[name]
		if !ok {
			dst = &RunningSum{}
			a.sums[name] = dst
		}

		dst.Sum += rs.Sum
		dst.Count += rs.Count
	}

	for name, h := range other.hists {
		for bucket, count := range h {
			a.AddHist(name, bucket, count)
		}
	}

	for name, m := range other.lastMaps {
		for k, v := range m {
			a.SetLast(name, k, v)
		}
	}

	for name, m := range other.linkMaps {
		for from, targets := range m {
			for to := range targets {
				a.AddLink(name, from, to)
			}
		}
	}

	for name, s := range other.sets {
		for member := range s {
			a.AddToSet(name, member)
		}
	}

	for id := range other.mergedBatches {
		a.mergedBatches[id] = struct{}{}
	}
}

// MergeBatch merges other, attributed to the given shard/batch ID, and
// records the ID in the ledger. It fails without mutating a when the ID was
// already merged into either side.
func (a *Accumulator) MergeBatch(batchID string, other *Accumulator) error {
	if _, dup := a.mergedBatches[batchID]; dup {
		return fmt.Errorf("%w: %q", ErrBatchAlreadyMerged, batchID)
	}

	if _, dup := other.mergedBatches[batchID]; dup {
		return fmt.Errorf("%w: %q", ErrBatchAlreadyMerged, batchID)
	}

	a.MergeFrom(other)
	a.mergedBatches[batchID] = struct{}{}

	return nil
}

// MergedBatches returns the shard IDs recorded in the ledger.
func (a *Accumulator) MergedBatches() []string {
	out := make([]string, 0, len(a.mergedBatches))
	for id := range a.mergedBatches {
		out = append(out, id)
	}

	return out
}

// UniqueTotal returns the unique count summed over all entity types.
func (a *Accumulator) UniqueTotal() int64 {
	var total int64
	for t := range a.typeCounts {
		total += a.typeCounts[t].Unique
	}

	return total
}

// Types returns the entity types with any recorded deliveries.
func (a *Accumulator) Types() []entity.Type {
	out := make([]entity.Type, 0, len(a.typeCounts))
	for t := range a.typeCounts {
		out = append(out, t)
	}

	return out
}
