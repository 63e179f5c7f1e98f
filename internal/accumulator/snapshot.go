package accumulator

import (
	"sort"

	"github.com/dqaudit/dqaudit/internal/entity"
)

// Snapshot is the serializable form of an accumulator, used for shard
// checkpointing across bounded executions. Sets are stored as sorted lists
// so snapshots of equal state are byte-identical; the round trip through
// Restore is lossless.
type Snapshot struct {
	TypeCounts    map[string]TypeCount           `json:"type_counts"`
	IDsSeen       map[string][]string            `json:"ids_seen"`
	Counters      map[string]int64               `json:"counters"`
	Sums          map[string]RunningSum          `json:"sums"`
	Hists         map[string]map[string]int64    `json:"histograms"`
	LastMaps      map[string]map[string]string   `json:"last_maps"`
	LinkMaps      map[string]map[string][]string `json:"link_maps"`
	Sets          map[string][]string            `json:"sets"`
	MergedBatches []string                       `json:"merged_batches"`
}

// Snapshot converts the accumulator into its serializable form.
func (a *Accumulator) Snapshot() *Snapshot {
	s := &Snapshot{
		TypeCounts:    make(map[string]TypeCount, len(a.typeCounts)),
		IDsSeen:       make(map[string][]string, len(a.idsSeen)),
		Counters:      make(map[string]int64, len(a.counters)),
		Sums:          make(map[string]RunningSum, len(a.sums)),
		Hists:         make(map[string]map[string]int64, len(a.hists)),
		LastMaps:      make(map[string]map[string]string, len(a.lastMaps)),
		LinkMaps:      make(map[string]map[string][]string, len(a.linkMaps)),
		Sets:          make(map[string][]string, len(a.sets)),
		MergedBatches: sortedMembers(a.mergedBatches),
	}

	for t, tc := range a.typeCounts {
		s.TypeCounts[string(t)] = *tc
	}

	for t, seen := range a.idsSeen {
		s.IDsSeen[string(t)] = sortedMembers(seen)
	}

	for name, v := range a.counters {
		s.Counters[name] = v
	}

	for name, rs := range a.sums {
		s.Sums[name] = *rs
	}

	for name, h := range a.hists {
		dst := make(map[string]int64, len(h))
		for bucket, count := range h {
			dst[bucket] = count
		}

		s.Hists[name] = dst
	}

	for name, m := range a.lastMaps {
		dst := make(map[string]string, len(m))
		for k, v := range m {
			dst[k] = v
		}

		s.LastMaps[name] = dst
	}

	for name, m := range a.linkMaps {
		dst := make(map[string][]string, len(m))
		for from, targets := range m {
			dst[from] = sortedMembers(targets)
		}

		s.LinkMaps[name] = dst
	}

	for name, set := range a.sets {
		s.Sets[name] = sortedMembers(set)
	}

	return s
}

// Restore builds an accumulator from a snapshot.
func Restore(s *Snapshot) *Accumulator {
	a := New()

	for t, tc := range s.TypeCounts {
		copied := tc
		a.typeCounts[entity.Type(t)] = &copied
	}

	for t, ids := range s.IDsSeen {
		seen := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			seen[id] = struct{}{}
		}

		a.idsSeen[entity.Type(t)] = seen
	}

	for name, v := range s.Counters {
		a.counters[name] = v
	}

	for name, rs := range s.Sums {
		copied := rs
		a.sums[name] = &copied
	}

	for name, h := range s.Hists {
		for bucket, count := range h {
			a.AddHist(name, bucket, count)
		}
	}

	for name, m := range s.LastMaps {
		for k, v := range m {
			a.SetLast(name, k, v)
		}
	}

	for name, m := range s.LinkMaps {
		for from, targets := range m {
			for _, to := range targets {
				a.AddLink(name, from, to)
			}
		}
	}

	for name, members := range s.Sets {
		for _, member := range members {
			a.AddToSet(name, member)
		}
	}

	for _, id := range s.MergedBatches {
		a.mergedBatches[id] = struct{}{}
	}

	return a
}

func sortedMembers(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for member := range set {
		out = append(out, member)
	}

	sort.Strings(out)

	return out
}
