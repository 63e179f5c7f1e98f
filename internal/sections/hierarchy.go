package sections

import (
	"strconv"

	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/document"
	"github.com/dqaudit/dqaudit/internal/entity"
	"github.com/dqaudit/dqaudit/pkg/stats"
)

// Hierarchy computes depth and breadth statistics over the asset parent map.
type Hierarchy struct{}

// Name implements Section.
func (h *Hierarchy) Name() string {
	return NameHierarchy
}

// EntityTypes implements Section.
func (h *Hierarchy) EntityTypes() []entity.Type {
	return []entity.Type{entity.TypeAsset}
}

// Compute implements Section.
func (h *Hierarchy) Compute(acc *accumulator.Accumulator) (document.SectionMetrics, error) {
	parents := acc.LastMap(accumulator.KeyAssetParent)

	depths, cycles := resolveDepths(parents)

	var (
		roots     int64
		dangling  int64
		maxDepth  int64
		depthDist = make(map[string]int64)
		depthVals = make([]float64, 0, len(depths))
	)

	for id, parent := range parents {
		if parent == "" {
			roots++
		} else if _, known := parents[parent]; !known {
			dangling++
		}

		d := int64(depths[id])
		if d > maxDepth {
			maxDepth = d
		}

		depthDist[strconv.FormatInt(d, 10)]++
		depthVals = append(depthVals, float64(d))
	}

	children := make(map[string]int64)

	for _, parent := range parents {
		if parent == "" {
			continue
		}

		if _, known := parents[parent]; known {
			children[parent]++
		}
	}

	childCounts := make([]float64, 0, len(children))
	for _, n := range children {
		childCounts = append(childCounts, float64(n))
	}

	depthSummary := stats.Describe(depthVals)
	breadthSummary := stats.Describe(childCounts)

	metrics := document.SectionMetrics{
		"asset_count":           int64(len(parents)),
		"root_count":            roots,
		"orphan_parent_refs":    dangling,
		"cycles_detected":       cycles,
		"max_depth":             maxDepth,
		"mean_depth":            depthSummary.Mean,
		"depth_distribution":    depthDist,
		"parents_with_children": int64(len(children)),
		"mean_children":         breadthSummary.Mean,
		"std_children":          breadthSummary.StdDev,
		"max_children":          int64(breadthSummary.Max),
		"description_rate":      document.Rate(acc.Counter(accumulator.KeyAssetWithDesc), int64(len(parents))),
		"metadata_rate":         document.Rate(acc.Counter(accumulator.KeyAssetWithMetadata), int64(len(parents))),
	}

	return metrics, nil
}

// resolveDepths computes the depth of every node in the parent map: the
// distance to the nearest ancestor without a parent. The walk is iterative
// and memoized; no node's ancestor chain is walked more than once across the
// whole computation. Source data may contain cycles: a walk that revisits a
// node on its own path pins that node at depth 0 and terminates, so cyclic
// chains yield finite depths instead of hanging. A parent reference pointing
// outside the dataset is treated as a root.
func resolveDepths(parents map[string]string) (map[string]int, int64) {
	memo := make(map[string]int, len(parents))

	var cycles int64

	for id := range parents {
		if _, done := memo[id]; done {
			continue
		}

		stack := make([]string, 0, 8)
		onPath := make(map[string]struct{})
		cur := id

		for {
			if _, done := memo[cur]; done {
				break
			}

			if _, looped := onPath[cur]; looped {
				// Cycle: pin the entry node and let the unwind assign the
				// depths accumulated before the walk closed on itself.
				memo[cur] = 0
				cycles++

				break
			}

			parent, known := parents[cur]
			if parent == "" || !known {
				memo[cur] = 0

				break
			}

			onPath[cur] = struct{}{}
			stack = append(stack, cur)
			cur = parent
		}

		for i := len(stack) - 1; i >= 0; i-- {
			node := stack[i]
			if _, done := memo[node]; done {
				continue
			}

			memo[node] = memo[parents[node]] + 1
		}
	}

	return memo, cycles
}
