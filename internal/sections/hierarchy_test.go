package sections_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/document"
	"github.com/dqaudit/dqaudit/internal/entity"
	"github.com/dqaudit/dqaudit/internal/sections"
)

func ingestAssets(acc *accumulator.Accumulator, parents map[string]string) {
	for id, parent := range parents {
		acc.Observe(entity.TypeAsset, id)
		acc.SetLast(accumulator.KeyAssetParent, id, parent)
	}
}

func TestHierarchy_DepthAndBreadth(t *testing.T) {
	t.Parallel()

	acc := accumulator.New()
	ingestAssets(acc, map[string]string{
		"root":   "",
		"site-a": "root",
		"site-b": "root",
		"pump-1": "site-a",
		"pump-2": "site-a",
		"seal-1": "pump-1",
	})

	metrics, err := (&sections.Hierarchy{}).Compute(acc)
	require.NoError(t, err)

	assert.Equal(t, int64(6), metrics["asset_count"])
	assert.Equal(t, int64(1), metrics["root_count"])
	assert.Equal(t, int64(3), metrics["max_depth"])
	assert.Equal(t, int64(0), metrics["cycles_detected"])
	assert.Equal(t, int64(0), metrics["orphan_parent_refs"])

	dist, ok := metrics["depth_distribution"].(map[string]int64)
	require.True(t, ok)
	assert.Equal(t, int64(1), dist["0"])
	assert.Equal(t, int64(2), dist["1"])
	assert.Equal(t, int64(2), dist["2"])
	assert.Equal(t, int64(1), dist["3"])

	// root has 2 children, site-a has 2, pump-1 has 1.
	assert.Equal(t, int64(3), metrics["parents_with_children"])
	assert.Equal(t, int64(2), metrics["max_children"])
	assert.InDelta(t, 5.0/3.0, metrics["mean_children"].(float64), 0.0001)
}

func TestHierarchy_CycleTerminatesWithFiniteDepths(t *testing.T) {
	t.Parallel()

	acc := accumulator.New()
	ingestAssets(acc, map[string]string{
		"a": "b",
		"b": "a",
		"c": "a",
	})

	metrics, err := (&sections.Hierarchy{}).Compute(acc)
	require.NoError(t, err)

	assert.Equal(t, int64(1), metrics["cycles_detected"])

	// Every node got a finite depth despite the a<->b cycle.
	dist, ok := metrics["depth_distribution"].(map[string]int64)
	require.True(t, ok)

	var total int64
	for _, n := range dist {
		total += n
	}

	assert.Equal(t, int64(3), total)
}

func TestHierarchy_DanglingParentTreatedAsRoot(t *testing.T) {
	t.Parallel()

	acc := accumulator.New()
	ingestAssets(acc, map[string]string{
		"x": "ghost", // parent never ingested
		"y": "x",
	})

	metrics, err := (&sections.Hierarchy{}).Compute(acc)
	require.NoError(t, err)

	assert.Equal(t, int64(1), metrics["orphan_parent_refs"])
	assert.Equal(t, int64(0), metrics["root_count"])
	assert.Equal(t, int64(2), metrics["max_depth"])
}

func TestHierarchy_DeepChainIterative(t *testing.T) {
	t.Parallel()

	// A chain far beyond any recursion budget; must complete and be exact.
	const depth = 200_000

	parents := make(map[string]string, depth)
	parents["n0"] = ""

	for i := 1; i < depth; i++ {
		parents[fmt.Sprintf("n%d", i)] = fmt.Sprintf("n%d", i-1)
	}

	acc := accumulator.New()
	ingestAssets(acc, parents)

	metrics, err := (&sections.Hierarchy{}).Compute(acc)
	require.NoError(t, err)
	assert.Equal(t, int64(depth-1), metrics["max_depth"])
}

func TestHierarchy_EmptyAccumulator(t *testing.T) {
	t.Parallel()

	metrics, err := (&sections.Hierarchy{}).Compute(accumulator.New())
	require.NoError(t, err)

	assert.Equal(t, int64(0), metrics["asset_count"])

	// No assets means rates are not applicable, not 0%.
	rate, ok := metrics["description_rate"].(*float64)
	require.True(t, ok)
	assert.Nil(t, rate)

	_ = document.SectionMetrics(metrics)
}
