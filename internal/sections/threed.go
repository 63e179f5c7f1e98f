package sections

import (
	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/document"
	"github.com/dqaudit/dqaudit/internal/entity"
)

// ThreeD computes 3D mapping coverage: how many models exist, how many node
// mappings they carry, and what share of known assets appears in any model.
type ThreeD struct{}

// Name implements Section.
func (t *ThreeD) Name() string {
	return NameThreeD
}

// EntityTypes implements Section.
func (t *ThreeD) EntityTypes() []entity.Type {
	return []entity.Type{entity.TypeAsset, entity.TypeThreeD}
}

// Compute implements Section.
func (t *ThreeD) Compute(acc *accumulator.Accumulator) (document.SectionMetrics, error) {
	assetTotal := acc.Counts(entity.TypeAsset).Unique
	mappedAssets := acc.SetLen(accumulator.KeyThreeDAssets)

	metrics := document.SectionMetrics{
		"mapping_total":      acc.Counts(entity.TypeThreeD).Unique,
		"model_count":        acc.SetLen(accumulator.KeyThreeDModels),
		"node_mappings":      acc.Counter(accumulator.KeyThreeDNodeCount),
		"mapped_assets":      mappedAssets,
		"asset_mapping_rate": document.Rate(mappedAssets, assetTotal),
	}

	return metrics, nil
}
