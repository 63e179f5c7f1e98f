package sections

import (
	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/document"
	"github.com/dqaudit/dqaudit/internal/entity"
)

// Equipment computes asset-link coverage and match-confidence statistics for
// equipment records. Critical coverage relates equipment links back to the
// asset hierarchy, so this section also reads asset pages.
type Equipment struct{}

// Name implements Section.
func (e *Equipment) Name() string {
	return NameEquipment
}

// EntityTypes implements Section.
func (e *Equipment) EntityTypes() []entity.Type {
	return []entity.Type{entity.TypeAsset, entity.TypeEquipment}
}

// Compute implements Section.
func (e *Equipment) Compute(acc *accumulator.Accumulator) (document.SectionMetrics, error) {
	unique := acc.Counts(entity.TypeEquipment).Unique
	linked := acc.SetLen(accumulator.KeyEquipmentLinked)

	// Assets covered by at least one equipment link.
	covered := make(map[string]struct{})

	for _, targets := range acc.LinkMap(accumulator.KeyEquipmentAsset) {
		for assetID := range targets {
			covered[assetID] = struct{}{}
		}
	}

	var criticalCovered int64

	critical := acc.Set(accumulator.KeyAssetCritical)
	for assetID := range critical {
		if _, ok := covered[assetID]; ok {
			criticalCovered++
		}
	}

	metrics := document.SectionMetrics{
		"equipment_total":        unique,
		"linked_to_asset":        linked,
		"asset_link_rate":        document.Rate(linked, unique),
		"assets_covered":         int64(len(covered)),
		"critical_total":         int64(len(critical)),
		"critical_coverage_rate": document.Rate(criticalCovered, int64(len(critical))),
		"type_distribution":      acc.Hist(accumulator.KeyEquipmentTypes),
	}

	conf := acc.Sum(accumulator.KeyEquipmentConfidence)
	if mean, ok := conf.Mean(); ok {
		metrics["mean_link_confidence"] = document.Pct(mean * 100)
	} else {
		metrics["mean_link_confidence"] = (*float64)(nil)
	}

	metrics["scored_links"] = conf.Count

	return metrics, nil
}
