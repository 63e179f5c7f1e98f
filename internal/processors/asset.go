package processors

import (
	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/entity"
)

// Criticality values treated as critical.
const criticalityCritical = "critical"

// AssetProcessor folds asset pages: parent links for the hierarchy section,
// criticality classification, and metadata-completeness counters.
type AssetProcessor struct{}

// Type implements Processor.
func (p *AssetProcessor) Type() entity.Type {
	return entity.TypeAsset
}

// Process implements Processor.
func (p *AssetProcessor) Process(batch entity.Batch, acc *accumulator.Accumulator) {
	for _, e := range batch.Items {
		if !acc.Observe(entity.TypeAsset, e.ID) {
			continue
		}

		// Every asset gets a parent_of entry; an empty value marks a root.
		// Cycles in source data are tolerated here and resolved by the
		// hierarchy computer.
		acc.SetLast(accumulator.KeyAssetParent, e.ID, e.Props.String("parentId", ""))

		if isCritical(e.Props) {
			acc.AddToSet(accumulator.KeyAssetCritical, e.ID)
		}

		for _, label := range e.Props.Strings("labels") {
			acc.IncHist(accumulator.KeyAssetLabels, label)
		}

		if e.Props.String("description", "") != "" {
			acc.AddCounter(accumulator.KeyAssetWithDesc, 1)
		}

		if len(e.Props.Map("metadata")) > 0 {
			acc.AddCounter(accumulator.KeyAssetWithMetadata, 1)
		}
	}
}

func isCritical(props entity.Bag) bool {
	if props.Bool("critical", false) {
		return true
	}

	return props.String("criticality", "") == criticalityCritical
}
