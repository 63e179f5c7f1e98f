package processors

import (
	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/entity"
)

// ThreeDProcessor folds 3D object-mapping pages: which models exist, how
// many node mappings they carry, and which assets are mapped into any model.
type ThreeDProcessor struct{}

// Type implements Processor.
func (p *ThreeDProcessor) Type() entity.Type {
	return entity.TypeThreeD
}

// Process implements Processor.
func (p *ThreeDProcessor) Process(batch entity.Batch, acc *accumulator.Accumulator) {
	for _, e := range batch.Items {
		if !acc.Observe(entity.TypeThreeD, e.ID) {
			continue
		}

		modelID := e.Props.String("modelId", "")
		if modelID != "" {
			acc.AddToSet(accumulator.KeyThreeDModels, modelID)
		}

		acc.AddCounter(accumulator.KeyThreeDNodeCount, e.Props.Int64("nodeCount", 1))

		assetID := e.Props.String("assetId", "")
		if assetID == "" {
			continue
		}

		acc.AddToSet(accumulator.KeyThreeDAssets, assetID)

		if modelID != "" {
			acc.AddLink(accumulator.KeyThreeDAssetLinks, modelID, assetID)
		}
	}
}
