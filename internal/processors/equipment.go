package processors

import (
	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/entity"
)

// EquipmentProcessor folds equipment pages: asset links with match
// confidence, and a type distribution.
type EquipmentProcessor struct{}

// Type implements Processor.
func (p *EquipmentProcessor) Type() entity.Type {
	return entity.TypeEquipment
}

// Process implements Processor.
func (p *EquipmentProcessor) Process(batch entity.Batch, acc *accumulator.Accumulator) {
	for _, e := range batch.Items {
		if !acc.Observe(entity.TypeEquipment, e.ID) {
			continue
		}

		if eqType := e.Props.String("equipmentType", ""); eqType != "" {
			acc.IncHist(accumulator.KeyEquipmentTypes, eqType)
		}

		assetID := e.Props.String("assetId", "")
		if assetID == "" {
			continue
		}

		acc.AddLink(accumulator.KeyEquipmentAsset, e.ID, assetID)
		acc.AddToSet(accumulator.KeyEquipmentLinked, e.ID)

		// Confidence is only defined for records produced by a matcher;
		// hand-linked equipment has no score and must not drag the average.
		if conf := e.Props.Float("confidence", -1); conf >= 0 {
			acc.ObserveSum(accumulator.KeyEquipmentConfidence, conf)
		}
	}
}
