package processors

import (
	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/entity"
)

// Milliseconds per hour, for work-order resolution times.
const msPerHour = 3600 * 1000

// MaintenanceProcessor folds maintenance/work-order pages: status and
// priority distributions, asset coverage, and resolution times for closed
// orders.
type MaintenanceProcessor struct{}

// Type implements Processor.
func (p *MaintenanceProcessor) Type() entity.Type {
	return entity.TypeMaintenance
}

// Process implements Processor.
func (p *MaintenanceProcessor) Process(batch entity.Batch, acc *accumulator.Accumulator) {
	for _, e := range batch.Items {
		if !acc.Observe(entity.TypeMaintenance, e.ID) {
			continue
		}

		status := e.Props.String("status", "")
		if status == "" {
			status = statusUnknown
		}

		acc.IncHist(accumulator.KeyMaintStatus, status)

		if priority := e.Props.String("priority", ""); priority != "" {
			acc.IncHist(accumulator.KeyMaintPriority, priority)
		}

		if assetID := e.Props.String("assetId", ""); assetID != "" {
			acc.AddToSet(accumulator.KeyMaintAssets, assetID)
			acc.AddLink(accumulator.KeyMaintAssetLinks, e.ID, assetID)
		}

		created := e.Props.Int64("createdTime", 0)
		closed := e.Props.Int64("closedTime", 0)

		if created > 0 && closed > created {
			acc.ObserveSum(accumulator.KeyMaintResolutionHrs, float64(closed-created)/msPerHour)
		}
	}
}
