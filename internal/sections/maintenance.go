package sections

import (
	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/document"
	"github.com/dqaudit/dqaudit/internal/entity"
)

// Maintenance computes work-order statistics: status and priority
// distributions, resolution times, asset coverage, and — when execution
// histories were fetched — execution outcome counts. Critical coverage is
// the share of critical assets with at least one maintenance record.
type Maintenance struct{}

// Name implements Section.
func (m *Maintenance) Name() string {
	return NameMaintenance
}

// EntityTypes implements Section.
func (m *Maintenance) EntityTypes() []entity.Type {
	return []entity.Type{entity.TypeAsset, entity.TypeMaintenance}
}

// Compute implements Section.
func (m *Maintenance) Compute(acc *accumulator.Accumulator) (document.SectionMetrics, error) {
	unique := acc.Counts(entity.TypeMaintenance).Unique
	withAsset := acc.SetLen(accumulator.KeyMaintAssets)

	var criticalCovered int64

	critical := acc.Set(accumulator.KeyAssetCritical)
	for assetID := range critical {
		if acc.InSet(accumulator.KeyMaintAssets, assetID) {
			criticalCovered++
		}
	}

	metrics := document.SectionMetrics{
		"workorder_total":          unique,
		"status_distribution":      acc.Hist(accumulator.KeyMaintStatus),
		"priority_distribution":    acc.Hist(accumulator.KeyMaintPriority),
		"assets_with_records":      withAsset,
		"asset_link_rate":          document.Rate(acc.LinkCount(accumulator.KeyMaintAssetLinks), unique),
		"critical_total":           int64(len(critical)),
		"critical_coverage_rate":   document.Rate(criticalCovered, int64(len(critical))),
		"executions_total":         acc.Counter(accumulator.KeyMaintExecTotal),
		"execution_status":         acc.Hist(accumulator.KeyMaintExecStatus),
		"execution_fetch_failures": acc.Counter(accumulator.KeyMaintExecFailedFetch),
	}

	res := acc.Sum(accumulator.KeyMaintResolutionHrs)
	if mean, ok := res.Mean(); ok {
		metrics["mean_resolution_hours"] = &mean
	} else {
		metrics["mean_resolution_hours"] = (*float64)(nil)
	}

	return metrics, nil
}
