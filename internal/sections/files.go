package sections

import (
	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/document"
	"github.com/dqaudit/dqaudit/internal/entity"
)

// Files computes upload state, MIME distribution, and asset-link coverage
// for file records.
type Files struct{}

// Name implements Section.
func (f *Files) Name() string {
	return NameFiles
}

// EntityTypes implements Section.
func (f *Files) EntityTypes() []entity.Type {
	return []entity.Type{entity.TypeFile}
}

// Compute implements Section.
func (f *Files) Compute(acc *accumulator.Accumulator) (document.SectionMetrics, error) {
	unique := acc.Counts(entity.TypeFile).Unique
	sized := acc.Sum(accumulator.KeyFileSizeBytes)

	metrics := document.SectionMetrics{
		"file_total":        unique,
		"uploaded":          acc.Counter(accumulator.KeyFileUploaded),
		"uploaded_rate":     document.Rate(acc.Counter(accumulator.KeyFileUploaded), unique),
		"linked_to_asset":   acc.LinkCount(accumulator.KeyFileAssetLinks),
		"asset_link_rate":   document.Rate(acc.LinkCount(accumulator.KeyFileAssetLinks), unique),
		"mime_distribution": acc.Hist(accumulator.KeyFileMime),
		"total_size_bytes":  int64(sized.Sum),
	}

	if mean, ok := sized.Mean(); ok {
		metrics["mean_size_bytes"] = &mean
	} else {
		metrics["mean_size_bytes"] = (*float64)(nil)
	}

	return metrics, nil
}
