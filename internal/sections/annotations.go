package sections

import (
	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/document"
	"github.com/dqaudit/dqaudit/internal/entity"
)

// Annotations computes status and confidence statistics for annotations and
// the share of files carrying at least one annotation, which is why it also
// reads file pages.
type Annotations struct{}

// Name implements Section.
func (a *Annotations) Name() string {
	return NameAnnotations
}

// EntityTypes implements Section.
func (a *Annotations) EntityTypes() []entity.Type {
	return []entity.Type{entity.TypeFile, entity.TypeAnnotation}
}

// Compute implements Section.
func (a *Annotations) Compute(acc *accumulator.Accumulator) (document.SectionMetrics, error) {
	unique := acc.Counts(entity.TypeAnnotation).Unique
	fileTotal := acc.Counts(entity.TypeFile).Unique
	annotatedFiles := acc.SetLen(accumulator.KeyAnnotatedFiles)

	metrics := document.SectionMetrics{
		"annotation_total":    unique,
		"status_distribution": acc.Hist(accumulator.KeyAnnotationStatus),
		"target_links":        acc.LinkCount(accumulator.KeyAnnotationTargets),
		"annotated_files":     annotatedFiles,
		"annotated_file_rate": document.Rate(annotatedFiles, fileTotal),
	}

	conf := acc.Sum(accumulator.KeyAnnotationConfidence)
	if mean, ok := conf.Mean(); ok {
		metrics["mean_confidence"] = document.Pct(mean * 100)
	} else {
		metrics["mean_confidence"] = (*float64)(nil)
	}

	return metrics, nil
}
