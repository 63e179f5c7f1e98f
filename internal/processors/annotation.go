package processors

import (
	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/entity"
)

// Histogram bucket for annotations without a status.
const statusUnknown = "unknown"

// AnnotationProcessor folds annotation pages: status distribution, detection
// confidence, target links, and the set of files carrying any annotation.
type AnnotationProcessor struct{}

// Type implements Processor.
func (p *AnnotationProcessor) Type() entity.Type {
	return entity.TypeAnnotation
}

// Process implements Processor.
func (p *AnnotationProcessor) Process(batch entity.Batch, acc *accumulator.Accumulator) {
	for _, e := range batch.Items {
		if !acc.Observe(entity.TypeAnnotation, e.ID) {
			continue
		}

		status := e.Props.String("status", "")
		if status == "" {
			status = statusUnknown
		}

		acc.IncHist(accumulator.KeyAnnotationStatus, status)

		if conf := e.Props.Float("confidence", -1); conf >= 0 {
			acc.ObserveSum(accumulator.KeyAnnotationConfidence, conf)
		}

		if target := e.Props.String("targetId", ""); target != "" {
			acc.AddLink(accumulator.KeyAnnotationTargets, e.ID, target)
		}

		if fileID := e.Props.String("fileId", ""); fileID != "" {
			acc.AddToSet(accumulator.KeyAnnotatedFiles, fileID)
		}
	}
}
