package processors

import (
	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/entity"
)

// Histogram bucket for files without a MIME type.
const mimeUnknown = "unknown"

// FileProcessor folds file pages: MIME distribution, upload state, size
// accounting, and file-to-asset links.
type FileProcessor struct{}

// Type implements Processor.
func (p *FileProcessor) Type() entity.Type {
	return entity.TypeFile
}

// Process implements Processor.
func (p *FileProcessor) Process(batch entity.Batch, acc *accumulator.Accumulator) {
	for _, e := range batch.Items {
		if !acc.Observe(entity.TypeFile, e.ID) {
			continue
		}

		mime := e.Props.String("mimeType", "")
		if mime == "" {
			mime = mimeUnknown
		}

		acc.IncHist(accumulator.KeyFileMime, mime)

		if e.Props.Bool("uploaded", false) {
			acc.AddCounter(accumulator.KeyFileUploaded, 1)
		}

		if size := e.Props.Int64("size", 0); size > 0 {
			acc.ObserveSum(accumulator.KeyFileSizeBytes, float64(size))
		}

		for _, assetID := range e.Props.Strings("assetIds") {
			acc.AddLink(accumulator.KeyFileAssetLinks, e.ID, assetID)
		}
	}
}
