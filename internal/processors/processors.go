// Package processors implements one page processor per entity type. A
// processor folds a batch into the shared accumulator: dedup via
// Accumulator.Observe, relationship-map updates, and running-sum/histogram
// updates. Processors perform no I/O and never fail; malformed records are
// skipped by the dedup gate and counted.
package processors

import (
	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/entity"
)

// Processor folds batches of one entity type into the accumulator.
type Processor interface {
	Type() entity.Type
	Process(batch entity.Batch, acc *accumulator.Accumulator)
}

// Config carries processor tuning.
type Config struct {
	// GapThreshold is the minimum delta between consecutive time-series
	// samples that counts as a coverage gap, in the source's timestamp unit.
	GapThreshold int64
}

// Registry maps entity types to their processors.
type Registry struct {
	byType map[entity.Type]Processor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[entity.Type]Processor)}
}

// DefaultRegistry registers every built-in processor.
func DefaultRegistry(cfg Config) *Registry {
	r := NewRegistry()
	r.Register(&AssetProcessor{})
	r.Register(&EquipmentProcessor{})
	r.Register(&TimeSeriesProcessor{GapThreshold: cfg.GapThreshold})
	r.Register(&FileProcessor{})
	r.Register(&AnnotationProcessor{})
	r.Register(&ThreeDProcessor{})
	r.Register(&MaintenanceProcessor{})

	return r
}

// Register adds a processor, replacing any existing one for its type.
func (r *Registry) Register(p Processor) {
	r.byType[p.Type()] = p
}

// For returns the processor for the given entity type.
func (r *Registry) For(t entity.Type) (Processor, bool) {
	p, ok := r.byType[t]

	return p, ok
}
