// Package entity defines the generic record model shared by the data source,
// the page processors, and the accumulator. Records are heterogeneous; the
// only structure every entity carries is a type tag, a stable identifier, and
// a property bag. Identity is defined solely by (type, identifier).
package entity

// Type tags one kind of source record.
type Type string

// Entity types understood by the engine.
const (
	TypeAsset       Type = "asset"
	TypeEquipment   Type = "equipment"
	TypeTimeSeries  Type = "timeseries"
	TypeFile        Type = "file"
	TypeAnnotation  Type = "annotation"
	TypeThreeD      Type = "threed"
	TypeMaintenance Type = "maintenance"
)

// AllTypes lists every known entity type in deterministic processing order.
func AllTypes() []Type {
	return []Type{
		TypeAsset,
		TypeEquipment,
		TypeTimeSeries,
		TypeFile,
		TypeAnnotation,
		TypeThreeD,
		TypeMaintenance,
	}
}

// Known reports whether t is one of the engine's entity types.
func Known(t Type) bool {
	for _, known := range AllTypes() {
		if t == known {
			return true
		}
	}

	return false
}

// Entity is one raw record delivered by the data source. The same entity may
// be delivered more than once across pages or batches; deduplication is the
// accumulator's job, not the source's.
type Entity struct {
	Type  Type
	ID    string
	Props Bag
}

// Batch is one immutable page of records of a single entity type.
type Batch struct {
	Type Type

	Items []Entity

	// NextCursor positions a follow-up request after this page.
	// Empty means the source is exhausted.
	NextCursor string
}
