// Package sections implements the metric computers. Each section is a pure
// function from a read-only accumulator to one metrics block of the output
// document. Sections declare which entity types they read so the
// orchestrator can feed a selective recompute with only the pages it needs.
package sections

import (
	"sort"

	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/document"
	"github.com/dqaudit/dqaudit/internal/entity"
)

// Section names.
const (
	NameHierarchy   = "hierarchy"
	NameEquipment   = "equipment"
	NameTimeSeries  = "timeseries"
	NameFiles       = "files"
	NameAnnotations = "annotations"
	NameThreeD      = "threed"
	NameMaintenance = "maintenance"
)

// Section derives one named metrics block from the final accumulator.
type Section interface {
	Name() string
	// EntityTypes lists the page types this section reads, in ingest order.
	EntityTypes() []entity.Type
	// Compute derives the section's metrics. It must not mutate acc.
	Compute(acc *accumulator.Accumulator) (document.SectionMetrics, error)
}

// Registry holds the registered sections in a stable order.
type Registry struct {
	byName map[string]Section
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Section)}
}

// DefaultRegistry registers every built-in section.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&Hierarchy{})
	r.Register(&Equipment{})
	r.Register(&TimeSeries{})
	r.Register(&Files{})
	r.Register(&Annotations{})
	r.Register(&ThreeD{})
	r.Register(&Maintenance{})

	return r
}

// Register adds a section. Re-registering a name replaces it in place.
func (r *Registry) Register(s Section) {
	_, exists := r.byName[s.Name()]
	r.byName[s.Name()] = s

	if !exists {
		r.order = append(r.order, s.Name())
	}
}

// Get returns the section with the given name.
func (r *Registry) Get(name string) (Section, bool) {
	s, ok := r.byName[name]

	return s, ok
}

// Names returns all registered section names in registration order.
func (r *Registry) Names() []string {
	return append([]string{}, r.order...)
}

// EntityTypesFor returns the union of entity types needed by the named
// sections, deduplicated, in the engine's canonical type order.
func (r *Registry) EntityTypesFor(names []string) []entity.Type {
	needed := make(map[entity.Type]struct{})

	for _, name := range names {
		s, ok := r.byName[name]
		if !ok {
			continue
		}

		for _, t := range s.EntityTypes() {
			needed[t] = struct{}{}
		}
	}

	out := make([]entity.Type, 0, len(needed))

	for _, t := range entity.AllTypes() {
		if _, ok := needed[t]; ok {
			out = append(out, t)
		}
	}

	return out
}

// TypeMap returns section name -> entity type names for the given sections,
// in the form the document merge expects.
func (r *Registry) TypeMap(names []string) map[string][]string {
	out := make(map[string][]string, len(names))

	for _, name := range names {
		s, ok := r.byName[name]
		if !ok {
			continue
		}

		types := make([]string, 0, len(s.EntityTypes()))
		for _, t := range s.EntityTypes() {
			types = append(types, string(t))
		}

		sort.Strings(types)
		out[name] = types
	}

	return out
}
