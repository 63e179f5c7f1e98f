// Package document defines the output document produced by a run: metadata
// plus one metrics block per section, serialized as
// {"metadata": {...}, "<section>_metrics": {...}}. It also implements the
// merge used by selective recompute.
package document

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Suffix appended to a section name to form its document key.
const sectionSuffix = "_metrics"

// InstanceCount mirrors accumulator delivery accounting in the document.
type InstanceCount struct {
	Total      int64 `json:"total_instances"`
	Unique     int64 `json:"unique"`
	Duplicates int64 `json:"duplicates"`
	Skipped    int64 `json:"skipped"`
}

// Metadata describes how and when the document was computed.
type Metadata struct {
	RunID                string                   `json:"run_id"`
	ComputedAt           time.Time                `json:"computed_at"`
	ExecutionTimeSeconds float64                  `json:"execution_time_seconds"`
	InstanceCounts       map[string]InstanceCount `json:"instance_counts"`
	Config               map[string]any           `json:"config"`
	PartialRecompute     bool                     `json:"partial_recompute"`
	RecomputedSections   []string                 `json:"recomputed_sections"`
}

// SectionMetrics is one section's computed metrics. Percentage values are
// *float64: nil means "not applicable" and serializes as JSON null, never 0.
type SectionMetrics map[string]any

// Document is the output of one run.
type Document struct {
	Metadata Metadata
	Sections map[string]SectionMetrics
}

// New creates a document with empty sections and initialized metadata maps.
func New(runID string) *Document {
	return &Document{
		Metadata: Metadata{
			RunID:              runID,
			InstanceCounts:     make(map[string]InstanceCount),
			Config:             make(map[string]any),
			RecomputedSections: []string{},
		},
		Sections: make(map[string]SectionMetrics),
	}
}

// SectionNames returns the sorted section names present in the document.
func (d *Document) SectionNames() []string {
	names := make([]string, 0, len(d.Sections))
	for name := range d.Sections {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// MarshalJSON flattens sections to "<name>_metrics" keys next to metadata.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Sections)+1)
	out["metadata"] = d.Metadata

	for name, metrics := range d.Sections {
		out[name+sectionSuffix] = metrics
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	return data, nil
}

// UnmarshalJSON restores a document from its flattened form.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}

	metaRaw, ok := raw["metadata"]
	if ok {
		metaErr := json.Unmarshal(metaRaw, &d.Metadata)
		if metaErr != nil {
			return fmt.Errorf("unmarshal metadata: %w", metaErr)
		}
	}

	d.Sections = make(map[string]SectionMetrics)

	for key, value := range raw {
		if key == "metadata" || !strings.HasSuffix(key, sectionSuffix) {
			continue
		}

		var metrics SectionMetrics

		secErr := json.Unmarshal(value, &metrics)
		if secErr != nil {
			return fmt.Errorf("unmarshal section %q: %w", key, secErr)
		}

		d.Sections[strings.TrimSuffix(key, sectionSuffix)] = metrics
	}

	return nil
}

// Pct wraps a percentage value for a section metric.
func Pct(v float64) *float64 {
	return &v
}

// Rate returns num/den as a percentage in [0,100], or nil when the
// denominator is zero. Zero denominators must propagate as "not applicable";
// reporting 0% would claim a measurement that was never made.
func Rate(num, den int64) *float64 {
	if den == 0 {
		return nil
	}

	return Pct(float64(num) / float64(den) * 100)
}
