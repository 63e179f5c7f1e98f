// Package accumulator holds the mutable aggregation state for one run or one
// bounded shard of a run. Page processors fold entity batches into it during
// the ingest phase; metric computers read it afterwards. State is organized
// by field kind (dedup sets, counters, running sums, histograms, last-value
// maps, set-valued maps, plain sets) so merging and serialization follow one
// contract per kind instead of one per metric.
package accumulator

import (
	"github.com/dqaudit/dqaudit/internal/entity"
)

// TypeCount tracks delivery accounting for one entity type.
// Total = Unique + Duplicates + Skipped at all times.
type TypeCount struct {
	Total      int64 `json:"total_instances"`
	Unique     int64 `json:"unique"`
	Duplicates int64 `json:"duplicates"`
	Skipped    int64 `json:"skipped"`
}

// RunningSum is a sum with an observation count, for later averaging.
type RunningSum struct {
	Sum   float64 `json:"sum"`
	Count int64   `json:"count"`
}

// Mean returns the running average and whether it is defined.
func (r RunningSum) Mean() (float64, bool) {
	if r.Count == 0 {
		return 0, false
	}

	return r.Sum / float64(r.Count), true
}

// Accumulator is the aggregation state for one run (or one shard).
// It is not safe for concurrent mutation; the ingest phase is sequential and
// the worker-pool path funnels writes through a single locked writer.
type Accumulator struct {
	typeCounts map[entity.Type]*TypeCount
	idsSeen    map[entity.Type]map[string]struct{}

	counters map[string]int64
	sums     map[string]*RunningSum
	hists    map[string]map[string]int64
	lastMaps map[string]map[string]string
	linkMaps map[string]map[string]map[string]struct{}
	sets     map[string]map[string]struct{}

	// mergedBatches is the batch-id ledger: shard IDs already folded into
	// this accumulator. MergeBatch rejects a repeated ID because merging the
	// same batch twice double-counts every counter.
	mergedBatches map[string]struct{}
}

// New creates an empty accumulator.
func New() *Accumulator {
	return &Accumulator{
		typeCounts:    make(map[entity.Type]*TypeCount),
		idsSeen:       make(map[entity.Type]map[string]struct{}),
		counters:      make(map[string]int64),
		sums:          make(map[string]*RunningSum),
		hists:         make(map[string]map[string]int64),
		lastMaps:      make(map[string]map[string]string),
		linkMaps:      make(map[string]map[string]map[string]struct{}),
		sets:          make(map[string]map[string]struct{}),
		mergedBatches: make(map[string]struct{}),
	}
}

// Observe records delivery of one entity and decides whether the caller
// should apply type-specific updates. It returns true exactly when the
// entity is new: a record with an empty identifier is counted as skipped,
// a repeated (type, id) pair is counted as a duplicate, and both return
// false. Observe never fails; malformed records are data-quality signal,
// not errors.
func (a *Accumulator) Observe(t entity.Type, id string) bool {
	tc := a.typeCount(t)
	tc.Total++

	if id == "" {
		tc.Skipped++

		return false
	}

	seen, ok := a.idsSeen[t]
	if !ok {
		seen = make(map[string]struct{})
		a.idsSeen[t] = seen
	}

	if _, dup := seen[id]; dup {
		tc.Duplicates++

		return false
	}

	seen[id] = struct{}{}
	tc.Unique++

	return true
}

// Counts returns the delivery accounting for one entity type.
func (a *Accumulator) Counts(t entity.Type) TypeCount {
	tc, ok := a.typeCounts[t]
	if !ok {
		return TypeCount{}
	}

	return *tc
}

// AllCounts returns a copy of the per-type delivery accounting.
func (a *Accumulator) AllCounts() map[entity.Type]TypeCount {
	out := make(map[entity.Type]TypeCount, len(a.typeCounts))
	for t, tc := range a.typeCounts {
		out[t] = *tc
	}

	return out
}

// IDs returns the sorted unique identifiers observed for type t.
func (a *Accumulator) IDs(t entity.Type) []string {
	return sortedMembers(a.idsSeen[t])
}

// Seen reports whether id was already observed for type t.
func (a *Accumulator) Seen(t entity.Type, id string) bool {
	_, ok := a.idsSeen[t][id]

	return ok
}

// AddCounter adds delta to the named counter.
func (a *Accumulator) AddCounter(name string, delta int64) {
	a.counters[name] += delta
}

// Counter returns the named counter's value (0 when never written).
func (a *Accumulator) Counter(name string) int64 {
	return a.counters[name]
}

// ObserveSum folds one observation into the named running sum.
func (a *Accumulator) ObserveSum(name string, v float64) {
	rs, ok := a.sums[name]
	if !ok {
		rs = &RunningSum{}
		a.sums[name] = rs
	}

	rs.Sum += v
	rs.Count++
}

// Sum returns the named running sum (zero value when never written).
func (a *Accumulator) Sum(name string) RunningSum {
	rs, ok := a.sums[name]
	if !ok {
		return RunningSum{}
	}

	return *rs
}

// IncHist increments one bucket of the named histogram.
func (a *Accumulator) IncHist(name, bucket string) {
	a.AddHist(name, bucket, 1)
}

// AddHist adds delta to one bucket of the named histogram.
func (a *Accumulator) AddHist(name, bucket string, delta int64) {
	h, ok := a.hists[name]
	if !ok {
		h = make(map[string]int64)
		a.hists[name] = h
	}

	h[bucket] += delta
}

// Hist returns the named histogram. The returned map is live state and must
// not be mutated by the caller; metric computers only read it.
func (a *Accumulator) Hist(name string) map[string]int64 {
	return a.hists[name]
}

// SetLast records a last-writer-wins association in the named map.
// This is the representation for parent links: id -> parentID, where an
// empty value marks a root.
func (a *Accumulator) SetLast(name, key, value string) {
	m, ok := a.lastMaps[name]
	if !ok {
		m = make(map[string]string)
		a.lastMaps[name] = m
	}

	m[key] = value
}

// LastMap returns the named last-value map. Read-only for callers.
func (a *Accumulator) LastMap(name string) map[string]string {
	return a.lastMaps[name]
}

// AddLink records a many-to-many edge in the named link map.
func (a *Accumulator) AddLink(name, from, to string) {
	m, ok := a.linkMaps[name]
	if !ok {
		m = make(map[string]map[string]struct{})
		a.linkMaps[name] = m
	}

	targets, ok := m[from]
	if !ok {
		targets = make(map[string]struct{})
		m[from] = targets
	}

	targets[to] = struct{}{}
}

// LinkMap returns the named link map. Read-only for callers.
func (a *Accumulator) LinkMap(name string) map[string]map[string]struct{} {
	return a.linkMaps[name]
}

// LinkCount returns the number of source keys in the named link map.
func (a *Accumulator) LinkCount(name string) int64 {
	return int64(len(a.linkMaps[name]))
}

// AddToSet adds member to the named plain set.
func (a *Accumulator) AddToSet(name, member string) {
	s, ok := a.sets[name]
	if !ok {
		s = make(map[string]struct{})
		a.sets[name] = s
	}

	s[member] = struct{}{}
}

// SetLen returns the cardinality of the named set.
func (a *Accumulator) SetLen(name string) int64 {
	return int64(len(a.sets[name]))
}

// InSet reports whether member belongs to the named set.
func (a *Accumulator) InSet(name, member string) bool {
	_, ok := a.sets[name][member]

	return ok
}

// Set returns the named plain set. Read-only for callers.
func (a *Accumulator) Set(name string) map[string]struct{} {
	return a.sets[name]
}

func (a *Accumulator) typeCount(t entity.Type) *TypeCount {
	tc, ok := a.typeCounts[t]
	if !ok {
		tc = &TypeCount{}
		a.typeCounts[t] = tc
	}

	return tc
}
