package document

import "sort"

// MergeSelective combines a cached document with a freshly computed one.
// Sections named in recomputed are taken from fresh; every other section is
// copied verbatim from cached, including its contribution to
// instance_counts. sectionTypes maps each section name to the entity types
// it is derived from, so a cached section keeps its cached counts and a
// recomputed section overrides them.
//
// With an empty recomputed set the result is the cached document with only
// run metadata (run id, timestamps, execution time) replaced.
func MergeSelective(cached, fresh *Document, recomputed []string, sectionTypes map[string][]string) *Document {
	out := New(fresh.Metadata.RunID)
	out.Metadata = fresh.Metadata
	out.Metadata.PartialRecompute = true
	out.Metadata.RecomputedSections = append([]string{}, recomputed...)
	sort.Strings(out.Metadata.RecomputedSections)

	recomputedSet := make(map[string]struct{}, len(recomputed))
	for _, name := range recomputed {
		recomputedSet[name] = struct{}{}
	}

	// Cached counts first, fresh counts override for recomputed sections'
	// types. A type shared by a cached and a recomputed section takes the
	// fresh value: it was re-ingested this run.
	counts := make(map[string]InstanceCount, len(cached.Metadata.InstanceCounts))
	for typ, c := range cached.Metadata.InstanceCounts {
		counts[typ] = c
	}

	for _, name := range recomputed {
		for _, typ := range sectionTypes[name] {
			c, ok := fresh.Metadata.InstanceCounts[typ]
			if ok {
				counts[typ] = c
			}
		}
	}

	out.Metadata.InstanceCounts = counts

	for name, metrics := range cached.Sections {
		if _, isFresh := recomputedSet[name]; !isFresh {
			out.Sections[name] = metrics
		}
	}

	for _, name := range recomputed {
		metrics, ok := fresh.Sections[name]
		if ok {
			out.Sections[name] = metrics
		}
	}

	return out
}
