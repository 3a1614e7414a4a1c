package engine

import (
	"github.com/openmri/halbach-evolve/internal/types"
)

// DuplicateTracker caches fitness by genome signature so repeated genomes are
// never re-evaluated, and reports per-generation duplication statistics.
//
// Trackers are island-local: every island owns one, cross-island duplicates
// are simply re-evaluated by the other island. This keeps the evaluation hot
// path lock-free and the per-island statistics meaningful.
type DuplicateTracker struct {
	islandID string
	cache    map[string]types.Fitness
	counts   map[string]int
	hits     int // cache hits since the last Stats call
}

// NewDuplicateTracker creates an empty tracker.
func NewDuplicateTracker() *DuplicateTracker {
	return &DuplicateTracker{
		cache:  make(map[string]types.Fitness),
		counts: make(map[string]int),
	}
}

// Lookup returns the cached fitness for a genome signature. A hit increments
// the signature's occurrence counter.
func (t *DuplicateTracker) Lookup(signature string) (types.Fitness, bool) {
	fit, ok := t.cache[signature]
	if ok {
		t.counts[signature]++
		t.hits++
	}
	return fit, ok
}

// Record stores a freshly evaluated fitness under its genome signature.
func (t *DuplicateTracker) Record(signature string, fit types.Fitness) {
	t.cache[signature] = fit
	t.counts[signature]++
}

// UniqueGenomes returns the number of distinct genomes ever recorded.
func (t *DuplicateTracker) UniqueGenomes() int {
	return len(t.cache)
}

// Stats counts exact duplicates within the given population and drains the
// cache-hit counter accumulated since the previous call.
func (t *DuplicateTracker) Stats(pop []*types.Individual, islandID, generation int) types.DuplicateStats {
	seen := make(map[string]int, len(pop))
	for _, ind := range pop {
		seen[ind.Signature()]++
	}
	duplicates := 0
	for _, n := range seen {
		if n > 1 {
			duplicates += n - 1
		}
	}

	stats := types.DuplicateStats{
		IslandID:        islandID,
		Generation:      generation,
		TotalPopulation: len(pop),
		Unique:          len(seen),
		Duplicates:      duplicates,
		CacheHits:       t.hits,
	}
	if len(pop) > 0 {
		stats.Percentage = float64(duplicates) / float64(len(pop)) * 100
	}
	t.hits = 0
	return stats
}
