package engine

import (
	"github.com/openmri/halbach-evolve/internal/types"
)

// HallOfFame keeps the best individuals ever seen, ordered by ascending
// score. Entries are clones, so later mutation of a live individual never
// rewrites history. Updates are monotonic: the tracked best fitness can only
// improve.
type HallOfFame struct {
	max     int
	entries []*types.Individual
}

// NewHallOfFame creates a hall of fame retaining at most size entries.
func NewHallOfFame(size int) *HallOfFame {
	if size < 1 {
		size = 1
	}
	return &HallOfFame{max: size}
}

// Update offers every individual of a population. An individual enters only
// if the hall has room or it beats (or ties) the worst retained entry, and an
// exact genome already present is not inserted twice.
func (h *HallOfFame) Update(pop []*types.Individual) {
	for _, ind := range pop {
		if !ind.Evaluated {
			continue
		}
		if len(h.entries) == h.max && h.entries[h.max-1].Fitness.Score < ind.Fitness.Score {
			continue
		}
		if h.contains(ind) {
			continue
		}
		h.insert(ind.Clone())
		if len(h.entries) > h.max {
			h.entries = h.entries[:h.max]
		}
	}
}

// Best returns the lowest-scoring entry, or nil when empty.
func (h *HallOfFame) Best() *types.Individual {
	if len(h.entries) == 0 {
		return nil
	}
	return h.entries[0]
}

// Entries returns the retained individuals, best first. The slice is a fresh
// copy; the entries themselves are the hall's immutable snapshots.
func (h *HallOfFame) Entries() []*types.Individual {
	out := make([]*types.Individual, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of retained entries.
func (h *HallOfFame) Len() int { return len(h.entries) }

func (h *HallOfFame) contains(ind *types.Individual) bool {
	sig := ind.Signature()
	for _, e := range h.entries {
		if e.Fitness.Score == ind.Fitness.Score && e.Signature() == sig {
			return true
		}
	}
	return false
}

func (h *HallOfFame) insert(ind *types.Individual) {
	pos := len(h.entries)
	for i, e := range h.entries {
		if ind.Fitness.Score < e.Fitness.Score {
			pos = i
			break
		}
	}
	h.entries = append(h.entries, nil)
	copy(h.entries[pos+1:], h.entries[pos:])
	h.entries[pos] = ind
}
