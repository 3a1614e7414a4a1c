package engine

import (
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/openmri/halbach-evolve/internal/types"
)

// newRandomIndividual draws a genome uniformly from the catalog index range.
func newRandomIndividual(rng *rand.Rand, islandID, generation, slots, catalogLen int) *types.Individual {
	genome := make([]int, slots)
	for i := range genome {
		genome[i] = rng.Intn(catalogLen)
	}
	return &types.Individual{
		ID:         uuid.New().String(),
		Genome:     genome,
		IslandID:   islandID,
		Generation: generation,
	}
}

// selTournament picks k individuals by repeated tournaments of the given
// size; the lowest score wins each tournament. Returned values are references
// into pop — callers clone before modifying, as DEAP's varAnd does.
func selTournament(pop []*types.Individual, k, tournSize int, rng *rand.Rand) []*types.Individual {
	chosen := make([]*types.Individual, k)
	for i := 0; i < k; i++ {
		best := pop[rng.Intn(len(pop))]
		for j := 1; j < tournSize; j++ {
			challenger := pop[rng.Intn(len(pop))]
			if challenger.Fitness.Better(best.Fitness) {
				best = challenger
			}
		}
		chosen[i] = best
	}
	return chosen
}

// sortByScore returns the population indices ordered by ascending score.
func sortByScore(pop []*types.Individual) []*types.Individual {
	sorted := make([]*types.Individual, len(pop))
	copy(sorted, pop)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Fitness.Score < sorted[b].Fitness.Score
	})
	return sorted
}

// selBest returns references to the k lowest-scoring individuals, or the
// whole population when k exceeds it.
func selBest(pop []*types.Individual, k int) []*types.Individual {
	if k > len(pop) {
		k = len(pop)
	}
	return sortByScore(pop)[:k]
}

// selWorst returns references to the k highest-scoring individuals, or the
// whole population when k exceeds it.
func selWorst(pop []*types.Individual, k int) []*types.Individual {
	if k > len(pop) {
		k = len(pop)
	}
	sorted := sortByScore(pop)
	return sorted[len(sorted)-k:]
}

// cxTwoPoint swaps the segment between two random cut points of both genomes
// in place. Genome length is preserved and every gene remains a valid catalog
// index because only existing indices move.
func cxTwoPoint(a, b []int, rng *rand.Rand) {
	size := len(a)
	if size < 2 {
		return
	}
	p1 := rng.Intn(size)
	p2 := rng.Intn(size-1) + 1
	if p2 <= p1 {
		p1, p2 = p2-1, p1+1
	}
	for i := p1; i < p2; i++ {
		a[i], b[i] = b[i], a[i]
	}
}

// mutUniformInt replaces each gene, with probability indpb, by a fresh
// uniform draw from the catalog index range.
func mutUniformInt(genome []int, catalogLen int, indpb float64, rng *rand.Rand) {
	for i := range genome {
		if rng.Float64() < indpb {
			genome[i] = rng.Intn(catalogLen)
		}
	}
}

// populationStats reduces a population's scores to logbook figures.
func populationStats(pop []*types.Individual) (min, avg, max, std float64) {
	if len(pop) == 0 {
		return 0, 0, 0, 0
	}
	min = pop[0].Fitness.Score
	max = pop[0].Fitness.Score
	var sum float64
	for _, ind := range pop {
		s := ind.Fitness.Score
		sum += s
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	avg = sum / float64(len(pop))
	var sq float64
	for _, ind := range pop {
		d := ind.Fitness.Score - avg
		sq += d * d
	}
	std = math.Sqrt(sq / float64(len(pop)))
	return min, avg, max, std
}
