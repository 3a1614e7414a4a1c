package engine

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmri/halbach-evolve/internal/types"
)

func TestCxTwoPointSwapsSegment(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := []int{0, 1, 2, 3, 4, 5, 6, 7}
	b := []int{10, 11, 12, 13, 14, 15, 16, 17}

	cxTwoPoint(a, b, rng)

	require.Len(t, a, 8)
	require.Len(t, b, 8)
	swapped := 0
	for i := 0; i < 8; i++ {
		switch {
		case a[i] == i && b[i] == i+10:
			// untouched position
		case a[i] == i+10 && b[i] == i:
			swapped++
		default:
			t.Fatalf("position %d corrupted: a=%d b=%d", i, a[i], b[i])
		}
	}
	assert.Greater(t, swapped, 0, "two-point crossover always swaps at least one gene")
}

func TestCxTwoPointShortGenome(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a, b := []int{3}, []int{5}
	cxTwoPoint(a, b, rng)
	assert.Equal(t, []int{3}, a)
	assert.Equal(t, []int{5}, b)
}

func TestMutUniformIntBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	genome := make([]int, 200)

	mutUniformInt(genome, 5, 1.0, rng)
	for i, g := range genome {
		assert.GreaterOrEqual(t, g, 0, "gene %d", i)
		assert.Less(t, g, 5, "gene %d", i)
	}

	frozen := append([]int{}, genome...)
	mutUniformInt(genome, 5, 0.0, rng)
	assert.Equal(t, frozen, genome, "indpb=0 must leave the genome unchanged")
}

func TestSelTournamentFavorsFitter(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	pop := []*types.Individual{
		makeInd(1, 0),
		makeInd(2, 1),
	}

	chosen := selTournament(pop, 200, 3, rng)
	require.Len(t, chosen, 200)
	wins := 0
	for _, ind := range chosen {
		if ind.Fitness.Score == 1 {
			wins++
		}
	}
	// A size-3 tournament over two individuals picks the better one with
	// probability 7/8.
	assert.Greater(t, wins, 150)
}

func TestSelBestAndWorst(t *testing.T) {
	pop := []*types.Individual{
		makeInd(5, 0), makeInd(3, 1), makeInd(1, 2), makeInd(4, 3), makeInd(2, 4),
	}

	best := selBest(pop, 2)
	require.Len(t, best, 2)
	assert.Equal(t, 1.0, best[0].Fitness.Score)
	assert.Equal(t, 2.0, best[1].Fitness.Score)

	worst := selWorst(pop, 2)
	require.Len(t, worst, 2)
	assert.Equal(t, 4.0, worst[0].Fitness.Score)
	assert.Equal(t, 5.0, worst[1].Fitness.Score)

	// Oversized k degrades to the whole population instead of panicking.
	assert.Len(t, selBest(pop, 10), 5)
	assert.Len(t, selWorst(pop, 10), 5)
}

func TestPopulationStats(t *testing.T) {
	pop := []*types.Individual{
		makeInd(1, 0), makeInd(2, 1), makeInd(3, 2), makeInd(4, 3),
	}

	min, avg, max, std := populationStats(pop)
	assert.Equal(t, 1.0, min)
	assert.Equal(t, 4.0, max)
	assert.Equal(t, 2.5, avg)
	assert.InDelta(t, math.Sqrt(1.25), std, 1e-12)

	min, avg, max, std = populationStats(nil)
	assert.Zero(t, min)
	assert.Zero(t, avg)
	assert.Zero(t, max)
	assert.Zero(t, std)
}
