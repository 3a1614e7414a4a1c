package engine

import (
	"context"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/openmri/halbach-evolve/internal/constants"
	"github.com/openmri/halbach-evolve/internal/types"
)

// Scorer is the fitness backend an island evaluates genomes against.
// Implementations must be deterministic: identical genomes yield identical
// Fitness.
type Scorer interface {
	Score(genome []int) types.Fitness
}

// IslandState tracks where an island is in its lifecycle.
type IslandState int

const (
	StateIdle IslandState = iota
	StateInitialized
	StateEvolving
	StatePaused // at a migration boundary, waiting for the orchestrator
	StateTerminated
)

func (s IslandState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitialized:
		return "initialized"
	case StateEvolving:
		return "evolving"
	case StatePaused:
		return "paused"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Island is one independent subpopulation with its own RNG stream, hall of
// fame and duplicate tracker. Islands share nothing mutable; the orchestrator
// only touches them between Evolve calls.
type Island struct {
	ID int

	cfg        types.GAConfig
	slots      int
	catalogLen int
	scorer     Scorer
	rng        *rand.Rand
	logger     *logrus.Entry

	pop     []*types.Individual
	hof     *HallOfFame
	tracker *DuplicateTracker

	state      IslandState
	generation int

	logbook   []types.GenerationRecord
	dupStats  []types.DuplicateStats
	evals     int64
	cacheHits int64
}

// NewIsland creates an idle island. The RNG is seeded from the run seed plus
// the island ID, so islands are statistically independent while the whole run
// stays reproducible.
func NewIsland(id int, cfg types.GAConfig, slots, catalogLen int, scorer Scorer, logger *logrus.Logger) *Island {
	if logger == nil {
		logger = logrus.New()
	}
	return &Island{
		ID:         id,
		cfg:        cfg,
		slots:      slots,
		catalogLen: catalogLen,
		scorer:     scorer,
		rng:        rand.New(rand.NewSource(cfg.Seed + int64(id))),
		logger:     logger.WithField("island", id),
		hof:        NewHallOfFame(cfg.HallOfFameSize),
		tracker:    NewDuplicateTracker(),
		state:      StateIdle,
	}
}

// Initialize fills the population with uniform random genomes and evaluates
// generation zero.
func (isl *Island) Initialize(popSize int) {
	isl.pop = make([]*types.Individual, popSize)
	for i := range isl.pop {
		isl.pop[i] = newRandomIndividual(isl.rng, isl.ID, 0, isl.slots, isl.catalogLen)
	}
	isl.evaluatePopulation(isl.pop)
	isl.hof.Update(isl.pop)
	isl.recordGeneration(len(isl.pop))
	isl.state = StateInitialized
}

// Evolve runs up to n generations, stopping early only on context
// cancellation. The island pauses afterwards; partial results (population,
// hall of fame, logbook) stay valid at every generation boundary.
func (isl *Island) Evolve(ctx context.Context, n int) error {
	isl.state = StateEvolving
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			isl.state = StatePaused
			return ctx.Err()
		default:
		}
		isl.step()
	}
	isl.state = StatePaused
	return nil
}

// Terminate marks the island finished.
func (isl *Island) Terminate() {
	isl.state = StateTerminated
}

// step advances one generation under the configured strategy.
func (isl *Island) step() {
	var next []*types.Individual
	var evals int

	switch isl.cfg.Strategy {
	case constants.StrategyEAMuPlusLambda:
		offspring := isl.varOr(isl.cfg.Lambda)
		evals = isl.evaluatePopulation(offspring)
		pool := append(append([]*types.Individual{}, isl.pop...), offspring...)
		next = cloneRefs(selBest(pool, isl.cfg.Mu))
	case constants.StrategyEAMuCommaLambda:
		offspring := isl.varOr(isl.cfg.Lambda)
		evals = isl.evaluatePopulation(offspring)
		next = cloneRefs(selBest(offspring, isl.cfg.Mu))
	default: // eaSimple
		offspring := isl.varAnd(selTournament(isl.pop, len(isl.pop), isl.cfg.TournamentSize, isl.rng))
		evals = isl.evaluatePopulation(offspring)
		next = offspring
	}

	isl.pop = next
	isl.generation++
	isl.hof.Update(isl.pop)
	isl.recordGeneration(evals)
}

// varAnd is the eaSimple variation scheme: clone the selected parents, then
// apply crossover to adjacent pairs with probability CXPB and mutation to
// each offspring with probability MUTPB.
func (isl *Island) varAnd(selected []*types.Individual) []*types.Individual {
	offspring := make([]*types.Individual, len(selected))
	for i, ind := range selected {
		offspring[i] = ind.Clone()
	}
	for i := 1; i < len(offspring); i += 2 {
		if isl.rng.Float64() < isl.cfg.CrossoverProb {
			cxTwoPoint(offspring[i-1].Genome, offspring[i].Genome, isl.rng)
			isl.markChild(offspring[i-1])
			isl.markChild(offspring[i])
		}
	}
	for _, ind := range offspring {
		if isl.rng.Float64() < isl.cfg.MutationProb {
			mutUniformInt(ind.Genome, isl.catalogLen, isl.cfg.MutationIndpb, isl.rng)
			isl.markChild(ind)
		}
	}
	return offspring
}

// varOr is the mu±lambda variation scheme: each offspring is produced by
// exactly one of crossover, mutation or reproduction, chosen with
// probabilities CXPB, MUTPB and 1-CXPB-MUTPB.
func (isl *Island) varOr(lambda int) []*types.Individual {
	offspring := make([]*types.Individual, 0, lambda)
	for len(offspring) < lambda {
		switch r := isl.rng.Float64(); {
		case r < isl.cfg.CrossoverProb:
			a := isl.pop[isl.rng.Intn(len(isl.pop))].Clone()
			b := isl.pop[isl.rng.Intn(len(isl.pop))].Clone()
			cxTwoPoint(a.Genome, b.Genome, isl.rng)
			isl.markChild(a)
			offspring = append(offspring, a)
		case r < isl.cfg.CrossoverProb+isl.cfg.MutationProb:
			a := isl.pop[isl.rng.Intn(len(isl.pop))].Clone()
			mutUniformInt(a.Genome, isl.catalogLen, isl.cfg.MutationIndpb, isl.rng)
			isl.markChild(a)
			offspring = append(offspring, a)
		default:
			offspring = append(offspring, isl.pop[isl.rng.Intn(len(isl.pop))].Clone())
		}
	}
	return offspring
}

// markChild stamps a varied genome as a new individual of the next
// generation and drops its stale fitness.
func (isl *Island) markChild(ind *types.Individual) {
	ind.ID = uuid.New().String()
	ind.IslandID = isl.ID
	ind.Generation = isl.generation + 1
	ind.Invalidate()
}

// evaluatePopulation scores every individual lacking a cached fitness,
// consulting the duplicate tracker first. Returns the number of scorer
// invocations actually performed.
func (isl *Island) evaluatePopulation(pop []*types.Individual) int {
	evals := 0
	for _, ind := range pop {
		if ind.Evaluated {
			continue
		}
		sig := ind.Signature()
		if fit, ok := isl.tracker.Lookup(sig); ok {
			ind.Fitness = fit
			ind.Evaluated = true
			isl.cacheHits++
			continue
		}
		ind.Fitness = isl.scorer.Score(ind.Genome)
		ind.Evaluated = true
		isl.tracker.Record(sig, ind.Fitness)
		evals++
	}
	isl.evals += int64(evals)
	return evals
}

func (isl *Island) recordGeneration(evals int) {
	min, avg, max, std := populationStats(isl.pop)
	rec := types.GenerationRecord{
		IslandID:   isl.ID,
		Generation: isl.generation,
		Evals:      evals,
		Min:        min,
		Avg:        avg,
		Max:        max,
		Std:        std,
	}
	isl.logbook = append(isl.logbook, rec)
	isl.dupStats = append(isl.dupStats, isl.tracker.Stats(isl.pop, isl.ID, isl.generation))

	if isl.cfg.Verbose {
		isl.logger.WithFields(logrus.Fields{
			"generation": isl.generation,
			"evals":      evals,
			"min":        min,
			"avg":        avg,
		}).Info("Generation complete")
	}
}

// Population returns the live population. The orchestrator uses it at
// migration boundaries only.
func (isl *Island) Population() []*types.Individual { return isl.pop }

// HallOfFame returns the island's best-ever record.
func (isl *Island) HallOfFame() *HallOfFame { return isl.hof }

// State returns the island's lifecycle state.
func (isl *Island) State() IslandState { return isl.state }

// Generation returns the current generation counter.
func (isl *Island) Generation() int { return isl.generation }

// Logbook returns the per-generation statistics recorded so far.
func (isl *Island) Logbook() []types.GenerationRecord { return isl.logbook }

// DuplicateStats returns the per-generation duplication statistics.
func (isl *Island) DuplicateStats() []types.DuplicateStats { return isl.dupStats }

// Counters returns the evaluation and cache-hit totals.
func (isl *Island) Counters() (evals, cacheHits int64) { return isl.evals, isl.cacheHits }

func cloneRefs(pop []*types.Individual) []*types.Individual {
	out := make([]*types.Individual, len(pop))
	for i, ind := range pop {
		out[i] = ind.Clone()
	}
	return out
}
