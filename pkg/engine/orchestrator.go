package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/openmri/halbach-evolve/internal/constants"
	"github.com/openmri/halbach-evolve/internal/types"
)

// Orchestrator owns the islands and drives the run: epochs of
// migration_interval generations executed in parallel, a migration between
// epochs, and final aggregation of the global best, logbook and duplicate
// statistics.
//
// The migration barrier is the epoch pool itself: migration only runs after
// every island's Evolve call for the epoch has returned, so all islands stand
// at the same generation boundary. An island panic during an epoch propagates
// and aborts the whole run; there is no partial-island recovery.
type Orchestrator struct {
	cfg       types.GAConfig
	islands   []*Island
	migration *MigrationController
	scorer    Scorer
	islandPop int
	logger    *logrus.Logger
}

// NewOrchestrator validates the GA parameters and builds the islands. The
// scorer is shared read-only across islands; it must be safe for concurrent
// use.
func NewOrchestrator(cfg types.GAConfig, slots, catalogLen int, scorer Scorer, logger *logrus.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if err := validateGA(cfg); err != nil {
		return nil, err
	}
	islandPop := cfg.PopulationSize / cfg.NumIslands
	if islandPop < 1 {
		return nil, fmt.Errorf("population size %d spread over %d islands leaves empty islands",
			cfg.PopulationSize, cfg.NumIslands)
	}
	// The plus strategy selects mu survivors from islandPop+lambda candidates
	// on the first generation; a larger mu cannot be satisfied.
	if cfg.Strategy == constants.StrategyEAMuPlusLambda && cfg.Mu > islandPop+cfg.Lambda {
		return nil, fmt.Errorf("strategy %s requires mu <= island population + lambda, got mu=%d with %d+%d",
			cfg.Strategy, cfg.Mu, islandPop, cfg.Lambda)
	}

	o := &Orchestrator{
		cfg:       cfg,
		migration: NewMigrationController(cfg, logger),
		scorer:    scorer,
		islandPop: islandPop,
		logger:    logger,
	}
	for i := 0; i < cfg.NumIslands; i++ {
		o.islands = append(o.islands, NewIsland(i, cfg, slots, catalogLen, scorer, logger))
	}
	return o, nil
}

func validateGA(cfg types.GAConfig) error {
	switch cfg.Strategy {
	case constants.StrategyEASimple:
	case constants.StrategyEAMuPlusLambda, constants.StrategyEAMuCommaLambda:
		if cfg.Mu <= 0 || cfg.Lambda <= 0 {
			return fmt.Errorf("strategy %s requires positive mu and lambda", cfg.Strategy)
		}
		if cfg.Strategy == constants.StrategyEAMuCommaLambda && cfg.Lambda < cfg.Mu {
			return fmt.Errorf("strategy %s requires lambda >= mu, got %d < %d",
				cfg.Strategy, cfg.Lambda, cfg.Mu)
		}
		if cfg.CrossoverProb+cfg.MutationProb > 1 {
			return fmt.Errorf("strategy %s requires crossover_prob + mutation_prob <= 1", cfg.Strategy)
		}
	default:
		return fmt.Errorf("unknown evolutionary strategy %q (want %s, %s or %s)",
			cfg.Strategy, constants.StrategyEASimple,
			constants.StrategyEAMuPlusLambda, constants.StrategyEAMuCommaLambda)
	}
	return nil
}

// Islands exposes the island set; used by tests and result writers.
func (o *Orchestrator) Islands() []*Island { return o.islands }

// Run executes the full island-model search. On context cancellation it stops
// at the next generation boundary and still returns the aggregate built from
// everything evolved so far, together with the context error.
func (o *Orchestrator) Run(ctx context.Context) (*types.RunResult, error) {
	started := time.Now()
	o.logger.WithFields(logrus.Fields{
		"islands":            o.cfg.NumIslands,
		"island_population":  o.islandPop,
		"generations":        o.cfg.MaxGenerations,
		"migration_interval": o.cfg.MigrationInterval,
		"strategy":           o.cfg.Strategy,
		"seed":               o.cfg.Seed,
	}).Info("Starting island-model run")

	o.parallel(func(isl *Island) error {
		isl.Initialize(o.islandPop)
		return nil
	})

	var runErr error
	for gen := 0; gen < o.cfg.MaxGenerations; gen += o.cfg.MigrationInterval {
		n := o.cfg.MigrationInterval
		if gen+n > o.cfg.MaxGenerations {
			n = o.cfg.MaxGenerations - gen
		}

		err := o.parallel(func(isl *Island) error {
			return isl.Evolve(ctx, n)
		})
		if err != nil {
			runErr = err
			break
		}

		// All islands are paused at the same boundary; exchange individuals
		// unless the run just finished.
		if gen+n < o.cfg.MaxGenerations {
			o.migration.Migrate(o.islands, gen+n)
		}
	}

	for _, isl := range o.islands {
		isl.Terminate()
	}

	result := o.aggregate(started)
	o.logger.WithFields(logrus.Fields{
		"best_score":  bestScore(result),
		"evaluations": result.Evaluations,
		"cache_hits":  result.CacheHits,
		"duration":    result.FinishedAt.Sub(result.StartedAt),
	}).Info("Run complete")

	// Cancellation still yields the aggregate of everything evolved so far.
	return result, runErr
}

// parallel runs fn over every island concurrently and waits for all of them.
func (o *Orchestrator) parallel(fn func(*Island) error) error {
	p := pool.New().WithErrors().WithMaxGoroutines(len(o.islands))
	for _, isl := range o.islands {
		isl := isl
		p.Go(func() error { return fn(isl) })
	}
	return p.Wait()
}

// aggregate merges every island's hall of fame, logbook and statistics into
// the run result.
func (o *Orchestrator) aggregate(started time.Time) *types.RunResult {
	global := NewHallOfFame(o.cfg.HallOfFameSize)
	result := &types.RunResult{
		StartedAt:  started,
		FinishedAt: time.Now(),
	}

	for _, isl := range o.islands {
		global.Update(isl.HallOfFame().Entries())
		result.Logbook = append(result.Logbook, isl.Logbook()...)
		result.DuplicateStats = append(result.DuplicateStats, isl.DuplicateStats()...)
		evals, hits := isl.Counters()
		result.Evaluations += evals
		result.CacheHits += hits
		if isl.Generation() > result.Generations {
			result.Generations = isl.Generation()
		}
	}

	sort.SliceStable(result.Logbook, func(a, b int) bool {
		if result.Logbook[a].Generation != result.Logbook[b].Generation {
			return result.Logbook[a].Generation < result.Logbook[b].Generation
		}
		return result.Logbook[a].IslandID < result.Logbook[b].IslandID
	})
	sort.SliceStable(result.DuplicateStats, func(a, b int) bool {
		if result.DuplicateStats[a].Generation != result.DuplicateStats[b].Generation {
			return result.DuplicateStats[a].Generation < result.DuplicateStats[b].Generation
		}
		return result.DuplicateStats[a].IslandID < result.DuplicateStats[b].IslandID
	})

	if pc, ok := o.scorer.(interface{ Penalties() int64 }); ok {
		result.Penalties = pc.Penalties()
	}

	result.HallOfFame = global.Entries()
	result.Best = global.Best()
	return result
}

func bestScore(r *types.RunResult) float64 {
	if r.Best == nil {
		return 0
	}
	return r.Best.Fitness.Score
}
