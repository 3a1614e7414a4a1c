package engine

import (
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/openmri/halbach-evolve/internal/constants"
	"github.com/openmri/halbach-evolve/internal/types"
)

// MigrationController exchanges individuals between islands on a ring
// topology: each island sends copies of its emigrants to the next island,
// where they replace that island's worst individuals. Migrants are clones, so
// the source island keeps its population and the copies keep their original
// island's provenance. Population sizes are invariant across a migration.
type MigrationController struct {
	rate   float64
	policy string
	rng    *rand.Rand
	logger *logrus.Entry
}

// NewMigrationController builds a controller. The rate is the fraction of
// each island's population exchanged per event; policy selects emigrants by
// fitness ("best", the default) or uniformly at random ("random").
func NewMigrationController(cfg types.GAConfig, logger *logrus.Logger) *MigrationController {
	if logger == nil {
		logger = logrus.New()
	}
	policy := cfg.MigrationPolicy
	if policy == "" {
		policy = constants.MigrationPolicyBest
	}
	return &MigrationController{
		rate:   cfg.MigrationRate,
		policy: policy,
		// Migration draws from its own stream so island streams stay
		// untouched by the exchange schedule.
		rng:    rand.New(rand.NewSource(cfg.Seed - 1)),
		logger: logger.WithField("component", "migration"),
	}
}

// Migrate performs one exchange across all islands. Every island must be
// paused at the same generation boundary; the orchestrator guarantees that by
// calling this only after all Evolve calls of an epoch returned.
func (m *MigrationController) Migrate(islands []*Island, generation int) {
	if len(islands) < 2 {
		return
	}
	count := int(m.rate * float64(len(islands[0].pop)))
	if count < 1 {
		count = 1
	}

	// Select emigrants from every island before touching any population, so
	// the ring exchange is order-independent.
	emigrants := make([][]*types.Individual, len(islands))
	for i, isl := range islands {
		emigrants[i] = cloneRefs(m.selectEmigrants(isl, count))
	}

	for i := range islands {
		target := islands[(i+1)%len(islands)]
		replaceWorst(target.pop, emigrants[i])
	}

	m.logger.WithFields(logrus.Fields{
		"generation": generation,
		"islands":    len(islands),
		"migrants":   count,
	}).Debug("Migration complete")
}

func (m *MigrationController) selectEmigrants(isl *Island, count int) []*types.Individual {
	if count > len(isl.pop) {
		count = len(isl.pop)
	}
	if m.policy == constants.MigrationPolicyRandom {
		idx := m.rng.Perm(len(isl.pop))[:count]
		out := make([]*types.Individual, count)
		for i, j := range idx {
			out[i] = isl.pop[j]
		}
		return out
	}
	return selBest(isl.pop, count)
}

// replaceWorst overwrites the population's worst slots with the immigrants.
func replaceWorst(pop []*types.Individual, immigrants []*types.Individual) {
	worst := selWorst(pop, len(immigrants))
	victims := make(map[*types.Individual]bool, len(worst))
	for _, w := range worst {
		victims[w] = true
	}
	j := 0
	for i, ind := range pop {
		if victims[ind] && j < len(immigrants) {
			pop[i] = immigrants[j]
			j++
		}
	}
}
