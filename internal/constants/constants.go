package constants

// Application constants
const (
	Name        = "Halbach-Evolve"
	Version     = "1.0.0"
	Description = "Island-model genetic optimizer for Halbach magnet-ring arrays"

	// Default ring geometry (meters)
	DefaultInnerBoreDiameter = 0.160
	DefaultOuterBoreDiameter = 0.220
	DefaultMagnetSize        = 0.012
	DefaultArrayLength       = 0.240
	DefaultRingSeparation    = 0.022

	// Default simulation parameters
	DefaultResolution  = 2.0 // higher = coarser sampling
	DefaultDSVFraction = 0.7 // DSV diameter as fraction of the inner bore

	// Default GA parameters
	DefaultPopulationSize    = 1000000 // total across all islands
	DefaultCrossoverProb     = 0.6
	DefaultMutationProb      = 0.3
	DefaultMaxGenerations    = 200
	DefaultNumIslands        = 24
	DefaultMigrationInterval = 15
	DefaultMigrationRate     = 0.3
	DefaultTournamentSize    = 3
	DefaultMutationIndpb     = 0.2
	DefaultMu                = 5000
	DefaultLambda            = 3000
	DefaultHallOfFameSize    = 10
	DefaultSeed              = 42

	// Default fitness parameters
	DefaultTargetField       = 0.05 // tesla
	DefaultHomogeneityWeight = 0.85
	DefaultStrengthWeight    = 0.15

	// Score assigned to infeasible or numerically pathological genomes.
	// Large enough that selection always prefers any physical configuration.
	PenaltyScore = 1e12

	// Remanence of the cube magnets, tesla (N42 grade)
	MagnetRemanence = 1.35

	// Directory names
	OutputDir = "halbach_results"
)

// Evolutionary strategy names
const (
	StrategyEASimple        = "eaSimple"
	StrategyEAMuPlusLambda  = "eaMuPlusLambda"
	StrategyEAMuCommaLambda = "eaMuCommaLambda"
)

// Migration policies
const (
	MigrationPolicyBest   = "best"
	MigrationPolicyRandom = "random"
)
