package types

import (
	"time"
)

// Fitness is the cached evaluation result for one genome. Score combines the
// weighted homogeneity and strength errors; lower is better.
type Fitness struct {
	Score       float64 `json:"score"`
	MeanField   float64 `json:"mean_field"`  // tesla, along the principal axis
	Homogeneity float64 `json:"homogeneity"` // peak-to-peak deviation, ppm
	Penalized   bool    `json:"penalized"`   // infeasible or non-finite field
}

// Better reports whether f beats other (strictly lower score).
func (f Fitness) Better(other Fitness) bool {
	return f.Score < other.Score
}

// FieldSample is the reduction of a simulated field over the target volume.
type FieldSample struct {
	MeanField   float64 `json:"mean_field"`   // mean Bx over the sample points, tesla
	Homogeneity float64 `json:"homogeneity"`  // (max-min)/mean * 1e6, ppm
	MinField    float64 `json:"min_field"`    // tesla
	MaxField    float64 `json:"max_field"`    // tesla
	SampleCount int     `json:"sample_count"` // points inside the masked volume
}

// GenerationRecord is one logbook row for one island generation.
type GenerationRecord struct {
	IslandID   int     `json:"island_id"`
	Generation int     `json:"generation"`
	Evals      int     `json:"evals"` // fitness evaluations actually performed
	Min        float64 `json:"min"`
	Avg        float64 `json:"avg"`
	Max        float64 `json:"max"`
	Std        float64 `json:"std"`
}

// DuplicateStats reports genome duplication within one island generation.
type DuplicateStats struct {
	IslandID        int     `json:"island_id"`
	Generation      int     `json:"generation"`
	TotalPopulation int     `json:"total_population"`
	Unique          int     `json:"unique_individuals"`
	Duplicates      int     `json:"duplicate_count"`
	Percentage      float64 `json:"duplicate_percentage"`
	CacheHits       int     `json:"cache_hits"` // evaluations served from cache
}

// RunResult is the aggregate handed to result-writing collaborators.
type RunResult struct {
	Best           *Individual        `json:"best"`
	HallOfFame     []*Individual      `json:"hall_of_fame"`
	Logbook        []GenerationRecord `json:"logbook"`
	DuplicateStats []DuplicateStats   `json:"duplicate_stats"`
	Evaluations    int64              `json:"evaluations"`
	CacheHits      int64              `json:"cache_hits"`
	Penalties      int64              `json:"penalties"`
	Generations    int                `json:"generations"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
}

// Individual is one candidate solution: an ordered sequence of catalog
// indices, one per symmetric ring slot, plus its cached fitness and
// provenance. The genome is owned by exactly one Individual; Clone copies it.
type Individual struct {
	ID         string  `json:"id"`
	Genome     []int   `json:"genome"`
	Fitness    Fitness `json:"fitness"`
	Evaluated  bool    `json:"evaluated"`
	IslandID   int     `json:"island_id"`
	Generation int     `json:"generation"` // generation born
}

// Config is the full run configuration, constructed once and passed by value
// into every component that needs it.
type Config struct {
	Geometry   GeometryConfig   `yaml:"geometry" json:"geometry"`
	Simulation SimulationConfig `yaml:"simulation" json:"simulation"`
	GA         GAConfig         `yaml:"ga" json:"ga"`
	Fitness    FitnessConfig    `yaml:"fitness" json:"fitness"`
	Output     OutputConfig     `yaml:"output" json:"output"`
}

// Range describes an evenly spaced parameter grid, min to max inclusive.
type Range struct {
	Min   float64 `yaml:"min" json:"min"`
	Max   float64 `yaml:"max" json:"max"`
	Steps int     `yaml:"steps" json:"steps"`
}

// Values expands the range into its grid points.
func (r Range) Values() []float64 {
	if r.Steps <= 0 {
		return nil
	}
	if r.Steps == 1 {
		return []float64{r.Min}
	}
	vals := make([]float64, r.Steps)
	step := (r.Max - r.Min) / float64(r.Steps-1)
	for i := range vals {
		vals[i] = r.Min + float64(i)*step
	}
	return vals
}

// GeometryConfig bounds the ring configuration space. All lengths in meters.
type GeometryConfig struct {
	InnerBoreDiameter float64 `yaml:"inner_bore_diameter" json:"inner_bore_diameter" validate:"gt=0"`
	OuterBoreDiameter float64 `yaml:"outer_bore_diameter" json:"outer_bore_diameter" validate:"gt=0"`
	MagnetSize        float64 `yaml:"magnet_size" json:"magnet_size" validate:"gt=0"`

	BandCounts      []int `yaml:"band_counts" json:"band_counts" validate:"min=1,dive,gt=0"`
	BandGaps        Range `yaml:"band_gaps" json:"band_gaps"`
	MagnetSpacings  Range `yaml:"magnet_spacings" json:"magnet_spacings"`
	BandSeparations Range `yaml:"band_separations" json:"band_separations"`

	// Axial layout. RingSeparation mode derives the ring count from
	// ArrayLength; setting NumRings instead derives the separation.
	ArrayLength    float64 `yaml:"array_length" json:"array_length" validate:"gt=0"`
	RingSeparation float64 `yaml:"ring_separation" json:"ring_separation"`
	NumRings       int     `yaml:"num_rings" json:"num_rings"`
}

// SimulationConfig controls field sampling. Resolution is inverse: higher
// values produce a coarser grid (points per axis = 1e3*dim/resolution + 1),
// trading accuracy for speed.
type SimulationConfig struct {
	Resolution  float64 `yaml:"resolution" json:"resolution" validate:"gt=0"`
	DSVFraction float64 `yaml:"dsv_fraction" json:"dsv_fraction" validate:"gt=0,lte=1"`
}

// GAConfig holds the evolutionary search parameters.
type GAConfig struct {
	PopulationSize    int     `yaml:"population_size" json:"population_size" validate:"gt=0"` // total, split across islands
	CrossoverProb     float64 `yaml:"crossover_prob" json:"crossover_prob" validate:"gte=0,lte=1"`
	MutationProb      float64 `yaml:"mutation_prob" json:"mutation_prob" validate:"gte=0,lte=1"`
	MutationIndpb     float64 `yaml:"mutation_indpb" json:"mutation_indpb" validate:"gte=0,lte=1"` // per-gene replacement probability
	MaxGenerations    int     `yaml:"max_generations" json:"max_generations" validate:"gt=0"`
	NumIslands        int     `yaml:"num_islands" json:"num_islands" validate:"gt=0"`
	MigrationInterval int     `yaml:"migration_interval" json:"migration_interval" validate:"gt=0"`
	MigrationRate     float64 `yaml:"migration_rate" json:"migration_rate" validate:"gte=0,lte=1"`
	MigrationPolicy   string  `yaml:"migration_policy" json:"migration_policy"`
	Strategy          string  `yaml:"strategy" json:"strategy"`
	Mu                int     `yaml:"mu" json:"mu"`         // survivors for mu±lambda strategies
	Lambda            int     `yaml:"lambda" json:"lambda"` // offspring for mu±lambda strategies
	TournamentSize    int     `yaml:"tournament_size" json:"tournament_size" validate:"gt=0"`
	HallOfFameSize    int     `yaml:"hall_of_fame_size" json:"hall_of_fame_size" validate:"gt=0"`
	Seed              int64   `yaml:"seed" json:"seed"`
	Verbose           bool    `yaml:"verbose" json:"verbose"`
}

// FitnessConfig weights the two error terms. The weights must sum to 1.
type FitnessConfig struct {
	TargetField       float64 `yaml:"target_field" json:"target_field" validate:"gt=0"` // tesla
	HomogeneityWeight float64 `yaml:"homogeneity_weight" json:"homogeneity_weight" validate:"gte=0,lte=1"`
	StrengthWeight    float64 `yaml:"strength_weight" json:"strength_weight" validate:"gte=0,lte=1"`
	PenaltyScore      float64 `yaml:"penalty_score" json:"penalty_score" validate:"gt=0"`
}

// OutputConfig locates result artifacts.
type OutputConfig struct {
	Dir string `yaml:"dir" json:"dir"`
}
