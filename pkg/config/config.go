// Package config loads and validates the run configuration. All fatal
// configuration errors surface here, before any evolutionary work begins.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/openmri/halbach-evolve/internal/constants"
	"github.com/openmri/halbach-evolve/internal/types"
	"github.com/openmri/halbach-evolve/pkg/fitness"
)

// Manager handles configuration loading and validation.
type Manager struct {
	config   *types.Config
	path     string
	validate *validator.Validate
}

// NewManager creates a manager holding the default configuration.
func NewManager() *Manager {
	return &Manager{
		config:   Default(),
		validate: validator.New(),
	}
}

// Load reads a yaml configuration file on top of the defaults, applies
// environment overrides and validates the result.
func (m *Manager) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	m.applyEnvOverrides(cfg)
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = constants.OutputDir
	}

	if err := m.Validate(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	m.config = cfg
	m.path = path
	return nil
}

// Save writes the current configuration to a yaml file.
func (m *Manager) Save(path string) error {
	data, err := yaml.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetConfig returns the current configuration.
func (m *Manager) GetConfig() *types.Config { return m.config }

// GetPath returns the configuration file path, if one was loaded.
func (m *Manager) GetPath() string { return m.path }

// applyEnvOverrides lets the environment override the knobs that cluster
// submission scripts usually vary between jobs.
func (m *Manager) applyEnvOverrides(cfg *types.Config) {
	if v := os.Getenv("NUM_ISLANDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.GA.NumIslands = n
		}
	}
	if v := os.Getenv("MAX_GENERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.GA.MaxGenerations = n
		}
	}
	if v := os.Getenv("SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.GA.Seed = n
		}
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("VERBOSE"); v != "" {
		cfg.GA.Verbose = strings.ToLower(v) == "true"
	}
}

// Validate checks a configuration without modifying it. Struct-tag rules
// cover simple ranges; the cross-field rules of the error taxonomy are
// explicit.
func (m *Manager) Validate(cfg *types.Config) error {
	if err := m.validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.Geometry.InnerBoreDiameter >= cfg.Geometry.OuterBoreDiameter {
		return fmt.Errorf("inner bore diameter must be smaller than outer bore diameter")
	}
	if cfg.Geometry.RingSeparation <= 0 && cfg.Geometry.NumRings <= 0 {
		return fmt.Errorf("either ring_separation or num_rings must be positive")
	}

	if math.Abs(cfg.Fitness.HomogeneityWeight+cfg.Fitness.StrengthWeight-1.0) > 1e-9 {
		return fmt.Errorf("%w: homogeneity_weight=%.4f strength_weight=%.4f",
			fitness.ErrInvalidWeighting,
			cfg.Fitness.HomogeneityWeight, cfg.Fitness.StrengthWeight)
	}

	switch cfg.GA.Strategy {
	case constants.StrategyEASimple,
		constants.StrategyEAMuPlusLambda,
		constants.StrategyEAMuCommaLambda:
	default:
		return fmt.Errorf("unknown strategy %q", cfg.GA.Strategy)
	}

	switch cfg.GA.MigrationPolicy {
	case "", constants.MigrationPolicyBest, constants.MigrationPolicyRandom:
	default:
		return fmt.Errorf("unknown migration policy %q", cfg.GA.MigrationPolicy)
	}
	return nil
}

// Default returns the reference configuration.
func Default() *types.Config {
	return &types.Config{
		Geometry: types.GeometryConfig{
			InnerBoreDiameter: constants.DefaultInnerBoreDiameter,
			OuterBoreDiameter: constants.DefaultOuterBoreDiameter,
			MagnetSize:        constants.DefaultMagnetSize,
			BandCounts:        []int{1, 2},
			BandGaps:          types.Range{Min: 0, Max: 0.05, Steps: 60},
			MagnetSpacings:    types.Range{Min: 0, Max: 0.05, Steps: 35},
			BandSeparations:   types.Range{Min: 0.002, Max: 0.05, Steps: 60},
			ArrayLength:       constants.DefaultArrayLength,
			RingSeparation:    constants.DefaultRingSeparation,
		},
		Simulation: types.SimulationConfig{
			Resolution:  constants.DefaultResolution,
			DSVFraction: constants.DefaultDSVFraction,
		},
		GA: types.GAConfig{
			PopulationSize:    constants.DefaultPopulationSize,
			CrossoverProb:     constants.DefaultCrossoverProb,
			MutationProb:      constants.DefaultMutationProb,
			MutationIndpb:     constants.DefaultMutationIndpb,
			MaxGenerations:    constants.DefaultMaxGenerations,
			NumIslands:        constants.DefaultNumIslands,
			MigrationInterval: constants.DefaultMigrationInterval,
			MigrationRate:     constants.DefaultMigrationRate,
			MigrationPolicy:   constants.MigrationPolicyBest,
			Strategy:          constants.StrategyEASimple,
			Mu:                constants.DefaultMu,
			Lambda:            constants.DefaultLambda,
			TournamentSize:    constants.DefaultTournamentSize,
			HallOfFameSize:    constants.DefaultHallOfFameSize,
			Seed:              constants.DefaultSeed,
		},
		Fitness: types.FitnessConfig{
			TargetField:       constants.DefaultTargetField,
			HomogeneityWeight: constants.DefaultHomogeneityWeight,
			StrengthWeight:    constants.DefaultStrengthWeight,
			PenaltyScore:      constants.PenaltyScore,
		},
		Output: types.OutputConfig{
			Dir: constants.OutputDir,
		},
	}
}

// CreateDefaultConfig writes the default configuration to a file.
func CreateDefaultConfig(path string) error {
	return NewManager().Save(path)
}
