package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmri/halbach-evolve/internal/constants"
	"github.com/openmri/halbach-evolve/pkg/fitness"
)

func TestDefaultConfigIsValid(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Validate(Default()))

	cfg := m.GetConfig()
	assert.Equal(t, constants.StrategyEASimple, cfg.GA.Strategy)
	assert.Equal(t, constants.DefaultNumIslands, cfg.GA.NumIslands)
	assert.InDelta(t, 1.0, cfg.Fitness.HomogeneityWeight+cfg.Fitness.StrengthWeight, 1e-12)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	m := NewManager()
	m.GetConfig().GA.Seed = 99
	m.GetConfig().GA.NumIslands = 4
	m.GetConfig().Geometry.MagnetSize = 0.010
	require.NoError(t, m.Save(path))

	loaded := NewManager()
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, path, loaded.GetPath())
	assert.Equal(t, int64(99), loaded.GetConfig().GA.Seed)
	assert.Equal(t, 4, loaded.GetConfig().GA.NumIslands)
	assert.Equal(t, 0.010, loaded.GetConfig().Geometry.MagnetSize)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, CreateDefaultConfig(path))

	t.Setenv("NUM_ISLANDS", "6")
	t.Setenv("MAX_GENERATIONS", "12")
	t.Setenv("SEED", "1234")
	t.Setenv("OUTPUT_DIR", filepath.Join(dir, "out"))
	t.Setenv("VERBOSE", "true")

	m := NewManager()
	require.NoError(t, m.Load(path))

	cfg := m.GetConfig()
	assert.Equal(t, 6, cfg.GA.NumIslands)
	assert.Equal(t, 12, cfg.GA.MaxGenerations)
	assert.Equal(t, int64(1234), cfg.GA.Seed)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.Output.Dir)
	assert.True(t, cfg.GA.Verbose)
}

func TestLoadMissingFile(t *testing.T) {
	m := NewManager()
	err := m.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoadMalformedYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("geometry: [not a mapping"), 0644))

	err := NewManager().Load(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestValidateRejectsBadWeighting(t *testing.T) {
	cfg := Default()
	cfg.Fitness.HomogeneityWeight = 0.9
	cfg.Fitness.StrengthWeight = 0.3

	err := NewManager().Validate(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fitness.ErrInvalidWeighting))
}

func TestValidateRejectsUnknownStrategy(t *testing.T) {
	cfg := Default()
	cfg.GA.Strategy = "eaMagic"
	assert.ErrorContains(t, NewManager().Validate(cfg), "unknown strategy")
}

func TestValidateRejectsUnknownMigrationPolicy(t *testing.T) {
	cfg := Default()
	cfg.GA.MigrationPolicy = "tournament"
	assert.ErrorContains(t, NewManager().Validate(cfg), "unknown migration policy")
}

func TestValidateRejectsInvertedBores(t *testing.T) {
	cfg := Default()
	cfg.Geometry.InnerBoreDiameter = cfg.Geometry.OuterBoreDiameter
	assert.ErrorContains(t, NewManager().Validate(cfg), "inner bore diameter")
}

func TestValidateRequiresPositionMode(t *testing.T) {
	cfg := Default()
	cfg.Geometry.RingSeparation = 0
	cfg.Geometry.NumRings = 0
	assert.ErrorContains(t, NewManager().Validate(cfg), "ring_separation or num_rings")
}

func TestLoadDefaultsOutputDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  dir: \"\"\n"), 0644))

	m := NewManager()
	require.NoError(t, m.Load(path))
	assert.Equal(t, constants.OutputDir, m.GetConfig().Output.Dir)
}

func TestValidateDoesNotMutate(t *testing.T) {
	cfg := Default()
	cfg.Output.Dir = ""
	require.NoError(t, NewManager().Validate(cfg))
	assert.Empty(t, cfg.Output.Dir, "validation must not write defaults into its argument")
}
