package results

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/openmri/halbach-evolve/internal/types"
	"github.com/openmri/halbach-evolve/pkg/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Build(types.GeometryConfig{
		InnerBoreDiameter: 0.160,
		OuterBoreDiameter: 0.300,
		MagnetSize:        0.012,
		BandCounts:        []int{1},
		BandGaps:          types.Range{Min: 0, Max: 0, Steps: 1},
		MagnetSpacings:    types.Range{Min: 0, Max: 0.01, Steps: 2},
		BandSeparations:   types.Range{Min: 0.002, Max: 0.01, Steps: 2},
		ArrayLength:       0.240,
		RingSeparation:    0.022,
	})
	require.NoError(t, err)
	return cat
}

func testResult() *types.RunResult {
	best := &types.Individual{
		ID:        "best",
		Genome:    []int{0, 1},
		Fitness:   types.Fitness{Score: 900, MeanField: 0.049, Homogeneity: 850},
		Evaluated: true,
	}
	return &types.RunResult{
		Best:       best,
		HallOfFame: []*types.Individual{best},
		Logbook: []types.GenerationRecord{
			{IslandID: 0, Generation: 0, Evals: 10, Min: 900, Avg: 950, Max: 1000, Std: 30},
			{IslandID: 0, Generation: 1, Evals: 7, Min: 900, Avg: 930, Max: 990, Std: 25},
		},
		DuplicateStats: []types.DuplicateStats{
			{IslandID: 0, Generation: 0, TotalPopulation: 10, Unique: 9, Duplicates: 1, Percentage: 10, CacheHits: 1},
		},
		Evaluations: 17,
		CacheHits:   3,
		Generations: 1,
		StartedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		FinishedAt:  time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC),
	}
}

func TestWriteCatalog(t *testing.T) {
	cat := testCatalog(t)
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	path, err := w.WriteCatalog(cat)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Catalog")
	require.NoError(t, err)
	// Header plus one row per catalog entry.
	require.Len(t, rows, cat.Len()+1)
	assert.Equal(t, "Index", rows[0][0])
	assert.Equal(t, "0", rows[1][0])
}

func TestWriteRunResult(t *testing.T) {
	cat := testCatalog(t)
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	path, err := w.WriteRunResult(testResult(), cat, []float64{0, 0.022})
	require.NoError(t, err)
	assert.Contains(t, path, "run_results_20250601_120500.xlsx")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	for _, sheet := range []string{"Summary", "HallOfFame", "Logbook", "Duplicates"} {
		idx, err := f.GetSheetIndex(sheet)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, idx, 0, "missing sheet %s", sheet)
	}

	logbook, err := f.GetRows("Logbook")
	require.NoError(t, err)
	require.Len(t, logbook, 3)
	assert.Equal(t, []string{"Generation", "Island", "Evals", "Min", "Avg", "Max", "Std"}, logbook[0])

	hof, err := f.GetRows("HallOfFame")
	require.NoError(t, err)
	require.Len(t, hof, 2)
	assert.Equal(t, "0,1", hof[1][6])
}

func TestWriteRunResultWithoutBest(t *testing.T) {
	// A cancelled run can finish with an empty hall of fame; the writer must
	// still produce a valid file.
	cat := testCatalog(t)
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	result := testResult()
	result.Best = nil
	result.HallOfFame = nil

	path, err := w.WriteRunResult(result, cat, nil)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	hof, err := f.GetRows("HallOfFame")
	require.NoError(t, err)
	assert.Len(t, hof, 1)
}
