// Package results writes run artifacts as spreadsheets for downstream
// analysis. It is the result-writer collaborator on the core's output
// boundary; the engine itself never touches the filesystem.
package results

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/openmri/halbach-evolve/internal/types"
	"github.com/openmri/halbach-evolve/pkg/catalog"
)

// Writer saves catalogs and run results under one output directory.
type Writer struct {
	dir string
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// WriteCatalog saves every ring configuration with its index, so genome
// indices in the other sheets can be decoded by hand.
func (w *Writer) WriteCatalog(cat *catalog.Catalog) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Catalog"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Index", "BandCount", "BandGap", "MagnetSpacing", "BandSeparation", "InnerRadius", "OuterRadius", "MagnetsPerBand"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i := 0; i < cat.Len(); i++ {
		rc := cat.At(i)
		row := i + 2
		setRow(f, sheet, row,
			i, rc.BandCount, rc.BandGap, rc.MagnetSpacing, rc.BandSeparation,
			rc.InnerRadius, rc.OuterRadius, fmt.Sprint(rc.MagnetCounts))
	}

	path := filepath.Join(w.dir, "ring_catalog.xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save catalog spreadsheet: %w", err)
	}
	return path, nil
}

// WriteRunResult saves the aggregate of a finished (or cancelled) run: a
// summary of the best individual, the global hall of fame, the combined
// logbook and the duplicate statistics.
func (w *Writer) WriteRunResult(result *types.RunResult, cat *catalog.Catalog, positions []float64) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	w.writeSummary(f, result, cat, positions)
	w.writeHallOfFame(f, result)
	w.writeLogbook(f, result)
	w.writeDuplicates(f, result)
	f.DeleteSheet("Sheet1")

	path := filepath.Join(w.dir, fmt.Sprintf("run_results_%s.xlsx",
		result.FinishedAt.Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save results spreadsheet: %w", err)
	}
	return path, nil
}

func (w *Writer) writeSummary(f *excelize.File, result *types.RunResult, cat *catalog.Catalog, positions []float64) {
	sheet := "Summary"
	f.NewSheet(sheet)

	rows := [][2]interface{}{
		{"Started", result.StartedAt.Format(time.RFC3339)},
		{"Finished", result.FinishedAt.Format(time.RFC3339)},
		{"Generations", result.Generations},
		{"Evaluations", result.Evaluations},
		{"CacheHits", result.CacheHits},
		{"Penalties", result.Penalties},
	}
	if result.Best != nil {
		rows = append(rows,
			[2]interface{}{"BestScore", result.Best.Fitness.Score},
			[2]interface{}{"BestMeanField_T", result.Best.Fitness.MeanField},
			[2]interface{}{"BestHomogeneity_ppm", result.Best.Fitness.Homogeneity},
			[2]interface{}{"BestIsland", result.Best.IslandID},
			[2]interface{}{"BestGenome", result.Best.Signature()},
		)
	}
	for i, kv := range rows {
		setRow(f, sheet, i+1, kv[0], kv[1])
	}

	// Decoded ring sequence of the best genome, one row per slot.
	if result.Best != nil {
		base := len(rows) + 2
		setRow(f, sheet, base, "Slot", "Position_m", "CatalogIndex", "BandCount", "BandGap", "MagnetSpacing", "BandSeparation")
		for slot, idx := range result.Best.Genome {
			rc := cat.At(idx)
			pos := 0.0
			if slot < len(positions) {
				pos = positions[slot]
			}
			setRow(f, sheet, base+slot+1,
				slot, pos, idx, rc.BandCount, rc.BandGap, rc.MagnetSpacing, rc.BandSeparation)
		}
	}
}

func (w *Writer) writeHallOfFame(f *excelize.File, result *types.RunResult) {
	sheet := "HallOfFame"
	f.NewSheet(sheet)
	setRow(f, sheet, 1, "Rank", "Score", "MeanField_T", "Homogeneity_ppm", "Island", "Generation", "Genome")
	for i, ind := range result.HallOfFame {
		setRow(f, sheet, i+2,
			i+1, ind.Fitness.Score, ind.Fitness.MeanField, ind.Fitness.Homogeneity,
			ind.IslandID, ind.Generation, ind.Signature())
	}
}

func (w *Writer) writeLogbook(f *excelize.File, result *types.RunResult) {
	sheet := "Logbook"
	f.NewSheet(sheet)
	setRow(f, sheet, 1, "Generation", "Island", "Evals", "Min", "Avg", "Max", "Std")
	for i, rec := range result.Logbook {
		setRow(f, sheet, i+2,
			rec.Generation, rec.IslandID, rec.Evals, rec.Min, rec.Avg, rec.Max, rec.Std)
	}
}

func (w *Writer) writeDuplicates(f *excelize.File, result *types.RunResult) {
	sheet := "Duplicates"
	f.NewSheet(sheet)
	setRow(f, sheet, 1, "Generation", "Island", "Population", "Unique", "Duplicates", "Percentage", "CacheHits")
	for i, st := range result.DuplicateStats {
		setRow(f, sheet, i+2,
			st.Generation, st.IslandID, st.TotalPopulation, st.Unique,
			st.Duplicates, st.Percentage, st.CacheHits)
	}
}

func setRow(f *excelize.File, sheet string, row int, values ...interface{}) {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		f.SetCellValue(sheet, cell, v)
	}
}
