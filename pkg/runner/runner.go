// Package runner assembles the full optimization pipeline: catalog, field
// evaluator, scorer, island orchestrator and result writer.
package runner

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/openmri/halbach-evolve/internal/types"
	"github.com/openmri/halbach-evolve/pkg/catalog"
	"github.com/openmri/halbach-evolve/pkg/engine"
	"github.com/openmri/halbach-evolve/pkg/field"
	"github.com/openmri/halbach-evolve/pkg/fitness"
	"github.com/openmri/halbach-evolve/pkg/results"
)

// Run executes one full optimization from a validated configuration. All
// configuration-time failures (invalid ranges, empty catalog, invalid
// weighting) surface before the first generation. When cfg.Output.Dir is set,
// the catalog and run results are written there as spreadsheets; cancellation
// still produces a results file from the partial run.
func Run(ctx context.Context, cfg *types.Config, logger *logrus.Logger) (*types.RunResult, error) {
	if logger == nil {
		logger = logrus.New()
	}

	cat, err := catalog.Build(cfg.Geometry)
	if err != nil {
		return nil, fmt.Errorf("building ring catalog: %w", err)
	}
	positions, err := catalog.Positions(cfg.Geometry)
	if err != nil {
		return nil, fmt.Errorf("deriving ring positions: %w", err)
	}
	sym := catalog.Symmetric(positions)

	logger.WithFields(logrus.Fields{
		"catalog_size": cat.Len(),
		"rings":        len(positions),
		"slots":        len(sym),
	}).Info("Configuration space built")

	dsv := cfg.Simulation.DSVFraction * cfg.Geometry.InnerBoreDiameter
	evaluator, err := field.NewEvaluator(cat, sym, field.Options{
		DSV:        dsv,
		Resolution: cfg.Simulation.Resolution,
	})
	if err != nil {
		return nil, fmt.Errorf("building field evaluator: %w", err)
	}
	logger.WithField("sample_points", evaluator.SampleCount()).Info("Field bank precomputed")

	scorer, err := fitness.NewScorer(evaluator, cfg.Fitness)
	if err != nil {
		return nil, fmt.Errorf("building scorer: %w", err)
	}

	orch, err := engine.NewOrchestrator(cfg.GA, len(sym), cat.Len(), scorer, logger)
	if err != nil {
		return nil, fmt.Errorf("building orchestrator: %w", err)
	}

	result, runErr := orch.Run(ctx)

	if result != nil && cfg.Output.Dir != "" {
		writer, err := results.NewWriter(cfg.Output.Dir)
		if err != nil {
			logger.WithError(err).Warn("Skipping result output")
		} else {
			if _, err := writer.WriteCatalog(cat); err != nil {
				logger.WithError(err).Warn("Failed to write catalog spreadsheet")
			}
			if path, err := writer.WriteRunResult(result, cat, sym); err != nil {
				logger.WithError(err).Warn("Failed to write results spreadsheet")
			} else {
				logger.WithField("path", path).Info("Results written")
			}
		}
	}

	return result, runErr
}
