// Package fitness turns field samples into the scalar score the genetic
// search minimizes.
package fitness

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/openmri/halbach-evolve/internal/types"
)

// ErrInvalidWeighting is returned when the homogeneity and strength weights
// do not sum to 1. Configuration-time, fatal.
var ErrInvalidWeighting = errors.New("homogeneity and strength weights must sum to 1.0")

const weightTolerance = 1e-9

// FieldEvaluator is the physics backend consumed as a pure function.
type FieldEvaluator interface {
	Evaluate(genome []int) types.FieldSample
}

// Scorer combines a field sample into one weighted error score, lower is
// better:
//
//	score = homogeneityWeight*homogeneityPPM + strengthWeight*strengthErrorPPM
//
// where the strength error is the deviation of the achieved mean field from
// the target, normalized by the target and expressed in ppm so both terms are
// dimensionless. Identical genomes always produce identical Fitness, which is
// what lets the duplicate tracker serve cached scores.
type Scorer struct {
	evaluator FieldEvaluator
	cfg       types.FitnessConfig

	penalties atomic.Int64
}

// NewScorer validates the weighting and builds a scorer. Fails fast with
// ErrInvalidWeighting before any evolutionary work begins.
func NewScorer(evaluator FieldEvaluator, cfg types.FitnessConfig) (*Scorer, error) {
	if math.Abs(cfg.HomogeneityWeight+cfg.StrengthWeight-1.0) > weightTolerance {
		return nil, fmt.Errorf("%w: got %.4f + %.4f",
			ErrInvalidWeighting, cfg.HomogeneityWeight, cfg.StrengthWeight)
	}
	if cfg.PenaltyScore <= 0 {
		return nil, fmt.Errorf("penalty score must be positive, got %g", cfg.PenaltyScore)
	}
	return &Scorer{evaluator: evaluator, cfg: cfg}, nil
}

// Score evaluates one genome. Pathological results (non-finite field, zero or
// negative mean) are classified as penalties rather than errors so the search
// routes away from them instead of aborting the island.
func (s *Scorer) Score(genome []int) types.Fitness {
	sample := s.evaluator.Evaluate(genome)
	return s.FromSample(sample)
}

// FromSample scores an already computed field sample.
func (s *Scorer) FromSample(sample types.FieldSample) types.Fitness {
	if !isUsable(sample) {
		s.penalties.Add(1)
		return types.Fitness{
			Score:       s.cfg.PenaltyScore,
			MeanField:   sample.MeanField,
			Homogeneity: sample.Homogeneity,
			Penalized:   true,
		}
	}

	strengthErr := math.Abs(sample.MeanField-s.cfg.TargetField) / s.cfg.TargetField * 1e6
	score := s.cfg.HomogeneityWeight*sample.Homogeneity + s.cfg.StrengthWeight*strengthErr

	return types.Fitness{
		Score:       score,
		MeanField:   sample.MeanField,
		Homogeneity: sample.Homogeneity,
	}
}

// Penalties returns the number of penalized evaluations so far.
func (s *Scorer) Penalties() int64 {
	return s.penalties.Load()
}

func isUsable(sample types.FieldSample) bool {
	if sample.SampleCount == 0 {
		return false
	}
	if sample.MeanField <= 0 {
		return false
	}
	if math.IsNaN(sample.MeanField) || math.IsInf(sample.MeanField, 0) {
		return false
	}
	if math.IsNaN(sample.Homogeneity) || math.IsInf(sample.Homogeneity, 0) {
		return false
	}
	return true
}
