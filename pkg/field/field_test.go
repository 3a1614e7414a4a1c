package field

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func testOptions() Options {
	// Coarse grid keeps the precompute cheap: 1e3*0.112/28+1 = 5 points/axis.
	return Options{DSV: 0.112, Resolution: 28, Workers: 2}
}

func newEvaluator(t *testing.T, cat *catalog.Catalog, positions []float64, opts Options) *Evaluator {
	t.Helper()
	ev, err := NewEvaluator(cat, positions, opts)
	require.NoError(t, err)
	return ev
}

func TestEvaluateIsDeterministic(t *testing.T) {
	cat := testCatalog(t)
	positions := []float64{0, 0.022, 0.044}
	ev := newEvaluator(t, cat, positions, testOptions())

	genome := []int{0, 1, 2 % cat.Len()}
	a := ev.Evaluate(genome)
	b := ev.Evaluate(genome)
	assert.Equal(t, a, b, "repeated evaluation must be bit-identical")

	// A separately constructed evaluator must agree too, regardless of the
	// parallel precompute schedule.
	ev2 := newEvaluator(t, cat, positions, testOptions())
	c := ev2.Evaluate(genome)
	assert.Equal(t, a, c)
}

func TestEvaluateFieldShape(t *testing.T) {
	cat := testCatalog(t)
	ev := newEvaluator(t, cat, []float64{0, 0.022}, testOptions())

	sample := ev.Evaluate([]int{0, 0})
	assert.Greater(t, sample.SampleCount, 0)
	// k=2 Halbach ordering reinforces the transverse field inside the bore.
	assert.Greater(t, sample.MeanField, 0.0)
	assert.GreaterOrEqual(t, sample.MaxField, sample.MinField)
	assert.GreaterOrEqual(t, sample.Homogeneity, 0.0)
}

func TestSuperpositionAcrossSlots(t *testing.T) {
	cat := testCatalog(t)
	opts := testOptions()

	// Mean field of the two-slot array equals the sum of the slot means:
	// rings do not interact.
	both := newEvaluator(t, cat, []float64{0, 0.022}, opts).Evaluate([]int{0, 1})
	center := newEvaluator(t, cat, []float64{0}, opts).Evaluate([]int{0})
	pair := newEvaluator(t, cat, []float64{0.022}, opts).Evaluate([]int{1})

	assert.InDelta(t, center.MeanField+pair.MeanField, both.MeanField, 1e-12)
}

func TestResolutionIsInverse(t *testing.T) {
	cat := testCatalog(t)

	coarse := newEvaluator(t, cat, []float64{0}, Options{DSV: 0.112, Resolution: 28, Workers: 1})
	fine := newEvaluator(t, cat, []float64{0}, Options{DSV: 0.112, Resolution: 14, Workers: 1})

	// Higher resolution parameter = fewer sample points.
	assert.Less(t, coarse.SampleCount(), fine.SampleCount())
}

func TestMirroredSlotDoublesContribution(t *testing.T) {
	cat := testCatalog(t)
	opts := testOptions()

	// A slot at z>0 stands for the ring pair at +z and -z, so its mean is
	// strictly larger than a single ring's would be if the pair helps at all.
	single := newEvaluator(t, cat, []float64{0}, opts).Evaluate([]int{0})
	mirrored := newEvaluator(t, cat, []float64{0.022}, opts).Evaluate([]int{0})
	assert.NotEqual(t, single.MeanField, mirrored.MeanField)
	assert.Greater(t, mirrored.MeanField, 0.0)
}

func TestEmptySampleGridFailsFast(t *testing.T) {
	cat := testCatalog(t)

	// 1e3*0.112/112+1 = 2 points per axis: the lattice straddles the origin
	// and both corners of the first octant lie outside the sphere, so the
	// masked grid is empty and construction must fail instead of producing an
	// evaluator that penalizes every genome.
	_, err := NewEvaluator(cat, []float64{0}, Options{DSV: 0.112, Resolution: 112, Workers: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptySampleGrid))
}

func TestEvaluateRejectsWrongGenomeLength(t *testing.T) {
	cat := testCatalog(t)
	ev := newEvaluator(t, cat, []float64{0, 0.022}, testOptions())
	assert.Panics(t, func() { ev.Evaluate([]int{0}) })
}
