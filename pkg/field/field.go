// Package field simulates the magnetic field of Halbach ring arrays over the
// target volume and reduces it to strength and homogeneity figures.
//
// Every magnet is modeled as a point dipole in k=2 Halbach ordering: a magnet
// at angular position theta carries an in-plane moment pointing along
// (cos 2*theta, sin 2*theta), which reinforces the transverse field inside
// the bore. The total field is the linear superposition of all dipoles; no
// ring interacts with another.
//
// All the per-genome work is a vector sum over a precomputed column bank, so
// a fitness evaluation costs O(slots * samplePoints) additions regardless of
// magnet count.
package field

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/openmri/halbach-evolve/internal/constants"
	"github.com/openmri/halbach-evolve/internal/types"
	"github.com/openmri/halbach-evolve/pkg/catalog"
)

type samplePoint struct {
	x, y, z float64
}

// ErrEmptySampleGrid is returned when the masked lattice contains no points
// inside the target volume; every evaluation would be penalized, so this is a
// fatal configuration error.
var ErrEmptySampleGrid = errors.New("no sample points inside the target volume")

// Evaluator computes FieldSamples for genomes against a fixed catalog,
// position set and sample grid. It is immutable after construction and safe
// for concurrent use; Evaluate is a pure function of its inputs, so repeated
// calls return bit-identical results.
type Evaluator struct {
	points     []samplePoint
	columns    [][]float64 // columns[slot*catalogLen+entry][point] = Bx contribution
	catalogLen int
	slots      int
}

// Options configures evaluator construction.
type Options struct {
	// DSV is the diameter of the spherical target volume, meters.
	DSV float64
	// Resolution controls sample density and is deliberately inverse: a
	// HIGHER value yields a COARSER grid (points per axis is
	// 1e3*dim/resolution + 1), trading accuracy for evaluation speed.
	Resolution float64
	// Workers bounds the precomputation parallelism. Zero means NumCPU.
	Workers int
}

// NewEvaluator precomputes the field column bank: for every symmetric ring
// position and every catalog entry, the principal-axis (Bx) contribution at
// each sample point. Rings at +z and -z are mirror images and share a genome
// slot, so their contributions are summed into one column.
//
// Fails with ErrEmptySampleGrid when the DSV/resolution combination leaves no
// lattice point inside the sphere (an even axis count straddles the origin,
// and a coarse enough grid then puts every corner outside).
func NewEvaluator(cat *catalog.Catalog, symPositions []float64, opts Options) (*Evaluator, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	e := &Evaluator{
		points:     samplePoints(opts.DSV, opts.Resolution),
		catalogLen: cat.Len(),
		slots:      len(symPositions),
	}
	if len(e.points) == 0 {
		return nil, fmt.Errorf("%w: dsv=%g resolution=%g", ErrEmptySampleGrid, opts.DSV, opts.Resolution)
	}
	e.columns = make([][]float64, e.slots*e.catalogLen)

	p := pool.New().WithMaxGoroutines(workers)
	for slot := 0; slot < e.slots; slot++ {
		for entry := 0; entry < e.catalogLen; entry++ {
			slot, entry := slot, entry
			p.Go(func() {
				e.columns[slot*e.catalogLen+entry] = e.computeColumn(
					cat.At(entry), cat.MagnetSize(), symPositions[slot])
			})
		}
	}
	p.Wait()

	return e, nil
}

// Evaluate sums the genome's precomputed columns pointwise and reduces the
// result. The genome must hold one valid catalog index per slot; anything
// else is a contract violation and panics.
func (e *Evaluator) Evaluate(genome []int) types.FieldSample {
	if len(genome) != e.slots {
		panic("field: genome length does not match ring slot count")
	}

	field := make([]float64, len(e.points))
	for slot, entry := range genome {
		col := e.columns[slot*e.catalogLen+entry]
		for i, v := range col {
			field[i] += v
		}
	}

	minB, maxB := math.Inf(1), math.Inf(-1)
	var sum float64
	for _, v := range field {
		sum += v
		if v < minB {
			minB = v
		}
		if v > maxB {
			maxB = v
		}
	}
	mean := sum / float64(len(field))

	homogeneity := math.Inf(1)
	if mean != 0 {
		homogeneity = (maxB - minB) / mean * 1e6
	}

	return types.FieldSample{
		MeanField:   mean,
		Homogeneity: homogeneity,
		MinField:    minB,
		MaxField:    maxB,
		SampleCount: len(field),
	}
}

// Slots returns the number of genome slots (symmetric ring positions).
func (e *Evaluator) Slots() int { return e.slots }

// SampleCount returns the number of masked sample points.
func (e *Evaluator) SampleCount() int { return len(e.points) }

// samplePoints builds the deterministic sample grid: a cubic lattice over the
// simulation volume masked to the first octant of the DSV sphere. The other
// seven octants are redundant under the array's mirror symmetries.
func samplePoints(dsv, resolution float64) []samplePoint {
	n := int(1e3*dsv/resolution) + 1
	axis := make([]float64, n)
	if n == 1 {
		axis[0] = 0
	} else {
		step := dsv / float64(n-1)
		for i := range axis {
			axis[i] = -dsv/2 + float64(i)*step
		}
	}

	r2 := (dsv / 2) * (dsv / 2)
	var pts []samplePoint
	for _, x := range axis {
		if x < 0 {
			continue
		}
		for _, y := range axis {
			if y < 0 {
				continue
			}
			for _, z := range axis {
				if z < 0 {
					continue
				}
				if x*x+y*y+z*z <= r2 {
					pts = append(pts, samplePoint{x, y, z})
				}
			}
		}
	}
	return pts
}

// computeColumn accumulates the Bx contribution of one ring configuration
// placed at one symmetric axial position (and its mirror at -z when nonzero).
func (e *Evaluator) computeColumn(rc catalog.RingConfiguration, magnetSize, position float64) []float64 {
	col := make([]float64, len(e.points))

	zs := []float64{position}
	if position != 0 {
		zs = []float64{-position, position}
	}

	// mu0/4pi * |m| for a cube magnet of remanence Br: Br * a^3 / (4*pi)
	pref := constants.MagnetRemanence * magnetSize * magnetSize * magnetSize / (4 * math.Pi)

	for band := 0; band < rc.BandCount; band++ {
		radius := rc.BandRadii[band]
		n := rc.MagnetCounts[band]
		for k := 0; k < n; k++ {
			theta := 2 * math.Pi * float64(k) / float64(n)
			px := radius * math.Cos(theta)
			py := radius * math.Sin(theta)
			// k=2 Halbach ordering: the moment rotates twice per turn.
			ux := math.Cos(2 * theta)
			uy := math.Sin(2 * theta)

			for _, z := range zs {
				for i, pt := range e.points {
					dx := pt.x - px
					dy := pt.y - py
					dz := pt.z - z
					r2 := dx*dx + dy*dy + dz*dz
					r := math.Sqrt(r2)
					r3 := r2 * r
					r5 := r2 * r3
					dot := 3 * (dx*ux + dy*uy)
					col[i] += pref * (dx*dot/r5 - ux/r3)
				}
			}
		}
	}
	return col
}
