package catalog

import (
	"fmt"

	"github.com/openmri/halbach-evolve/internal/types"
)

// Positions derives the fixed axial ring positions for the run, centered on
// the bore midpoint. With RingSeparation set, the ring count follows from the
// array length; with NumRings set, the separation does. Positions are not
// evolved: they are computed once and shared read-only by every island.
func Positions(geo types.GeometryConfig) ([]float64, error) {
	switch {
	case geo.NumRings > 0:
		n := geo.NumRings
		if n == 1 {
			return []float64{0}, nil
		}
		return linspace(-geo.ArrayLength/2, geo.ArrayLength/2, n), nil
	case geo.RingSeparation > 0:
		n := int(geo.ArrayLength/geo.RingSeparation) + 1
		length := geo.RingSeparation * float64(n-1)
		if n == 1 {
			return []float64{0}, nil
		}
		return linspace(-length/2, length/2, n), nil
	default:
		return nil, fmt.Errorf("%w: either ring_separation or num_rings must be positive",
			ErrInvalidParameterRange)
	}
}

// Symmetric keeps the non-negative half of a position set. The array is
// mirror-symmetric about z=0, so each genome slot at +z also stands for the
// ring at -z and only half the positions need independent catalog indices.
func Symmetric(positions []float64) []float64 {
	out := make([]float64, 0, len(positions)/2+1)
	for _, p := range positions {
		if p >= 0 {
			out = append(out, p)
		}
	}
	return out
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
