package catalog

import (
	"errors"
	"fmt"
	"math"

	"github.com/openmri/halbach-evolve/internal/types"
)

// Configuration-time failures. Both are fatal and surfaced before any
// evolutionary work begins.
var (
	ErrInvalidParameterRange   = errors.New("invalid parameter range")
	ErrEmptyConfigurationSpace = errors.New("configuration space is empty")
)

// RingConfiguration is one feasible concentric magnet-band layout. Created at
// catalog build time and never mutated afterwards.
type RingConfiguration struct {
	BandCount      int     `json:"band_count"`
	BandGap        float64 `json:"band_gap"`        // radial space between bands, m
	MagnetSpacing  float64 `json:"magnet_spacing"`  // space between adjacent magnets, m
	BandSeparation float64 `json:"band_separation"` // bore to first band, m

	// Derived geometry
	BandRadii    []float64 `json:"band_radii"`    // center radius per band, innermost first
	MagnetCounts []int     `json:"magnet_counts"` // magnets per band
	InnerRadius  float64   `json:"inner_radius"`  // innermost band radius minus magnet radius
	OuterRadius  float64   `json:"outer_radius"`  // outermost band radius plus magnet radius
}

type configKey struct {
	bandCount      int
	bandGap        float64
	magnetSpacing  float64
	bandSeparation float64
}

// Catalog is the ordered, immutable enumeration of feasible ring
// configurations. Genomes reference entries by index; indices are stable for
// the lifetime of the run.
type Catalog struct {
	entries    []RingConfiguration
	index      map[configKey]int
	magnetSize float64
}

// Build enumerates all feasible RingConfigurations from the geometry grids.
// Enumeration order is the Cartesian product over band counts, band gaps,
// band separations and magnet spacings, in that nesting, so the catalog is
// deterministic for a given configuration.
func Build(geo types.GeometryConfig) (*Catalog, error) {
	if len(geo.BandCounts) == 0 {
		return nil, fmt.Errorf("%w: band_counts is empty", ErrInvalidParameterRange)
	}
	gaps := geo.BandGaps.Values()
	spacings := geo.MagnetSpacings.Values()
	separations := geo.BandSeparations.Values()
	if len(gaps) == 0 {
		return nil, fmt.Errorf("%w: band_gaps produces no values", ErrInvalidParameterRange)
	}
	if len(spacings) == 0 {
		return nil, fmt.Errorf("%w: magnet_spacings produces no values", ErrInvalidParameterRange)
	}
	if len(separations) == 0 {
		return nil, fmt.Errorf("%w: band_separations produces no values", ErrInvalidParameterRange)
	}
	if geo.InnerBoreDiameter >= geo.OuterBoreDiameter {
		return nil, fmt.Errorf("%w: inner bore %.4f must be smaller than outer bore %.4f",
			ErrInvalidParameterRange, geo.InnerBoreDiameter, geo.OuterBoreDiameter)
	}

	boreRadius := geo.InnerBoreDiameter / 2
	// No band may reach past this radius.
	radiusThreshold := geo.OuterBoreDiameter/2 - geo.MagnetSize

	cat := &Catalog{
		index:      make(map[configKey]int),
		magnetSize: geo.MagnetSize,
	}

	for _, bands := range geo.BandCounts {
		for _, gap := range gaps {
			// A single band has no inter-band gap; enumerating gap values
			// would only duplicate the same physical ring.
			if bands == 1 && gap != 0 {
				continue
			}
			for _, sep := range separations {
				for _, space := range spacings {
					rc, ok := buildRing(geo.MagnetSize, boreRadius, bands, gap, space, sep, radiusThreshold)
					if !ok {
						continue
					}
					key := configKey{bands, gap, space, sep}
					cat.index[key] = len(cat.entries)
					cat.entries = append(cat.entries, rc)
				}
			}
		}
	}

	if len(cat.entries) == 0 {
		return nil, fmt.Errorf("%w: no feasible ring configuration within the given bounds",
			ErrEmptyConfigurationSpace)
	}
	return cat, nil
}

// buildRing derives the band radii and magnet counts for one parameter
// combination, reporting false when the geometry is infeasible.
func buildRing(magnetSize, boreRadius float64, bands int, gap, space, sep, threshold float64) (RingConfiguration, bool) {
	mr := MagnetRadius(magnetSize)

	radii := make([]float64, bands)
	counts := make([]int, bands)
	for i := 0; i < bands; i++ {
		if i == 0 {
			radii[i] = boreRadius + mr + sep
		} else {
			radii[i] = radii[i-1] + 2*mr + gap
		}
		if radii[i] > threshold {
			return RingConfiguration{}, false
		}
		n, ok := maxMagnetCount(mr, radii[i], space)
		if !ok || n < 1 {
			return RingConfiguration{}, false
		}
		counts[i] = n
	}

	return RingConfiguration{
		BandCount:      bands,
		BandGap:        gap,
		MagnetSpacing:  space,
		BandSeparation: sep,
		BandRadii:      radii,
		MagnetCounts:   counts,
		InnerRadius:    radii[0] - mr,
		OuterRadius:    radii[bands-1] + mr,
	}, true
}

// MagnetRadius is the effective circumradius of a square magnet of the given
// edge length, rounded to the micrometer.
func MagnetRadius(magnetSize float64) float64 {
	return math.Round(math.Sqrt(magnetSize*magnetSize/2)*1e6) / 1e6
}

// maxMagnetCount is the largest number of magnets that fit around a band of
// the given radius with the given spacing.
func maxMagnetCount(magnetRadius, bandRadius, space float64) (int, bool) {
	arg := (magnetRadius + space/2) / bandRadius
	if arg >= 1 {
		return 0, false // magnets larger than the band itself
	}
	return int(math.Round(math.Pi / math.Asin(arg))), true
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int { return len(c.entries) }

// At returns the entry at index i. Out-of-range indices are a programming
// error and panic.
func (c *Catalog) At(i int) RingConfiguration { return c.entries[i] }

// MagnetSize returns the magnet edge length the catalog was built with.
func (c *Catalog) MagnetSize() float64 { return c.magnetSize }

// IndexOf returns the stable index of a configuration with the same defining
// parameters, and whether such an entry exists. Decoding a genome through the
// catalog and re-encoding the results yields the original indices.
func (c *Catalog) IndexOf(rc RingConfiguration) (int, bool) {
	i, ok := c.index[configKey{rc.BandCount, rc.BandGap, rc.MagnetSpacing, rc.BandSeparation}]
	return i, ok
}

// Decode maps a genome to its ring configurations, one per slot.
func (c *Catalog) Decode(genome []int) []RingConfiguration {
	out := make([]RingConfiguration, len(genome))
	for i, idx := range genome {
		out[i] = c.entries[idx]
	}
	return out
}
