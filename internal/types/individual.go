package types

import (
	"strconv"
	"strings"
)

// Clone returns a deep copy of the individual. The copy keeps the original's
// ID and provenance: hall-of-fame entries and migrants are snapshots of the
// same logical individual, and mutating the live one must not touch them.
func (ind *Individual) Clone() *Individual {
	cp := *ind
	cp.Genome = make([]int, len(ind.Genome))
	copy(cp.Genome, ind.Genome)
	return &cp
}

// Signature is the canonical order-preserving encoding of the genome, used as
// the exact-match key for duplicate detection.
func (ind *Individual) Signature() string {
	var b strings.Builder
	b.Grow(len(ind.Genome) * 4)
	for i, g := range ind.Genome {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(g))
	}
	return b.String()
}

// Invalidate drops the cached fitness. Must be called whenever the genome is
// modified in place.
func (ind *Individual) Invalidate() {
	ind.Fitness = Fitness{}
	ind.Evaluated = false
}
