package distribution

import (
	"slices"

	"github.com/gomlx/mpidist/types/locale"
	"github.com/gomlx/mpidist/types/mderr"
)

// kind records which factory built a Distribution, so Rebuild can
// reconstruct it the same way after a shape/halo change.
type kind int

const (
	kindBlock kind = iota
	kindCloned
	kindSingleLocale
)

// Distribution is the ordered sequence of CartLocaleExtents indexed by
// inter-locale rank, plus the owning globale extent, the resolved halo, and
// the inter-locale-rank -> flat-rank map (spec.md §3 "Distribution").
// Constructed once per global shape; Rebuild produces a fresh instance on
// shape or halo change rather than mutating this one (spec.md §9's
// "property setters" re-architecture note).
type Distribution struct {
	globale *locale.GlobaleExtent
	halo    [][2]int
	extents []*locale.CartLocaleExtent

	interLocaleRankToFlatRank []int

	builtBy kind
	// dims and cartCoords are retained only to let Rebuild redo a block
	// partition identically; Cloned/SingleLocale distributions leave them
	// nil and use singleLocaleRank/numLocalesHint instead.
	dims             []int
	cartCoords       [][]int
	singleLocaleRank int
	numLocalesHint   int
}

// GlobaleExtent returns the array-wide extent this distribution partitions.
func (d *Distribution) GlobaleExtent() *locale.GlobaleExtent {
	return d.globale
}

// Halo returns the resolved (ndim x 2) halo matrix.
func (d *Distribution) Halo() [][2]int {
	return d.halo
}

// NumLocales returns the number of locale extents.
func (d *Distribution) NumLocales() int {
	return len(d.extents)
}

// LocaleExtent returns the CartLocaleExtent owned by interLocaleRank.
func (d *Distribution) LocaleExtent(interLocaleRank int) (*locale.CartLocaleExtent, error) {
	if interLocaleRank < 0 || interLocaleRank >= len(d.extents) {
		return nil, mderr.Configurationf(
			"inter-locale rank %d out of range [0, %d)", interLocaleRank, len(d.extents)).WithParam("inter_locale_rank")
	}
	return d.extents[interLocaleRank], nil
}

// LocaleExtents returns every locale extent, ordered by inter-locale rank.
func (d *Distribution) LocaleExtents() []*locale.CartLocaleExtent {
	return d.extents
}

// FindByCartCoord returns the locale extent sitting at the given cartesian
// coordinate, used by haloplan to locate neighbours.
func (d *Distribution) FindByCartCoord(coord []int) (*locale.CartLocaleExtent, bool) {
	for _, e := range d.extents {
		if slices.Equal(e.CartCoord, coord) {
			return e, true
		}
	}
	return nil, false
}

// GetRank returns the flat-communicator rank of interLocaleRank's
// representative process.
func (d *Distribution) GetRank(interLocaleRank int) (int, error) {
	if interLocaleRank < 0 || interLocaleRank >= len(d.interLocaleRankToFlatRank) {
		return 0, mderr.Configurationf(
			"inter-locale rank %d out of range [0, %d)", interLocaleRank, len(d.interLocaleRankToFlatRank)).
			WithParam("inter_locale_rank")
	}
	return d.interLocaleRankToFlatRank[interLocaleRank], nil
}

// Rebuild reconstructs a Distribution over a new globale extent and/or halo,
// using the same partitioning strategy (block, cloned, or single-locale)
// this one was built with.
func (d *Distribution) Rebuild(newGlobale *locale.GlobaleExtent, newHalo any) (*Distribution, error) {
	switch d.builtBy {
	case kindBlock:
		return BlockPartition(newGlobale, d.dims, d.cartCoords, newHalo, d.interLocaleRankToFlatRank)
	case kindCloned:
		return Cloned(newGlobale, d.numLocalesHint, d.interLocaleRankToFlatRank)
	case kindSingleLocale:
		return SingleLocale(newGlobale, d.numLocalesHint, d.singleLocaleRank, newHalo, d.interLocaleRankToFlatRank)
	default:
		return nil, mderr.Internalf("distribution has unknown build kind %d", int(d.builtBy))
	}
}
