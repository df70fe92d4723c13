package distribution

import (
	"fmt"

	"github.com/gomlx/mpidist/internal/utils"
	"github.com/gomlx/mpidist/types/extent"
	"github.com/gomlx/mpidist/types/locale"
	"github.com/gomlx/mpidist/types/mderr"
)

// BlockPartition implements spec.md §4.6: carve globale's interior into
// len(interLocaleRankToCartCoord) balanced blocks, one per inter-locale
// rank, arranged by dims and interLocaleRankToCartCoord (as produced by
// topology.BuildCartLocaleComms), each halo-clamped to the globale
// boundary. halo accepts anything ResolveHalo understands.
//
// When exactly one locale is named, the cartesian topology is bypassed
// entirely (the "single-locale fast path"): the lone locale gets the whole
// globale extent, promoted to a real CartLocaleExtent with CartCoord/
// CartShape of all zeros/ones rather than a bare GlobaleExtent (see
// DESIGN.md Open Question decisions), so Distribution.LocaleExtents always
// has one element type regardless of NumLocales.
func BlockPartition(
	globale *locale.GlobaleExtent,
	dims []int,
	interLocaleRankToCartCoord [][]int,
	halo any,
	interLocaleRankToFlatRank []int,
) (*Distribution, error) {
	ndim := globale.NDim()
	numLocales := len(interLocaleRankToCartCoord)
	if numLocales == 0 {
		return nil, mderr.Configurationf("BlockPartition requires at least one locale").WithParam("num_locales")
	}
	if len(dims) != ndim {
		return nil, mderr.Configurationf(
			"dims has %d axes, globale extent has %d", len(dims), ndim).WithParam("dims")
	}
	resolvedHalo, err := ResolveHalo(ndim, halo)
	if err != nil {
		return nil, err
	}
	if interLocaleRankToFlatRank != nil && len(interLocaleRankToFlatRank) != numLocales {
		return nil, mderr.Configurationf(
			"inter_locale_rank_to_flat_rank has %d entries, expected %d", len(interLocaleRankToFlatRank), numLocales).
			WithParam("inter_locale_rank_to_flat_rank")
	}

	flatRankFor := func(r int) int {
		if interLocaleRankToFlatRank == nil {
			return r
		}
		return interLocaleRankToFlatRank[r]
	}

	extents := make([]*locale.CartLocaleExtent, numLocales)

	if numLocales == 1 {
		spec := extent.FromStartStop(globale.StartN(), globale.StopN())
		ext, err := locale.NewCartLocaleExtent(
			globale, spec, resolvedHalo, zeros(ndim), ones(ndim), flatRankFor(0), 0)
		if err != nil {
			return nil, err
		}
		extents[0] = ext
	} else {
		shapeN := globale.ShapeN()
		startN := globale.StartN()
		seenCoords := utils.MakeSet[string](numLocales)
		for r := 0; r < numLocales; r++ {
			coord := interLocaleRankToCartCoord[r]
			if len(coord) != ndim {
				return nil, mderr.Configurationf(
					"inter-locale rank %d: cart coord has %d axes, expected %d", r, len(coord), ndim).WithParam("cart_coord")
			}
			coordKey := fmt.Sprint(coord)
			if seenCoords.Has(coordKey) {
				return nil, mderr.Geometricf(
					"inter-locale rank %d: cart coord %v is already assigned to another rank", r, coord).WithParam("cart_coord")
			}
			seenCoords.Insert(coordKey)
			beg := make([]int, ndim)
			end := make([]int, ndim)
			for a := 0; a < ndim; a++ {
				if coord[a] < 0 || coord[a] >= dims[a] {
					return nil, mderr.Geometricf(
						"inter-locale rank %d: coord axis %d value %d out of range [0, %d)",
						r, a, coord[a], dims[a]).WithParam("cart_coord")
				}
				s, e := blockRange(shapeN[a], dims[a], coord[a])
				beg[a] = startN[a] + s
				end[a] = startN[a] + e
			}
			spec := extent.FromStartStop(beg, end)
			ext, err := locale.NewCartLocaleExtent(globale, spec, resolvedHalo, coord, dims, flatRankFor(r), r)
			if err != nil {
				return nil, err
			}
			extents[r] = ext
		}
	}

	return &Distribution{
		globale:                   globale,
		halo:                      resolvedHalo,
		extents:                   extents,
		interLocaleRankToFlatRank: finalFlatRanks(extents),
		builtBy:                   kindBlock,
		dims:                      dims,
		cartCoords:                interLocaleRankToCartCoord,
	}, nil
}

// Cloned builds the degenerate distribution where every locale holds the
// full globale extent (spec.md §4.6 "Cloned" -- used for replicated data).
func Cloned(globale *locale.GlobaleExtent, numLocales int, interLocaleRankToFlatRank []int) (*Distribution, error) {
	if numLocales < 1 {
		return nil, mderr.Configurationf("Cloned requires at least one locale, got %d", numLocales).WithParam("num_locales")
	}
	ndim := globale.NDim()
	spec := extent.FromStartStop(globale.StartN(), globale.StopN())
	extents := make([]*locale.CartLocaleExtent, numLocales)
	for r := 0; r < numLocales; r++ {
		flatRank := r
		if interLocaleRankToFlatRank != nil {
			flatRank = interLocaleRankToFlatRank[r]
		}
		// The clamp invariant zeroes out any requested halo here anyway,
		// since each "locale" already spans the whole globale boundary.
		ext, err := locale.NewCartLocaleExtent(globale, spec, nil, zeros(ndim), ones(ndim), flatRank, r)
		if err != nil {
			return nil, err
		}
		extents[r] = ext
	}
	return &Distribution{
		globale:                   globale,
		halo:                      make([][2]int, ndim),
		extents:                   extents,
		interLocaleRankToFlatRank: finalFlatRanks(extents),
		builtBy:                   kindCloned,
		numLocalesHint:            numLocales,
	}, nil
}

// SingleLocale builds the degenerate distribution where one named locale
// holds the full globale extent and every other locale holds an empty
// extent anchored at globale.StartN() on every axis (spec.md §4.6
// "SingleLocale"; the anchor convention resolves spec.md §9's third Open
// Question, see DESIGN.md).
func SingleLocale(globale *locale.GlobaleExtent, numLocales, chosenRank int, halo any, interLocaleRankToFlatRank []int) (*Distribution, error) {
	if numLocales < 1 {
		return nil, mderr.Configurationf("SingleLocale requires at least one locale, got %d", numLocales).WithParam("num_locales")
	}
	if chosenRank < 0 || chosenRank >= numLocales {
		return nil, mderr.Configurationf(
			"chosen rank %d out of range [0, %d)", chosenRank, numLocales).WithParam("chosen_rank")
	}
	ndim := globale.NDim()
	resolvedHalo, err := ResolveHalo(ndim, halo)
	if err != nil {
		return nil, err
	}

	extents := make([]*locale.CartLocaleExtent, numLocales)
	startN := globale.StartN()
	for r := 0; r < numLocales; r++ {
		flatRank := r
		if interLocaleRankToFlatRank != nil {
			flatRank = interLocaleRankToFlatRank[r]
		}
		var spec extent.Spec
		var localeHalo [][2]int
		if r == chosenRank {
			spec = extent.FromStartStop(startN, globale.StopN())
			localeHalo = resolvedHalo
		} else {
			spec = extent.FromStartStop(startN, startN)
			localeHalo = make([][2]int, ndim)
		}
		ext, err := locale.NewCartLocaleExtent(globale, spec, localeHalo, zeros(ndim), ones(ndim), flatRank, r)
		if err != nil {
			return nil, err
		}
		extents[r] = ext
	}
	return &Distribution{
		globale:                   globale,
		halo:                      resolvedHalo,
		extents:                   extents,
		interLocaleRankToFlatRank: finalFlatRanks(extents),
		builtBy:                   kindSingleLocale,
		numLocalesHint:            numLocales,
		singleLocaleRank:          chosenRank,
	}, nil
}

// blockRange returns the [start, end) interior bounds of the idx'th of k
// balanced pieces of an axis of length n: sizes differ by at most one, with
// the larger pieces assigned to the lower indices (spec.md §4.6).
func blockRange(n, k, idx int) (start, end int) {
	base := n / k
	rem := n % k
	start = idx*base + min(idx, rem)
	size := base
	if idx < rem {
		size++
	}
	return start, start + size
}

func zeros(n int) []int {
	return make([]int, n)
}

func ones(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func finalFlatRanks(extents []*locale.CartLocaleExtent) []int {
	out := make([]int, len(extents))
	for i, e := range extents {
		out[i] = e.Rank
	}
	return out
}
