package topology

import (
	"slices"

	"github.com/gomlx/mpidist/comm"
	"github.com/gomlx/mpidist/types/mderr"
	"github.com/samber/lo"
)

// CartLocaleComms extends LocaleComms with a cartesian grid imposed over the
// inter-locale leaders (spec.md §3/§4.5): the resolved grid shape, the
// cartesian communicator (defined only on leaders), and the
// inter-locale-rank <-> cartesian-coordinate map, fanned out to every
// process via an intra-locale broadcast so followers know the full topology
// too.
type CartLocaleComms struct {
	*LocaleComms

	// Dims is the resolved grid shape: prod(Dims) == NumLocales, zero
	// entries of the caller's requested dims filled in by ResolveDims.
	Dims []int

	// CartComm is the cartesian communicator over InterLocaleComm. It is
	// nil on every process that is not a locale leader, and also on the
	// leader when NumLocales == 1 (there is no inter-locale communicator to
	// build it over) -- there is no
	// meaningful Null CartCommunicator value, since CartCommunicator's
	// method set (Dims/CoordToRank/RankToCoord) has no sensible behaviour
	// off the inter-locale communicator; followers must use
	// InterLocaleRankToCartCoord instead of calling through CartComm.
	CartComm comm.CartCommunicator

	// InterLocaleRankToCartCoord maps inter-locale rank -> cartesian
	// coordinate, known by every process after construction.
	InterLocaleRankToCartCoord [][]int
}

// CoordToInterLocaleRank inverts InterLocaleRankToCartCoord.
func (c *CartLocaleComms) CoordToInterLocaleRank(coord []int) (int, bool) {
	for rank, cc := range c.InterLocaleRankToCartCoord {
		if slices.Equal(cc, coord) {
			return rank, true
		}
	}
	return 0, false
}

// BuildCartLocaleComms runs the construction protocol of spec.md §4.5 on
// top of an already-built LocaleComms. Every rank must call this, in the
// same order as every other rank.
func BuildCartLocaleComms(lc *LocaleComms, dims []int) (*CartLocaleComms, error) {
	resolvedDims, err := ResolveDims(dims, lc.NumLocales)
	if err != nil {
		return nil, err
	}
	ndim := len(resolvedDims)

	clc := &CartLocaleComms{LocaleComms: lc, Dims: resolvedDims}

	var payload []int
	if lc.IsLeader() {
		var cartComm comm.CartCommunicator
		var coords [][]int
		if !comm.IsNull(lc.InterLocaleComm) {
			periods := make([]bool, ndim)
			cartComm, err = lc.InterLocaleComm.CartCreate(resolvedDims, periods, true)
			if err != nil {
				return nil, mderr.New(mderr.Topology, err).WithRank(lc.FlatComm.Rank()).WithParam("cart_create")
			}
			coords = make([][]int, lc.NumLocales)
			for _, rank := range lo.Range(lc.NumLocales) {
				coord, err := cartComm.RankToCoord(rank)
				if err != nil {
					return nil, mderr.New(mderr.Topology, err).WithRank(lc.FlatComm.Rank()).WithParam("rank_to_coord")
				}
				coords[rank] = coord
			}
		} else {
			// num_locales == 1: there is no inter-locale communicator to
			// impose a cartesian topology on; the single locale sits at
			// the grid origin.
			coords = [][]int{make([]int, ndim)}
		}
		clc.CartComm = cartComm
		clc.InterLocaleRankToCartCoord = coords

		payload = make([]int, 0, ndim+lc.NumLocales*ndim+lc.NumLocales)
		payload = append(payload, resolvedDims...)
		for _, coord := range coords {
			payload = append(payload, coord...)
		}
		payload = append(payload, lc.InterLocaleRankToFlatRank...)
	}

	received, err := lc.IntraLocaleComm.BroadcastInts(0, payload)
	if err != nil {
		return nil, mderr.New(mderr.Topology, err).WithRank(lc.FlatComm.Rank()).WithParam("topology_broadcast")
	}
	if !lc.IsLeader() {
		if len(received) != ndim+lc.NumLocales*ndim+lc.NumLocales {
			return nil, mderr.Internalf(
				"topology broadcast payload has %d ints, expected %d", len(received), ndim+lc.NumLocales*ndim+lc.NumLocales).
				WithRank(lc.FlatComm.Rank())
		}
		clc.Dims = slices.Clone(received[:ndim])
		rest := received[ndim:]
		coords := make([][]int, lc.NumLocales)
		for rank := range lo.Range(lc.NumLocales) {
			coords[rank] = slices.Clone(rest[rank*ndim : (rank+1)*ndim])
		}
		clc.InterLocaleRankToCartCoord = coords
		clc.InterLocaleRankToFlatRank = slices.Clone(rest[lc.NumLocales*ndim:])
	}

	return clc, nil
}
