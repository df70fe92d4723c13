// Package topology builds the locale and cartesian-locale communicator
// layers of spec.md §4.4/§4.5 on top of the comm.Communicator abstraction:
// splitting a flat communicator into intra-locale and inter-locale
// communicators, counting locales, and (in cartlocalecomms.go) imposing a
// cartesian grid over the inter-locale leaders.
package topology

import (
	"github.com/gomlx/mpidist/comm"
	"github.com/gomlx/mpidist/types/mderr"
	"github.com/samber/lo"
)

// LocaleComms is the result of splitting a flat communicator into locales
// (spec.md §3 "LocaleComms"): the original flat communicator, the
// intra-locale communicator every process belongs to, the inter-locale
// communicator (defined only on intra-locale leaders; comm.Null elsewhere),
// and the number of locales.
type LocaleComms struct {
	FlatComm        comm.Communicator
	IntraLocaleComm comm.Communicator
	InterLocaleComm comm.Communicator
	NumLocales      int

	// InterLocaleRankToFlatRank maps inter-locale rank -> flat rank.
	// BuildLocaleComms populates it only on intra-locale leaders
	// (IsLeader()) and leaves it nil elsewhere, since spec.md §4.4 computes
	// it "on leaders" only; BuildCartLocaleComms later fills it in on the
	// other processes from the intra-locale topology broadcast.
	InterLocaleRankToFlatRank []int
}

// IsLeader reports whether the calling process is its locale's
// representative (intra-locale rank 0).
func (lc *LocaleComms) IsLeader() bool {
	return lc.IntraLocaleComm.Rank() == 0
}

// BuildLocaleComms runs the construction protocol of spec.md §4.4 on flat.
// Every rank in flat must call this, in the same order as every other rank
// (it is a sequence of collectives).
func BuildLocaleComms(flat comm.Communicator) (*LocaleComms, error) {
	intra, err := flat.SplitShared()
	if err != nil {
		return nil, mderr.New(mderr.Topology, err).WithRank(flat.Rank()).WithParam("split_shared")
	}

	isLeaderInt := 0
	if intra.Rank() == 0 {
		isLeaderInt = 1
	}
	numLocales, err := flat.AllReduceSum(isLeaderInt)
	if err != nil {
		return nil, mderr.New(mderr.Topology, err).WithRank(flat.Rank()).WithParam("num_locales_allreduce")
	}
	if numLocales < 1 {
		return nil, mderr.Internalf("all-reduce of leader flags produced num_locales = %d", numLocales).WithRank(flat.Rank())
	}

	var inter comm.Communicator
	if numLocales > 1 {
		color := comm.ColorUndefined
		if intra.Rank() == 0 {
			color = 0
		}
		inter, err = flat.SplitColorKey(color, flat.Rank())
		if err != nil {
			return nil, mderr.New(mderr.Topology, err).WithRank(flat.Rank()).WithParam("leader_split")
		}
	} else {
		inter = comm.Null
	}

	lc := &LocaleComms{
		FlatComm:        flat,
		IntraLocaleComm: intra,
		InterLocaleComm: inter,
		NumLocales:      numLocales,
	}

	if lc.IsLeader() {
		if numLocales > 1 {
			ranks := lo.Range(inter.Size())
			flatRanks, err := inter.Group().TranslateRanks(ranks, flat.Group())
			if err != nil {
				return nil, mderr.New(mderr.Topology, err).WithRank(flat.Rank()).WithParam("rank_translation")
			}
			lc.InterLocaleRankToFlatRank = flatRanks
		} else {
			lc.InterLocaleRankToFlatRank = []int{flat.Rank()}
		}
	}

	return lc, nil
}
