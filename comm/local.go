package comm

import (
	"fmt"
	"slices"
	"sort"

	"golang.org/x/sync/errgroup"
)

// localWorld is the state shared by every Local communicator value that
// belongs to the same communicator: its participant count, the mapping from
// its local rank indices back to the original flat rank (needed for group
// translation and for topology's inter-locale-rank -> flat-rank map), and
// the rendezvous used for every collective call on this communicator.
type localWorld struct {
	size           int
	ranksPerLocale int
	flatRanks      []int
	coll           *collective
}

// Local is an in-process reference Communicator: it simulates an SPMD MPI
// run using one goroutine per rank and real synchronization (comm.collective),
// without any real MPI binding. It exists so the rest of this module's
// topology and distribution logic can be exercised deterministically by
// tests and by the demo CLI, per spec.md §6's "the core consumes an MPI-like
// communicator abstraction" -- Local is one concrete instance of that
// abstraction, not a stand-in for a real MPI library.
type Local struct {
	world *localWorld
	rank  int
}

// NewLocal creates size simulated flat ranks, grouped into locales of
// ranksPerLocale contiguous ranks each (the last locale gets the remainder
// if ranksPerLocale does not evenly divide size). Pass ranksPerLocale <= 0
// to put every rank in a single locale.
func NewLocal(size int, ranksPerLocale int) ([]Communicator, error) {
	if size <= 0 {
		return nil, fmt.Errorf("comm: NewLocal size must be positive, got %d", size)
	}
	if ranksPerLocale <= 0 || ranksPerLocale > size {
		ranksPerLocale = size
	}
	flatRanks := make([]int, size)
	for i := range flatRanks {
		flatRanks[i] = i
	}
	world := &localWorld{
		size:           size,
		ranksPerLocale: ranksPerLocale,
		flatRanks:      flatRanks,
		coll:           newCollective(size),
	}
	comms := make([]Communicator, size)
	for r := 0; r < size; r++ {
		comms[r] = &Local{world: world, rank: r}
	}
	return comms, nil
}

// RunSPMD runs fn once per participant in comms, each on its own goroutine,
// and waits for all of them, returning the first non-nil error (if any) --
// the collective-concurrency idiom this module borrows from the pack's own
// use of golang.org/x/sync/errgroup.
func RunSPMD(comms []Communicator, fn func(Communicator) error) error {
	var g errgroup.Group
	for _, c := range comms {
		c := c
		g.Go(func() error {
			return fn(c)
		})
	}
	return g.Wait()
}

func (l *Local) Rank() int { return l.rank }
func (l *Local) Size() int { return l.world.size }

func (l *Local) Group() Group {
	return localGroup{flatRanks: slices.Clone(l.world.flatRanks)}
}

type splitEntry struct {
	color, key, localIdx int
}

func (l *Local) splitByColorKey(color, key int) (Communicator, error) {
	input := splitEntry{color: color, key: key, localIdx: l.rank}
	result := l.world.coll.Enter(l.rank, input, func(inputs []any) []any {
		entries := make([]splitEntry, len(inputs))
		for i, v := range inputs {
			entries[i] = v.(splitEntry)
		}

		groups := make(map[int][]splitEntry)
		var colorsSeen []int
		for _, e := range entries {
			if _, ok := groups[e.color]; !ok {
				colorsSeen = append(colorsSeen, e.color)
			}
			groups[e.color] = append(groups[e.color], e)
		}
		sort.Ints(colorsSeen)

		results := make([]any, len(inputs))
		for _, color := range colorsSeen {
			members := groups[color]
			if color == ColorUndefined {
				for _, e := range members {
					results[e.localIdx] = Null
				}
				continue
			}
			sort.SliceStable(members, func(i, j int) bool { return members[i].key < members[j].key })
			childFlatRanks := make([]int, len(members))
			for newRank, e := range members {
				childFlatRanks[newRank] = l.world.flatRanks[e.localIdx]
			}
			childWorld := &localWorld{
				size:           len(members),
				ranksPerLocale: l.world.ranksPerLocale,
				flatRanks:      childFlatRanks,
				coll:           newCollective(len(members)),
			}
			for newRank, e := range members {
				results[e.localIdx] = &Local{world: childWorld, rank: newRank}
			}
		}
		return results
	})
	comm, ok := result.(Communicator)
	if !ok {
		return nil, fmt.Errorf("comm: internal error computing split result")
	}
	return comm, nil
}

func (l *Local) SplitShared() (Communicator, error) {
	flatRank := l.world.flatRanks[l.rank]
	color := flatRank / l.world.ranksPerLocale
	return l.splitByColorKey(color, flatRank)
}

func (l *Local) SplitColorKey(color, key int) (Communicator, error) {
	return l.splitByColorKey(color, key)
}

func (l *Local) AllReduceSum(local int) (int, error) {
	result := l.world.coll.Enter(l.rank, local, func(inputs []any) []any {
		sum := 0
		for _, v := range inputs {
			sum += v.(int)
		}
		results := make([]any, len(inputs))
		for i := range results {
			results[i] = sum
		}
		return results
	})
	return result.(int), nil
}

func (l *Local) BroadcastInts(root int, values []int) ([]int, error) {
	result := l.world.coll.Enter(l.rank, values, func(inputs []any) []any {
		rootValues, _ := inputs[root].([]int)
		results := make([]any, len(inputs))
		for i := range results {
			results[i] = slices.Clone(rootValues)
		}
		return results
	})
	out, _ := result.([]int)
	return out, nil
}

func (l *Local) CartCreate(dims []int, periods []bool, reorder bool) (CartCommunicator, error) {
	input := slices.Clone(dims)
	result := l.world.coll.Enter(l.rank, input, func(inputs []any) []any {
		results := make([]any, len(inputs))
		prod := 1
		for _, d := range input {
			prod *= d
		}
		for i := range results {
			if prod != l.world.size {
				results[i] = fmt.Errorf(
					"comm: cartesian dims %v has product %d, communicator size is %d", input, prod, l.world.size)
				continue
			}
			results[i] = nil
		}
		return results
	})
	if err, ok := result.(error); ok && err != nil {
		return nil, err
	}
	coord := rankToCoord(l.rank, dims)
	return &localCart{Local: l, dims: slices.Clone(dims), coord: coord}, nil
}

type localCart struct {
	*Local
	dims  []int
	coord []int
}

func (c *localCart) Dims() []int { return slices.Clone(c.dims) }

func (c *localCart) CoordToRank(coord []int) (int, error) {
	return coordToRank(coord, c.dims)
}

func (c *localCart) RankToCoord(rank int) ([]int, error) {
	if rank < 0 || rank >= c.Size() {
		return nil, fmt.Errorf("comm: rank %d out of range [0, %d)", rank, c.Size())
	}
	return rankToCoord(rank, c.dims), nil
}

// rankToCoord/coordToRank use row-major (C) order: the last axis is
// fastest-varying, matching this module's block-partition convention.
func rankToCoord(rank int, dims []int) []int {
	coord := make([]int, len(dims))
	remaining := rank
	for a := len(dims) - 1; a >= 0; a-- {
		coord[a] = remaining % dims[a]
		remaining /= dims[a]
	}
	return coord
}

func coordToRank(coord, dims []int) (int, error) {
	if len(coord) != len(dims) {
		return 0, fmt.Errorf("comm: coord has %d axes, dims has %d", len(coord), len(dims))
	}
	rank := 0
	for a := range dims {
		if coord[a] < 0 || coord[a] >= dims[a] {
			return 0, fmt.Errorf("comm: coord axis %d value %d out of range [0, %d)", a, coord[a], dims[a])
		}
		rank = rank*dims[a] + coord[a]
	}
	return rank, nil
}

type localGroup struct {
	flatRanks []int
}

func (g localGroup) TranslateRanks(ranks []int, target Group) ([]int, error) {
	tg, ok := target.(localGroup)
	if !ok {
		return nil, fmt.Errorf("comm: TranslateRanks target is not a comm.Local group")
	}
	index := make(map[int]int, len(tg.flatRanks))
	for i, fr := range tg.flatRanks {
		index[fr] = i
	}
	out := make([]int, len(ranks))
	for i, r := range ranks {
		if r < 0 || r >= len(g.flatRanks) {
			return nil, fmt.Errorf("comm: rank %d out of range [0, %d)", r, len(g.flatRanks))
		}
		flatRank := g.flatRanks[r]
		if j, found := index[flatRank]; found {
			out[i] = j
		} else {
			out[i] = -1
		}
	}
	return out, nil
}
