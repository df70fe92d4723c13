// Package extent implements the indexing-extent algebra: half-open,
// multi-dimensional rectangular boxes, their intersection, axis-aligned
// split, and intersection-split decomposition into a minimal tiling of a
// set difference. It also carries the halo-augmented extension
// (HaloIndexingExtent) used to describe a locale's ghost region.
package extent

import (
	"fmt"
	"slices"

	"github.com/gomlx/mpidist/types/mderr"
)

// Side names one side of an axis: the low side (towards index 0) or the
// high side (towards the axis's end).
type Side int

const (
	Lo Side = iota
	Hi
)

// String implements fmt.Stringer.
func (s Side) String() string {
	switch s {
	case Lo:
		return "Lo"
	case Hi:
		return "Hi"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// IndexingExtent is a half-open, axis-aligned box [beg, end) in ND integer
// index space. Values are treated as immutable by convention: no method
// mutates the receiver, and accessors return copies of internal slices.
type IndexingExtent struct {
	beg, end []int
}

// New builds an IndexingExtent from a Spec. It returns a Configuration error
// if beg[i] > end[i] on any axis (an extent with beg[i] == end[i] is valid:
// it denotes an empty extent on that axis).
func New(spec Spec) (*IndexingExtent, error) {
	beg, end, err := spec.resolve()
	if err != nil {
		return nil, err
	}
	if len(beg) == 0 {
		return nil, mderr.Configurationf("IndexingExtent must have at least one axis").WithParam("ndim")
	}
	for i := range beg {
		if beg[i] > end[i] {
			return nil, mderr.Configurationf(
				"axis %d: beg (%d) must be <= end (%d)", i, beg[i], end[i]).WithParam("beg/end")
		}
	}
	return &IndexingExtent{beg: beg, end: end}, nil
}

// NDim returns the number of axes.
func (e *IndexingExtent) NDim() int {
	return len(e.beg)
}

// Beg returns a copy of the low (inclusive) bound per axis.
func (e *IndexingExtent) Beg() []int {
	return slices.Clone(e.beg)
}

// End returns a copy of the high (exclusive) bound per axis.
func (e *IndexingExtent) End() []int {
	return slices.Clone(e.end)
}

// Shape returns end - beg per axis.
func (e *IndexingExtent) Shape() []int {
	shape := make([]int, e.NDim())
	for i := range shape {
		shape[i] = e.end[i] - e.beg[i]
	}
	return shape
}

// IsEmpty reports whether the extent is empty: beg[i] == end[i] on some axis.
func (e *IndexingExtent) IsEmpty() bool {
	for i := range e.beg {
		if e.beg[i] == e.end[i] {
			return true
		}
	}
	return false
}

// Equal reports whether e and other describe the same box.
func (e *IndexingExtent) Equal(other *IndexingExtent) bool {
	if other == nil {
		return false
	}
	return slices.Equal(e.beg, other.beg) && slices.Equal(e.end, other.end)
}

// ToSlice returns the canonical per-axis [beg[i], end[i]) range sequence.
func (e *IndexingExtent) ToSlice() [][2]int {
	result := make([][2]int, e.NDim())
	for i := range result {
		result[i] = [2]int{e.beg[i], e.end[i]}
	}
	return result
}

// checkSameNDim is the fail-stop precondition shared by every binary
// operation below: per spec, a dimension mismatch is a programming error.
func checkSameNDim(a, b *IndexingExtent) error {
	if a.NDim() != b.NDim() {
		return mderr.Internalf("extent dimension mismatch: %d vs %d", a.NDim(), b.NDim())
	}
	return nil
}

// Intersection returns the overlap of e and other, and whether one exists.
// Intersection is commutative: e.Intersection(other) == other.Intersection(e).
func (e *IndexingExtent) Intersection(other *IndexingExtent) (*IndexingExtent, bool, error) {
	if err := checkSameNDim(e, other); err != nil {
		return nil, false, err
	}
	start := make([]int, e.NDim())
	stop := make([]int, e.NDim())
	for i := range start {
		start[i] = max(e.beg[i], other.beg[i])
		stop[i] = min(e.end[i], other.end[i])
		if start[i] >= stop[i] {
			return nil, false, nil
		}
	}
	return &IndexingExtent{beg: start, end: stop}, true, nil
}

// Split partitions e along axis at coordinate k into a low and a high piece.
// Either piece may be nil:
//
//   - k <= e.beg[axis]: (nil, e)
//   - k >= e.end[axis]: (e, nil)
func (e *IndexingExtent) Split(axis int, k int) (lo, hi *IndexingExtent) {
	if k <= e.beg[axis] {
		return nil, e
	}
	if k >= e.end[axis] {
		return e, nil
	}
	loEnd := slices.Clone(e.end)
	loEnd[axis] = k
	hiBeg := slices.Clone(e.beg)
	hiBeg[axis] = k
	return &IndexingExtent{beg: e.Beg(), end: loEnd}, &IndexingExtent{beg: hiBeg, end: e.End()}
}

// IntersectionSplit is the central operation of this package: it computes
// I = e.Intersection(other); if I is absent, it returns (nil, nil, false,
// nil) -- the caller is responsible for treating the whole of e as
// untouched leftover in that case, this routine only enumerates remainders
// when there *is* an overlap. Otherwise it returns the canonical, minimal
// tiling of e \ I as leftovers (at most 2*NDim boxes), plus I itself.
//
// Algorithm (deterministic order, matches mpi_array.indexing): walk axes
// 0..NDim-1, keeping a "current" box C initially equal to e; at each axis,
// split C at I.beg[a] emitting the low remainder if non-empty, then split
// the rest at I.end[a] emitting the high remainder if non-empty, and set C
// to the middle piece for the next axis. After the last axis C == I and is
// not emitted.
func (e *IndexingExtent) IntersectionSplit(other *IndexingExtent) (leftovers []*IndexingExtent, overlap *IndexingExtent, ok bool, err error) {
	if err = checkSameNDim(e, other); err != nil {
		return nil, nil, false, err
	}
	overlap, ok, err = e.Intersection(other)
	if err != nil {
		return nil, nil, false, err
	}
	if !ok {
		return nil, nil, false, nil
	}

	leftovers = make([]*IndexingExtent, 0, 2*e.NDim())
	current := e
	for axis := 0; axis < e.NDim(); axis++ {
		loRemainder, rest := current.Split(axis, overlap.beg[axis])
		if loRemainder != nil && !loRemainder.IsEmpty() {
			leftovers = append(leftovers, loRemainder)
		}
		if rest == nil {
			// overlap is a subset of current on every axis, so splitting at
			// overlap.beg[axis] can never consume all of current.
			return nil, nil, false, mderr.Internalf(
				"axis %d: intersection-split produced an empty remainder", axis)
		}
		mid, hiRemainder := rest.Split(axis, overlap.end[axis])
		if hiRemainder != nil && !hiRemainder.IsEmpty() {
			leftovers = append(leftovers, hiRemainder)
		}
		current = mid
	}
	return leftovers, overlap, true, nil
}
