// Package haloplan implements the halo-exchange planner of spec.md §4.7:
// for a destination locale extent, enumerate the minimum set of
// (destination, source, overlap) transfer units that together fill its
// halo from its face neighbours' data. Each overlap lies inside the source's
// interior along the walked axis, but may reach into the source's halo on
// the other axes (that is how corner cells are filled).
package haloplan

import (
	"slices"

	"github.com/gomlx/mpidist/distribution"
	"github.com/gomlx/mpidist/types/extent"
	"github.com/gomlx/mpidist/types/locale"
	"github.com/samber/lo"
)

// AxisSide names one (axis, side) bucket of a halo plan.
type AxisSide struct {
	Axis int
	Side extent.Side
}

// UpdateRecord is one transfer unit: copy Overlap from Src into Dst's halo
// region (spec.md §3 "Halo update record"). Overlap is within Src's interior
// on the axis that was walked; on other axes it may extend into Src's halo.
type UpdateRecord struct {
	Dst     *locale.CartLocaleExtent
	Src     *locale.CartLocaleExtent
	Overlap *extent.IndexingExtent
}

// Options configures Plan. MaxElementsPerUpdate > 0 subdivides each update
// record via SplitUpdate; zero (the default) performs no subdivision.
type Options struct {
	MaxElementsPerUpdate int
}

type labeledRecord struct {
	key AxisSide
	rec UpdateRecord
}

// Plan builds the full halo-exchange plan for dstRank's locale within dist:
// a map from (axis, side) to the ordered list of update records that fill
// that slab of dstRank's halo. The planner holds no state across calls --
// one plan is computed per call, per spec.md §4.7.
func Plan(dist *distribution.Distribution, dstRank int, opts Options) (map[AxisSide][]UpdateRecord, error) {
	dst, err := dist.LocaleExtent(dstRank)
	if err != nil {
		return nil, err
	}
	ndim := dst.NDim()

	var labeled []labeledRecord
	for axis := 0; axis < ndim; axis++ {
		for _, side := range []extent.Side{extent.Lo, extent.Hi} {
			recs, err := walkNeighbours(dist, dst, axis, side)
			if err != nil {
				return nil, err
			}
			key := AxisSide{Axis: axis, Side: side}
			if opts.MaxElementsPerUpdate > 0 {
				for _, rec := range recs {
					for _, piece := range SplitUpdate(rec, opts.MaxElementsPerUpdate) {
						labeled = append(labeled, labeledRecord{key: key, rec: piece})
					}
				}
			} else {
				for _, rec := range recs {
					labeled = append(labeled, labeledRecord{key: key, rec: rec})
				}
			}
		}
	}

	grouped := lo.GroupBy(labeled, func(lr labeledRecord) AxisSide { return lr.key })
	return lo.MapValues(grouped, func(lrs []labeledRecord, _ AxisSide) []UpdateRecord {
		return lo.Map(lrs, func(lr labeledRecord, _ int) UpdateRecord { return lr.rec })
	}), nil
}

// walkNeighbours implements spec.md §4.7's per-(axis,side) neighbour walk:
// step away from dst's cartesian coordinate along axis (negative for Lo,
// positive for Hi), stopping as soon as a neighbour produces no overlap --
// under block-partition geometry, any neighbour farther away is strictly
// farther and equally non-intersecting (the short-circuit correctness
// property of spec.md §8).
func walkNeighbours(dist *distribution.Distribution, dst *locale.CartLocaleExtent, axis int, side extent.Side) ([]UpdateRecord, error) {
	step := -1
	if side == extent.Hi {
		step = 1
	}

	slab, err := dst.HaloSlabExtent(axis, side)
	if err != nil {
		return nil, err
	}
	if slab.IsEmpty() {
		return nil, nil
	}

	var records []UpdateRecord
	for i := 1; ; i++ {
		coord := slices.Clone(dst.CartCoord)
		coord[axis] += step * i
		if coord[axis] < 0 || coord[axis] >= dst.CartShape[axis] {
			break
		}
		src, ok := dist.FindByCartCoord(coord)
		if !ok {
			break
		}
		srcNoHalo, err := src.NoHaloExtent(axis)
		if err != nil {
			return nil, err
		}
		overlap, ok, err := slab.Intersection(srcNoHalo)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		records = append(records, UpdateRecord{Dst: dst, Src: src, Overlap: overlap})
	}
	return records, nil
}
