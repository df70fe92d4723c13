package haloplan

import "github.com/gomlx/mpidist/types/extent"

// SplitUpdate subdivides rec.Overlap into pieces whose element count is at
// most maxElements, preserving the union of covered indices exactly
// (spec.md §4.7 "Optional sub-splitting"; resolves the Open Question of
// spec.md §9 by actually implementing subdivision -- see DESIGN.md). Order
// among the returned pieces is unspecified. maxElements <= 0 means "do not
// split" and returns rec unchanged.
func SplitUpdate(rec UpdateRecord, maxElements int) []UpdateRecord {
	if maxElements <= 0 {
		return []UpdateRecord{rec}
	}
	return splitExtent(rec, rec.Overlap, maxElements)
}

func splitExtent(rec UpdateRecord, box *extent.IndexingExtent, maxElements int) []UpdateRecord {
	if box.IsEmpty() {
		return nil
	}
	if volume(box) <= maxElements {
		return []UpdateRecord{{Dst: rec.Dst, Src: rec.Src, Overlap: box}}
	}
	axis := longestAxis(box)
	mid := box.Beg()[axis] + box.Shape()[axis]/2
	lo, hi := box.Split(axis, mid)
	var out []UpdateRecord
	if lo != nil {
		out = append(out, splitExtent(rec, lo, maxElements)...)
	}
	if hi != nil {
		out = append(out, splitExtent(rec, hi, maxElements)...)
	}
	return out
}

func longestAxis(box *extent.IndexingExtent) int {
	shape := box.Shape()
	axis := 0
	for a := 1; a < len(shape); a++ {
		if shape[a] > shape[axis] {
			axis = a
		}
	}
	return axis
}

func volume(box *extent.IndexingExtent) int {
	v := 1
	for _, s := range box.Shape() {
		v *= s
	}
	return v
}
