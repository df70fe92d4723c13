package extent

import (
	"slices"

	"github.com/gomlx/mpidist/types/mderr"
)

// HaloIndexingExtent augments an IndexingExtent with a per-axis, per-side
// halo (ghost) width. halo[a][Lo] is the low-side ghost count on axis a;
// halo[a][Hi] is the high-side count.
type HaloIndexingExtent struct {
	box  *IndexingExtent
	halo [][2]int
}

// NewHalo builds a HaloIndexingExtent from a Spec and a per-axis, per-side
// halo matrix. halo may be nil, meaning zero halo on every axis and side.
func NewHalo(spec Spec, halo [][2]int) (*HaloIndexingExtent, error) {
	box, err := New(spec)
	if err != nil {
		return nil, err
	}
	return NewHaloFromBox(box, halo)
}

// NewHaloFromBox augments an existing IndexingExtent with a halo matrix.
func NewHaloFromBox(box *IndexingExtent, halo [][2]int) (*HaloIndexingExtent, error) {
	if halo == nil {
		halo = make([][2]int, box.NDim())
	}
	if len(halo) != box.NDim() {
		return nil, mderr.Configurationf(
			"halo must have one [2]int entry per axis, got %d entries for %d axes",
			len(halo), box.NDim()).WithParam("halo")
	}
	for a, sides := range halo {
		if sides[Lo] < 0 || sides[Hi] < 0 {
			return nil, mderr.Configurationf(
				"axis %d: halo widths must be non-negative, got %v", a, sides).WithParam("halo")
		}
	}
	return &HaloIndexingExtent{box: box, halo: slices.Clone(halo)}, nil
}

// NDim returns the number of axes.
func (h *HaloIndexingExtent) NDim() int {
	return h.box.NDim()
}

// Box returns the interior (no-halo) IndexingExtent.
func (h *HaloIndexingExtent) Box() *IndexingExtent {
	return h.box
}

// Halo returns a copy of the per-axis, per-side halo matrix.
func (h *HaloIndexingExtent) Halo() [][2]int {
	return slices.Clone(h.halo)
}

// HaloAt returns the halo width on the given axis and side.
func (h *HaloIndexingExtent) HaloAt(axis int, side Side) int {
	return h.halo[axis][side]
}

// StartN returns the interior ("no halo") low bound, beg.
func (h *HaloIndexingExtent) StartN() []int {
	return h.box.Beg()
}

// StopN returns the interior ("no halo") high bound, end.
func (h *HaloIndexingExtent) StopN() []int {
	return h.box.End()
}

// ShapeN returns the interior ("no halo") shape, end - beg.
func (h *HaloIndexingExtent) ShapeN() []int {
	return h.box.Shape()
}

// StartH returns the with-halo low bound, beg - halo[:,Lo].
func (h *HaloIndexingExtent) StartH() []int {
	beg := h.box.Beg()
	for a := range beg {
		beg[a] -= h.halo[a][Lo]
	}
	return beg
}

// StopH returns the with-halo high bound, end + halo[:,Hi].
func (h *HaloIndexingExtent) StopH() []int {
	end := h.box.End()
	for a := range end {
		end[a] += h.halo[a][Hi]
	}
	return end
}

// ShapeH returns the with-halo shape, shapeN + halo[:,Lo] + halo[:,Hi].
func (h *HaloIndexingExtent) ShapeH() []int {
	shape := h.box.Shape()
	for a := range shape {
		shape[a] += h.halo[a][Lo] + h.halo[a][Hi]
	}
	return shape
}

// BoxWithHalo returns the IndexingExtent [StartH, StopH).
func (h *HaloIndexingExtent) BoxWithHalo() (*IndexingExtent, error) {
	return New(FromStartStop(h.StartH(), h.StopH()))
}

// GlobaleToLocaleH converts a vector g in globale (with-halo-frame-relative)
// coordinates to locale with-halo coordinates: g - StartH.
func (h *HaloIndexingExtent) GlobaleToLocaleH(g []int) []int {
	return translate(g, h.StartH(), -1)
}

// LocaleToGlobaleH converts a vector l in locale with-halo coordinates to
// globale coordinates: l + StartH.
func (h *HaloIndexingExtent) LocaleToGlobaleH(l []int) []int {
	return translate(l, h.StartH(), 1)
}

// GlobaleToLocaleN converts a vector g in globale coordinates to locale
// no-halo (interior) coordinates: g - StartN.
func (h *HaloIndexingExtent) GlobaleToLocaleN(g []int) []int {
	return translate(g, h.StartN(), -1)
}

// LocaleToGlobaleN converts a vector l in locale no-halo (interior)
// coordinates to globale coordinates: l + StartN.
func (h *HaloIndexingExtent) LocaleToGlobaleN(l []int) []int {
	return translate(l, h.StartN(), 1)
}

func translate(v, origin []int, sign int) []int {
	result := make([]int, len(v))
	for i := range v {
		result[i] = v[i] + sign*origin[i]
	}
	return result
}

// HaloSlabExtent returns the ndim-dimensional slab of thickness
// halo[axis][side] flush against the named side of the extent-with-halo.
// E.g. for side == Lo, the slab spans [StartH[axis], StartN[axis]) on axis
// and the full with-halo extent on every other axis.
func (h *HaloIndexingExtent) HaloSlabExtent(axis int, side Side) (*IndexingExtent, error) {
	startH, stopH := h.StartH(), h.StopH()
	startN, stopN := h.StartN(), h.StopN()

	beg := slices.Clone(startH)
	end := slices.Clone(stopH)
	switch side {
	case Lo:
		end[axis] = startN[axis]
	case Hi:
		beg[axis] = stopN[axis]
	}
	return New(FromStartStop(beg, end))
}

// NoHaloExtent returns the extent with the halo stripped on the given axis
// only -- halos on every other axis are kept intact. This is what lets a
// neighbour's corner halo contribute to a destination's corner halo region
// (see haloplan).
func (h *HaloIndexingExtent) NoHaloExtent(axis int) (*IndexingExtent, error) {
	beg, end := h.StartH(), h.StopH()
	startN, stopN := h.StartN(), h.StopN()
	beg[axis] = startN[axis]
	end[axis] = stopN[axis]
	return New(FromStartStop(beg, end))
}
