// Package locale defines the role-tagged extent specialisations of the
// spec: GlobaleExtent (the whole array), HaloSubExtent (a halo-clamped
// region embedded in a globale extent), LocaleExtent (a HaloSubExtent with
// rank identity), and CartLocaleExtent (a LocaleExtent with a cartesian
// coordinate and grid shape).
package locale

import (
	"slices"

	"github.com/gomlx/mpidist/types/extent"
	"github.com/gomlx/mpidist/types/mderr"
)

// GlobaleExtent is a halo-extent denoting the entire array. In this module
// it always carries zero halo -- periodic/ghost boundary conditions on the
// globale array itself are an explicit non-goal.
type GlobaleExtent struct {
	*extent.HaloIndexingExtent
}

// NewGlobaleExtent builds a GlobaleExtent from a shape Spec.
func NewGlobaleExtent(spec extent.Spec) (*GlobaleExtent, error) {
	h, err := extent.NewHalo(spec, nil)
	if err != nil {
		return nil, err
	}
	return &GlobaleExtent{HaloIndexingExtent: h}, nil
}

// HaloSubExtent is a halo-extent embedded in a GlobaleExtent. Construction
// clamps the requested halo so it never reaches past the globale boundary:
//
//	halo_final[a,s] = max(0, min(halo_requested[a,s], distance_to_globale_boundary_on_side_s))
type HaloSubExtent struct {
	*extent.HaloIndexingExtent
	Globale *GlobaleExtent
}

// NewHaloSubExtent builds a HaloSubExtent whose interior is given by spec and
// whose halo is requestedHalo clamped to the globale boundary.
func NewHaloSubExtent(globale *GlobaleExtent, spec extent.Spec, requestedHalo [][2]int) (*HaloSubExtent, error) {
	box, err := extent.New(spec)
	if err != nil {
		return nil, err
	}
	if box.NDim() != globale.NDim() {
		return nil, mderr.Configurationf(
			"sub-extent has %d axes, globale extent has %d", box.NDim(), globale.NDim()).WithParam("ndim")
	}
	if requestedHalo == nil {
		requestedHalo = make([][2]int, box.NDim())
	}
	if len(requestedHalo) != box.NDim() {
		return nil, mderr.Configurationf(
			"halo must have one entry per axis, got %d for %d axes",
			len(requestedHalo), box.NDim()).WithParam("halo")
	}

	globaleStartH, globaleStopH := globale.StartH(), globale.StopH()
	beg, end := box.Beg(), box.End()
	clamped := make([][2]int, box.NDim())
	for a := range clamped {
		distLo := beg[a] - globaleStartH[a]
		distHi := globaleStopH[a] - end[a]
		clamped[a][extent.Lo] = clampNonNegative(requestedHalo[a][extent.Lo], distLo)
		clamped[a][extent.Hi] = clampNonNegative(requestedHalo[a][extent.Hi], distHi)
	}

	h, err := extent.NewHaloFromBox(box, clamped)
	if err != nil {
		return nil, err
	}
	return &HaloSubExtent{HaloIndexingExtent: h, Globale: globale}, nil
}

func clampNonNegative(requested, distance int) int {
	if distance < 0 {
		distance = 0
	}
	v := min(requested, distance)
	return max(v, 0)
}

// LocaleExtent is a HaloSubExtent plus the identity of the locale that owns
// it: Rank, the flat-communicator rank of the representative process, and
// InterLocaleRank, its rank in the inter-locale communicator.
type LocaleExtent struct {
	*HaloSubExtent
	Rank            int
	InterLocaleRank int
}

// NewLocaleExtent builds a LocaleExtent.
func NewLocaleExtent(globale *GlobaleExtent, spec extent.Spec, requestedHalo [][2]int, rank, interLocaleRank int) (*LocaleExtent, error) {
	sub, err := NewHaloSubExtent(globale, spec, requestedHalo)
	if err != nil {
		return nil, err
	}
	return &LocaleExtent{HaloSubExtent: sub, Rank: rank, InterLocaleRank: interLocaleRank}, nil
}

// Equal compares box, halo, and both rank fields.
func (l *LocaleExtent) Equal(other *LocaleExtent) bool {
	if other == nil {
		return false
	}
	if l.Rank != other.Rank || l.InterLocaleRank != other.InterLocaleRank {
		return false
	}
	selfBox, err1 := l.BoxWithHalo()
	otherBox, err2 := other.BoxWithHalo()
	if err1 != nil || err2 != nil {
		return false
	}
	if !selfBox.Equal(otherBox) {
		return false
	}
	if !l.Box().Equal(other.Box()) {
		return false
	}
	return slices.Equal(flattenHalo(l.Halo()), flattenHalo(other.Halo()))
}

func flattenHalo(halo [][2]int) []int {
	flat := make([]int, 0, 2*len(halo))
	for _, pair := range halo {
		flat = append(flat, pair[0], pair[1])
	}
	return flat
}

// CartLocaleExtent is a LocaleExtent plus its position (CartCoord) and
// shape (CartShape) in the cartesian locale grid. CartRank() equals
// InterLocaleRank by construction.
type CartLocaleExtent struct {
	*LocaleExtent
	CartCoord []int
	CartShape []int
}

// NewCartLocaleExtent builds a CartLocaleExtent.
func NewCartLocaleExtent(globale *GlobaleExtent, spec extent.Spec, requestedHalo [][2]int, cartCoord, cartShape []int, rank, interLocaleRank int) (*CartLocaleExtent, error) {
	if len(cartCoord) != len(cartShape) {
		return nil, mderr.Configurationf(
			"cart coord has %d entries, cart shape has %d", len(cartCoord), len(cartShape)).WithParam("cartCoord")
	}
	loc, err := NewLocaleExtent(globale, spec, requestedHalo, rank, interLocaleRank)
	if err != nil {
		return nil, err
	}
	return &CartLocaleExtent{
		LocaleExtent: loc,
		CartCoord:    slices.Clone(cartCoord),
		CartShape:    slices.Clone(cartShape),
	}, nil
}

// CartRank returns the rank in the cartesian communicator, which by
// construction equals InterLocaleRank.
func (c *CartLocaleExtent) CartRank() int {
	return c.InterLocaleRank
}
