package extent_test

import (
	"testing"

	"github.com/gomlx/mpidist/types/extent"
	"github.com/stretchr/testify/require"
)

func box(beg, end []int) *extent.IndexingExtent {
	e, err := extent.New(extent.FromStartStop(beg, end))
	if err != nil {
		panic(err)
	}
	return e
}

func TestNew(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		e, err := extent.New(extent.FromBounds([]int{10, 20}))
		require.NoError(t, err)
		require.Equal(t, []int{0, 0}, e.Beg())
		require.Equal(t, []int{10, 20}, e.End())
		require.Equal(t, []int{10, 20}, e.Shape())
	})

	t.Run("from slices", func(t *testing.T) {
		e, err := extent.New(extent.FromSlices([][2]int{{1, 4}, {2, 6}}))
		require.NoError(t, err)
		require.Equal(t, [][2]int{{1, 4}, {2, 6}}, e.ToSlice())
	})

	t.Run("rejects beg > end", func(t *testing.T) {
		_, err := extent.New(extent.FromStartStop([]int{5}, []int{3}))
		require.Error(t, err)
	})

	t.Run("allows empty (beg == end)", func(t *testing.T) {
		e, err := extent.New(extent.FromStartStop([]int{3, 0}, []int{3, 5}))
		require.NoError(t, err)
		require.True(t, e.IsEmpty())
	})

	t.Run("rejects mismatched start/stop length", func(t *testing.T) {
		_, err := extent.New(extent.FromStartStop([]int{1, 2}, []int{3}))
		require.Error(t, err)
	})
}

func TestIntersection(t *testing.T) {
	a := box([]int{0, 0}, []int{10, 10})
	b := box([]int{3, 2}, []int{7, 8})

	t.Run("basic overlap", func(t *testing.T) {
		got, ok, err := a.Intersection(b)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, [][2]int{{3, 7}, {2, 8}}, got.ToSlice())
	})

	t.Run("symmetric", func(t *testing.T) {
		ab, _, _ := a.Intersection(b)
		ba, _, _ := b.Intersection(a)
		require.True(t, ab.Equal(ba))
	})

	t.Run("idempotent", func(t *testing.T) {
		aa, ok, err := a.Intersection(a)
		require.NoError(t, err)
		require.True(t, ok)
		require.True(t, aa.Equal(a))
	})

	t.Run("no overlap", func(t *testing.T) {
		c := box([]int{20, 20}, []int{30, 30})
		_, ok, err := a.Intersection(c)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("touching boxes do not overlap (half-open)", func(t *testing.T) {
		c := box([]int{10, 0}, []int{20, 10})
		_, ok, err := a.Intersection(c)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("ndim mismatch is a programming error", func(t *testing.T) {
		d := box([]int{0}, []int{5})
		_, _, err := a.Intersection(d)
		require.Error(t, err)
	})
}

func TestSplit(t *testing.T) {
	a := box([]int{0}, []int{10})

	t.Run("k below beg", func(t *testing.T) {
		lo, hi := a.Split(0, -5)
		require.Nil(t, lo)
		require.True(t, hi.Equal(a))
	})

	t.Run("k above end", func(t *testing.T) {
		lo, hi := a.Split(0, 50)
		require.True(t, lo.Equal(a))
		require.Nil(t, hi)
	})

	t.Run("k interior", func(t *testing.T) {
		lo, hi := a.Split(0, 4)
		require.Equal(t, [][2]int{{0, 4}}, lo.ToSlice())
		require.Equal(t, [][2]int{{4, 10}}, hi.ToSlice())
	})

	t.Run("k at beg", func(t *testing.T) {
		lo, hi := a.Split(0, 0)
		require.Nil(t, lo)
		require.True(t, hi.Equal(a))
	})

	t.Run("k at end", func(t *testing.T) {
		lo, hi := a.Split(0, 10)
		require.True(t, lo.Equal(a))
		require.Nil(t, hi)
	})
}

func TestIntersectionSplit(t *testing.T) {
	t.Run("2D canonical example from spec", func(t *testing.T) {
		self := box([]int{0, 0}, []int{10, 10})
		other := box([]int{3, 2}, []int{7, 8})

		leftovers, overlap, ok, err := self.IntersectionSplit(other)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, [][2]int{{3, 7}, {2, 8}}, overlap.ToSlice())

		require.Len(t, leftovers, 4)
		want := [][][2]int{
			{{0, 3}, {0, 10}},
			{{7, 10}, {0, 10}},
			{{3, 7}, {0, 2}},
			{{3, 7}, {8, 10}},
		}
		for i, w := range want {
			require.Equal(t, w, leftovers[i].ToSlice(), "leftover %d", i)
		}
	})

	t.Run("no overlap returns ok=false and no leftovers", func(t *testing.T) {
		self := box([]int{0}, []int{5})
		other := box([]int{10}, []int{20})
		leftovers, overlap, ok, err := self.IntersectionSplit(other)
		require.NoError(t, err)
		require.False(t, ok)
		require.Nil(t, overlap)
		require.Nil(t, leftovers)
	})

	t.Run("tiling law: leftovers plus overlap reconstruct self", func(t *testing.T) {
		self := box([]int{0, 0, 0}, []int{6, 6, 6})
		other := box([]int{2, 1, 3}, []int{5, 4, 6})

		leftovers, overlap, ok, err := self.IntersectionSplit(other)
		require.NoError(t, err)
		require.True(t, ok)

		selfVol := volume(self)
		coveredVol := volume(overlap)
		for _, l := range leftovers {
			coveredVol += volume(l)
		}
		require.Equal(t, selfVol, coveredVol)

		// Pairwise disjointness, including against the overlap.
		all := append(append([]*extent.IndexingExtent{}, leftovers...), overlap)
		for i := range all {
			for j := i + 1; j < len(all); j++ {
				_, overlaps, err := all[i].Intersection(all[j])
				require.NoError(t, err)
				require.False(t, overlaps, "pieces %d and %d must be disjoint", i, j)
			}
		}
	})

	t.Run("other fully contains self", func(t *testing.T) {
		self := box([]int{2, 2}, []int{4, 4})
		other := box([]int{0, 0}, []int{10, 10})
		leftovers, overlap, ok, err := self.IntersectionSplit(other)
		require.NoError(t, err)
		require.True(t, ok)
		require.Empty(t, leftovers)
		require.True(t, overlap.Equal(self))
	})
}

func volume(e *extent.IndexingExtent) int {
	if e == nil {
		return 0
	}
	vol := 1
	for _, s := range e.Shape() {
		vol *= s
	}
	return vol
}
