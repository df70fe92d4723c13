package distribution_test

import (
	"testing"

	"github.com/gomlx/mpidist/distribution"
	"github.com/gomlx/mpidist/types/extent"
	"github.com/gomlx/mpidist/types/locale"
	"github.com/stretchr/testify/require"
)

func mustGlobale(t *testing.T, shape []int) *locale.GlobaleExtent {
	t.Helper()
	g, err := locale.NewGlobaleExtent(extent.FromBounds(shape))
	require.NoError(t, err)
	return g
}

// Scenario 1: single locale, no halo.
func TestBlockPartitionSingleLocaleNoHalo(t *testing.T) {
	g := mustGlobale(t, []int{100})
	dist, err := distribution.BlockPartition(g, []int{1}, [][]int{{0}}, 0, nil)
	require.NoError(t, err)
	require.Equal(t, 1, dist.NumLocales())

	le, err := dist.LocaleExtent(0)
	require.NoError(t, err)
	require.Equal(t, []int{0}, le.StartN())
	require.Equal(t, []int{100}, le.StopN())
	require.Equal(t, [][2]int{{0, 0}}, le.Halo())
	require.Equal(t, []int{0}, le.CartCoord)
	require.Equal(t, []int{1}, le.CartShape)
}

// Scenario 2: 1-D, four locales, halo 2.
func TestBlockPartitionFourLocalesHalo2(t *testing.T) {
	g := mustGlobale(t, []int{12})
	coords := [][]int{{0}, {1}, {2}, {3}}
	dist, err := distribution.BlockPartition(g, []int{4}, coords, 2, nil)
	require.NoError(t, err)
	require.Equal(t, 4, dist.NumLocales())

	wantInteriors := [][2]int{{0, 3}, {3, 6}, {6, 9}, {9, 12}}
	for r, want := range wantInteriors {
		le, err := dist.LocaleExtent(r)
		require.NoError(t, err)
		require.Equal(t, []int{want[0]}, le.StartN())
		require.Equal(t, []int{want[1]}, le.StopN())
	}

	le0, err := dist.LocaleExtent(0)
	require.NoError(t, err)
	require.Equal(t, 0, le0.HaloAt(0, extent.Lo))
	require.Equal(t, 2, le0.HaloAt(0, extent.Hi))

	le3, err := dist.LocaleExtent(3)
	require.NoError(t, err)
	require.Equal(t, 2, le3.HaloAt(0, extent.Lo))
	require.Equal(t, 0, le3.HaloAt(0, extent.Hi))
}

// Scenario 3: 2-D, 2x2 grid, asymmetric halo.
func TestBlockPartition2x2AsymmetricHalo(t *testing.T) {
	g := mustGlobale(t, []int{10, 10})
	coords := [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	dist, err := distribution.BlockPartition(g, []int{2, 2}, coords, [][2]int{{1, 2}, {2, 1}}, nil)
	require.NoError(t, err)

	wantInteriors := map[int][2][]int{
		0: {{0, 0}, {5, 5}},
		1: {{0, 5}, {5, 10}},
		2: {{5, 0}, {10, 5}},
		3: {{5, 5}, {10, 10}},
	}
	for r, want := range wantInteriors {
		le, err := dist.LocaleExtent(r)
		require.NoError(t, err)
		require.Equal(t, want[0], le.StartN())
		require.Equal(t, want[1], le.StopN())
	}

	le0, err := dist.LocaleExtent(0)
	require.NoError(t, err)
	require.Equal(t, [][2]int{{0, 2}, {0, 1}}, le0.Halo())
}

// Scenario 4: slab distribution (dims resolved separately by topology.ResolveDims,
// here supplied directly as the already-resolved (1,4,1)).
func TestBlockPartitionSlabDistribution(t *testing.T) {
	g := mustGlobale(t, []int{8, 8, 8})
	coords := make([][]int, 4)
	for i := range coords {
		coords[i] = []int{0, i, 0}
	}
	dist, err := distribution.BlockPartition(g, []int{1, 4, 1}, coords, 0, nil)
	require.NoError(t, err)
	for r := 0; r < 4; r++ {
		le, err := dist.LocaleExtent(r)
		require.NoError(t, err)
		require.Equal(t, []int{8, 2, 8}, le.ShapeN())
	}
}

// BlockPartition rejects two inter-locale ranks claiming the same cart
// coordinate -- otherwise FindByCartCoord would resolve to whichever rank
// happened to be built first, silently hiding a topology bug.
func TestBlockPartitionRejectsDuplicateCartCoord(t *testing.T) {
	g := mustGlobale(t, []int{10, 10})
	coords := [][]int{{0, 0}, {0, 1}, {0, 0}, {1, 1}}
	_, err := distribution.BlockPartition(g, []int{2, 2}, coords, 0, nil)
	require.Error(t, err)
}

// Scenario 5: cloned distribution.
func TestClonedDistribution(t *testing.T) {
	g := mustGlobale(t, []int{5, 7})
	dist, err := distribution.Cloned(g, 3, nil)
	require.NoError(t, err)
	require.Equal(t, 3, dist.NumLocales())
	for r := 0; r < 3; r++ {
		le, err := dist.LocaleExtent(r)
		require.NoError(t, err)
		require.Equal(t, []int{0, 0}, le.StartN())
		require.Equal(t, []int{5, 7}, le.StopN())
	}
}

func TestSingleLocaleDistribution(t *testing.T) {
	g := mustGlobale(t, []int{6})
	dist, err := distribution.SingleLocale(g, 3, 1, 1, nil)
	require.NoError(t, err)

	chosen, err := dist.LocaleExtent(1)
	require.NoError(t, err)
	require.Equal(t, []int{0}, chosen.StartN())
	require.Equal(t, []int{6}, chosen.StopN())

	for _, r := range []int{0, 2} {
		le, err := dist.LocaleExtent(r)
		require.NoError(t, err)
		require.Equal(t, []int{0}, le.StartN())
		require.Equal(t, []int{0}, le.StopN())
		require.True(t, le.Box().IsEmpty())
	}
}

func TestRebuildPreservesStrategy(t *testing.T) {
	g := mustGlobale(t, []int{12})
	coords := [][]int{{0}, {1}, {2}, {3}}
	dist, err := distribution.BlockPartition(g, []int{4}, coords, 2, nil)
	require.NoError(t, err)

	g2 := mustGlobale(t, []int{16})
	rebuilt, err := dist.Rebuild(g2, 1)
	require.NoError(t, err)
	require.Equal(t, 4, rebuilt.NumLocales())
	le0, err := rebuilt.LocaleExtent(0)
	require.NoError(t, err)
	require.Equal(t, []int{0}, le0.StartN())
	require.Equal(t, []int{4}, le0.StopN())
}

func TestCoverageAndDisjointness(t *testing.T) {
	g := mustGlobale(t, []int{10, 10})
	coords := [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	dist, err := distribution.BlockPartition(g, []int{2, 2}, coords, 0, nil)
	require.NoError(t, err)

	covered := make(map[[2]int]bool)
	for r := 0; r < dist.NumLocales(); r++ {
		le, err := dist.LocaleExtent(r)
		require.NoError(t, err)
		start, stop := le.StartN(), le.StopN()
		for i := start[0]; i < stop[0]; i++ {
			for j := start[1]; j < stop[1]; j++ {
				key := [2]int{i, j}
				require.False(t, covered[key], "index %v covered twice", key)
				covered[key] = true
			}
		}
	}
	require.Len(t, covered, 100)
}
