package mpidist_test

import (
	"testing"

	"github.com/gomlx/mpidist"
	"github.com/gomlx/mpidist/comm"
	"github.com/gomlx/mpidist/types/mderr"
	"github.com/stretchr/testify/require"
)

// Scenario 2 end-to-end: 4 locales (one rank each), shape (12,), halo 2 ->
// block partition boundaries [0,3) [3,6) [6,9) [9,12).
func TestCreateBlockDistributionBoundaries(t *testing.T) {
	comms, err := comm.NewLocal(4, 1) // ranksPerLocale=1: one locale per rank.
	require.NoError(t, err)

	boundsByRank := make([][2]int, len(comms))
	err = comm.RunSPMD(comms, func(c comm.Communicator) error {
		dist, _, err := mpidist.CreateBlockDistribution(c, []int{12}, mpidist.WithHalo(2))
		if err != nil {
			return err
		}
		// Each locale has a single rank, so inter-locale rank == flat rank.
		ext, err := dist.LocaleExtent(c.Rank())
		if err != nil {
			return err
		}
		beg, end := ext.StartN(), ext.StopN()
		boundsByRank[c.Rank()] = [2]int{beg[0], end[0]}
		return nil
	})
	require.NoError(t, err)

	require.Equal(t, [2]int{0, 3}, boundsByRank[0])
	require.Equal(t, [2]int{3, 6}, boundsByRank[1])
	require.Equal(t, [2]int{6, 9}, boundsByRank[2])
	require.Equal(t, [2]int{9, 12}, boundsByRank[3])
}

// Scenario 4 end-to-end: slab distribution over shape (8,8,8), axis 1, four
// locales -> dims == (1,4,1).
func TestCreateDistributionSlab(t *testing.T) {
	comms, err := comm.NewLocal(4, 1)
	require.NoError(t, err)

	var dims []int
	err = comm.RunSPMD(comms, func(c comm.Communicator) error {
		_, clc, err := mpidist.CreateDistribution(
			c, []int{8, 8, 8}, mpidist.WithDistribType(mpidist.Slab), mpidist.WithSlabAxis(1))
		if err != nil {
			return err
		}
		if c.Rank() == 0 {
			dims = clc.Dims
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{1, 4, 1}, dims)
}

func TestCreateDistributionRejectsBadDistribType(t *testing.T) {
	comms, err := comm.NewLocal(1, 1)
	require.NoError(t, err)

	err = comm.RunSPMD(comms, func(c comm.Communicator) error {
		_, _, err := mpidist.CreateDistribution(c, []int{10}, mpidist.WithDistribType(mpidist.DistribType(99)))
		return err
	})
	require.Error(t, err)
	require.True(t, mderr.IsKind(err, mderr.Configuration))
}

func TestCreateDistributionRejectsSlabDimsConflict(t *testing.T) {
	comms, err := comm.NewLocal(4, 1)
	require.NoError(t, err)

	err = comm.RunSPMD(comms, func(c comm.Communicator) error {
		// Slab forces dims[a] == 1 on every axis but the slab axis (default
		// 0); asking for 2 locales along axis 1 too is a contradiction.
		_, _, err := mpidist.CreateDistribution(
			c, []int{8, 8}, mpidist.WithDistribType(mpidist.Slab), mpidist.WithDims([]int{0, 2}))
		return err
	})
	require.Error(t, err)
}

// LocaleType Process overrides NewLocal's ranksPerLocale grouping: every
// flat rank becomes its own locale.
func TestCreateDistributionLocaleTypeProcess(t *testing.T) {
	comms, err := comm.NewLocal(4, 2) // would otherwise be 2 locales of 2 ranks.
	require.NoError(t, err)

	numLocalesByRank := make([]int, len(comms))
	err = comm.RunSPMD(comms, func(c comm.Communicator) error {
		dist, _, err := mpidist.CreateDistribution(c, []int{16}, mpidist.WithLocaleType(mpidist.Process))
		if err != nil {
			return err
		}
		numLocalesByRank[c.Rank()] = dist.NumLocales()
		return nil
	})
	require.NoError(t, err)
	for _, n := range numLocalesByRank {
		require.Equal(t, 4, n)
	}
}

func TestPanicOnInternal(t *testing.T) {
	internalErr := mderr.Internalf("boom")

	require.NotPanics(t, func() {
		err := mpidist.PanicOnInternal(nil, true)
		require.NoError(t, err)
	})
	require.Panics(t, func() {
		_ = mpidist.PanicOnInternal(internalErr, true)
	})
	require.NotPanics(t, func() {
		err := mpidist.PanicOnInternal(internalErr, false)
		require.Error(t, err)
	})
}
