package comm_test

import (
	"testing"

	"github.com/gomlx/mpidist/comm"
	"github.com/stretchr/testify/require"
)

func TestLocalBasics(t *testing.T) {
	comms, err := comm.NewLocal(4, 0)
	require.NoError(t, err)
	require.Len(t, comms, 4)
	for i, c := range comms {
		require.Equal(t, i, c.Rank())
		require.Equal(t, 4, c.Size())
		require.False(t, comm.IsNull(c))
	}
}

func TestLocalAllReduceSum(t *testing.T) {
	comms, err := comm.NewLocal(5, 0)
	require.NoError(t, err)

	sums := make([]int, len(comms))
	err = comm.RunSPMD(comms, func(c comm.Communicator) error {
		sum, err := c.AllReduceSum(c.Rank() + 1) // 1+2+3+4+5 = 15
		if err != nil {
			return err
		}
		sums[c.Rank()] = sum
		return nil
	})
	require.NoError(t, err)
	for _, s := range sums {
		require.Equal(t, 15, s)
	}
}

func TestLocalSplitShared(t *testing.T) {
	// 6 flat ranks, 2 per locale -> 3 locales.
	comms, err := comm.NewLocal(6, 2)
	require.NoError(t, err)

	intraSizes := make([]int, len(comms))
	intraRanks := make([]int, len(comms))
	err = comm.RunSPMD(comms, func(c comm.Communicator) error {
		intra, err := c.SplitShared()
		if err != nil {
			return err
		}
		intraSizes[c.Rank()] = intra.Size()
		intraRanks[c.Rank()] = intra.Rank()
		return nil
	})
	require.NoError(t, err)
	for _, s := range intraSizes {
		require.Equal(t, 2, s)
	}
	// Within each locale block, ranks 0 and 1 get intra-ranks 0 and 1.
	require.Equal(t, []int{0, 1, 0, 1, 0, 1}, intraRanks)
}

func TestLocalSplitColorKeyUndefined(t *testing.T) {
	comms, err := comm.NewLocal(4, 0)
	require.NoError(t, err)

	isNull := make([]bool, len(comms))
	err = comm.RunSPMD(comms, func(c comm.Communicator) error {
		color := comm.ColorUndefined
		if c.Rank()%2 == 0 {
			color = 0
		}
		leader, err := c.SplitColorKey(color, c.Rank())
		if err != nil {
			return err
		}
		isNull[c.Rank()] = comm.IsNull(leader)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []bool{false, true, false, true}, isNull)
}

func TestLocalCartCreate(t *testing.T) {
	comms, err := comm.NewLocal(6, 0)
	require.NoError(t, err)

	coords := make([][]int, len(comms))
	err = comm.RunSPMD(comms, func(c comm.Communicator) error {
		cart, err := c.CartCreate([]int{2, 3}, []bool{false, false}, false)
		if err != nil {
			return err
		}
		coord, err := cart.RankToCoord(c.Rank())
		if err != nil {
			return err
		}
		coords[c.Rank()] = coord
		back, err := cart.CoordToRank(coord)
		if err != nil {
			return err
		}
		if back != c.Rank() {
			t.Errorf("CoordToRank(RankToCoord(%d)) = %d", c.Rank(), back)
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, [][]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}, coords)
}

func TestLocalCartCreateRejectsMismatchedProduct(t *testing.T) {
	comms, err := comm.NewLocal(4, 0)
	require.NoError(t, err)
	err = comm.RunSPMD(comms, func(c comm.Communicator) error {
		_, err := c.CartCreate([]int{2, 3}, []bool{false, false}, false)
		return err
	})
	require.Error(t, err)
}

func TestLocalBroadcastInts(t *testing.T) {
	comms, err := comm.NewLocal(4, 0)
	require.NoError(t, err)

	received := make([][]int, len(comms))
	err = comm.RunSPMD(comms, func(c comm.Communicator) error {
		var send []int
		if c.Rank() == 2 {
			send = []int{10, 20, 30}
		}
		values, err := c.BroadcastInts(2, send)
		if err != nil {
			return err
		}
		received[c.Rank()] = values
		return nil
	})
	require.NoError(t, err)
	for _, v := range received {
		require.Equal(t, []int{10, 20, 30}, v)
	}
}

func TestLocalGroupTranslateRanks(t *testing.T) {
	comms, err := comm.NewLocal(6, 2)
	require.NoError(t, err)

	translated := make([][]int, len(comms))
	err = comm.RunSPMD(comms, func(c comm.Communicator) error {
		intra, err := c.SplitShared()
		if err != nil {
			return err
		}
		leaderColor := comm.ColorUndefined
		if intra.Rank() == 0 {
			leaderColor = 0
		}
		leaders, err := c.SplitColorKey(leaderColor, c.Rank())
		if err != nil {
			return err
		}
		if comm.IsNull(leaders) {
			return nil
		}
		ranks := make([]int, leaders.Size())
		for i := range ranks {
			ranks[i] = i
		}
		flat, err := leaders.Group().TranslateRanks(ranks, c.Group())
		if err != nil {
			return err
		}
		translated[c.Rank()] = flat
		return nil
	})
	require.NoError(t, err)
	// Leaders are flat ranks 0, 2, 4 (first rank of each locale of size 2).
	require.Equal(t, []int{0, 2, 4}, translated[0])
}
