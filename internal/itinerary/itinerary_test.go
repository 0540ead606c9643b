package itinerary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbi/subway-access/internal/labelpool"
	"github.com/passbi/subway-access/internal/network"
	"github.com/passbi/subway-access/internal/weighting"
)

func buildLinearStore() *network.Store {
	b := network.NewBuilder()
	a := b.AddStation("101", "A", "Line1", 37.0, 127.0)
	c := b.AddStation("102", "B", "Line1", 37.01, 127.0)
	d := b.AddStation("103", "C", "Line1", 37.02, 127.0)
	e := b.AddStation("202", "D", "Line2", 37.02, 127.01)
	b.SetOrder(a, "Line1", 0)
	b.SetOrder(c, "Line1", 1)
	b.SetOrder(d, "Line1", 2)
	b.SetOrder(e, "Line2", 0)
	b.AddTransfer(d, "Line1", "Line2", 80.0, e)
	return b.Build()
}

func TestRankReconstructsRideThenTransfer(t *testing.T) {
	store := buildLinearStore()
	a, _ := store.StationID("101")
	c, _ := store.StationID("102")
	d, _ := store.StationID("103")
	e, _ := store.StationID("202")

	// A transfer label always lands on the interchange's target station
	// id (the transfer's own line record), never on the pre-transfer
	// station id — see network.Transfer.TargetStationID.
	pool := labelpool.NewPool()
	origin := pool.Add(labelpool.Label{StationID: a, CurrentLine: "Line1", ParentIndex: labelpool.NoParent, Depth: 1})
	ride1 := pool.Add(labelpool.Label{StationID: c, CurrentLine: "Line1", ParentIndex: origin, ArrivalTimeMinutes: 3, Depth: 2})
	ride2 := pool.Add(labelpool.Label{StationID: d, CurrentLine: "Line1", ParentIndex: ride1, ArrivalTimeMinutes: 6, Depth: 3})
	transfer := pool.Add(labelpool.Label{StationID: e, CurrentLine: "Line2", ParentIndex: ride2, ArrivalTimeMinutes: 11, Transfers: 1, Depth: 4})

	w := weighting.Weights{TravelTime: 1, Transfers: 1, TransferDifficulty: 1, Convenience: 1, Congestion: 1}
	ranked := Rank(pool, store, []labelpool.Index{transfer}, w, 3)

	require.Len(t, ranked, 1)
	r := ranked[0]
	assert.Equal(t, []string{"101", "102", "103", "202"}, r.RouteSequence)
	assert.Equal(t, []string{"Line1", "Line1", "Line1", "Line2"}, r.RouteLines)
	require.Len(t, r.TransferInfo, 1)
	assert.Equal(t, TransferInfo{StationCode: "103", FromLine: "Line1", ToLine: "Line2"}, r.TransferInfo[0])
	assert.Equal(t, 11.0, r.TotalTimeMinutes)
	assert.Equal(t, 1, r.Rank)
}

func TestRankDedupesIdenticalSequences(t *testing.T) {
	store := buildLinearStore()
	a, _ := store.StationID("101")
	c, _ := store.StationID("102")

	pool := labelpool.NewPool()
	origin := pool.Add(labelpool.Label{StationID: a, CurrentLine: "Line1", ParentIndex: labelpool.NoParent, Depth: 1})
	leaf1 := pool.Add(labelpool.Label{StationID: c, CurrentLine: "Line1", ParentIndex: origin, ArrivalTimeMinutes: 3, Depth: 2})
	leaf2 := pool.Add(labelpool.Label{StationID: c, CurrentLine: "Line1", ParentIndex: origin, ArrivalTimeMinutes: 3, ConvenienceSum: 0.5, Depth: 2})

	w := weighting.Weights{TravelTime: 1, Transfers: 1, TransferDifficulty: 1, Convenience: 1, Congestion: 1}
	ranked := Rank(pool, store, []labelpool.Index{leaf1, leaf2}, w, 3)

	assert.Len(t, ranked, 1)
}

func TestRankSortsAscendingByScoreAndLimits(t *testing.T) {
	store := buildLinearStore()
	a, _ := store.StationID("101")
	c, _ := store.StationID("102")
	d, _ := store.StationID("103")

	pool := labelpool.NewPool()
	origin := pool.Add(labelpool.Label{StationID: a, CurrentLine: "Line1", ParentIndex: labelpool.NoParent, Depth: 1})
	slow := pool.Add(labelpool.Label{StationID: c, CurrentLine: "Line1", ParentIndex: origin, ArrivalTimeMinutes: 100, Depth: 2})
	fast := pool.Add(labelpool.Label{StationID: d, CurrentLine: "Line1", ParentIndex: origin, ArrivalTimeMinutes: 5, Depth: 2})

	w := weighting.Weights{TravelTime: 1, Transfers: 0, TransferDifficulty: 0, Convenience: 0, Congestion: 0}
	ranked := Rank(pool, store, []labelpool.Index{slow, fast}, w, 1)

	require.Len(t, ranked, 1)
	assert.Equal(t, 5.0, ranked[0].TotalTimeMinutes)
}
