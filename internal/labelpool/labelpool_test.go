package labelpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbi/subway-access/internal/network"
	"github.com/passbi/subway-access/internal/weighting"
)

func allWeights() weighting.Weights {
	return weighting.Weights{TravelTime: 1, Transfers: 1, TransferDifficulty: 1, Convenience: 1, Congestion: 1}
}

func TestDominatesArrivalTime(t *testing.T) {
	w := allWeights()
	a := &Label{ArrivalTimeMinutes: 10, Transfers: 1}
	b := &Label{ArrivalTimeMinutes: 20, Transfers: 1}

	assert.True(t, Dominates(a, b, w))
	assert.False(t, Dominates(b, a, w))
}

func TestDominatesRequiresNoWorseCriterion(t *testing.T) {
	w := allWeights()
	a := &Label{ArrivalTimeMinutes: 10, Transfers: 2}
	b := &Label{ArrivalTimeMinutes: 20, Transfers: 1}

	assert.False(t, Dominates(a, b, w), "a has more transfers, so it cannot dominate b")
	assert.False(t, Dominates(b, a, w), "b has a later arrival, so it cannot dominate a")
}

func TestDominatesExcludesZeroWeightCriteria(t *testing.T) {
	w := weighting.Weights{TravelTime: 1, Transfers: 1, TransferDifficulty: 0, Convenience: 0, Congestion: 0}
	a := &Label{ArrivalTimeMinutes: 9, Transfers: 1, Depth: 1, ConvenienceSum: 0}
	b := &Label{ArrivalTimeMinutes: 10, Transfers: 1, Depth: 1, ConvenienceSum: 100}

	// b has far better convenience, but the profile weight is zero, so
	// it is excluded from the comparison and a, strictly earlier, still
	// dominates.
	assert.True(t, Dominates(a, b, w))
}

func TestAncestorHasStation(t *testing.T) {
	pool := NewPool()
	root := pool.Add(Label{StationID: 1, ParentIndex: NoParent})
	mid := pool.Add(Label{StationID: 2, ParentIndex: root})
	leaf := pool.Add(Label{StationID: 3, ParentIndex: mid})

	assert.True(t, pool.AncestorHasStation(leaf, network.StationID(1)))
	assert.True(t, pool.AncestorHasStation(leaf, network.StationID(3)))
	assert.False(t, pool.AncestorHasStation(leaf, network.StationID(4)))
}

func TestBagInsertRejectsDominated(t *testing.T) {
	pool := NewPool()
	bag := &Bag{}
	w := allWeights()

	better := pool.Add(Label{ArrivalTimeMinutes: 10, Transfers: 0, CurrentLine: "Line1"})
	worse := pool.Add(Label{ArrivalTimeMinutes: 20, Transfers: 0, CurrentLine: "Line1"})

	require.True(t, bag.Insert(pool, better, w, nil))
	accepted := bag.Insert(pool, worse, w, nil)

	assert.False(t, accepted)
	assert.Equal(t, []Index{better}, bag.Labels())
}

func TestBagInsertEvictsDominatedMembers(t *testing.T) {
	pool := NewPool()
	bag := &Bag{}
	w := allWeights()

	worse := pool.Add(Label{ArrivalTimeMinutes: 20, Transfers: 0, CurrentLine: "Line1"})
	better := pool.Add(Label{ArrivalTimeMinutes: 10, Transfers: 0, CurrentLine: "Line1"})

	require.True(t, bag.Insert(pool, worse, w, nil))
	accepted := bag.Insert(pool, better, w, nil)

	assert.True(t, accepted)
	assert.Equal(t, []Index{better}, bag.Labels())
}

func TestBagInsertKeepsIncomparableLabelsOnDifferentLines(t *testing.T) {
	pool := NewPool()
	bag := &Bag{}
	w := allWeights()

	line1 := pool.Add(Label{ArrivalTimeMinutes: 10, Transfers: 0, CurrentLine: "Line1"})
	line2 := pool.Add(Label{ArrivalTimeMinutes: 30, Transfers: 0, CurrentLine: "Line2"})

	sameLine := func(l *Label) bool { return l.CurrentLine == "Line2" }
	require.True(t, bag.Insert(pool, line1, w, nil))
	accepted := bag.Insert(pool, line2, w, sameLine)

	assert.True(t, accepted)
	assert.ElementsMatch(t, []Index{line1, line2}, bag.Labels())
}

func TestAvgConvenienceAndCongestion(t *testing.T) {
	l := &Label{ConvenienceSum: 3.0, CongestionSum: 1.5, Depth: 3}
	assert.Equal(t, 1.0, l.AvgConvenience())
	assert.Equal(t, 0.5, l.AvgCongestion())
}

func TestAvgHandlesZeroDepth(t *testing.T) {
	l := &Label{Depth: 0}
	assert.Equal(t, 0.0, l.AvgConvenience())
	assert.Equal(t, 0.0, l.AvgCongestion())
}
