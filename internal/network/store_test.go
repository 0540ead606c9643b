package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbi/subway-access/internal/subway"
)

func buildTestStore() *Store {
	b := NewBuilder()

	a := b.AddStation("101", "Station A", "Line1", 37.0, 127.0)
	c := b.AddStation("102", "Station B", "Line1", 37.01, 127.0)
	d := b.AddStation("103", "Station C", "Line1", 37.02, 127.0)
	b.SetOrder(a, "Line1", 0)
	b.SetOrder(c, "Line1", 1)
	b.SetOrder(d, "Line1", 2)

	e := b.AddStation("202", "Station B", "Line2", 37.01, 127.0)
	b.SetOrder(e, "Line2", 0)

	b.AddTransfer(c, "Line1", "Line2", 120.0, e)
	b.AddTransfer(e, "Line2", "Line1", 120.0, c)

	b.AddCongestion(a, "Line1", subway.Up, subway.Weekday, "t_540", 0.8)

	return b.Build()
}

func TestStoreStationID(t *testing.T) {
	s := buildTestStore()

	t.Run("known code resolves", func(t *testing.T) {
		id, err := s.StationID("101")
		require.NoError(t, err)
		assert.Equal(t, "101", s.Code(id))
	})

	t.Run("unknown code errors", func(t *testing.T) {
		_, err := s.StationID("999")
		assert.ErrorIs(t, err, subway.ErrUnknownStation)
	})
}

func TestStoreNextOnLine(t *testing.T) {
	s := buildTestStore()
	a, err := s.StationID("101")
	require.NoError(t, err)

	up, down := s.NextOnLine(a, "Line1")
	assert.Len(t, up, 2)
	assert.Empty(t, down)
}

func TestStoreTransfer(t *testing.T) {
	s := buildTestStore()
	stationB1, err := s.StationID("102")
	require.NoError(t, err)

	transfer, ok := s.Transfer(stationB1, "Line1", "Line2")
	require.True(t, ok)
	assert.Equal(t, 120.0, transfer.DistanceMeters)

	_, ok = s.Transfer(stationB1, "Line1", "Line3")
	assert.False(t, ok)
}

func TestStoreCongestionDefaultsWhenMissing(t *testing.T) {
	s := buildTestStore()
	a, err := s.StationID("101")
	require.NoError(t, err)

	assert.Equal(t, 0.8, s.Congestion(a, "Line1", subway.Up, subway.Weekday, "t_540"))
	assert.Equal(t, DefaultCongestion, s.Congestion(a, "Line1", subway.Up, subway.Weekday, "t_000"))
	assert.Equal(t, DefaultCongestion, s.Congestion(a, "Line1", subway.Down, subway.Sat, "t_540"))
}

func TestIntermediateStations(t *testing.T) {
	s := buildTestStore()
	a, err := s.StationID("101")
	require.NoError(t, err)
	stationC, err := s.StationID("103")
	require.NoError(t, err)

	stations := s.IntermediateStations(a, stationC, "Line1")
	require.Len(t, stations, 2)
	assert.Equal(t, "102", s.Code(stations[0]))
	assert.Equal(t, "103", s.Code(stations[1]))
}

func TestHaversineMetersZeroForSamePoint(t *testing.T) {
	station := Station{Lat: 37.5, Lon: 127.0}
	assert.Equal(t, 0.0, HaversineMeters(station, station))
}

func TestHaversineMetersPositiveForDistinctPoints(t *testing.T) {
	a := Station{Lat: 37.5, Lon: 127.0}
	b := Station{Lat: 37.51, Lon: 127.01}
	dist := HaversineMeters(a, b)
	assert.Greater(t, dist, 1000.0)
	assert.Less(t, dist, 2000.0)
}

func TestTransferLines(t *testing.T) {
	s := buildTestStore()
	stationC, err := s.StationID("102")
	require.NoError(t, err)

	assert.Equal(t, []string{"Line2"}, s.TransferLines(stationC, "Line1"))
	assert.Empty(t, s.TransferLines(stationC, "Line3"))
}

func TestIsLoop(t *testing.T) {
	b := NewBuilder()
	b.MarkLoop("Line2")
	s := b.Build()

	assert.True(t, s.IsLoop("Line2"))
	assert.False(t, s.IsLoop("Line1"))
}
