package facility

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/passbi/subway-access/internal/network"
	"github.com/passbi/subway-access/internal/subway"
)

func TestConvenienceUnseededStationIsZero(t *testing.T) {
	s := NewService()
	assert.Equal(t, 0.0, s.Convenience(network.StationID(1), subway.ProfilePHY))
}

func TestConvenienceIsBoundedAndMonotonicInCounts(t *testing.T) {
	s := NewService()
	low := network.StationID(1)
	high := network.StationID(2)

	s.Seed(low, Counts{Elevator: 1})
	s.Seed(high, Counts{Elevator: 1, Escalator: 1, SafePlatform: 1, Helper: 1, Toilet: 1})

	lowScore := s.Convenience(low, subway.ProfilePHY)
	highScore := s.Convenience(high, subway.ProfilePHY)

	assert.GreaterOrEqual(t, lowScore, 0.0)
	assert.LessOrEqual(t, highScore, 1.0)
	assert.Greater(t, highScore, lowScore)
}

func TestProfilesWeightFacilitiesDifferently(t *testing.T) {
	s := NewService()
	id := network.StationID(1)
	// A sign-language phone helps AUD but nothing else: VIS weights it
	// at zero, so its raw score is 0 and sigmoid(0) leaves it at 0.5.
	s.Seed(id, Counts{SignPhone: 5})

	assert.Equal(t, 0.5, s.Convenience(id, subway.ProfileVIS))
	assert.Greater(t, s.Convenience(id, subway.ProfileAUD), 0.5)
}

func TestUpdateFacilityCountsSkipsUnresolvableCodes(t *testing.T) {
	s := NewService()
	resolve := func(code string) (network.StationID, bool) {
		if code == "101" {
			return network.StationID(1), true
		}
		return 0, false
	}

	s.UpdateFacilityCounts([]UpdateRow{
		{StationCodes: []string{"101", "999"}, Counts: Counts{Elevator: 3}},
	}, resolve)

	assert.Greater(t, s.Convenience(network.StationID(1), subway.ProfilePHY), 0.0)
	assert.Equal(t, 0.0, s.Convenience(network.StationID(2), subway.ProfilePHY))
}

func TestUpdateFacilityCountsOverwritesPreviousScore(t *testing.T) {
	s := NewService()
	id := network.StationID(1)
	s.Seed(id, Counts{})
	before := s.Convenience(id, subway.ProfilePHY)

	resolve := func(code string) (network.StationID, bool) { return id, true }
	s.UpdateFacilityCounts([]UpdateRow{
		{StationCodes: []string{"101"}, Counts: Counts{Elevator: 5, SafePlatform: 5}},
	}, resolve)

	after := s.Convenience(id, subway.ProfilePHY)
	assert.Greater(t, after, before)
}

func TestNewServiceWithKChangesSteepness(t *testing.T) {
	shallow := NewServiceWithK(0.3)
	steep := NewServiceWithK(3.0)
	id := network.StationID(1)

	shallow.Seed(id, Counts{Elevator: 1})
	steep.Seed(id, Counts{Elevator: 1})

	assert.NotEqual(t, shallow.Convenience(id, subway.ProfilePHY), steep.Convenience(id, subway.ProfilePHY))
}
