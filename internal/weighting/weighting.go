// Package weighting produces the five-element profile weight vector
// used for dominance tie-breaks and final scoring, and exposes walking
// speed, epsilon, and the transfer-difficulty formula.
package weighting

import (
	"math"

	"github.com/passbi/subway-access/internal/subway"
)

// Weights is the fixed five-criterion vector, in index order
// travelTime, transfers, transferDifficulty, convenience, congestion.
type Weights struct {
	TravelTime         float64
	Transfers          float64
	TransferDifficulty float64
	Convenience        float64
	Congestion         float64
}

// values reproduced verbatim from spec.md §4.3 / cpp_src/utils.cpp's
// calculate_anp_weights.
var table = map[subway.Profile]Weights{
	subway.ProfilePHY: {TravelTime: 0.0543, Transfers: 0.4826, TransferDifficulty: 0.2391, Convenience: 0.1196, Congestion: 0.1044},
	subway.ProfileVIS: {TravelTime: 0.0623, Transfers: 0.1198, TransferDifficulty: 0.2043, Convenience: 0.4938, Congestion: 0.1198},
	subway.ProfileAUD: {TravelTime: 0.1519, Transfers: 0.2938, TransferDifficulty: 0.0823, Convenience: 0.3897, Congestion: 0.0823},
	subway.ProfileELD: {TravelTime: 0.0739, Transfers: 0.1304, TransferDifficulty: 0.2174, Convenience: 0.0609, Congestion: 0.5174},
}

var walkingSpeed = map[subway.Profile]float64{
	subway.ProfilePHY: 0.50,
	subway.ProfileVIS: 0.80,
	subway.ProfileAUD: 0.98,
	subway.ProfileELD: 0.70,
}

var epsilon = map[subway.Profile]float64{
	subway.ProfilePHY: 0.06,
	subway.ProfileVIS: 0.08,
	subway.ProfileAUD: 0.10,
	subway.ProfileELD: 0.08,
}

// For returns the weight vector for a profile, or an error if the
// profile tag is not one of the fixed four.
func For(p subway.Profile) (Weights, error) {
	w, ok := table[p]
	if !ok {
		return Weights{}, subway.InvalidProfile(string(p))
	}
	return w, nil
}

// WalkingSpeed returns the profile's walking speed in meters/second.
func WalkingSpeed(p subway.Profile) float64 {
	return walkingSpeed[p]
}

// Epsilon returns the profile's similarity-pruning epsilon.
func Epsilon(p subway.Profile) float64 {
	return epsilon[p]
}

// TransferDifficulty computes the difficulty in [0,1] of a transfer
// hop of the given walking distance, given the cumulative convenience
// sum of the path so far (after adding this transfer's station
// score, per spec.md §4.3/§9).
func TransferDifficulty(distanceMeters, convenienceSumSoFar float64) float64 {
	distanceScore := math.Min(distanceMeters/300.0, 1.0)

	var inconv float64
	if convenienceSumSoFar > 0.01 {
		inconv = 1.0 / (1.0 + convenienceSumSoFar)
	} else {
		inconv = 1.0
	}

	d := 0.6*distanceScore + 0.4*inconv
	if d < 0 {
		return 0
	}
	if d > 1 {
		return 1
	}
	return d
}
