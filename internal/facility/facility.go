// Package facility computes per-station, per-profile convenience
// scores from facility counts and profile-specific facility weights,
// guarded by a readers-writer lock so a search sees a consistent
// snapshot from start to finish.
package facility

import (
	"math"
	"sync"

	"github.com/passbi/subway-access/internal/network"
	"github.com/passbi/subway-access/internal/subway"
)

// defaultSigmoidK is the normalization constant used when a Service is
// built with NewService. spec.md leaves this as an Open Question (0.3
// vs 3.0 observed in different original-source versions); this repo
// defaults to 3.0, matching cpp_src/utils.h's
// PathfindingUtils::normalize_score, and lets a deployment override it
// once at startup via NewServiceWithK.
const defaultSigmoidK = 3.0

// Counts holds the nine raw facility counters for a single station.
type Counts struct {
	Charger      float64
	Elevator     float64
	Escalator    float64
	Lift         float64
	MovingWalk   float64
	SafePlatform float64
	SignPhone    float64
	Toilet       float64
	Helper       float64
}

// UpdateRow is one row of an updateFacilityCounts call: the affected
// station codes and their new counter values.
type UpdateRow struct {
	StationCodes []string
	Counts       Counts
}

// weights holds, per profile, the multiplier applied to each facility
// counter before sigmoid normalization. Values reproduced verbatim
// from spec.md §6 / cpp_src/utils.h's FacilityWeights table.
type weights struct {
	Charger, Elevator, Escalator, Lift, MovingWalk, SafePlatform, SignPhone, Toilet, Helper float64
}

var profileWeights = map[subway.Profile]weights{
	subway.ProfilePHY: {Charger: 3, Elevator: 5, Escalator: 3, Lift: 2, MovingWalk: 2, SafePlatform: 5, SignPhone: 0, Toilet: 3, Helper: 4},
	subway.ProfileVIS: {Charger: 0, Elevator: 3, Escalator: 3, Lift: 0, MovingWalk: 2, SafePlatform: 5, SignPhone: 0, Toilet: 0, Helper: 4},
	subway.ProfileAUD: {Charger: 0, Elevator: 3, Escalator: 3, Lift: 0, MovingWalk: 2, SafePlatform: 3, SignPhone: 4.5, Toilet: 0, Helper: 4},
	subway.ProfileELD: {Charger: 0, Elevator: 4, Escalator: 4, Lift: 0, MovingWalk: 4, SafePlatform: 4, SignPhone: 0, Toilet: 1, Helper: 4},
}

func rawScore(c Counts, w weights) float64 {
	return c.Charger*w.Charger + c.Elevator*w.Elevator + c.Escalator*w.Escalator +
		c.Lift*w.Lift + c.MovingWalk*w.MovingWalk + c.SafePlatform*w.SafePlatform +
		c.SignPhone*w.SignPhone + c.Toilet*w.Toilet + c.Helper*w.Helper
}

func sigmoid(raw, k float64) float64 {
	return 1.0 / (1.0 + math.Exp(-k*raw))
}

// Service caches, per station, the four profile convenience scores
// derived from facility counts. Readers take the shared lock for the
// duration of a search; UpdateFacilityCounts takes the exclusive lock
// while recomputing and installing the affected rows.
type Service struct {
	mu     sync.RWMutex
	k      float64
	counts map[network.StationID]Counts
	scores map[network.StationID]map[subway.Profile]float64
}

// NewService returns an empty Service using the default sigmoid
// constant. Initial counts are zero.
func NewService() *Service {
	return NewServiceWithK(defaultSigmoidK)
}

// NewServiceWithK returns an empty Service using a caller-chosen
// sigmoid constant, fixed for the lifetime of the deployment.
func NewServiceWithK(k float64) *Service {
	return &Service{
		k:      k,
		counts: make(map[network.StationID]Counts),
		scores: make(map[network.StationID]map[subway.Profile]float64),
	}
}

// Seed installs the initial facility counts for a station at load
// time, before any concurrent readers exist. Not safe to call once
// the service is serving searches.
func (s *Service) Seed(id network.StationID, c Counts) {
	s.counts[id] = c
	s.scores[id] = s.computeScores(c)
}

func (s *Service) computeScores(c Counts) map[subway.Profile]float64 {
	out := make(map[subway.Profile]float64, 4)
	for p, w := range profileWeights {
		out[p] = sigmoid(rawScore(c, w), s.k)
	}
	return out
}

// Convenience returns the cached score in [0,1] for a station and
// profile, or 0 if the station has never been seeded.
func (s *Service) Convenience(id network.StationID, profile subway.Profile) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.scores[id]
	if !ok {
		return 0
	}
	return row[profile]
}

// RLock/RUnlock let a search hold the reader lock for its entire
// propagation, guaranteeing a snapshot consistent from start to finish.
func (s *Service) RLock()   { s.mu.RLock() }
func (s *Service) RUnlock() { s.mu.RUnlock() }

// UpdateFacilityCounts recomputes the four profile scores for every
// affected station and atomically installs them. Rows referencing
// unknown station codes are skipped, not an error. resolve maps a
// station code to its internal id.
func (s *Service) UpdateFacilityCounts(rows []UpdateRow, resolve func(code string) (network.StationID, bool)) {
	type update struct {
		id     network.StationID
		counts Counts
		scores map[subway.Profile]float64
	}
	var updates []update
	for _, row := range rows {
		for _, code := range row.StationCodes {
			id, ok := resolve(code)
			if !ok {
				continue
			}
			updates = append(updates, update{id: id, counts: row.Counts, scores: s.computeScores(row.Counts)})
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range updates {
		s.counts[u.id] = u.counts
		s.scores[u.id] = u.scores
	}
}
