// Package search implements the round-based Pareto label propagation
// engine: it scans (rides) each marked station's labels along its
// current line and probes transfers to other lines at that station,
// pruning by dominance, until rounds are exhausted or no station is
// newly marked.
//
// The round loop mirrors cpp_src/engine.cpp's find_routes and the
// marked-station bookkeeping used in
// other_examples/Vector-Hector-bifrost__rounds.go.
package search

import (
	"context"
	"strconv"
	"time"

	"github.com/passbi/subway-access/internal/facility"
	"github.com/passbi/subway-access/internal/labelpool"
	"github.com/passbi/subway-access/internal/network"
	"github.com/passbi/subway-access/internal/subway"
	"github.com/passbi/subway-access/internal/weighting"
)

// seoulTime is the fixed offset used to bucket congestion lookups;
// the network is Seoul-only, so KST (UTC+9) is hardcoded rather than
// loaded from the tzdata database.
var seoulTime = time.FixedZone("KST", 9*3600)

// DefaultMaxRounds is used when the caller leaves Request.MaxRounds nil.
const DefaultMaxRounds = 5

// rideSpeedDivisor is the fixed scaling constant of spec.md §6: hop
// time in minutes is distanceMeters/550, floored at 1.0 minute. This
// is preserved verbatim from the original engine and is not a walking
// speed — do not reinterpret it as one.
const rideSpeedDivisor = 550.0

const rideHopFloorMinutes = 1.0

// Engine runs searches against a fixed Store/Service snapshot.
type Engine struct {
	store *network.Store
	fac   *facility.Service
}

// New returns an Engine bound to the given network and facility snapshots.
func New(store *network.Store, fac *facility.Service) *Engine {
	return &Engine{store: store, fac: fac}
}

// Request is the input to FindRoutes. MaxRounds is a pointer so that
// an explicit 0 (spec.md §8: "maxRounds = 0 ⇒ empty unless origin is
// a destination") is distinguishable from "unset, use the default";
// nil means unset.
type Request struct {
	OriginCode            string
	DestinationCodes      []string
	DepartureEpochSeconds int64
	Profile               subway.Profile
	MaxRounds             *int
}

// Result is the unranked candidate set produced by one search: every
// label that reached a destination, plus the pool it belongs to (path
// reconstruction needs to walk parent indices back into the pool).
type Result struct {
	Pool   *labelpool.Pool
	Labels []labelpool.Index
}

// FindRoutes runs the round-based search described in spec.md §4.5.
// It is a pure function of its inputs and the Store/Service snapshot:
// callers may run concurrent searches safely, each with its own Pool.
func (e *Engine) FindRoutes(ctx context.Context, req Request) (*Result, error) {
	if !req.Profile.Valid() {
		return nil, subway.InvalidProfile(string(req.Profile))
	}

	maxRounds := DefaultMaxRounds
	if req.MaxRounds != nil {
		maxRounds = *req.MaxRounds
	}

	weights, err := weighting.For(req.Profile)
	if err != nil {
		return nil, err
	}
	walkSpeed := weighting.WalkingSpeed(req.Profile)

	originID, err := e.store.StationID(req.OriginCode)
	if err != nil {
		return nil, err
	}
	destIDs := make(map[network.StationID]bool, len(req.DestinationCodes))
	for _, code := range req.DestinationCodes {
		id, err := e.store.StationID(code)
		if err != nil {
			return nil, err
		}
		destIDs[id] = true
	}

	e.fac.RLock()
	defer e.fac.RUnlock()

	pool := labelpool.NewPool()
	bags := make(map[network.StationID]*labelpool.Bag)
	bagFor := func(id network.StationID) *labelpool.Bag {
		b, ok := bags[id]
		if !ok {
			b = &labelpool.Bag{}
			bags[id] = b
		}
		return b
	}

	marked := map[network.StationID]bool{originID: true}
	for _, line := range e.store.Lines(originID) {
		idx := pool.Add(labelpool.Label{
			ArrivalTimeMinutes: 0,
			Transfers:          0,
			Depth:              1,
			ParentIndex:        labelpool.NoParent,
			StationID:          originID,
			CurrentLine:        line,
			Direction:          subway.Unknown,
			CreatedRound:       0,
			IsFirstMove:        true,
		})
		bagFor(originID).Insert(pool, idx, weights, sameLineFilter(line))
	}

	for round := 1; round <= maxRounds; round++ {
		if len(marked) == 0 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		queue := make([]network.StationID, 0, len(marked))
		for id := range marked {
			queue = append(queue, id)
		}
		nextMarked := make(map[network.StationID]bool)

		for _, u := range queue {
			bag := bagFor(u)
			// Snapshot indices: the ride/transfer phases below append
			// new labels into other bags (and possibly this one via
			// the transfer phase), so iterate over a fixed slice.
			labels := append([]labelpool.Index(nil), bag.Labels()...)

			for _, lIdx := range labels {
				l := pool.Get(lIdx)
				if l.CreatedRound >= round {
					continue
				}
				if destIDs[u] {
					continue
				}

				e.ridePhase(pool, bagFor, u, lIdx, l, req, round, weights, nextMarked)
				e.transferPhase(pool, bagFor, u, lIdx, l, req, round, weights, walkSpeed, nextMarked)
			}
		}

		marked = nextMarked
	}

	var results []labelpool.Index
	for dest := range destIDs {
		if bag, ok := bags[dest]; ok {
			results = append(results, bag.Labels()...)
		}
	}

	return &Result{Pool: pool, Labels: results}, nil
}

func sameLineFilter(line string) func(*labelpool.Label) bool {
	return func(l *labelpool.Label) bool { return l.CurrentLine == line }
}

// ridePhase expands a label along its current line in both applicable
// directions, accumulating travel time and congestion hop by hop.
func (e *Engine) ridePhase(
	pool *labelpool.Pool,
	bagFor func(network.StationID) *labelpool.Bag,
	u network.StationID,
	lIdx labelpool.Index,
	l *labelpool.Label,
	req Request,
	round int,
	weights weighting.Weights,
	nextMarked map[network.StationID]bool,
) {
	up, down := e.store.NextOnLine(u, l.CurrentLine)
	isLoop := e.store.IsLoop(l.CurrentLine)

	upDir, downDir := subway.Up, subway.Down
	if isLoop {
		upDir, downDir = subway.In, subway.Out
	}

	e.scanDirection(pool, bagFor, u, lIdx, l, req, round, weights, up, upDir, nextMarked)
	e.scanDirection(pool, bagFor, u, lIdx, l, req, round, weights, down, downDir, nextMarked)
}

func (e *Engine) scanDirection(
	pool *labelpool.Pool,
	bagFor func(network.StationID) *labelpool.Bag,
	u network.StationID,
	lIdx labelpool.Index,
	l *labelpool.Label,
	req Request,
	round int,
	weights weighting.Weights,
	targets []network.StationID,
	dir subway.Direction,
	nextMarked map[network.StationID]bool,
) {
	cumulative := 0.0
	prev := u

	for _, v := range targets {
		if pool.AncestorHasStation(lIdx, v) {
			continue
		}

		prevStation := e.store.Station(prev)
		vStation := e.store.Station(v)
		distance := network.HaversineMeters(prevStation, vStation)
		hopMinutes := distance / rideSpeedDivisor
		if hopMinutes < rideHopFloorMinutes {
			hopMinutes = rideHopFloorMinutes
		}
		cumulative += hopMinutes

		arrival := l.ArrivalTimeMinutes + cumulative
		absoluteTime := time.Unix(req.DepartureEpochSeconds, 0).In(seoulTime).Add(time.Duration(arrival * float64(time.Minute)))
		dayClass := dayClassOf(absoluteTime)
		bucket := timeBucketOf(absoluteTime)

		cong := e.store.Congestion(prev, l.CurrentLine, dir, dayClass, bucket)
		newCongSum := l.CongestionSum + cong

		newIdx := pool.Add(labelpool.Label{
			ArrivalTimeMinutes:    arrival,
			Transfers:             l.Transfers,
			ConvenienceSum:        l.ConvenienceSum,
			CongestionSum:         newCongSum,
			MaxTransferDifficulty: l.MaxTransferDifficulty,
			Depth:                 l.Depth + 1,
			ParentIndex:           lIdx,
			StationID:             v,
			CurrentLine:           l.CurrentLine,
			Direction:             dir,
			CreatedRound:          round,
			IsFirstMove:           false,
		})

		if bagFor(v).Insert(pool, newIdx, weights, sameLineFilter(l.CurrentLine)) {
			nextMarked[v] = true
		}

		prev = v
	}
}

// transferPhase probes every other line reachable from u by a recorded
// transfer and creates a new label on that line, placed at the
// transfer's target station record (the interchange's own record for
// that line), not at u.
func (e *Engine) transferPhase(
	pool *labelpool.Pool,
	bagFor func(network.StationID) *labelpool.Bag,
	u network.StationID,
	lIdx labelpool.Index,
	l *labelpool.Label,
	req Request,
	round int,
	weights weighting.Weights,
	walkSpeed float64,
	nextMarked map[network.StationID]bool,
) {
	for _, line := range e.store.TransferLines(u, l.CurrentLine) {
		t, ok := e.store.Transfer(u, l.CurrentLine, line)
		if !ok {
			continue
		}

		transferMinutes := t.DistanceMeters / (walkSpeed * 60.0)
		stationScore := e.fac.Convenience(u, req.Profile)
		newConvSum := l.ConvenienceSum + stationScore
		difficulty := weighting.TransferDifficulty(t.DistanceMeters, newConvSum)
		target := t.TargetStationID

		newIdx := pool.Add(labelpool.Label{
			ArrivalTimeMinutes:    l.ArrivalTimeMinutes + transferMinutes,
			Transfers:             l.Transfers + 1,
			ConvenienceSum:        newConvSum,
			CongestionSum:         l.CongestionSum,
			MaxTransferDifficulty: maxFloat(l.MaxTransferDifficulty, difficulty),
			Depth:                 l.Depth + 1,
			ParentIndex:           lIdx,
			StationID:             target,
			CurrentLine:           line,
			Direction:             subway.Unknown,
			CreatedRound:          round,
			IsFirstMove:           true,
		})

		if bagFor(target).Insert(pool, newIdx, weights, sameLineFilter(line)) {
			nextMarked[target] = true
		}
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func dayClassOf(t time.Time) subway.DayClass {
	switch t.Weekday() {
	case 0:
		return subway.Sun
	case 6:
		return subway.Sat
	default:
		return subway.Weekday
	}
}

func timeBucketOf(t time.Time) string {
	minutes := t.Hour()*60 + t.Minute()
	slot := (minutes / 30) * 30
	return "t_" + strconv.Itoa(slot)
}
