// Package itinerary reconstructs full station-by-station paths from
// destination labels and ranks them into the final ordered result set
// returned to callers, mirroring cpp_src/engine.cpp's
// reconstruct_path/rank_routes pair.
package itinerary

import (
	"sort"

	"github.com/passbi/subway-access/internal/labelpool"
	"github.com/passbi/subway-access/internal/network"
	"github.com/passbi/subway-access/internal/weighting"
)

// TransferInfo is one interchange along a route.
type TransferInfo struct {
	StationCode string
	FromLine    string
	ToLine      string
}

// Ranked is one candidate route, fully reconstructed and scored.
type Ranked struct {
	Rank                  int
	RouteSequence         []string
	RouteLines            []string
	TransferInfo          []TransferInfo
	TotalTimeMinutes      float64
	Transfers             int
	AvgConvenience        float64
	AvgCongestion         float64
	MaxTransferDifficulty float64
	Score                 float64
}

// normalization ceilings fixed by spec.md §6.
const (
	travelTimeCeiling = 120.0
	transfersCeiling  = 4.0
)

// Rank reconstructs every label in labels against pool/store, scores
// each with w, deduplicates itineraries with identical station
// sequences, sorts ascending by score, and returns the top limit
// (spec.md's default is 3).
func Rank(pool *labelpool.Pool, store *network.Store, labels []labelpool.Index, w weighting.Weights, limit int) []Ranked {
	if limit <= 0 {
		limit = 3
	}

	all := make([]Ranked, 0, len(labels))
	for _, idx := range labels {
		r := reconstruct(pool, store, idx)
		r.Score = score(r, w)
		all = append(all, r)
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Score < all[j].Score })

	deduped := dedupeBySequence(all)

	if len(deduped) > limit {
		deduped = deduped[:limit]
	}
	for i := range deduped {
		deduped[i].Rank = i + 1
	}
	return deduped
}

func dedupeBySequence(all []Ranked) []Ranked {
	seen := make(map[string]bool, len(all))
	out := make([]Ranked, 0, len(all))
	for _, r := range all {
		key := sequenceKey(r.RouteSequence)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func sequenceKey(seq []string) string {
	key := make([]byte, 0, len(seq)*8)
	for _, s := range seq {
		key = append(key, s...)
		key = append(key, 0)
	}
	return string(key)
}

// reconstruct walks the parent chain from leaf back to the origin,
// reverses it, and emits the station-sequence/line/transfer record
// described in spec.md §4.6.
func reconstruct(pool *labelpool.Pool, store *network.Store, leaf labelpool.Index) Ranked {
	var chain []labelpool.Index
	for idx := leaf; idx != labelpool.NoParent; idx = pool.Get(idx).ParentIndex {
		chain = append(chain, idx)
	}
	// chain is leaf-to-root; reverse to root-to-leaf.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	leafLabel := pool.Get(leaf)
	r := Ranked{
		TotalTimeMinutes:      leafLabel.ArrivalTimeMinutes,
		Transfers:             leafLabel.Transfers,
		AvgConvenience:        leafLabel.AvgConvenience(),
		AvgCongestion:         leafLabel.AvgCongestion(),
		MaxTransferDifficulty: leafLabel.MaxTransferDifficulty,
	}

	if len(chain) == 0 {
		return r
	}

	first := pool.Get(chain[0])
	r.RouteSequence = append(r.RouteSequence, store.Code(first.StationID))
	r.RouteLines = append(r.RouteLines, first.CurrentLine)

	for i := 1; i < len(chain); i++ {
		prev := pool.Get(chain[i-1])
		curr := pool.Get(chain[i])

		if prev.CurrentLine != curr.CurrentLine {
			r.TransferInfo = append(r.TransferInfo, TransferInfo{
				StationCode: store.Code(prev.StationID),
				FromLine:    prev.CurrentLine,
				ToLine:      curr.CurrentLine,
			})
			r.RouteSequence = append(r.RouteSequence, store.Code(curr.StationID))
			r.RouteLines = append(r.RouteLines, curr.CurrentLine)
			continue
		}

		intermediates := store.IntermediateStations(prev.StationID, curr.StationID, curr.CurrentLine)
		for _, id := range intermediates {
			r.RouteSequence = append(r.RouteSequence, store.Code(id))
			r.RouteLines = append(r.RouteLines, curr.CurrentLine)
		}
	}

	return r
}

func score(r Ranked, w weighting.Weights) float64 {
	normTime := minFloat(r.TotalTimeMinutes/travelTimeCeiling, 1.0)
	normTransfers := minFloat(float64(r.Transfers)/transfersCeiling, 1.0)
	normDifficulty := r.MaxTransferDifficulty
	normConvenience := 1.0 - minFloat(r.AvgConvenience, 1.0)
	normCongestion := minFloat(r.AvgCongestion, 1.0)

	return w.TravelTime*normTime + w.Transfers*normTransfers +
		w.TransferDifficulty*normDifficulty + w.Convenience*normConvenience +
		w.Congestion*normCongestion
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
