// Package labelpool holds the label record layout, parent-index
// ancestry, dominance predicate, and cycle prevention used by the
// round-based search engine (internal/search).
//
// Labels are arena-allocated: a contiguous, append-only slice indexed
// by position, never freed individually. Because labels never survive
// past a single search and are never shared across searches, this
// yields cache-friendly traversal for dominance checks and
// reconstruction and avoids any cyclic-reference bookkeeping — the
// same tradeoff the original C++ engine makes with its
// std::vector<Label> label pool (cpp_src/types.h, cpp_src/engine.cpp).
package labelpool

import (
	"github.com/passbi/subway-access/internal/network"
	"github.com/passbi/subway-access/internal/subway"
	"github.com/passbi/subway-access/internal/weighting"
)

// Index is a position within a Pool. -1 denotes "no parent" (an
// origin label).
type Index int32

const NoParent Index = -1

// Label is one search state. Field layout mirrors spec.md §3 and
// cpp_src/types.h's packed Label struct.
type Label struct {
	ArrivalTimeMinutes    float64
	Transfers             int
	ConvenienceSum        float64
	CongestionSum         float64
	MaxTransferDifficulty float64
	Depth                 int
	ParentIndex           Index
	StationID             network.StationID
	CurrentLine           string
	Direction             subway.Direction
	CreatedRound          int
	IsFirstMove           bool
	scoreCache            float64
	hasScoreCache         bool
}

// AvgConvenience is convenienceSum/depth.
func (l *Label) AvgConvenience() float64 {
	if l.Depth <= 0 {
		return 0
	}
	return l.ConvenienceSum / float64(l.Depth)
}

// AvgCongestion is congestionSum/depth.
func (l *Label) AvgCongestion() float64 {
	if l.Depth <= 0 {
		return 0
	}
	return l.CongestionSum / float64(l.Depth)
}

// ScoreCache returns a previously stashed ranking score and whether one was set.
func (l *Label) ScoreCache() (float64, bool) { return l.scoreCache, l.hasScoreCache }

// SetScoreCache stashes a ranking score for later sorts.
func (l *Label) SetScoreCache(v float64) {
	l.scoreCache = v
	l.hasScoreCache = true
}

// Pool is the append-only arena backing one search. Parent indices
// are stable across the lifetime of a Pool: index i's parent is
// always strictly less than i, which keeps reconstruction acyclic by
// construction.
type Pool struct {
	labels []Label
}

// NewPool returns an empty Pool with capacity reserved up front, the
// way cpp_src/engine.cpp reserves 200,000 labels for its arena.
func NewPool() *Pool {
	return &Pool{labels: make([]Label, 0, 1<<14)}
}

// Add appends a new label and returns its index.
func (p *Pool) Add(l Label) Index {
	p.labels = append(p.labels, l)
	return Index(len(p.labels) - 1)
}

// Get returns the label at idx.
func (p *Pool) Get(idx Index) *Label {
	return &p.labels[idx]
}

// Len returns the number of labels allocated so far.
func (p *Pool) Len() int { return len(p.labels) }

// AncestorHasStation walks the parent chain from idx and reports
// whether any ancestor (including idx itself) is at the given station
// — used to reject U-turns and cycles before a new label is created.
func (p *Pool) AncestorHasStation(idx Index, station network.StationID) bool {
	for idx != NoParent {
		l := &p.labels[idx]
		if l.StationID == station {
			return true
		}
		idx = l.ParentIndex
	}
	return false
}

// Dominates reports whether a dominates b under the active profile
// weights: every compared criterion is at least as good in a, and at
// least one is strictly better. Transfers and arrival time are always
// compared; transfer difficulty, congestion and convenience are
// compared only when their weight is positive, matching spec.md §4.4's
// weight-aware dominance rule.
func Dominates(a, b *Label, w weighting.Weights) bool {
	if a.Transfers > b.Transfers {
		return false
	}
	if a.ArrivalTimeMinutes > b.ArrivalTimeMinutes {
		return false
	}
	if w.TransferDifficulty > 0 && a.MaxTransferDifficulty > b.MaxTransferDifficulty {
		return false
	}
	if w.Congestion > 0 && a.AvgCongestion() > b.AvgCongestion() {
		return false
	}
	if w.Convenience > 0 && a.AvgConvenience() < b.AvgConvenience() {
		return false
	}

	strict := false
	if a.Transfers < b.Transfers {
		strict = true
	}
	if a.ArrivalTimeMinutes < b.ArrivalTimeMinutes {
		strict = true
	}
	if w.TransferDifficulty > 0 && a.MaxTransferDifficulty < b.MaxTransferDifficulty {
		strict = true
	}
	if w.Congestion > 0 && a.AvgCongestion() < b.AvgCongestion() {
		strict = true
	}
	if w.Convenience > 0 && a.AvgConvenience() > b.AvgConvenience() {
		strict = true
	}
	return strict
}

// Bag is the set of non-dominated labels currently associated with one
// station, stored as indices into a Pool.
type Bag struct {
	indices []Index
}

// Insert filters the candidate through the dominance predicate: if any
// existing member dominates it, it's rejected; otherwise it's added
// and any existing members it strictly dominates are evicted.
// sameLine restricts which existing members participate in the
// comparison — spec.md §4.5(B) requires this at interchange hubs so a
// transfer label doesn't get pruned by an unrelated line's label.
func (bag *Bag) Insert(pool *Pool, candidate Index, w weighting.Weights, sameLine func(existing *Label) bool) bool {
	cand := pool.Get(candidate)
	for _, idx := range bag.indices {
		existing := pool.Get(idx)
		if sameLine != nil && !sameLine(existing) {
			continue
		}
		if Dominates(existing, cand, w) {
			return false
		}
	}

	kept := bag.indices[:0]
	for _, idx := range bag.indices {
		existing := pool.Get(idx)
		if sameLine != nil && !sameLine(existing) {
			kept = append(kept, idx)
			continue
		}
		if !Dominates(cand, existing, w) {
			kept = append(kept, idx)
		}
	}
	bag.indices = append(kept, candidate)
	return true
}

// Labels returns the indices currently in the bag.
func (bag *Bag) Labels() []Index { return bag.indices }
