// Package network holds the immutable in-memory representation of
// stations, per-line ordered sequences, directional adjacencies,
// inter-line transfers, and time-bucketed congestion tables.
//
// A Store is built once at startup (see internal/staticdata) and never
// mutated afterward; every lookup is safe for concurrent readers
// without locking, matching the teacher's InMemoryGraph pattern of
// "load once, serve read-only lookups" but keyed on the routing
// engine's station/line/order/transfer/congestion shape.
package network

import (
	"math"
	"sort"

	"github.com/passbi/subway-access/internal/subway"
)

// StationID is the compact internal identifier assigned at load time.
type StationID int32

// Station carries the immutable metadata of a single station record.
// A physical interchange hub is represented by several Station
// records — one per line — sharing a normalized name.
type Station struct {
	ID   StationID
	Code string
	Name string
	Line string
	Lat  float64
	Lon  float64
}

// TransferKey identifies an inter-line transfer opportunity at a station.
type TransferKey struct {
	Station  StationID
	FromLine string
	ToLine   string
}

// Transfer is the walking distance and target station of an interchange.
type Transfer struct {
	DistanceMeters  float64
	TargetStationID StationID
}

// DefaultCongestion is used whenever a (station, line, direction, day,
// bucket) tuple has no recorded ratio.
const DefaultCongestion = 0.5

type congestionKey struct {
	station   StationID
	line      string
	direction subway.Direction
	day       subway.DayClass
}

type lineStationKey struct {
	station StationID
	line    string
}

// directionLines holds the ordered ids reachable from a station in
// each travel direction along a single line.
type directionLines struct {
	up   []StationID
	down []StationID
}

// Store is the immutable, read-only network snapshot consulted by the
// search engine.
type Store struct {
	stations   []Station
	codeToID   map[string]StationID
	linesAt    map[StationID][]string
	order      map[lineStationKey]int
	topology   map[lineStationKey]directionLines
	transfers  map[TransferKey]Transfer
	congestion map[congestionKey]map[string]float64
	// lineOrder caches, per line, station ids sorted by their order
	// value ascending — used by IntermediateStations.
	lineOrder map[string][]StationID
	loopLines map[string]bool
	// transferLines maps (station, fromLine) to the distinct toLine
	// values that have a recorded transfer, since each per-line
	// interchange record's own Line field can never reveal the other
	// lines reachable from it.
	transferLines map[lineStationKey][]string
}

// Builder accumulates raw rows before Build() freezes them into a Store.
type Builder struct {
	stations   []Station
	order      map[lineStationKey]int
	transfers  map[TransferKey]Transfer
	congestion map[congestionKey]map[string]float64
	loopLines  map[string]bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		order:      make(map[lineStationKey]int),
		transfers:  make(map[TransferKey]Transfer),
		congestion: make(map[congestionKey]map[string]float64),
		loopLines:  make(map[string]bool),
	}
}

// MarkLoop flags a line as a loop line, whose directions are reported
// as IN/OUT instead of UP/DOWN.
func (b *Builder) MarkLoop(line string) {
	b.loopLines[line] = true
}

// AddStation registers a station record. IDs are assigned in call order.
func (b *Builder) AddStation(code, name, line string, lat, lon float64) StationID {
	id := StationID(len(b.stations))
	b.stations = append(b.stations, Station{ID: id, Code: code, Name: name, Line: line, Lat: lat, Lon: lon})
	return id
}

// SetOrder records a station's rank within its line's total order.
func (b *Builder) SetOrder(id StationID, line string, order int) {
	b.order[lineStationKey{id, line}] = order
}

// AddTransfer records a walkable interchange from one line to another
// at the same physical station.
func (b *Builder) AddTransfer(id StationID, fromLine, toLine string, distanceMeters float64, target StationID) {
	b.transfers[TransferKey{id, fromLine, toLine}] = Transfer{DistanceMeters: distanceMeters, TargetStationID: target}
}

// AddCongestion records a congestion ratio for a time bucket.
func (b *Builder) AddCongestion(id StationID, line string, dir subway.Direction, day subway.DayClass, bucket string, ratio float64) {
	k := congestionKey{id, line, dir, day}
	m, ok := b.congestion[k]
	if !ok {
		m = make(map[string]float64)
		b.congestion[k] = m
	}
	m[bucket] = ratio
}

// Build freezes the accumulated rows into an immutable Store, deriving
// per-line adjacency from each line's order values.
func (b *Builder) Build() *Store {
	s := &Store{
		stations:      b.stations,
		codeToID:      make(map[string]StationID, len(b.stations)),
		linesAt:       make(map[StationID][]string),
		order:         b.order,
		topology:      make(map[lineStationKey]directionLines),
		transfers:     b.transfers,
		congestion:    b.congestion,
		lineOrder:     make(map[string][]StationID),
		loopLines:     b.loopLines,
		transferLines: make(map[lineStationKey][]string),
	}

	for key := range b.transfers {
		s.transferLines[lineStationKey{key.Station, key.FromLine}] = append(
			s.transferLines[lineStationKey{key.Station, key.FromLine}], key.ToLine)
	}

	byLine := make(map[string][]StationID)
	for _, st := range b.stations {
		s.codeToID[st.Code] = st.ID
		s.linesAt[st.ID] = append(s.linesAt[st.ID], st.Line)
		byLine[st.Line] = append(byLine[st.Line], st.ID)
	}

	for line, ids := range byLine {
		ordered := make([]StationID, len(ids))
		copy(ordered, ids)
		sort.Slice(ordered, func(i, j int) bool {
			oi, oki := b.order[lineStationKey{ordered[i], line}]
			oj, okj := b.order[lineStationKey{ordered[j], line}]
			if !oki || !okj {
				return ordered[i] < ordered[j]
			}
			return oi < oj
		})
		s.lineOrder[line] = ordered

		for i, id := range ordered {
			s.topology[lineStationKey{id, line}] = directionLines{
				up:   append([]StationID{}, ordered[i+1:]...),
				down: reverseIDs(ordered[:i]),
			}
		}
	}

	return s
}

func reverseIDs(ids []StationID) []StationID {
	out := make([]StationID, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

// StationID resolves an external station code to its internal id.
func (s *Store) StationID(code string) (StationID, error) {
	id, ok := s.codeToID[code]
	if !ok {
		return 0, subway.UnknownStation(code)
	}
	return id, nil
}

// Code returns the external code of an internal id.
func (s *Store) Code(id StationID) string {
	if int(id) < 0 || int(id) >= len(s.stations) {
		return ""
	}
	return s.stations[id].Code
}

// Station returns the metadata record for an internal id.
func (s *Store) Station(id StationID) Station {
	return s.stations[id]
}

// StationCount returns the number of station records (one per
// physical station per line it participates in).
func (s *Store) StationCount() int {
	return len(s.stations)
}

// Lines returns the line tag(s) the station's own record belongs to.
// Since an interchange hub is modeled as one Station record per line
// (see Station's doc comment), this is normally a single-element
// slice; use TransferLines to discover other lines reachable from a
// station via a recorded transfer.
func (s *Store) Lines(id StationID) []string {
	return s.linesAt[id]
}

// TransferLines returns the distinct line tags reachable from id via
// a recorded transfer starting on fromLine.
func (s *Store) TransferLines(id StationID, fromLine string) []string {
	return s.transferLines[lineStationKey{id, fromLine}]
}

// NextOnLine returns, for the given station and line, the ids
// reachable going "up" and "down" along that line's total order.
// Loop lines are modeled the same way; callers map up/down onto
// IN/OUT for loop lines via the direction passed to congestion lookups.
func (s *Store) NextOnLine(id StationID, line string) (up, down []StationID) {
	dl := s.topology[lineStationKey{id, line}]
	return dl.up, dl.down
}

// IsLoop reports whether the line is modeled as a loop (IN/OUT)
// rather than a radial line (UP/DOWN).
func (s *Store) IsLoop(line string) bool {
	return s.loopLines[line]
}

// Transfer looks up an interchange; a missing entry means "no
// transfer available" and is not an error.
func (s *Store) Transfer(id StationID, fromLine, toLine string) (Transfer, bool) {
	t, ok := s.transfers[TransferKey{id, fromLine, toLine}]
	return t, ok
}

// Congestion returns the ratio for the given key, defaulting to
// DefaultCongestion when the bucket is missing.
func (s *Store) Congestion(id StationID, line string, dir subway.Direction, day subway.DayClass, bucket string) float64 {
	m, ok := s.congestion[congestionKey{id, line, dir, day}]
	if !ok {
		return DefaultCongestion
	}
	if v, ok := m[bucket]; ok {
		return v
	}
	return DefaultCongestion
}

// IntermediateStations walks the line's ordered list between two
// endpoints and returns every intermediate id plus toID, in travel
// order (excluding fromID). If either endpoint lacks an order entry,
// it returns just toID.
func (s *Store) IntermediateStations(fromID, toID StationID, line string) []StationID {
	ordered := s.lineOrder[line]
	fromIdx, fromOK := indexOf(ordered, fromID)
	toIdx, toOK := indexOf(ordered, toID)
	if !fromOK || !toOK {
		return []StationID{toID}
	}
	if fromIdx < toIdx {
		return append([]StationID{}, ordered[fromIdx+1:toIdx+1]...)
	}
	out := make([]StationID, 0, fromIdx-toIdx)
	for i := fromIdx - 1; i >= toIdx; i-- {
		out = append(out, ordered[i])
	}
	return out
}

func indexOf(ids []StationID, target StationID) (int, bool) {
	for i, id := range ids {
		if id == target {
			return i, true
		}
	}
	return 0, false
}

// HaversineMeters returns the great-circle distance between two
// stations in meters.
func HaversineMeters(a, b Station) float64 {
	const earthRadius = 6371000.0
	toRad := math.Pi / 180.0
	dLat := (b.Lat - a.Lat) * toRad
	dLon := (b.Lon - a.Lon) * toRad
	sa := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*toRad)*math.Cos(b.Lat*toRad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(sa), math.Sqrt(1-sa))
	return earthRadius * c
}
