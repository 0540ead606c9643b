// Package staticdata loads the persisted network inputs described in
// spec.md §6 — stations, per-line ordering, transfers, congestion
// tables, and facility counts — from either flat CSV files or a
// Postgres database, producing a ready-to-serve network.Store and
// facility.Service.
//
// The CSV path follows internal/gtfs/parser.go's column-map idiom
// (encoding/csv plus makeColumnMap/getField helpers); the Postgres
// path follows internal/db/connection.go's pgxpool usage.
package staticdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/passbi/subway-access/internal/facility"
	"github.com/passbi/subway-access/internal/network"
	"github.com/passbi/subway-access/internal/subway"
)

// Loaded bundles the two immutable snapshots a search engine needs.
type Loaded struct {
	Store    *network.Store
	Facility *facility.Service
}

// LoadFromCSV reads a directory of flat files: stations.csv,
// station_order.csv, transfers.csv, congestion.csv, facilities.csv,
// loop_lines.csv. Only stations.csv is required; any of the others
// that is missing is skipped.
func LoadFromCSV(dir string, sigmoidK float64) (*Loaded, error) {
	builder := network.NewBuilder()
	fac := facility.NewServiceWithK(sigmoidK)
	codeToID := make(map[string]network.StationID)

	if err := loadStations(filepath.Join(dir, "stations.csv"), builder, codeToID); err != nil {
		return nil, fmt.Errorf("stations.csv: %w", err)
	}
	if err := loadStationOrder(filepath.Join(dir, "station_order.csv"), builder, codeToID); err != nil {
		return nil, fmt.Errorf("station_order.csv: %w", err)
	}
	if err := loadTransfers(filepath.Join(dir, "transfers.csv"), builder, codeToID); err != nil {
		return nil, fmt.Errorf("transfers.csv: %w", err)
	}
	if err := loadCongestion(filepath.Join(dir, "congestion.csv"), builder, codeToID); err != nil {
		return nil, fmt.Errorf("congestion.csv: %w", err)
	}
	if err := loadLoopLines(filepath.Join(dir, "loop_lines.csv"), builder); err != nil {
		return nil, fmt.Errorf("loop_lines.csv: %w", err)
	}
	if err := loadFacilities(filepath.Join(dir, "facilities.csv"), fac, codeToID); err != nil {
		return nil, fmt.Errorf("facilities.csv: %w", err)
	}

	return &Loaded{Store: builder.Build(), Facility: fac}, nil
}

func openCSV(path string) (*csv.Reader, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	return r, f, nil
}

func makeColumnMap(header []string) map[string]int {
	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[strings.TrimSpace(col)] = i
	}
	return colMap
}

func getField(record []string, colMap map[string]int, name string) string {
	if idx, ok := colMap[name]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func loadStations(path string, b *network.Builder, codeToID map[string]network.StationID) error {
	r, f, err := openCSV(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	colMap := makeColumnMap(header)

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}

		code := getField(record, colMap, "station_code")
		name := getField(record, colMap, "name")
		line := getField(record, colMap, "line")
		lat, _ := strconv.ParseFloat(getField(record, colMap, "lat"), 64)
		lon, _ := strconv.ParseFloat(getField(record, colMap, "lon"), 64)

		id := b.AddStation(code, name, line, lat, lon)
		codeToID[stationKey(code, line)] = id
	}
	return nil
}

func loadStationOrder(path string, b *network.Builder, codeToID map[string]network.StationID) error {
	r, f, err := openCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	colMap := makeColumnMap(header)

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}

		code := getField(record, colMap, "station_code")
		line := getField(record, colMap, "line")
		order, _ := strconv.Atoi(getField(record, colMap, "order"))

		id, ok := codeToID[stationKey(code, line)]
		if !ok {
			continue
		}
		b.SetOrder(id, line, order)
	}
	return nil
}

func loadTransfers(path string, b *network.Builder, codeToID map[string]network.StationID) error {
	r, f, err := openCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	colMap := makeColumnMap(header)

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}

		code := getField(record, colMap, "station_code")
		fromLine := getField(record, colMap, "from_line")
		toLine := getField(record, colMap, "to_line")
		distance, _ := strconv.ParseFloat(getField(record, colMap, "distance_meters"), 64)

		fromID, ok := codeToID[stationKey(code, fromLine)]
		if !ok {
			continue
		}
		toID, ok := codeToID[stationKey(code, toLine)]
		if !ok {
			continue
		}
		b.AddTransfer(fromID, fromLine, toLine, distance, toID)
	}
	return nil
}

func loadCongestion(path string, b *network.Builder, codeToID map[string]network.StationID) error {
	r, f, err := openCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	colMap := makeColumnMap(header)

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}

		code := getField(record, colMap, "station_code")
		line := getField(record, colMap, "line")
		dir := subway.ParseDirection(getField(record, colMap, "direction"))
		day := subway.DayClass(getField(record, colMap, "day_class"))
		bucket := getField(record, colMap, "time_bucket")
		ratio, _ := strconv.ParseFloat(getField(record, colMap, "ratio"), 64)

		id, ok := codeToID[stationKey(code, line)]
		if !ok {
			continue
		}
		b.AddCongestion(id, line, dir, day, bucket, ratio)
	}
	return nil
}

func loadLoopLines(path string, b *network.Builder) error {
	r, f, err := openCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	colMap := makeColumnMap(header)

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		b.MarkLoop(getField(record, colMap, "line"))
	}
	return nil
}

func loadFacilities(path string, fac *facility.Service, codeToID map[string]network.StationID) error {
	r, f, err := openCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	colMap := makeColumnMap(header)

	idsByCode := make(map[string][]network.StationID, len(codeToID))
	for key, id := range codeToID {
		code := key[:strings.IndexByte(key, '|')]
		idsByCode[code] = append(idsByCode[code], id)
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}

		code := getField(record, colMap, "station_code")
		counts := facility.Counts{
			Charger:      parseF(getField(record, colMap, "charger")),
			Elevator:     parseF(getField(record, colMap, "elevator")),
			Escalator:    parseF(getField(record, colMap, "escalator")),
			Lift:         parseF(getField(record, colMap, "lift")),
			MovingWalk:   parseF(getField(record, colMap, "moving_walk")),
			SafePlatform: parseF(getField(record, colMap, "safe_platform")),
			SignPhone:    parseF(getField(record, colMap, "sign_phone")),
			Toilet:       parseF(getField(record, colMap, "toilet")),
			Helper:       parseF(getField(record, colMap, "helper")),
		}

		for _, id := range idsByCode[code] {
			fac.Seed(id, counts)
		}
	}
	return nil
}

func parseF(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func stationKey(code, line string) string {
	return code + "|" + line
}
