package staticdata

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/passbi/subway-access/internal/facility"
	"github.com/passbi/subway-access/internal/network"
	"github.com/passbi/subway-access/internal/subway"
)

// LoadFromPostgres builds a Store and facility.Service from the
// station/station_order/station_transfer/loop_line/station_congestion/
// station_facility_count tables, mirroring internal/db/connection.go's
// pgxpool usage.
func LoadFromPostgres(ctx context.Context, pool *pgxpool.Pool, sigmoidK float64) (*Loaded, error) {
	builder := network.NewBuilder()
	fac := facility.NewServiceWithK(sigmoidK)
	codeToID := make(map[string]network.StationID)

	if err := loadTopology(ctx, pool, builder, codeToID); err != nil {
		return nil, err
	}
	if err := pgLoadCongestion(ctx, pool, builder, codeToID); err != nil {
		return nil, fmt.Errorf("load congestion: %w", err)
	}
	if err := pgLoadFacilities(ctx, pool, fac, codeToID); err != nil {
		return nil, fmt.Errorf("load facilities: %w", err)
	}

	return &Loaded{Store: builder.Build(), Facility: fac}, nil
}

// LoadTopologyFromPostgres rebuilds only the per-line ordered adjacency
// and transfer index from the station/station_order/station_transfer/
// loop_line tables, leaving congestion and facility data untouched.
// cmd/rebuild-index uses this after a station or line topology edit,
// without re-importing the timetable-derived congestion tables.
func LoadTopologyFromPostgres(ctx context.Context, pool *pgxpool.Pool) (*network.Store, error) {
	builder := network.NewBuilder()
	codeToID := make(map[string]network.StationID)

	if err := loadTopology(ctx, pool, builder, codeToID); err != nil {
		return nil, err
	}

	return builder.Build(), nil
}

func loadTopology(ctx context.Context, pool *pgxpool.Pool, builder *network.Builder, codeToID map[string]network.StationID) error {
	if err := pgLoadStations(ctx, pool, builder, codeToID); err != nil {
		return fmt.Errorf("load stations: %w", err)
	}
	if err := pgLoadOrder(ctx, pool, builder, codeToID); err != nil {
		return fmt.Errorf("load station order: %w", err)
	}
	if err := pgLoadTransfers(ctx, pool, builder, codeToID); err != nil {
		return fmt.Errorf("load transfers: %w", err)
	}
	if err := pgLoadLoopLines(ctx, pool, builder); err != nil {
		return fmt.Errorf("load loop lines: %w", err)
	}
	return nil
}

func pgLoadStations(ctx context.Context, pool *pgxpool.Pool, b *network.Builder, codeToID map[string]network.StationID) error {
	rows, err := pool.Query(ctx, `SELECT station_code, name, line, lat, lon FROM station`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var code, name, line string
		var lat, lon float64
		if err := rows.Scan(&code, &name, &line, &lat, &lon); err != nil {
			return err
		}
		id := b.AddStation(code, name, line, lat, lon)
		codeToID[stationKey(code, line)] = id
	}
	return rows.Err()
}

func pgLoadOrder(ctx context.Context, pool *pgxpool.Pool, b *network.Builder, codeToID map[string]network.StationID) error {
	rows, err := pool.Query(ctx, `SELECT station_code, line, station_order FROM station_order`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var code, line string
		var order int
		if err := rows.Scan(&code, &line, &order); err != nil {
			return err
		}
		if id, ok := codeToID[stationKey(code, line)]; ok {
			b.SetOrder(id, line, order)
		}
	}
	return rows.Err()
}

func pgLoadTransfers(ctx context.Context, pool *pgxpool.Pool, b *network.Builder, codeToID map[string]network.StationID) error {
	rows, err := pool.Query(ctx, `SELECT station_code, from_line, to_line, distance_meters FROM station_transfer`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var code, fromLine, toLine string
		var distance float64
		if err := rows.Scan(&code, &fromLine, &toLine, &distance); err != nil {
			return err
		}
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
	return rows.Err()
}

func pgLoadCongestion(ctx context.Context, pool *pgxpool.Pool, b *network.Builder, codeToID map[string]network.StationID) error {
	rows, err := pool.Query(ctx, `SELECT station_code, line, direction, day_class, time_bucket, ratio FROM station_congestion`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var code, line, dirStr, dayStr, bucket string
		var ratio float64
		if err := rows.Scan(&code, &line, &dirStr, &dayStr, &bucket, &ratio); err != nil {
			return err
		}
		id, ok := codeToID[stationKey(code, line)]
		if !ok {
			continue
		}
		b.AddCongestion(id, line, subway.ParseDirection(dirStr), subway.DayClass(dayStr), bucket, ratio)
	}
	return rows.Err()
}

func pgLoadLoopLines(ctx context.Context, pool *pgxpool.Pool, b *network.Builder) error {
	rows, err := pool.Query(ctx, `SELECT line FROM loop_line`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return err
		}
		b.MarkLoop(line)
	}
	return rows.Err()
}

func pgLoadFacilities(ctx context.Context, pool *pgxpool.Pool, fac *facility.Service, codeToID map[string]network.StationID) error {
	rows, err := pool.Query(ctx, `
		SELECT station_code, charger, elevator, escalator, lift, moving_walk,
		       safe_platform, sign_phone, toilet, helper
		FROM station_facility_count
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	idsByCode := make(map[string][]network.StationID, len(codeToID))
	for key, id := range codeToID {
		code := key[:indexOfPipe(key)]
		idsByCode[code] = append(idsByCode[code], id)
	}

	for rows.Next() {
		var code string
		var c facility.Counts
		if err := rows.Scan(&code, &c.Charger, &c.Elevator, &c.Escalator, &c.Lift,
			&c.MovingWalk, &c.SafePlatform, &c.SignPhone, &c.Toilet, &c.Helper); err != nil {
			return err
		}
		for _, id := range idsByCode[code] {
			fac.Seed(id, c)
		}
	}
	return rows.Err()
}

func indexOfPipe(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '|' {
			return i
		}
	}
	return len(s)
}
