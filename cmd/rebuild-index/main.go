// Command rebuild-index validates that the current Postgres-backed
// station/station_order/station_transfer/loop_line tables produce a
// consistent in-memory topology, replacing this codebase's original
// graph-rebuild tool. It deliberately skips congestion and facility
// data — those are re-read on every API startup regardless — so an
// operator can re-derive the line topology after an edit without
// re-importing the timetable-derived congestion tables.
package main

import (
	"context"
	"log"
	"time"

	"github.com/passbi/subway-access/internal/db"
	"github.com/passbi/subway-access/internal/staticdata"
)

func main() {
	log.Println("subway-access - index rebuild")

	pool, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	start := time.Now()

	store, err := staticdata.LoadTopologyFromPostgres(ctx, pool)
	if err != nil {
		log.Fatalf("failed to build network topology: %v", err)
	}

	log.Printf("topology built in %v", time.Since(start))
	log.Printf("stations: %d", store.StationCount())
	log.Println("index is ready for the API process to load on next start")
}
