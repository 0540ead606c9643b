// Command importer validates a directory of persisted-input CSV files
// (spec.md §6) by loading them into a network.Store and
// facility.Service and reporting the resulting counts, the way this
// codebase's original GTFS importer validated a feed before letting
// the API serve it.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/passbi/subway-access/internal/config"
	"github.com/passbi/subway-access/internal/staticdata"
)

func main() {
	dataDir := flag.String("data-dir", "", "path to a directory of stations.csv/station_order.csv/transfers.csv/congestion.csv/facilities.csv/loop_lines.csv (required)")
	flag.Parse()

	if *dataDir == "" {
		fmt.Println("Usage: importer --data-dir=<path>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if info, err := os.Stat(*dataDir); err != nil || !info.IsDir() {
		log.Fatalf("data directory not found: %s", *dataDir)
	}

	cfg := config.Load()

	log.Println("loading static network data...")
	loaded, err := staticdata.LoadFromCSV(*dataDir, cfg.SigmoidK)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	log.Printf("import succeeded: %d station records loaded from %s", loaded.Store.StationCount(), *dataDir)
	log.Printf("sigmoid k = %.2f", cfg.SigmoidK)
}
