// Command genmock writes a deterministic synthetic dataset in the shape of the
// CDC weekly mortality export, plus a matching census file. Point SOURCE_URL
// and CENSUS_PATH at the output to run the pipeline offline.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -dataset data/mock/observed-deaths.csv \
//	  -census data/mock/census.csv \
//	  -end 2024-06-01
package main

import (
	"flag"
	"fmt"
	"log"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/couchcryptid/observed-deaths-etl/internal/domain"
	"github.com/couchcryptid/observed-deaths-etl/internal/mockdata"
	"github.com/couchcryptid/observed-deaths-etl/internal/source"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	datasetOut := flag.String("dataset", "", "output path for the synthetic dataset CSV")
	censusOut := flag.String("census", "", "output path for the census CSV")
	end := flag.String("end", time.Now().UTC().Format(domain.DateLayout), "last week-ending date (rounded back to a Saturday)")
	weeks := flag.Int("weeks", 0, "number of weeks to generate (0 keeps the default)")
	lag := flag.Int("lag", -1, "number of under-reported final weeks (-1 keeps the default)")
	flag.Parse()

	if *datasetOut == "" || *censusOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -dataset, -census")
	}

	endDate, err := domain.ParseDate(*end)
	if err != nil {
		return fmt.Errorf("invalid -end: %w", err)
	}
	cfg := mockdata.DefaultConfig(endDate)
	if *weeks > 0 {
		last := cfg.From.AddDate(0, 0, 7*(cfg.Weeks-1))
		cfg.Weeks = *weeks
		cfg.From = last.AddDate(0, 0, -7*(*weeks-1))
	}
	if *lag >= 0 {
		cfg.LagWeeks = *lag
	}

	dataset, err := mockdata.Dataset(cfg)
	if err != nil {
		return fmt.Errorf("generate dataset: %w", err)
	}
	if err := writeFile(*datasetOut, dataset); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}
	log.Printf("wrote dataset: %s (%d regions, %d weeks from %s)",
		*datasetOut, len(cfg.Regions), cfg.Weeks, cfg.From.Format(domain.DateLayout))

	census, err := mockdata.Census(cfg)
	if err != nil {
		return fmt.Errorf("generate census: %w", err)
	}
	if err := writeFile(*censusOut, census); err != nil {
		return fmt.Errorf("writing census: %w", err)
	}
	log.Printf("wrote census: %s", *censusOut)

	return printStats(dataset)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// printStats decodes the generated dataset the way the pipeline does and
// reports what survives filtering and lag trimming.
func printStats(dataset []byte) error {
	records, err := source.DecodeObservations(dataset)
	if err != nil {
		return fmt.Errorf("decode generated dataset: %w", err)
	}
	regions := domain.BuildSeries(records)
	fmt.Printf("\n%-16s %6s %8s %8s\n", "region", "weeks", "trimmed", "peak")
	for _, name := range slices.Sorted(maps.Keys(regions)) {
		s := regions[name].Sorted()
		kept := domain.TrimReportingLag(s.Points, domain.DefaultTrimWindow)
		peak, _ := domain.PeakWeek(kept)
		fmt.Printf("%-16s %6d %8d %8d\n", name, len(s.Points), len(s.Points)-len(kept), peak.Count)
	}
	fmt.Printf("\nrows: %d\n", len(records))
	return nil
}
