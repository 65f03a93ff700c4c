// Package mockdata generates deterministic datasets shaped like the CDC weekly
// mortality export, together with a matching census file. The fixtures drive
// the pipeline tests and the genmock command.
package mockdata

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/couchcryptid/observed-deaths-etl/internal/domain"
)

// Region describes one synthetic region.
type Region struct {
	Name string
	// Population is written to the census file; zero leaves the region out.
	Population int
	// Base is the expected weekly count around which the series oscillates.
	Base int
	// Weeks limits the region to its first n weeks; zero reports every week.
	Weeks int
}

// Config controls the generated dataset.
type Config struct {
	Regions []Region
	// From is the first week-ending date; later weeks follow every 7 days.
	From  time.Time
	Weeks int
	// Seasonality is the relative amplitude of the yearly winter peak.
	Seasonality float64
	// Surge is the relative excess applied to weeks from SurgeFrom on.
	Surge     float64
	SurgeFrom time.Time
	// LagWeeks is how many final weeks are under-reported.
	LagWeeks int
}

// DefaultConfig returns about three years of data ending on or before end.
func DefaultConfig(end time.Time) Config {
	weeks := 156
	last := end.UTC().Truncate(24 * time.Hour)
	for last.Weekday() != time.Saturday {
		last = last.AddDate(0, 0, -1)
	}
	return Config{
		Regions: []Region{
			{Name: "United States", Population: 331449281, Base: 55000},
			{Name: "California", Population: 39538223, Base: 5200},
			{Name: "New York", Population: 20201249, Base: 1900},
			{Name: "New York City", Base: 1100},
			{Name: "Ohio", Population: 11799448, Base: 2300},
			{Name: "Utah", Population: 3271616, Base: 340},
			{Name: "Puerto Rico", Population: 3285874, Base: 590},
		},
		From:        last.AddDate(0, 0, -7*(weeks-1)),
		Weeks:       weeks,
		Seasonality: 0.12,
		Surge:       0.2,
		SurgeFrom:   domain.DefaultExcessSince,
		LagWeeks:    2,
	}
}

// Columns of the generated dataset, in order.
var datasetHeader = []string{
	"Week Ending Date", "State", "Observed Number", "Average Expected Count",
	"Excess Estimate", "Year", "Type", "Outcome", "Suppress",
}

var (
	rowKinds = []string{"Predicted (weighted)", "Unweighted"}
	outcomes = []string{domain.AllCausesOutcome, "All causes, excluding COVID-19"}
)

// Dataset renders cfg as CSV. The header carries a byte-order mark the way
// the published export does.
func Dataset(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\uFEFF")
	w := csv.NewWriter(&buf)
	if err := w.Write(datasetHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, r := range cfg.Regions {
		weeks := cfg.Weeks
		if r.Weeks > 0 && r.Weeks < weeks {
			weeks = r.Weeks
		}
		for i := range weeks {
			date := cfg.From.AddDate(0, 0, 7*i)
			observed := Observed(cfg, r, i)
			for _, kind := range rowKinds {
				for k, outcome := range outcomes {
					count := observed
					if k > 0 {
						count = observed * 9 / 10
					}
					row := []string{
						date.Format(domain.DateLayout),
						r.Name,
						strconv.Itoa(count),
						strconv.Itoa(r.Base),
						strconv.Itoa(max(count-r.Base, 0)),
						strconv.Itoa(date.Year()),
						kind,
						outcome,
						"",
					}
					if err := w.Write(row); err != nil {
						return nil, fmt.Errorf("write row: %w", err)
					}
				}
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Observed returns the all-causes count of region r in week i.
func Observed(cfg Config, r Region, i int) int {
	date := cfg.From.AddDate(0, 0, 7*i)
	season := math.Cos(2 * math.Pi * float64(date.YearDay()-15) / 365.25)
	v := float64(r.Base) * (1 + cfg.Seasonality*season)
	if !cfg.SurgeFrom.IsZero() && !date.Before(cfg.SurgeFrom) {
		v *= 1 + cfg.Surge
	}
	last := cfg.Weeks
	if r.Weeks > 0 && r.Weeks < last {
		last = r.Weeks
	}
	if lag := i - (last - cfg.LagWeeks); lag >= 0 {
		v *= 0.6 - 0.5*float64(lag)/float64(cfg.LagWeeks)
	}
	return int(math.Round(v))
}

// Census renders the census file for every region with a population.
func Census(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Region", "Population"}); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, r := range cfg.Regions {
		if r.Population <= 0 {
			continue
		}
		if err := w.Write([]string{r.Name, strconv.Itoa(r.Population)}); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
