// Package report turns aggregate results into CSV files and a spreadsheet.
package report

import (
	"strconv"
	"time"

	"github.com/couchcryptid/observed-deaths-etl/internal/domain"
)

// Table is a named grid. Cells hold string, int, float64 or time.Time values.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

// FileName returns the CSV file name of the table.
func (t Table) FileName() string {
	return t.Name + ".csv"
}

// Table names, also used as CSV file names and sheet names.
const (
	RateMatrixName        = "DeathsPer100000"
	RateTriplesName       = "DeathsPer100000-triples"
	ExcessName            = "ExcessDeaths"
	ExcessPerCapitaName   = "ExcessDeathsCumulativePer100000"
	PerCapitaSnapshotName = "PerCapitaSnapshot"
	DeathsByYearName      = "DeathsByYear"
)

// RateMatrixTable lays out weekly rates with one column per region.
func RateMatrixTable(m domain.RateMatrix) Table {
	t := Table{Name: RateMatrixName, Header: append([]string{"Week"}, m.Regions...)}
	for i, week := range m.Weeks {
		row := make([]any, 0, len(m.Regions)+1)
		row = append(row, week)
		for _, rate := range m.Rates[i] {
			row = append(row, rate)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// RateTriplesTable lists one rate per row.
func RateTriplesTable(triples []domain.RateTriple) Table {
	t := Table{Name: RateTriplesName, Header: []string{"Region", "Week", "Ratio"}}
	for _, tr := range triples {
		t.Rows = append(t.Rows, []any{tr.Region, tr.Week, tr.Rate})
	}
	return t
}

// ExcessTable lists cumulative excess deaths by region.
func ExcessTable(r domain.Ranking) Table {
	t := Table{Name: ExcessName, Header: []string{"Region", "Count"}}
	for _, e := range r.Entries {
		t.Rows = append(t.Rows, []any{e.Region, e.Count})
	}
	return t
}

// ExcessPerCapitaTable lists cumulative excess deaths per 100,000 by region.
func ExcessPerCapitaTable(r domain.Ranking) Table {
	t := Table{Name: ExcessPerCapitaName, Header: []string{"Region", "Rate"}}
	for _, e := range r.Entries {
		t.Rows = append(t.Rows, []any{e.Region, e.Value})
	}
	return t
}

// PerCapitaSnapshotTable ranks regions by weekly rate on the snapshot date.
func PerCapitaSnapshotTable(r domain.Ranking) Table {
	t := Table{Name: PerCapitaSnapshotName, Header: []string{"Rank", "Region", "Week", "Rate", "Deaths", "Population"}}
	for i, e := range r.Entries {
		t.Rows = append(t.Rows, []any{i + 1, e.Region, r.Date, e.Value, e.Count, e.Population})
	}
	return t
}

// DeathsByYearTable has one row per region and one column per year.
func DeathsByYearTable(y domain.YearTable) Table {
	t := Table{Name: DeathsByYearName, Header: []string{"Region"}}
	for _, year := range y.Years {
		t.Header = append(t.Header, strconv.Itoa(year))
	}
	for _, region := range y.Regions {
		row := []any{region}
		for _, n := range y.Totals[region] {
			row = append(row, n)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func formatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case time.Time:
		return x.Format(domain.DateLayout)
	default:
		return ""
	}
}
