package domain

import (
	"strings"
	"time"
)

// RowKind is the value of the dataset's "Type" column, e.g. "Unweighted" or
// "Predicted (weighted)".
type RowKind string

// Observed reports whether the row carries directly observed counts. Rows
// whose kind begins with "Predicted" are model output and are discarded.
func (k RowKind) Observed() bool {
	return !strings.HasPrefix(string(k), "Predicted")
}

// AllCausesOutcome is the only "Outcome" value kept when the column is present.
const AllCausesOutcome = "All causes"

// ObservationRecord is one decoded row of the weekly mortality dataset.
type ObservationRecord struct {
	Region               string
	Kind                 RowKind
	Outcome              string
	Count                int
	WeekEnding           time.Time
	AverageExpectedCount int
	ExcessEstimate       int
}

// DataPoint is a single week of observed deaths for one region.
type DataPoint struct {
	Date                 time.Time `json:"date"`
	Count                int       `json:"count"`
	AverageExpectedCount int       `json:"average_expected_count,omitempty"`
	ExcessEstimate       int       `json:"excess_estimate,omitempty"`
}

// Series is the weekly history of one region.
type Series struct {
	Region string
	Points []DataPoint
}

// CensusEntry is the population of one region.
type CensusEntry struct {
	Region     string
	Population int
}

// Census maps region name to population. It is built once per run and only read afterwards.
type Census map[string]int

// NewCensus indexes census entries by region. Later duplicates replace earlier ones.
func NewCensus(entries []CensusEntry) Census {
	c := make(Census, len(entries))
	for _, e := range entries {
		c[e.Region] = e.Population
	}
	return c
}

// Population returns the population of region and whether it is known.
func (c Census) Population(region string) (int, bool) {
	p, ok := c[region]
	return p, ok && p > 0
}
