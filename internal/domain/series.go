package domain

import (
	"slices"
	"time"
)

// BuildSeries partitions observed, non-zero records by region. Points keep
// the order in which their records were encountered; call Series.Sorted
// before any date-dependent use.
func BuildSeries(records []ObservationRecord) map[string]Series {
	out := make(map[string]Series)
	for i := range records {
		rec := &records[i]
		if !keepRecord(rec) {
			continue
		}
		s := out[rec.Region]
		s.Region = rec.Region
		s.Points = append(s.Points, DataPoint{
			Date:                 rec.WeekEnding,
			Count:                rec.Count,
			AverageExpectedCount: rec.AverageExpectedCount,
			ExcessEstimate:       rec.ExcessEstimate,
		})
		out[rec.Region] = s
	}
	return out
}

// keepRecord drops predicted rows, empty or zero counts and, when the dataset
// splits outcomes, everything but the all-causes rows.
func keepRecord(rec *ObservationRecord) bool {
	if !rec.Kind.Observed() {
		return false
	}
	if rec.Count <= 0 {
		return false
	}
	return rec.Outcome == "" || rec.Outcome == AllCausesOutcome
}

// Sorted returns a copy of the series ordered by date. When two points share
// a date the first one encountered is kept.
func (s Series) Sorted() Series {
	points := slices.Clone(s.Points)
	slices.SortStableFunc(points, func(a, b DataPoint) int {
		return a.Date.Compare(b.Date)
	})
	points = slices.CompactFunc(points, func(a, b DataPoint) bool {
		return a.Date.Equal(b.Date)
	})
	return Series{Region: s.Region, Points: points}
}

// MaxCount returns the largest weekly count, or 0 for an empty series.
func (s Series) MaxCount() int {
	m := 0
	for _, p := range s.Points {
		m = max(m, p.Count)
	}
	return m
}

// DateRange returns the earliest and latest dates. ok is false for an empty series.
func (s Series) DateRange() (minDate, maxDate time.Time, ok bool) {
	if len(s.Points) == 0 {
		return time.Time{}, time.Time{}, false
	}
	minDate, maxDate = s.Points[0].Date, s.Points[0].Date
	for _, p := range s.Points[1:] {
		if p.Date.Before(minDate) {
			minDate = p.Date
		}
		if p.Date.After(maxDate) {
			maxDate = p.Date
		}
	}
	return minDate, maxDate, true
}
