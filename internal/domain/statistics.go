package domain

import (
	"maps"
	"slices"
	"time"
)

// RegionStatistics summarises one region's cleaned series.
type RegionStatistics struct {
	Region                    string          `json:"region"`
	From                      time.Time       `json:"from"`
	To                        time.Time       `json:"to"`
	Weeks                     int             `json:"weeks"`
	DeathsByYear              map[int]int     `json:"deaths_by_year"`
	YearOverYear              map[int]float64 `json:"year_over_year_pct,omitempty"`
	PeakWeek                  DataPoint       `json:"peak_week"`
	LatestGood                *DataPoint      `json:"latest_good,omitempty"`
	LatestRate                *float64        `json:"latest_rate_per_100k,omitempty"`
	CumulativeExcess          int             `json:"cumulative_excess"`
	CumulativeExcessPerCapita *float64        `json:"cumulative_excess_per_100k,omitempty"`
}

// DeathsByYear totals weekly counts per calendar year of the week-ending date.
func DeathsByYear(points []DataPoint) map[int]int {
	out := make(map[int]int)
	for _, p := range points {
		out[p.Date.Year()] += p.Count
	}
	return out
}

// YearOverYear returns the percentage change of each year's total against the
// previous year. Years without a positive previous total are omitted.
func YearOverYear(byYear map[int]int) map[int]float64 {
	out := make(map[int]float64)
	for year, total := range byYear {
		prev, ok := byYear[year-1]
		if !ok || prev <= 0 {
			continue
		}
		out[year] = float64(total-prev) / float64(prev) * 100
	}
	return out
}

// PeakWeek returns the point with the highest count; the earliest wins a tie.
func PeakWeek(points []DataPoint) (DataPoint, bool) {
	if len(points) == 0 {
		return DataPoint{}, false
	}
	peak := points[0]
	for _, p := range points[1:] {
		if p.Count > peak.Count || (p.Count == peak.Count && p.Date.Before(peak.Date)) {
			peak = p
		}
	}
	return peak, true
}

// Statistics computes the summary of one sorted series. The latest good week
// is the last point no later than the reporting cutoff. Counts come from s;
// the per-capita fields are only set for census regions and, for an alias
// target, come from its series in merged so they agree with the per-capita
// rankings. Alias members folded into another region get no rates.
func (a *Aggregator) Statistics(s Series, merged map[string]Series) RegionStatistics {
	st := RegionStatistics{
		Region:           s.Region,
		Weeks:            len(s.Points),
		DeathsByYear:     DeathsByYear(s.Points),
		CumulativeExcess: a.CumulativeExcess(s.Points),
	}
	st.YearOverYear = YearOverYear(st.DeathsByYear)
	st.From, st.To, _ = s.DateRange()
	st.PeakWeek, _ = PeakWeek(s.Points)

	cutoff := a.Cutoff()
	st.LatestGood = latestGood(s.Points, cutoff)

	pop, ok := a.census.Population(s.Region)
	if !ok {
		return st
	}
	rates, ok := a.rateSeries(s, merged)
	if !ok {
		return st
	}
	if p := latestGood(rates.Points, cutoff); p != nil {
		rate := PerCapita(p.Count, pop)
		st.LatestRate = &rate
	}
	excess := PerCapita(a.CumulativeExcess(rates.Points), pop)
	st.CumulativeExcessPerCapita = &excess
	return st
}

// rateSeries picks the series per-capita figures are computed from.
func (a *Aggregator) rateSeries(s Series, merged map[string]Series) (Series, bool) {
	for _, rule := range a.aliases {
		if rule.Target == s.Region {
			m, ok := merged[rule.Target]
			return m, ok
		}
		if slices.Contains(rule.Members, s.Region) {
			return Series{}, false
		}
	}
	return s, true
}

func latestGood(points []DataPoint, cutoff time.Time) *DataPoint {
	for i := len(points) - 1; i >= 0; i-- {
		if !points[i].Date.After(cutoff) {
			p := points[i]
			return &p
		}
	}
	return nil
}

// RateMatrix is a wide table of weekly deaths per PerCapitaUnit people: one
// column per census region, one row per week.
type RateMatrix struct {
	Regions []string
	Weeks   []time.Time
	// Rates[i][j] is the rate of Regions[j] in Weeks[i]; missing cells are 0.
	Rates [][]float64
}

// RateMatrix builds the weekly per-capita matrix for census regions, from the
// excess start date onwards. Regions and weeks are sorted ascending.
func (a *Aggregator) RateMatrix(regions map[string]Series) RateMatrix {
	var m RateMatrix
	weekSet := make(map[int64]time.Time)
	for region, s := range regions {
		if _, ok := a.census.Population(region); !ok {
			continue
		}
		m.Regions = append(m.Regions, region)
		for _, p := range s.Points {
			if !p.Date.Before(a.excessSince) {
				weekSet[p.Date.Unix()] = p.Date
			}
		}
	}
	slices.Sort(m.Regions)
	m.Weeks = slices.SortedFunc(maps.Values(weekSet), func(x, y time.Time) int { return x.Compare(y) })

	row := make(map[int64]int, len(m.Weeks))
	for i, w := range m.Weeks {
		row[w.Unix()] = i
	}
	m.Rates = make([][]float64, len(m.Weeks))
	for i := range m.Rates {
		m.Rates[i] = make([]float64, len(m.Regions))
	}
	for j, region := range m.Regions {
		pop, _ := a.census.Population(region)
		for _, p := range regions[region].Points {
			if i, ok := row[p.Date.Unix()]; ok {
				m.Rates[i][j] = PerCapita(p.Count, pop)
			}
		}
	}
	return m
}

// RateTriple is one cell of the rate matrix in long form.
type RateTriple struct {
	Region string
	Week   time.Time
	Rate   float64
}

// RateTriples flattens the rate matrix, skipping cells with no data.
func (a *Aggregator) RateTriples(regions map[string]Series) []RateTriple {
	m := a.RateMatrix(regions)
	var out []RateTriple
	for j, region := range m.Regions {
		for i, week := range m.Weeks {
			if m.Rates[i][j] == 0 {
				continue
			}
			out = append(out, RateTriple{Region: region, Week: week, Rate: m.Rates[i][j]})
		}
	}
	return out
}

// YearTable is the deaths-by-year table across regions.
type YearTable struct {
	Years   []int
	Regions []string
	// Totals[region][k] is the total for Years[k].
	Totals map[string][]int
}

// DeathsByYearTable tabulates yearly totals for every region, sorted by name.
func (a *Aggregator) DeathsByYearTable(regions map[string]Series) YearTable {
	t := YearTable{Totals: make(map[string][]int, len(regions))}
	perRegion := make(map[string]map[int]int, len(regions))
	years := make(map[int]struct{})
	for region, s := range regions {
		byYear := DeathsByYear(s.Points)
		perRegion[region] = byYear
		for y := range byYear {
			years[y] = struct{}{}
		}
		t.Regions = append(t.Regions, region)
	}
	slices.Sort(t.Regions)
	t.Years = slices.Sorted(maps.Keys(years))
	for region, byYear := range perRegion {
		row := make([]int, len(t.Years))
		for k, y := range t.Years {
			row[k] = byYear[y]
		}
		t.Totals[region] = row
	}
	return t
}
