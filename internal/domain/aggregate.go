package domain

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"
)

// PerCapitaUnit is the population size rates are expressed against.
const PerCapitaUnit = 100000

// DefaultExcludedRegion is the national aggregate reported alongside, not within, rank lists.
const DefaultExcludedRegion = "United States"

// DefaultExcessSince is the first date counted towards cumulative excess deaths.
var DefaultExcessSince = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	// ErrMissingAliasRegion means a region named by an alias rule is absent,
	// which indicates the upstream dataset changed shape.
	ErrMissingAliasRegion = errors.New("alias region missing from dataset")

	// ErrNoCommonDate means no fully reported week is shared by every census region.
	ErrNoCommonDate = errors.New("no fully reported week shared by all regions")
)

// AliasRule merges regions the source reports separately into one synthetic
// region, e.g. New York City into New York state.
type AliasRule struct {
	Target  string   `yaml:"target"`
	Members []string `yaml:"members"`
}

// DefaultAliases returns the alias rules for the CDC dataset.
func DefaultAliases() []AliasRule {
	return []AliasRule{{Target: "New York", Members: []string{"New York", "New York City"}}}
}

// AggregatorOptions configures an Aggregator. The values are copied at construction.
type AggregatorOptions struct {
	Aliases         []AliasRule
	Census          Census
	Excluded        string
	IncompleteAfter time.Duration
	ExcessSince     time.Time
	Clock           clockwork.Clock
}

// Aggregator computes cross-region statistics. It never mutates its inputs.
type Aggregator struct {
	aliases         []AliasRule
	census          Census
	excluded        string
	incompleteAfter time.Duration
	excessSince     time.Time
	clock           clockwork.Clock
}

// NewAggregator creates an Aggregator, filling unset options with defaults.
func NewAggregator(opts AggregatorOptions) *Aggregator {
	a := &Aggregator{
		census:          maps.Clone(opts.Census),
		excluded:        opts.Excluded,
		incompleteAfter: opts.IncompleteAfter,
		excessSince:     opts.ExcessSince,
		clock:           opts.Clock,
	}
	for _, r := range opts.Aliases {
		a.aliases = append(a.aliases, AliasRule{Target: r.Target, Members: slices.Clone(r.Members)})
	}
	if a.census == nil {
		a.census = Census{}
	}
	if a.incompleteAfter <= 0 {
		a.incompleteAfter = DefaultIncompleteAfter
	}
	if a.excessSince.IsZero() {
		a.excessSince = DefaultExcessSince
	}
	if a.clock == nil {
		a.clock = clockwork.NewRealClock()
	}
	return a
}

// Census returns the population table the aggregator was built with.
func (a *Aggregator) Census() Census {
	return a.census
}

// Cutoff returns the latest fully reported date as of now.
func (a *Aggregator) Cutoff() time.Time {
	return ReportingCutoff(a.clock, a.incompleteAfter)
}

// MergeAliasedRegions sums each alias rule's member regions date by date into
// its target region. Only dates reported by every member are kept, so the
// merged series never contains partial totals.
func (a *Aggregator) MergeAliasedRegions(regions map[string]Series) (map[string]Series, error) {
	merged := maps.Clone(regions)
	for _, rule := range a.aliases {
		parts := make([]Series, 0, len(rule.Members))
		for _, m := range rule.Members {
			s, ok := merged[m]
			if !ok {
				return nil, fmt.Errorf("merge %s: %w: %q", rule.Target, ErrMissingAliasRegion, m)
			}
			parts = append(parts, s)
		}
		for _, m := range rule.Members {
			delete(merged, m)
		}
		merged[rule.Target] = sumSeries(rule.Target, parts)
	}
	return merged, nil
}

func sumSeries(region string, parts []Series) Series {
	type sum struct {
		point DataPoint
		seen  int
	}
	byDate := make(map[int64]*sum)
	for _, s := range parts {
		for _, p := range s.Sorted().Points {
			key := p.Date.Unix()
			acc, ok := byDate[key]
			if !ok {
				acc = &sum{point: DataPoint{Date: p.Date}}
				byDate[key] = acc
			}
			acc.point.Count += p.Count
			acc.point.AverageExpectedCount += p.AverageExpectedCount
			acc.point.ExcessEstimate += p.ExcessEstimate
			acc.seen++
		}
	}
	points := make([]DataPoint, 0, len(byDate))
	for _, acc := range byDate {
		if acc.seen == len(parts) {
			points = append(points, acc.point)
		}
	}
	slices.SortFunc(points, func(x, y DataPoint) int { return x.Date.Compare(y.Date) })
	return Series{Region: region, Points: points}
}

// LastGoodDate returns the latest date, no later than the reporting cutoff,
// for which every region with a census entry has a data point.
func (a *Aggregator) LastGoodDate(regions map[string]Series) (time.Time, error) {
	cutoff := a.Cutoff()
	var common map[int64]time.Time
	for region, s := range regions {
		if _, ok := a.census.Population(region); !ok {
			continue
		}
		dates := make(map[int64]time.Time, len(s.Points))
		for _, p := range s.Points {
			if !p.Date.After(cutoff) {
				dates[p.Date.Unix()] = p.Date
			}
		}
		if common == nil {
			common = dates
			continue
		}
		for k := range common {
			if _, ok := dates[k]; !ok {
				delete(common, k)
			}
		}
	}
	var last time.Time
	for _, d := range common {
		if d.After(last) {
			last = d
		}
	}
	if last.IsZero() {
		return time.Time{}, ErrNoCommonDate
	}
	return last, nil
}

// PerCapita converts a count to deaths per PerCapitaUnit people.
func PerCapita(count, population int) float64 {
	return float64(count) / float64(population) * PerCapitaUnit
}

// RankEntry is one row of a Ranking.
type RankEntry struct {
	Region     string  `json:"region"`
	Value      float64 `json:"value"`
	Count      int     `json:"count"`
	Population int     `json:"population,omitempty"`
}

// Ranking is a table sorted by descending value. The excluded aggregate
// region is held in Total rather than Entries.
type Ranking struct {
	Date    time.Time   `json:"date,omitzero"`
	Total   *RankEntry  `json:"total,omitempty"`
	Entries []RankEntry `json:"entries"`
}

func (a *Aggregator) rank(entries []RankEntry, date time.Time) Ranking {
	r := Ranking{Date: date, Entries: make([]RankEntry, 0, len(entries))}
	for _, e := range entries {
		if a.excluded != "" && e.Region == a.excluded {
			total := e
			r.Total = &total
			continue
		}
		r.Entries = append(r.Entries, e)
	}
	slices.SortFunc(r.Entries, func(x, y RankEntry) int {
		if c := cmp.Compare(y.Value, x.Value); c != 0 {
			return c
		}
		return cmp.Compare(x.Region, y.Region)
	})
	return r
}

// PerCapitaSnapshot ranks census regions by their weekly death rate on the
// last good date. Regions without a census entry are left out.
func (a *Aggregator) PerCapitaSnapshot(regions map[string]Series) (Ranking, error) {
	date, err := a.LastGoodDate(regions)
	if err != nil {
		return Ranking{}, fmt.Errorf("per-capita snapshot: %w", err)
	}
	entries := make([]RankEntry, 0, len(regions))
	for region, s := range regions {
		pop, ok := a.census.Population(region)
		if !ok {
			continue
		}
		p, ok := pointAt(s, date)
		if !ok {
			continue
		}
		entries = append(entries, RankEntry{
			Region:     region,
			Value:      PerCapita(p.Count, pop),
			Count:      p.Count,
			Population: pop,
		})
	}
	return a.rank(entries, date), nil
}

func pointAt(s Series, date time.Time) (DataPoint, bool) {
	for _, p := range s.Points {
		if p.Date.Equal(date) {
			return p, true
		}
	}
	return DataPoint{}, false
}

// CumulativeExcess sums the published excess estimate over points dated on
// or after the aggregator's excess start date.
func (a *Aggregator) CumulativeExcess(points []DataPoint) int {
	total := 0
	for _, p := range points {
		if !p.Date.Before(a.excessSince) {
			total += p.ExcessEstimate
		}
	}
	return total
}

// ExcessDeaths ranks every region by cumulative excess deaths.
func (a *Aggregator) ExcessDeaths(regions map[string]Series) Ranking {
	entries := make([]RankEntry, 0, len(regions))
	for region, s := range regions {
		excess := a.CumulativeExcess(s.Points)
		pop, _ := a.census.Population(region)
		entries = append(entries, RankEntry{Region: region, Value: float64(excess), Count: excess, Population: pop})
	}
	return a.rank(entries, a.excessSince)
}

// CumulativeExcessPerCapita ranks census regions by cumulative excess deaths
// per PerCapitaUnit people.
func (a *Aggregator) CumulativeExcessPerCapita(regions map[string]Series) Ranking {
	entries := make([]RankEntry, 0, len(regions))
	for region, s := range regions {
		pop, ok := a.census.Population(region)
		if !ok {
			continue
		}
		excess := a.CumulativeExcess(s.Points)
		entries = append(entries, RankEntry{Region: region, Value: PerCapita(excess, pop), Count: excess, Population: pop})
	}
	return a.rank(entries, a.excessSince)
}
