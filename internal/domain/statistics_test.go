package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatistics(t *testing.T) {
	a := newTestAggregator(Census{"Ohio": 1_000_000})
	s := series("Ohio",
		DataPoint{Date: day(2022, 12, 31), Count: 100},
		DataPoint{Date: day(2023, 1, 7), Count: 300, ExcessEstimate: 20},
		DataPoint{Date: day(2023, 1, 14), Count: 300, ExcessEstimate: 10},
		DataPoint{Date: day(2024, 4, 20), Count: 40},
		DataPoint{Date: day(2024, 4, 27), Count: 10},
	)

	st := a.Statistics(s, nil)

	assert.Equal(t, "Ohio", st.Region)
	assert.Equal(t, 5, st.Weeks)
	assert.Equal(t, map[int]int{2022: 100, 2023: 600, 2024: 50}, st.DeathsByYear)
	assert.InDelta(t, 500.0, st.YearOverYear[2023], 1e-9)
	assert.InDelta(t, -91.6667, st.YearOverYear[2024], 1e-4)
	assert.NotContains(t, st.YearOverYear, 2022)
	assert.Equal(t, day(2023, 1, 7), st.PeakWeek.Date, "earliest peak wins")
	require.NotNil(t, st.LatestGood)
	assert.Equal(t, day(2024, 4, 20), st.LatestGood.Date)
	require.NotNil(t, st.LatestRate)
	assert.InDelta(t, 4.0, *st.LatestRate, 1e-9)
	assert.Equal(t, 30, st.CumulativeExcess)
	require.NotNil(t, st.CumulativeExcessPerCapita)
	assert.InDelta(t, 3.0, *st.CumulativeExcessPerCapita, 1e-9)
}

func TestStatistics_NoCensus(t *testing.T) {
	a := newTestAggregator(nil)
	st := a.Statistics(series("Guam", DataPoint{Date: day(2021, 1, 2), Count: 5}), nil)

	assert.Nil(t, st.LatestRate)
	assert.Nil(t, st.CumulativeExcessPerCapita)
	assert.Equal(t, 5, st.PeakWeek.Count)
}

func TestStatistics_AliasTargetUsesMergedRates(t *testing.T) {
	a := newTestAggregator(Census{"New York": 20_000_000})
	regions := map[string]Series{
		"New York":      series("New York", DataPoint{Date: day(2024, 1, 6), Count: 2000, ExcessEstimate: 200}),
		"New York City": series("New York City", DataPoint{Date: day(2024, 1, 6), Count: 1600, ExcessEstimate: 160}),
	}
	merged, err := a.MergeAliasedRegions(regions)
	require.NoError(t, err)
	snapshot, err := a.PerCapitaSnapshot(merged)
	require.NoError(t, err)
	excess := a.CumulativeExcessPerCapita(merged)

	st := a.Statistics(regions["New York"], merged)

	assert.Equal(t, 2000, st.LatestGood.Count, "counts stay per source region")
	assert.Equal(t, 200, st.CumulativeExcess)
	require.NotNil(t, st.LatestRate)
	assert.InDelta(t, 18.0, *st.LatestRate, 1e-9)
	assert.InDelta(t, snapshot.Entries[0].Value, *st.LatestRate, 1e-9)
	require.NotNil(t, st.CumulativeExcessPerCapita)
	assert.InDelta(t, 1.8, *st.CumulativeExcessPerCapita, 1e-9)
	assert.InDelta(t, excess.Entries[0].Value, *st.CumulativeExcessPerCapita, 1e-9)

	city := a.Statistics(regions["New York City"], merged)
	assert.Nil(t, city.LatestRate)
	assert.Nil(t, city.CumulativeExcessPerCapita)
}

func TestStatistics_AliasTargetWithoutMergedSeries(t *testing.T) {
	a := newTestAggregator(Census{"New York": 20_000_000})
	st := a.Statistics(series("New York", DataPoint{Date: day(2024, 1, 6), Count: 2000}), nil)

	assert.Nil(t, st.LatestRate)
	assert.Nil(t, st.CumulativeExcessPerCapita)
}

func TestRateMatrixAndTriples(t *testing.T) {
	a := newTestAggregator(Census{"Ohio": 1_000_000, "Utah": 100_000})
	regions := map[string]Series{
		"Utah": series("Utah", DataPoint{Date: day(2020, 1, 11), Count: 3}),
		"Ohio": series("Ohio",
			DataPoint{Date: day(2019, 12, 28), Count: 99},
			DataPoint{Date: day(2020, 1, 4), Count: 20},
			DataPoint{Date: day(2020, 1, 11), Count: 30},
		),
		"Guam": series("Guam", DataPoint{Date: day(2020, 1, 4), Count: 1}),
	}

	m := a.RateMatrix(regions)

	assert.Equal(t, []string{"Ohio", "Utah"}, m.Regions)
	require.Len(t, m.Weeks, 2)
	assert.Equal(t, day(2020, 1, 4), m.Weeks[0])
	assert.Equal(t, [][]float64{{2, 0}, {3, 3}}, m.Rates)

	triples := a.RateTriples(regions)
	assert.Equal(t, []RateTriple{
		{Region: "Ohio", Week: day(2020, 1, 4), Rate: 2},
		{Region: "Ohio", Week: day(2020, 1, 11), Rate: 3},
		{Region: "Utah", Week: day(2020, 1, 11), Rate: 3},
	}, triples)
}

func TestDeathsByYearTable(t *testing.T) {
	a := newTestAggregator(nil)
	table := a.DeathsByYearTable(map[string]Series{
		"Utah": series("Utah", DataPoint{Date: day(2021, 1, 2), Count: 7}),
		"Ohio": series("Ohio",
			DataPoint{Date: day(2020, 1, 4), Count: 20},
			DataPoint{Date: day(2020, 1, 11), Count: 30},
		),
	})

	assert.Equal(t, []int{2020, 2021}, table.Years)
	assert.Equal(t, []string{"Ohio", "Utah"}, table.Regions)
	assert.Equal(t, []int{50, 0}, table.Totals["Ohio"])
	assert.Equal(t, []int{0, 7}, table.Totals["Utah"])
}
