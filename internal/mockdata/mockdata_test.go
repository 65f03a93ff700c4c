package mockdata_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/observed-deaths-etl/internal/domain"
	"github.com/couchcryptid/observed-deaths-etl/internal/mockdata"
	"github.com/couchcryptid/observed-deaths-etl/internal/source"
)

func TestDefaultConfig_EndsOnSaturday(t *testing.T) {
	cfg := mockdata.DefaultConfig(time.Date(2024, time.June, 5, 9, 0, 0, 0, time.UTC))
	last := cfg.From.AddDate(0, 0, 7*(cfg.Weeks-1))
	assert.Equal(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), last)
	assert.Equal(t, time.Saturday, cfg.From.Weekday())
}

func TestDataset_DecodesIntoSeries(t *testing.T) {
	cfg := mockdata.DefaultConfig(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	body, err := mockdata.Dataset(cfg)
	require.NoError(t, err)
	assert.Equal(t, "\uFEFF", string([]rune(string(body))[:1]))

	records, err := source.DecodeObservations(body)
	require.NoError(t, err)
	assert.Len(t, records, len(cfg.Regions)*cfg.Weeks*4)

	series := domain.BuildSeries(records)
	require.Len(t, series, len(cfg.Regions))
	ohio := series["Ohio"].Sorted()
	require.Len(t, ohio.Points, cfg.Weeks)
	assert.Equal(t, cfg.From, ohio.Points[0].Date)
	assert.Equal(t, mockdata.Observed(cfg, cfg.Regions[4], 10), ohio.Points[10].Count)
}

func TestDataset_RegionWeeksLimit(t *testing.T) {
	cfg := mockdata.DefaultConfig(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	cfg.Regions = []mockdata.Region{{Name: "Guam", Base: 20, Weeks: 3}}
	body, err := mockdata.Dataset(cfg)
	require.NoError(t, err)

	records, err := source.DecodeObservations(body)
	require.NoError(t, err)
	assert.Len(t, domain.BuildSeries(records)["Guam"].Points, 3)
}

func TestObserved_LagTailIsTrimmed(t *testing.T) {
	cfg := mockdata.DefaultConfig(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	r := cfg.Regions[4]
	points := make([]domain.DataPoint, cfg.Weeks)
	for i := range points {
		points[i] = domain.DataPoint{Date: cfg.From.AddDate(0, 0, 7*i), Count: mockdata.Observed(cfg, r, i)}
	}

	kept := domain.TrimReportingLag(points, domain.DefaultTrimWindow)
	assert.Len(t, kept, cfg.Weeks-cfg.LagWeeks)
}

func TestCensus_SkipsRegionsWithoutPopulation(t *testing.T) {
	cfg := mockdata.DefaultConfig(time.Now())
	body, err := mockdata.Census(cfg)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "census.csv")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	census, err := source.ReadCensusFile(path)
	require.NoError(t, err)
	pop, ok := census.Population("Ohio")
	assert.True(t, ok)
	assert.Equal(t, 11799448, pop)
	_, ok = census.Population("New York City")
	assert.False(t, ok)
}
