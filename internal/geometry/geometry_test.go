package geometry

import (
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/observed-deaths-etl/internal/domain"
)

const eps = 1e-9

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestDayOfYearAngle_Periodic(t *testing.T) {
	for n := 1; n <= 366; n++ {
		diff := math.Remainder(DayOfYearAngle(n+daysPerTurn)-DayOfYearAngle(n), 2*math.Pi)
		assert.InDelta(t, 0, diff, eps, "day %d", n)
	}
}

func TestDateAngle(t *testing.T) {
	assert.InDelta(t, 0, DateAngle(day(2021, 1, 1)), eps)
	assert.InDelta(t, 2*math.Pi*365/366, DateAngle(day(2020, 12, 31)), eps)
	assert.InDelta(t, math.Pi/2, DrawAngle(0), eps)

	top := Polar(10, DrawAngle(DateAngle(day(2021, 1, 1))))
	assert.InDelta(t, 0, top.X, eps)
	assert.InDelta(t, 10, top.Y, eps)

	// a quarter turn later the point sits at 3 o'clock
	right := Polar(10, DrawAngle(math.Pi/2))
	assert.InDelta(t, 10, right.X, eps)
	assert.InDelta(t, 0, right.Y, eps)
}

func TestRadiusTransform_RoundTrip(t *testing.T) {
	for _, tr := range []RadiusTransform{SquareRoot{}, Identity{}} {
		for _, x := range []float64{0, 0.25, 1, 2, 50, 1234.5, 6e6} {
			assert.InDelta(t, x, tr.Backward(tr.Forward(x)), x*1e-12+eps, "%s(%v)", tr.Name(), x)
		}
	}
	assert.InDelta(t, 3, SquareRoot{}.Forward(9), eps)
}

func TestTransformByName(t *testing.T) {
	tr, err := TransformByName("sqrt")
	require.NoError(t, err)
	assert.Equal(t, SquareRoot{}, tr)

	tr, err = TransformByName("linear")
	require.NoError(t, err)
	assert.Equal(t, Identity{}, tr)

	_, err = TransformByName("log")
	require.ErrorIs(t, err, ErrUnknownTransform)
}

func TestScale(t *testing.T) {
	s, err := NewScale(SquareRoot{}, 6400, 360)
	require.NoError(t, err)

	assert.InDelta(t, 360, s.CountToRadius(6400), eps)
	assert.InDelta(t, 180, s.CountToRadius(1600), eps)
	assert.InDelta(t, 1600, s.RadiusToCount(180), 1e-6)
	assert.InDelta(t, 4.5, s.Factor(), eps)

	_, err = NewScale(SquareRoot{}, 0, 360)
	require.ErrorIs(t, err, ErrZeroMaxCount)
}

func TestRingTable(t *testing.T) {
	table := DefaultRingTable()
	require.NoError(t, table.Validate())

	tests := []struct {
		maxCount  int
		wantStep  int
		wantRings int
	}{
		{6000, 1000, 7},
		{20001, 10000, 3},
		{20000, 1000, 21},
		{4500, 500, 10},
		{1801, 400, 5},
		{600, 200, 4},
		{201, 50, 5},
		{200, 20, 11},
		{1, 20, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.wantStep, table.Step(tt.maxCount), "step for %d", tt.maxCount)
		assert.Equal(t, tt.wantRings, table.RingCount(tt.maxCount), "rings for %d", tt.maxCount)
	}

	for m := 1; m <= 60000; m += 37 {
		step := table.Step(m)
		require.Positive(t, step)
		assert.Greater(t, table.RingCount(m)*step, m, "rings enclose %d", m)
	}
}

func TestRingTable_Validate(t *testing.T) {
	assert.Error(t, RingTable{Fallback: 0}.Validate())
	assert.Error(t, RingTable{Steps: []RingStep{{Above: 10, Step: 0}}, Fallback: 1}.Validate())
	assert.Error(t, RingTable{Steps: []RingStep{{Above: 10, Step: 5}, {Above: 20, Step: 5}}, Fallback: 1}.Validate())
}

func TestPalette(t *testing.T) {
	p := DefaultPalette()
	assert.Equal(t, uint8(255), p.Color(2020).R)
	assert.Equal(t, p.Fallback, p.Color(1999))
}

func newTestEngine(opts Options) *Engine {
	// 2024-06-01 puts the incomplete cutoff at 2024-04-20.
	opts.Clock = clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewEngine(opts)
}

func TestLayout(t *testing.T) {
	e := newTestEngine(Options{})
	s := domain.Series{Region: "Ohio", Points: []domain.DataPoint{
		{Date: day(2024, 4, 27), Count: 200},
		{Date: day(2023, 12, 30), Count: 100},
		{Date: day(2024, 1, 6), Count: 400},
	}}

	l, err := e.Layout(s, 500)
	require.NoError(t, err)

	assert.Equal(t, "Observed Deaths, Ohio, All Causes, By Week, 2023-12-30 - 2024-04-27", l.Title)
	assert.Equal(t, "data retrieved from cdc.gov on 2024-06-01", l.Footer)
	assert.InDelta(t, 400, l.TickRadius, eps)
	assert.Equal(t, 400, l.MaxCount)
	assert.Equal(t, 50, l.RingStep)
	require.Len(t, l.Rings, 9)
	assert.Equal(t, "50", l.Rings[0].Label)
	assert.InDelta(t, 360*math.Sqrt(450.0/400), l.Rings[8].Radius, 1e-9)

	require.Len(t, l.Points, 3)
	assert.Equal(t, day(2023, 12, 30), l.Points[0].Date, "points sorted by date")
	peak := l.Points[1]
	assert.InDelta(t, 360, math.Hypot(peak.Point.X, peak.Point.Y), 1e-9)
	assert.False(t, peak.Dashed)
	assert.Equal(t, DefaultPalette().Color(2024), peak.Color)
	assert.Equal(t, DefaultPalette().Color(2023), l.Points[0].Color)

	last := l.Points[2]
	assert.True(t, last.Incomplete)
	assert.True(t, last.Dashed)
	assert.Equal(t, DefaultPalette().Incomplete, last.Color)
	assert.Equal(t, 4.0, last.StrokeWidth)
	assert.Equal(t, []float64{9}, l.DashPattern)

	labels := make([]string, len(l.Key))
	for i, k := range l.Key {
		labels[i] = k.Label
	}
	assert.Equal(t, []string{"2023", "2024", "incomplete data"}, labels)
	assert.True(t, l.Key[2].Dashed)
}

func TestLayout_KeyUsesColourOfFirstDrawnDate(t *testing.T) {
	e := newTestEngine(Options{})
	// The 2024 points all fall after the 2024-04-20 cutoff.
	s := domain.Series{Region: "Ohio", Points: []domain.DataPoint{
		{Date: day(2023, 6, 3), Count: 100},
		{Date: day(2023, 6, 10), Count: 110},
		{Date: day(2024, 4, 27), Count: 90},
		{Date: day(2024, 5, 4), Count: 60},
	}}

	l, err := e.Layout(s, 500)
	require.NoError(t, err)

	require.Len(t, l.Key, 3)
	assert.Equal(t, "2023", l.Key[0].Label)
	assert.Equal(t, DefaultPalette().Color(2023), l.Key[0].Color)
	assert.Equal(t, "2024", l.Key[1].Label)
	assert.Equal(t, DefaultPalette().Incomplete, l.Key[1].Color, "no 2024 point is drawn in the 2024 colour")
	assert.Equal(t, l.Points[2].Color, l.Key[1].Color)
	assert.Equal(t, "incomplete data", l.Key[2].Label)
}

func TestLayout_RingLabelsUseThousandsSeparators(t *testing.T) {
	e := newTestEngine(Options{})
	s := domain.Series{Region: "Texas", Points: []domain.DataPoint{
		{Date: day(2021, 1, 2), Count: 6000},
		{Date: day(2021, 1, 9), Count: 5800},
	}}

	l, err := e.Layout(s, 500)
	require.NoError(t, err)

	require.Len(t, l.Rings, 7)
	assert.Equal(t, "1,000", l.Rings[0].Label)
	assert.Equal(t, "7,000", l.Rings[6].Label)
	assert.InDelta(t, 7*math.Pi/12-math.Pi/6, l.Rings[0].LabelAngle, eps)
	assert.InDelta(t, l.Rings[0].Radius, math.Hypot(l.Rings[0].LabelAt.X, l.Rings[0].LabelAt.Y), 1e-9)
	assert.Len(t, l.Key, 1, "no incomplete entry for old data")
}

func TestLayout_MonthTicks(t *testing.T) {
	e := newTestEngine(Options{})
	s := domain.Series{Region: "Ohio", Points: []domain.DataPoint{
		{Date: day(2021, 1, 2), Count: 10},
		{Date: day(2021, 1, 9), Count: 20},
	}}

	l, err := e.Layout(s, 500)
	require.NoError(t, err)
	require.Len(t, l.MonthTicks, 12)

	jan := l.MonthTicks[0]
	assert.Equal(t, "January", jan.Label)
	assert.InDelta(t, 0, jan.End.X, eps)
	assert.InDelta(t, 400, jan.End.Y, eps)
	assert.InDelta(t, 0, jan.LabelRotation, eps)

	// 2024 is a leap year: March 1 is day 61
	assert.InDelta(t, DrawAngle(DayOfYearAngle(61)), l.MonthTicks[2].Angle, eps)

	for _, tick := range l.MonthTicks {
		assert.Greater(t, tick.LabelRotation, -math.Pi/2-eps, tick.Label)
		assert.LessOrEqual(t, tick.LabelRotation, math.Pi/2+eps, tick.Label)
		assert.InDelta(t, 400, math.Hypot(tick.End.X, tick.End.Y), 1e-9)
	}
}

func TestLayout_Degenerate(t *testing.T) {
	e := newTestEngine(Options{Transform: Identity{}})

	_, err := e.Layout(domain.Series{Region: "Guam", Points: []domain.DataPoint{{Date: day(2021, 1, 2), Count: 5}}}, 500)
	require.ErrorIs(t, err, ErrTooFewPoints)

	_, err = e.Layout(domain.Series{Region: "Guam", Points: []domain.DataPoint{
		{Date: day(2021, 1, 2)},
		{Date: day(2021, 1, 9)},
	}}, 500)
	require.ErrorIs(t, err, ErrZeroMaxCount)
}

func TestNewEngine_CopiesOptions(t *testing.T) {
	palette := DefaultPalette()
	e := newTestEngine(Options{Palette: palette})
	palette.Years[2021] = palette.Fallback

	assert.NotEqual(t, palette.Fallback, e.opts.Palette.Color(2021))
}
