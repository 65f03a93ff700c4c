package geometry

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/text/message"

	"github.com/couchcryptid/observed-deaths-etl/internal/domain"
)

// ErrTooFewPoints is returned for series that cannot be drawn as a line.
var ErrTooFewPoints = errors.New("series needs at least two points")

// Options configures an Engine. The values are copied at construction.
type Options struct {
	Transform       RadiusTransform
	Rings           RingTable
	Palette         Palette
	IncompleteAfter time.Duration
	Clock           clockwork.Clock

	// TickFraction is the month tick radius as a fraction of the canvas radius;
	// DataFraction is the largest data radius as a fraction of the tick radius.
	TickFraction float64
	DataFraction float64

	StrokeWidth   float64
	DashPattern   []float64
	LabelOffset   float64
	MonthFontSize float64
}

// DefaultOptions returns the square-root scale with the standard styling.
func DefaultOptions() Options {
	return Options{
		Transform:       SquareRoot{},
		Rings:           DefaultRingTable(),
		Palette:         DefaultPalette(),
		IncompleteAfter: domain.DefaultIncompleteAfter,
		TickFraction:    0.80,
		DataFraction:    0.90,
		StrokeWidth:     4,
		DashPattern:     []float64{9},
		LabelOffset:     5,
		MonthFontSize:   15,
	}
}

// Engine lays out radial plots. It is safe for concurrent use.
type Engine struct {
	opts    Options
	printer *message.Printer
}

// NewEngine creates an Engine, filling unset options from DefaultOptions.
func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.Transform == nil {
		opts.Transform = def.Transform
	}
	if opts.Rings.Fallback == 0 && len(opts.Rings.Steps) == 0 {
		opts.Rings = def.Rings
	}
	opts.Rings.Steps = slices.Clone(opts.Rings.Steps)
	if opts.Palette.Years == nil {
		opts.Palette = def.Palette
	}
	opts.Palette = opts.Palette.clone()
	if opts.IncompleteAfter <= 0 {
		opts.IncompleteAfter = def.IncompleteAfter
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.TickFraction <= 0 {
		opts.TickFraction = def.TickFraction
	}
	if opts.DataFraction <= 0 {
		opts.DataFraction = def.DataFraction
	}
	if opts.StrokeWidth <= 0 {
		opts.StrokeWidth = def.StrokeWidth
	}
	if opts.DashPattern == nil {
		opts.DashPattern = def.DashPattern
	}
	opts.DashPattern = slices.Clone(opts.DashPattern)
	if opts.LabelOffset <= 0 {
		opts.LabelOffset = def.LabelOffset
	}
	if opts.MonthFontSize <= 0 {
		opts.MonthFontSize = def.MonthFontSize
	}
	return &Engine{opts: opts, printer: newPrinter()}
}

// PlotInstruction is how one data point is drawn. The segment ending at a
// point takes that point's style.
type PlotInstruction struct {
	Date        time.Time  `json:"date"`
	Count       int        `json:"count"`
	Point       Point      `json:"point"`
	Color       color.RGBA `json:"color"`
	StrokeWidth float64    `json:"stroke_width"`
	Dashed      bool       `json:"dashed"`
	Incomplete  bool       `json:"incomplete"`
}

// MonthTick marks the first day of a month.
type MonthTick struct {
	Month time.Month `json:"month"`
	Angle float64    `json:"angle"`
	End   Point      `json:"end"`
	Label string     `json:"label"`
	// LabelAt is the label's baseline centre and LabelRotation its rotation,
	// normalised so the text is never upside down.
	LabelAt       Point   `json:"label_at"`
	LabelRotation float64 `json:"label_rotation"`
}

// KeyEntry is one legend line.
type KeyEntry struct {
	Label  string     `json:"label"`
	Color  color.RGBA `json:"color"`
	Dashed bool       `json:"dashed"`
}

// Layout is everything needed to draw one region, in canvas units relative
// to the plot centre.
type Layout struct {
	Region      string            `json:"region"`
	Title       string            `json:"title"`
	Footer      string            `json:"footer"`
	From        time.Time         `json:"from"`
	To          time.Time         `json:"to"`
	MaxCount    int               `json:"max_count"`
	Scale       Scale             `json:"-"`
	RingStep    int               `json:"ring_step"`
	TickRadius  float64           `json:"tick_radius"`
	DashPattern []float64         `json:"dash_pattern"`
	Rings       []Ring            `json:"rings"`
	MonthTicks  []MonthTick       `json:"month_ticks"`
	Points      []PlotInstruction `json:"points"`
	Key         []KeyEntry        `json:"key"`
}

// Layout maps a series onto a canvas of the given radius.
func (e *Engine) Layout(s domain.Series, canvasRadius float64) (Layout, error) {
	s = s.Sorted()
	if len(s.Points) < 2 {
		return Layout{}, fmt.Errorf("layout %s: %w", s.Region, ErrTooFewPoints)
	}
	maxCount := s.MaxCount()
	tickRadius := canvasRadius * e.opts.TickFraction
	scale, err := NewScale(e.opts.Transform, maxCount, tickRadius*e.opts.DataFraction)
	if err != nil {
		return Layout{}, fmt.Errorf("layout %s: %w", s.Region, err)
	}

	now := e.opts.Clock.Now().UTC()
	cutoff := domain.ReportingCutoff(e.opts.Clock, e.opts.IncompleteAfter)
	from, to, _ := s.DateRange()

	l := Layout{
		Region:      s.Region,
		Title:       fmt.Sprintf("Observed Deaths, %s, All Causes, By Week, %s - %s", s.Region, from.Format(domain.DateLayout), to.Format(domain.DateLayout)),
		Footer:      "data retrieved from cdc.gov on " + now.Format(domain.DateLayout),
		From:        from,
		To:          to,
		MaxCount:    maxCount,
		Scale:       scale,
		TickRadius:  tickRadius,
		DashPattern: slices.Clone(e.opts.DashPattern),
	}
	l.RingStep, l.Rings = buildRings(e.opts.Rings, scale, maxCount, e.printer)
	l.MonthTicks = e.monthTicks(now.Year(), tickRadius)

	l.Points = make([]PlotInstruction, len(s.Points))
	for i, p := range s.Points {
		incomplete := !p.Date.Before(cutoff)
		c := e.dateColor(p.Date, cutoff)
		l.Points[i] = PlotInstruction{
			Date:        p.Date,
			Count:       p.Count,
			Point:       Polar(scale.CountToRadius(float64(p.Count)), DrawAngle(DateAngle(p.Date))),
			Color:       c,
			StrokeWidth: e.opts.StrokeWidth,
			Dashed:      incomplete,
			Incomplete:  incomplete,
		}
	}

	// Each year is keyed by the colour of its first drawn date.
	for year := from.Year(); year <= to.Year(); year++ {
		first := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		if first.Before(from) {
			first = from
		}
		l.Key = append(l.Key, KeyEntry{Label: strconv.Itoa(year), Color: e.dateColor(first, cutoff)})
	}
	if !to.Before(cutoff) {
		l.Key = append(l.Key, KeyEntry{Label: "incomplete data", Color: e.opts.Palette.Incomplete, Dashed: true})
	}
	return l, nil
}

// dateColor is the palette colour of date, or the incomplete colour on or after cutoff.
func (e *Engine) dateColor(date, cutoff time.Time) color.RGBA {
	if !date.Before(cutoff) {
		return e.opts.Palette.Incomplete
	}
	return e.opts.Palette.Color(date.Year())
}

// monthTicks places the first of each month using the real calendar of year.
func (e *Engine) monthTicks(year int, radius float64) []MonthTick {
	ticks := make([]MonthTick, 0, 12)
	for m := time.January; m <= time.December; m++ {
		first := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
		angle := DrawAngle(DateAngle(first))
		rotation, flipped := readableRotation(angle - math.Pi/2)
		offset := e.opts.LabelOffset
		if flipped {
			offset += e.opts.MonthFontSize
		}
		ticks = append(ticks, MonthTick{
			Month:         m,
			Angle:         angle,
			End:           Polar(radius, angle),
			Label:         m.String(),
			LabelAt:       Polar(radius+offset, angle),
			LabelRotation: rotation,
		})
	}
	return ticks
}

// readableRotation folds a text rotation into (-π/2, π/2] and reports whether
// it was turned over.
func readableRotation(r float64) (float64, bool) {
	r = math.Remainder(r, 2*math.Pi)
	switch {
	case r > math.Pi/2:
		return r - math.Pi, true
	case r <= -math.Pi/2:
		return r + math.Pi, true
	default:
		return r, false
	}
}
