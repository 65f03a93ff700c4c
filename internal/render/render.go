// Package render rasterises radial plot layouts to PNG using gonum's vg canvas.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/font/liberation"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/couchcryptid/observed-deaths-etl/internal/geometry"
)

// DefaultSize is the side length of a rendered plot in pixels.
const DefaultSize = 1000

// Canvas units are pixels at this resolution.
const dpi = 72

var (
	black     = color.RGBA{A: 255}
	ringColor = color.RGBA{R: 96, G: 96, B: 96, A: 255}
)

func init() {
	font.DefaultCache.Add(liberation.Collection())
}

// Renderer draws layouts onto square PNG images.
type Renderer struct {
	size  int
	small font.Face
	text  font.Face
	month font.Face
}

// New creates a Renderer for size×size pixel images.
func New(size int) *Renderer {
	if size <= 0 {
		size = DefaultSize
	}
	sans := font.Font{Typeface: "Liberation", Variant: "Sans"}
	return &Renderer{
		size:  size,
		small: font.DefaultCache.Lookup(sans, 10),
		text:  font.DefaultCache.Lookup(sans, 12),
		month: font.DefaultCache.Lookup(sans, 15),
	}
}

// Size returns the image side length in pixels.
func (r *Renderer) Size() int { return r.size }

// CanvasRadius is the radius the layout should be computed for.
func (r *Renderer) CanvasRadius() float64 { return float64(r.size) / 2 }

// FileName returns the PNG name for a region: whitespace removed, ".png" appended.
func FileName(region string) string {
	return strings.Join(strings.Fields(region), "") + ".png"
}

// Render draws l and writes the PNG encoding to w.
func (r *Renderer) Render(w io.Writer, l geometry.Layout) error {
	side := vg.Length(r.size)
	c := vgimg.NewWith(vgimg.UseWH(side, side), vgimg.UseDPI(dpi), vgimg.UseBackgroundColor(color.White))

	r.drawHeader(c, l)
	r.drawKey(c, l.Key, l.DashPattern)

	c.Push()
	c.Translate(vg.Point{X: side / 2, Y: side / 2})
	r.drawMonths(c, l.MonthTicks)
	r.drawRings(c, l.Rings)
	drawData(c, l.Points, l.DashPattern)
	c.Pop()

	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// RenderFile renders l into dir/FileName(l.Region) and returns the path.
func (r *Renderer) RenderFile(dir string, l geometry.Layout) (path string, err error) {
	path = filepath.Join(dir, FileName(l.Region))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	if err := r.Render(f, l); err != nil {
		return "", fmt.Errorf("render %s: %w", l.Region, err)
	}
	return path, nil
}

func (r *Renderer) drawHeader(c vg.Canvas, l geometry.Layout) {
	side := vg.Length(r.size)
	c.SetColor(black)
	c.FillString(r.text, vg.Point{X: 50, Y: side - 50}, l.Title)
	c.FillString(r.text, vg.Point{X: 50, Y: 50}, l.Footer)
}

func (r *Renderer) drawKey(c vg.Canvas, key []geometry.KeyEntry, dashes []float64) {
	const rowHeight = 25
	side := vg.Length(r.size)
	for i, k := range key {
		y := side - 100 - vg.Length(i*rowHeight)
		c.SetColor(k.Color)
		c.SetLineWidth(5)
		if k.Dashed {
			c.SetLineDash(lengths(dashes), 0)
		} else {
			c.SetLineDash(nil, 0)
		}
		var p vg.Path
		p.Move(vg.Point{X: 50, Y: y + 4})
		p.Line(vg.Point{X: 80, Y: y + 4})
		c.Stroke(p)
		c.FillString(r.text, vg.Point{X: 90, Y: y}, k.Label)
	}
	c.SetLineDash(nil, 0)
}

func (r *Renderer) drawMonths(c vg.Canvas, ticks []geometry.MonthTick) {
	c.SetColor(black)
	c.SetLineWidth(1)
	for _, t := range ticks {
		var p vg.Path
		p.Move(vg.Point{})
		p.Line(point(t.End))
		c.Stroke(p)
		drawRotated(c, r.month, t.LabelAt, t.LabelRotation, t.Label)
	}
}

func (r *Renderer) drawRings(c vg.Canvas, rings []geometry.Ring) {
	c.SetLineWidth(1)
	for _, ring := range rings {
		rad := vg.Length(ring.Radius)
		var p vg.Path
		p.Move(vg.Point{X: rad})
		p.Arc(vg.Point{}, rad, 0, 2*math.Pi)
		p.Close()
		c.SetColor(ringColor)
		c.Stroke(p)

		c.SetColor(black)
		drawRotated(c, r.small, ring.LabelAt, ring.LabelAngle-math.Pi/2, ring.Label)
	}
}

// drawData strokes one segment per consecutive pair, styled by the later point.
func drawData(c vg.Canvas, points []geometry.PlotInstruction, dashes []float64) {
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		c.SetColor(cur.Color)
		c.SetLineWidth(vg.Length(cur.StrokeWidth))
		if cur.Dashed {
			c.SetLineDash(lengths(dashes), 0)
		} else {
			c.SetLineDash(nil, 0)
		}
		var p vg.Path
		p.Move(point(prev.Point))
		p.Line(point(cur.Point))
		c.Stroke(p)
	}
	c.SetLineDash(nil, 0)
}

// drawRotated centres s horizontally on at, rotated by rot radians.
func drawRotated(c vg.Canvas, face font.Face, at geometry.Point, rot float64, s string) {
	c.Push()
	c.Translate(point(at))
	c.Rotate(rot)
	c.FillString(face, vg.Point{X: -face.Width(s) / 2}, s)
	c.Pop()
}

func point(p geometry.Point) vg.Point {
	return vg.Point{X: vg.Length(p.X), Y: vg.Length(p.Y)}
}

func lengths(fs []float64) []vg.Length {
	out := make([]vg.Length, len(fs))
	for i, f := range fs {
		out[i] = vg.Length(f)
	}
	return out
}
