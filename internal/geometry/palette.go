package geometry

import (
	"image/color"
	"maps"
)

// Palette colours points by calendar year.
type Palette struct {
	Years      map[int]color.RGBA
	Fallback   color.RGBA
	Incomplete color.RGBA
}

// DefaultPalette returns the year colours used since the 2017 baseline.
func DefaultPalette() Palette {
	return Palette{
		Years: map[int]color.RGBA{
			2017: {R: 255, G: 175, B: 175, A: 255},
			2018: {R: 128, G: 128, B: 128, A: 255},
			2019: {R: 0, G: 0, B: 255, A: 255},
			2020: {R: 255, G: 0, B: 0, A: 255},
			2021: {R: 0, G: 255, B: 0, A: 255},
			2022: {R: 255, G: 200, B: 0, A: 255},
			2023: {R: 255, G: 255, B: 0, A: 255},
			2024: {R: 0, G: 255, B: 255, A: 255},
			2025: {R: 255, G: 0, B: 255, A: 255},
			2026: {R: 64, G: 64, B: 64, A: 255},
		},
		Fallback:   color.RGBA{R: 128, G: 0, B: 128, A: 255},
		Incomplete: color.RGBA{A: 255},
	}
}

// Color returns the colour of a year, or Fallback for years without an entry.
func (p Palette) Color(year int) color.RGBA {
	if c, ok := p.Years[year]; ok {
		return c
	}
	return p.Fallback
}

func (p Palette) clone() Palette {
	p.Years = maps.Clone(p.Years)
	return p
}
