package config

import (
	"fmt"
	"image/color"
	"maps"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/observed-deaths-etl/internal/domain"
	"github.com/couchcryptid/observed-deaths-etl/internal/geometry"
)

// Style is the optional YAML file that overrides lookup tables.
//
//	excluded_region: United States
//	aliases:
//	  - target: New York
//	    members: [New York, New York City]
//	palette:
//	  years: {2024: "#00ffff"}
//	  incomplete: "#000000"
//	rings:
//	  steps: [{above: 5000, step: 1000}]
//	  fallback: 100
type Style struct {
	ExcludedRegion string              `yaml:"excluded_region"`
	Aliases        []domain.AliasRule  `yaml:"aliases"`
	Palette        PaletteStyle        `yaml:"palette"`
	Rings          *geometry.RingTable `yaml:"rings"`
}

// PaletteStyle holds colours as "#rrggbb" or "#rrggbbaa".
type PaletteStyle struct {
	Years      map[int]string `yaml:"years"`
	Fallback   string         `yaml:"fallback"`
	Incomplete string         `yaml:"incomplete"`
}

// LoadStyle reads and parses a style file. Unknown keys are rejected.
func LoadStyle(path string) (Style, error) {
	f, err := os.Open(path)
	if err != nil {
		return Style{}, fmt.Errorf("open style: %w", err)
	}
	defer f.Close()

	var s Style
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return Style{}, fmt.Errorf("parse style %s: %w", path, err)
	}
	for i, a := range s.Aliases {
		if a.Target == "" || len(a.Members) == 0 {
			return Style{}, fmt.Errorf("alias %d: target and members are required", i)
		}
	}
	return s, nil
}

// Apply returns base with the configured colours replaced.
func (p PaletteStyle) Apply(base geometry.Palette) (geometry.Palette, error) {
	out := base
	out.Years = maps.Clone(base.Years)
	if out.Years == nil {
		out.Years = make(map[int]color.RGBA)
	}
	for year, hex := range p.Years {
		c, err := ParseHexColor(hex)
		if err != nil {
			return base, fmt.Errorf("palette year %d: %w", year, err)
		}
		out.Years[year] = c
	}
	if p.Fallback != "" {
		c, err := ParseHexColor(p.Fallback)
		if err != nil {
			return base, fmt.Errorf("palette fallback: %w", err)
		}
		out.Fallback = c
	}
	if p.Incomplete != "" {
		c, err := ParseHexColor(p.Incomplete)
		if err != nil {
			return base, fmt.Errorf("palette incomplete: %w", err)
		}
		out.Incomplete = c
	}
	return out, nil
}

// ParseHexColor parses "#rrggbb" or "#rrggbbaa".
func ParseHexColor(s string) (color.RGBA, error) {
	h, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok || (len(h) != 6 && len(h) != 8) {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	if len(h) == 6 {
		h += "ff"
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
