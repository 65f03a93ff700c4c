package geometry

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RingStep selects Step as the ring spacing when the series maximum is above Above.
type RingStep struct {
	Above int `yaml:"above"`
	Step  int `yaml:"step"`
}

// RingTable is an ordered ring spacing lookup; the first matching entry wins
// and Fallback applies when none does.
type RingTable struct {
	Steps    []RingStep `yaml:"steps"`
	Fallback int        `yaml:"fallback"`
}

// DefaultRingTable returns the spacing used for weekly death counts.
func DefaultRingTable() RingTable {
	return RingTable{
		Steps: []RingStep{
			{Above: 20000, Step: 10000},
			{Above: 5000, Step: 1000},
			{Above: 4000, Step: 500},
			{Above: 1800, Step: 400},
			{Above: 500, Step: 200},
			{Above: 200, Step: 50},
		},
		Fallback: 20,
	}
}

// Validate checks that every step is positive and thresholds descend.
func (t RingTable) Validate() error {
	if t.Fallback <= 0 {
		return fmt.Errorf("ring fallback step must be positive, got %d", t.Fallback)
	}
	prev := math.MaxInt
	for i, s := range t.Steps {
		if s.Step <= 0 {
			return fmt.Errorf("ring step %d: step must be positive, got %d", i, s.Step)
		}
		if s.Above >= prev {
			return errors.New("ring step thresholds must be strictly descending")
		}
		prev = s.Above
	}
	return nil
}

// Step returns the ring spacing for a series maximum.
func (t RingTable) Step(maxCount int) int {
	for _, s := range t.Steps {
		if maxCount > s.Above {
			return s.Step
		}
	}
	return t.Fallback
}

// RingCount returns how many rings are needed to enclose maxCount.
func (t RingTable) RingCount(maxCount int) int {
	return maxCount/t.Step(maxCount) + 1
}

// Ring is one concentric count guide.
type Ring struct {
	Count  int     `json:"count"`
	Radius float64 `json:"radius"`
	Label  string  `json:"label"`
	// LabelAngle is the math angle of the label position; labels are staggered
	// clockwise from just right of 12 o'clock so they do not stack.
	LabelAngle float64 `json:"label_angle"`
	LabelAt    Point   `json:"label_at"`
}

func ringLabelAngle(i int) float64 {
	return 7*math.Pi/12 - float64(i)*math.Pi/6
}

func buildRings(table RingTable, scale Scale, maxCount int, p *message.Printer) (step int, rings []Ring) {
	step = table.Step(maxCount)
	n := table.RingCount(maxCount)
	rings = make([]Ring, 0, n)
	for i := 1; i <= n; i++ {
		count := i * step
		r := scale.CountToRadius(float64(count))
		angle := ringLabelAngle(i)
		rings = append(rings, Ring{
			Count:      count,
			Radius:     r,
			Label:      p.Sprintf("%d", count),
			LabelAngle: angle,
			LabelAt:    Polar(r, angle),
		})
	}
	return step, rings
}

func newPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}
