package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownTransform is returned by TransformByName for unsupported names.
var ErrUnknownTransform = errors.New("unknown radius transform")

// RadiusTransform is a monotonic, invertible mapping applied to counts
// before they are scaled to canvas units.
type RadiusTransform interface {
	Name() string
	Forward(x float64) float64
	Backward(y float64) float64
}

// SquareRoot makes the enclosed area, rather than the radius, proportional to
// the count so outlier weeks do not dominate the plot.
type SquareRoot struct{}

func (SquareRoot) Name() string { return "sqrt" }

func (SquareRoot) Forward(x float64) float64 { return math.Sqrt(math.Max(x, 0)) }

func (SquareRoot) Backward(y float64) float64 { return y * y }

// Identity maps counts linearly.
type Identity struct{}

func (Identity) Name() string { return "linear" }

func (Identity) Forward(x float64) float64 { return x }

func (Identity) Backward(y float64) float64 { return y }

// TransformByName resolves a configured transform name.
func TransformByName(name string) (RadiusTransform, error) {
	switch name {
	case "", "sqrt":
		return SquareRoot{}, nil
	case "linear", "identity":
		return Identity{}, nil
	default:
		return nil, fmt.Errorf("%w %q (want sqrt or linear)", ErrUnknownTransform, name)
	}
}

// ErrZeroMaxCount is returned when a scale is requested for a series whose
// largest count is zero.
var ErrZeroMaxCount = errors.New("series has no positive count")

// Scale converts between counts and canvas radii: radius = Forward(count) * k.
type Scale struct {
	transform RadiusTransform
	k         float64
}

// NewScale solves k so that maxCount lands exactly on target.
func NewScale(t RadiusTransform, maxCount int, target float64) (Scale, error) {
	if maxCount <= 0 {
		return Scale{}, ErrZeroMaxCount
	}
	denom := t.Forward(float64(maxCount))
	if denom <= 0 || math.IsNaN(denom) {
		return Scale{}, ErrZeroMaxCount
	}
	return Scale{transform: t, k: target / denom}, nil
}

// Factor returns the linear factor applied after the transform.
func (s Scale) Factor() float64 { return s.k }

// CountToRadius maps a count to canvas units.
func (s Scale) CountToRadius(count float64) float64 {
	return s.transform.Forward(count) * s.k
}

// RadiusToCount maps canvas units back to a count.
func (s Scale) RadiusToCount(radius float64) float64 {
	return s.transform.Backward(radius / s.k)
}
