package geometry

import (
	"math"
	"time"
)

// daysPerTurn is deliberately 366 for every year; the leap-year wobble is
// smaller than a day and keeps each date on the same spoke across years.
const daysPerTurn = 366

// Point is a canvas position relative to the plot centre, y pointing up.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DayOfYearAngle maps a 1-based day number to radians, day 1 at angle 0.
func DayOfYearAngle(yearDay int) float64 {
	return float64(yearDay-1) / daysPerTurn * 2 * math.Pi
}

// DateAngle maps a date to its position on the yearly circle.
func DateAngle(d time.Time) float64 {
	return DayOfYearAngle(d.YearDay())
}

// DrawAngle rotates a date angle so day 1 sits at 12 o'clock and time runs
// clockwise.
func DrawAngle(theta float64) float64 {
	return -theta + math.Pi/2
}

// Polar converts a radius and draw angle to a point.
func Polar(radius, angle float64) Point {
	return Point{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
}
