package domain

import (
	"math"

	"github.com/montanaflynn/stats"
)

// DefaultTrimWindow is the number of earlier weeks the latest drop is compared against.
const DefaultTrimWindow = 10

// TrimReportingLag removes the artificial downward tail caused by deaths that
// have not been certified yet. While the final week is lower than the one
// before it by more than the population standard deviation of the window
// weeks ending at that second-to-last week, the last two points are dropped.
//
// points must be ordered by date. The result is a prefix of points; series
// shorter than window+2 come back unchanged.
func TrimReportingLag(points []DataPoint, window int) []DataPoint {
	if window < 1 {
		return points
	}
	for len(points) >= window+2 {
		n := len(points)
		deviation := float64(points[n-1].Count - points[n-2].Count)
		if deviation >= 0 || math.Abs(deviation) <= windowStdDev(points[n-1-window:n-1]) {
			break
		}
		points = points[:n-2]
	}
	return points
}

func windowStdDev(points []DataPoint) float64 {
	counts := make(stats.Float64Data, len(points))
	for i, p := range points {
		counts[i] = float64(p.Count)
	}
	sigma, err := stats.StandardDeviationPopulation(counts)
	if err != nil {
		// only returned for empty input, which the window bound rules out
		return 0
	}
	return sigma
}
