package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultIncompleteAfter is how far back from today weekly counts are still
// considered incomplete because of reporting lag.
const DefaultIncompleteAfter = 6 * 7 * 24 * time.Hour

// ReportingCutoff returns today's UTC date minus lag. Dates on or after the
// cutoff are incomplete; dates on or before it count as fully reported.
func ReportingCutoff(c clockwork.Clock, lag time.Duration) time.Time {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	now := c.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.Add(-lag)
}
