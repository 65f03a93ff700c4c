package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()
	m.CacheLookups.WithLabelValues("hit").Inc()
	m.RegionsSkipped.WithLabelValues("too_few_points").Add(2)

	assert.InDelta(t, 1, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.RegionsSkipped.WithLabelValues("too_few_points")), 0)

	// a second set must not collide with the first
	assert.NotPanics(t, func() { NewMetricsForTesting() })
}
