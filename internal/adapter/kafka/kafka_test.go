package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/observed-deaths-etl/internal/config"
	"github.com/couchcryptid/observed-deaths-etl/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 6, 1, 15, 10, 0, 0, time.UTC)
	rate := 4.25
	summary := domain.RegionSummary{
		RunID:  "run-1",
		Region: "New York",
		Statistics: domain.RegionStatistics{
			Region:       "New York",
			DeathsByYear: map[int]int{2023: 160000},
			LatestRate:   &rate,
		},
		Trimmed:     2,
		Image:       "out/NewYork.png",
		GeneratedAt: now,
	}

	msg, err := serializeToMessage(summary)
	require.NoError(t, err)

	assert.Equal(t, []byte("New York"), msg.Key)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "New York", decoded["region"])
	assert.InDelta(t, 2, decoded["points_trimmed"], 0)
	stats, ok := decoded["statistics"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 4.25, stats["latest_rate_per_100k"], 0)
	assert.NotContains(t, decoded, "skip_reason")
}

func TestLoadSummaries_Empty(t *testing.T) {
	w := NewWriter(&config.Config{KafkaBrokers: []string{"localhost:1"}, KafkaSummaryTopic: "t"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close()

	assert.NoError(t, w.LoadSummaries(context.Background(), nil))
}
