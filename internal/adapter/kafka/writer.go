package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/observed-deaths-etl/internal/config"
	"github.com/couchcryptid/observed-deaths-etl/internal/domain"
)

// Writer produces region summaries to a Kafka topic.
// It implements pipeline.SummaryLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured summary topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSummaryTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadSummaries serializes and publishes all summaries of a run in a single
// WriteMessages call. Messages are keyed by region so each region's history
// stays on one partition.
func (w *Writer) LoadSummaries(ctx context.Context, summaries []domain.RegionSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(summaries))
	for i := range summaries {
		msg, err := serializeToMessage(summaries[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write summaries: %w", err)
	}
	w.logger.Debug("summaries published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RegionSummary into a Kafka message.
func serializeToMessage(s domain.RegionSummary) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize region summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(s.Region),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(s.RunID)},
			{Key: "generated_at", Value: []byte(s.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
