package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/building-energy-etl/internal/config"
	"github.com/couchcryptid/building-energy-etl/internal/dataset"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces one message per building to a Kafka topic each time a
// dataset is published. It implements dataset.Observer.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSinkTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// OnPublish serializes the snapshot and writes it in a single WriteMessages
// call, preserving the published order.
func (w *Writer) OnPublish(ctx context.Context, snap dataset.Snapshot) error {
	if len(snap.Records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snap.Records))
	for i := range snap.Records {
		msg, err := serializeToMessage(snap, i)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write published dataset: %w", err)
	}
	w.logger.Debug("published dataset to kafka", "run_id", snap.RunID, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals the building at index i into a Kafka message
// keyed by building name.
func serializeToMessage(snap dataset.Snapshot, i int) (kafkago.Message, error) {
	b := snap.Records[i]
	data, err := json.Marshal(b)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize building: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(b.Name),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(snap.RunID)},
			{Key: "rank", Value: fmt.Appendf(nil, "%d", i+1)},
			{Key: "consumption_level", Value: []byte(b.ConsumptionLevel)},
			{Key: "published_at", Value: []byte(snap.PublishedAt.Format(time.RFC3339))},
		},
	}, nil
}

var _ dataset.Observer = (*Writer)(nil)
