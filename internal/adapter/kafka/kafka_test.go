package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/building-energy-etl/internal/dataset"
	"github.com/couchcryptid/building-energy-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var testPublishedAt = time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

func testSnapshot() dataset.Snapshot {
	return dataset.Snapshot{
		RunID:       "run-42",
		PublishedAt: testPublishedAt,
		Records: []domain.Building{
			{Name: "Musée des Confluences", TotalEnergyKWh: 1830000, ConsumptionLevel: domain.LevelHigh},
			{Name: "École Pasteur", TotalEnergyKWh: 23000, ConsumptionLevel: domain.LevelMedium},
		},
	}
}

func newTestWriter(fw *fakeWriter) *Writer {
	return &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestSerializeToMessage(t *testing.T) {
	msg, err := serializeToMessage(testSnapshot(), 1)
	require.NoError(t, err)

	assert.Equal(t, []byte("École Pasteur"), msg.Key)
	assert.Contains(t, string(msg.Value), `"total_energy_kwh":23000`)
	require.Len(t, msg.Headers, 4)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("run-42"), msg.Headers[0].Value)
	assert.Equal(t, "rank", msg.Headers[1].Key)
	assert.Equal(t, []byte("2"), msg.Headers[1].Value)
	assert.Equal(t, []byte("medium"), msg.Headers[2].Value)
	assert.Equal(t, []byte(testPublishedAt.Format(time.RFC3339)), msg.Headers[3].Value)
}

func TestWriter_OnPublish_WritesInOrder(t *testing.T) {
	fw := &fakeWriter{}
	w := newTestWriter(fw)

	require.NoError(t, w.OnPublish(context.Background(), testSnapshot()))

	require.Len(t, fw.msgs, 2)
	var first domain.Building
	require.NoError(t, json.Unmarshal(fw.msgs[0].Value, &first))
	assert.Equal(t, "Musée des Confluences", first.Name)
	assert.Equal(t, []byte("École Pasteur"), fw.msgs[1].Key)
}

func TestWriter_OnPublish_EmptySnapshot(t *testing.T) {
	fw := &fakeWriter{}
	w := newTestWriter(fw)

	require.NoError(t, w.OnPublish(context.Background(), dataset.Snapshot{}))
	assert.Empty(t, fw.msgs)
}

func TestWriter_OnPublish_WriteError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	w := newTestWriter(fw)

	err := w.OnPublish(context.Background(), testSnapshot())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

func TestWriter_Close(t *testing.T) {
	fw := &fakeWriter{}
	require.NoError(t, newTestWriter(fw).Close())
	assert.True(t, fw.closed)
	assert.Equal(t, "kafka", newTestWriter(fw).Name())
}
