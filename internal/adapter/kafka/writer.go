package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/chinjsg/csv-extractor/internal/config"
	"github.com/chinjsg/csv-extractor/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer mirrors canonical rows to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// Load publishes every row of the batch in a single WriteMessages call.
func (w *Writer) Load(ctx context.Context, batch domain.Batch) error {
	msgs, err := serializeBatch(batch)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %s: %w", batch.Source, err)
	}
	w.logger.Debug("rows published", "file", batch.Source, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeBatch turns each row into a message whose value is a JSON object
// keyed by the batch header.
func serializeBatch(batch domain.Batch) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		if len(row) != len(batch.Header) {
			return nil, fmt.Errorf("serialize row: %d fields for %d-column header", len(row), len(batch.Header))
		}
		record := make(map[string]string, len(row))
		for i, name := range batch.Header {
			record[name] = row[i]
		}
		data, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("serialize row: %w", err)
		}
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(rowKey(record)),
			Value: data,
			Headers: []kafkago.Header{
				{Key: "source_file", Value: []byte(batch.Source)},
				{Key: "processed_at", Value: []byte(batch.FetchedAt.UTC().Format(time.RFC3339))},
			},
		})
	}
	return msgs, nil
}

// rowKey identifies a jurisdiction-day, so a topic with compaction keeps the
// latest report for each.
func rowKey(record map[string]string) string {
	place := record["Combined_Key"]
	if place == "" {
		place = record["Country_Region"]
	}
	return record["Date"] + "|" + place
}
