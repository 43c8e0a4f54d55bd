// Package kafka publishes validated records to a sink topic. This is the
// insert-only persistence boundary; the analysis core never reads it back.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/lunar-crime-service/internal/domain"
)

// Writer produces validated crime and moon phase records to a Kafka topic.
// It implements analysis.RecordSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishRecords serializes and publishes all records in a single
// WriteMessages call.
func (w *Writer) PublishRecords(ctx context.Context, crimes []domain.CrimeIncident, moonPhases []domain.MoonPhaseData) error {
	msgs := make([]kafkago.Message, 0, len(crimes)+len(moonPhases))

	for i := range crimes {
		msg, err := crimeMessage(crimes[i])
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	for i := range moonPhases {
		msg, err := phaseMessage(moonPhases[i])
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if len(msgs) == 0 {
		return nil
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// crimeMessage marshals a crime incident into a Kafka message keyed by its
// UUID so replays overwrite rather than duplicate.
func crimeMessage(incident domain.CrimeIncident) (kafkago.Message, error) {
	data, err := json.Marshal(incident)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize crime incident: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(incident.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "record_type", Value: []byte("crime_incident")},
			{Key: "observed_at", Value: []byte(incident.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}

// phaseMessage marshals a lunar observation keyed by its timestamp.
func phaseMessage(phase domain.MoonPhaseData) (kafkago.Message, error) {
	data, err := json.Marshal(phase)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize moon phase: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(phase.Timestamp.UTC().Format(time.RFC3339)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "record_type", Value: []byte("moon_phase")},
			{Key: "phase", Value: []byte(phase.Phase)},
		},
	}, nil
}
