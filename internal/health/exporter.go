// Package health exports completed exposure sessions to external health
// stores. The export path is downstream of session finalization and always
// best-effort: losing an export never loses the session.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// SessionRecord is the wire payload published per completed session.
// Quantity is international units of vitamin D.
type SessionRecord struct {
	UserID     string    `json:"user_id"`
	QuantityIU float64   `json:"quantity_iu"`
	EndTime    time.Time `json:"end_time"`
	Source     string    `json:"source"`
}

const recordSource = "sundose"

// PubSubExporter publishes session records to a Pub/Sub topic, from which
// downstream sinks (HealthKit bridge, data warehouse) consume them.
type PubSubExporter struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topicName string
	logger    zerolog.Logger
}

// PubSubExporterConfig holds configuration for the exporter.
type PubSubExporterConfig struct {
	ProjectID string
	TopicName string
	Logger    zerolog.Logger
}

// NewPubSubExporter creates an exporter publishing to the configured topic.
func NewPubSubExporter(ctx context.Context, cfg PubSubExporterConfig) (*PubSubExporter, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &PubSubExporter{
		client:    client,
		publisher: client.Publisher(cfg.TopicName),
		topicName: cfg.TopicName,
		logger:    cfg.Logger.With().Str("component", "health_export").Logger(),
	}, nil
}

// ExportSession publishes one completed session and waits for the broker
// acknowledgement within the caller's context.
func (e *PubSubExporter) ExportSession(ctx context.Context, userID string, amountIU float64, completedAt time.Time) error {
	record := SessionRecord{
		UserID:     userID,
		QuantityIU: amountIU,
		EndTime:    completedAt,
		Source:     recordSource,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling session record: %w", err)
	}

	result := e.publisher.Publish(ctx, &pubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", e.topicName, err)
	}

	e.logger.Debug().
		Str("message_id", id).
		Str("user_id", userID).
		Float64("quantity_iu", amountIU).
		Msg("session exported")
	return nil
}

// Close flushes pending publishes and releases the client.
func (e *PubSubExporter) Close() error {
	e.publisher.Stop()
	return e.client.Close()
}

// NoopExporter discards session records. Used when no export topic is
// configured.
type NoopExporter struct{}

// ExportSession implements the exporter interface and does nothing.
func (NoopExporter) ExportSession(context.Context, string, float64, time.Time) error {
	return nil
}
