// AngelaMos | 2026
// publisher.go

// Package events publishes domain events to Kafka. Publishing is best
// effort: the audit log is the durable record, so a failed publish is
// logged and never fails the request that produced it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/carterperez-dev/templates/tenant-api/internal/config"
	"github.com/carterperez-dev/templates/tenant-api/internal/middleware"
)

const (
	TypeUserCreated       = "user.created"
	TypeUserUpdated       = "user.updated"
	TypeUserStatusChanged = "user.status_changed"
	TypeUserAnonymized    = "user.anonymized"
	TypeRoleCreated       = "role.created"
	TypeProfileCreated    = "profile.created"
	TypeTenantProvisioned = "tenant.provisioned"
	TypeTenantStatus      = "tenant.status_changed"
)

type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	TenantID      string    `json:"tenantId"`
	SubjectID     string    `json:"subjectId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
	Data          any       `json:"data,omitempty"`
}

func New(ctx context.Context, eventType, tenantID, subjectID string, data any) Event {
	return Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		TenantID:      tenantID,
		SubjectID:     subjectID,
		CorrelationID: middleware.GetCorrelationID(ctx),
		OccurredAt:    time.Now().UTC(),
		Data:          data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerLinger(10*time.Millisecond),
		kgo.RecordDeliveryTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &KafkaPublisher{client: client, topic: cfg.Topic, logger: logger}, nil
}

// Publish enqueues e keyed by tenant, so one tenant's events stay ordered
// within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) {
	record, err := toRecord(e)
	if err != nil {
		p.logger.ErrorContext(ctx, "encode event", "error", err, "type", e.Type)
		return
	}
	record.Topic = p.topic

	p.client.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("publish event",
				"error", err,
				"type", e.Type,
				"event_id", e.ID,
				"correlation_id", e.CorrelationID,
			)
		}
	})
}

func (p *KafkaPublisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx); err != nil {
		return fmt.Errorf("kafka ping failed: %w", err)
	}
	return nil
}

// Close flushes buffered records before closing the client.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	defer p.client.Close()
	if err := p.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush kafka producer: %w", err)
	}
	return nil
}

func toRecord(e Event) (*kgo.Record, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	headers := []kgo.RecordHeader{
		{Key: "event-type", Value: []byte(e.Type)},
	}
	if e.CorrelationID != "" {
		headers = append(headers, kgo.RecordHeader{
			Key:   "x-correlation-id",
			Value: []byte(e.CorrelationID),
		})
	}

	return &kgo.Record{
		Key:     []byte(e.TenantID),
		Value:   value,
		Headers: headers,
	}, nil
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) {}

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = NoopPublisher{}
)
