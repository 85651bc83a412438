package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketlive/internal/domain/outbox"
	"marketlive/internal/logger"
	"marketlive/internal/notify"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the part of *kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// WorkflowSink publishes shipment workflow hooks to Kafka.
type WorkflowSink struct {
	writer MessageWriter
	topic  string
}

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
}

func NewWorkflowSink(writer MessageWriter, topic string) *WorkflowSink {
	return &WorkflowSink{writer: writer, topic: topic}
}

func (s *WorkflowSink) Deliver(ctx context.Context, task *outbox.Task) error {
	var p notify.WorkflowPayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		return fmt.Errorf("%w: bad workflow payload: %v", notify.ErrPermanent, err)
	}

	msg := kafka.Message{
		Key:   []byte(p.ShipmentID),
		Value: task.Payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(p.Event)},
			{Key: "idempotency-key", Value: []byte(task.IdempotencyKey)},
			{Key: "aggregate-type", Value: []byte(task.AggregateType)},
			{Key: "content-type", Value: []byte("application/json")},
		},
		Time: p.OccurredAt,
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", s.topic, err)
	}

	logger.Debug("Published workflow hook",
		zap.String("topic", s.topic),
		zap.String("shipment_id", p.ShipmentID),
		zap.String("status", p.Status),
	)
	return nil
}

func (s *WorkflowSink) Close() error {
	return s.writer.Close()
}

// LogSink replaces Kafka when no brokers are configured.
type LogSink struct{}

func (LogSink) Deliver(_ context.Context, task *outbox.Task) error {
	logger.Info("Workflow hook (no broker configured)",
		zap.String("key", task.IdempotencyKey),
		zap.ByteString("payload", task.Payload),
	)
	return nil
}
