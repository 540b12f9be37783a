package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shestoi/webpay-bridge/services/transbank/internal/service"
)

// messageWriter часть kafka.Writer, которая нужна publisher'у
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// LifecyclePublisher реализует service.EventPublisher используя Kafka
type LifecyclePublisher struct {
	logger *zap.Logger
	writer messageWriter
	topic  string
}

// NewLifecyclePublisher создаёт новый Kafka publisher для событий жизненного цикла транзакции
func NewLifecyclePublisher(logger *zap.Logger, brokers []string, topic string) *LifecyclePublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 5 * time.Second,
	}

	return newLifecyclePublisher(logger, writer, topic)
}

func newLifecyclePublisher(logger *zap.Logger, writer messageWriter, topic string) *LifecyclePublisher {
	return &LifecyclePublisher{
		logger: logger,
		writer: writer,
		topic:  topic,
	}
}

// Close закрывает Kafka writer
func (p *LifecyclePublisher) Close() error {
	return p.writer.Close()
}

// PublishLifecycleEvent публикует событие в Kafka.
// Ключ сообщения buy_order (или токен, если buy_order нет), чтобы события одной покупки шли в одну партицию.
func (p *LifecyclePublisher) PublishLifecycleEvent(ctx context.Context, event service.LifecycleEvent) error {
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	payload := Envelope{
		EventID:      uuid.New().String(),
		EventType:    event.Type,
		EventVersion: EnvelopeVersion,
		OccurredAt:   occurredAt.Format(time.RFC3339),
		BuyOrder:     event.BuyOrder,
		Token:        event.Token,
		Data:         event.Payload,
	}

	valueBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	key := event.BuyOrder
	if key == "" {
		key = event.Token
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: valueBytes,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s event to %s: %w", event.Type, p.topic, err)
	}

	p.logger.Info("lifecycle event published",
		zap.String("topic", p.topic),
		zap.String("event_type", event.Type),
		zap.String("buy_order", event.BuyOrder),
	)

	return nil
}

// NoOpPublisher используется, когда Kafka выключена
type NoOpPublisher struct {
	logger *zap.Logger
}

// NewNoOpPublisher создаёт no-op publisher
func NewNoOpPublisher(logger *zap.Logger) *NoOpPublisher {
	return &NoOpPublisher{logger: logger}
}

// PublishLifecycleEvent ничего не делает, только логирует
func (p *NoOpPublisher) PublishLifecycleEvent(ctx context.Context, event service.LifecycleEvent) error {
	p.logger.Debug("no-op publisher: event not sent",
		zap.String("event_type", event.Type),
		zap.String("buy_order", event.BuyOrder),
	)
	return nil
}
