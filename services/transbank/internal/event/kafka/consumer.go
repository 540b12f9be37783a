package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EnvelopeVersion текущая версия формата события
const EnvelopeVersion = 1

// Envelope сообщение в топике событий жизненного цикла транзакции
type Envelope struct {
	EventID      string         `json:"event_id"`
	EventType    string         `json:"event_type"`
	EventVersion int            `json:"event_version"`
	OccurredAt   string         `json:"occurred_at"`
	BuyOrder     string         `json:"buy_order"`
	Token        string         `json:"token"`
	Data         map[string]any `json:"data"`
}

// DecodeEnvelope разбирает значение сообщения Kafka
func DecodeEnvelope(msg kafka.Message) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode event at offset %d: %w", msg.Offset, err)
	}
	if env.EventType == "" {
		return Envelope{}, fmt.Errorf("event at offset %d has no event_type", msg.Offset)
	}
	return env, nil
}

// messageReader часть kafka.Reader, которая нужна consumer'у
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// DefaultConsumerGroup consumer group по умолчанию для чтения событий
const DefaultConsumerGroup = "transbank-events"

// NewLifecycleReader создаёт kafka.Reader для топика событий, всегда в составе consumer group:
// без GroupID kafka-go читает только партицию 0. Пустой groupID заменяется на DefaultConsumerGroup.
func NewLifecycleReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(lifecycleReaderConfig(brokers, topic, groupID))
}

func lifecycleReaderConfig(brokers []string, topic, groupID string) kafka.ReaderConfig {
	if groupID == "" {
		groupID = DefaultConsumerGroup
	}
	return kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    1 << 20,
		StartOffset: kafka.FirstOffset,
	}
}

// ConsumeLifecycleEvents читает события до отмены ctx.
// Нераспознанные сообщения логируются и пропускаются; ошибка handle останавливает чтение.
func ConsumeLifecycleEvents(ctx context.Context, logger *zap.Logger, reader messageReader, handle func(Envelope) error) error {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("read lifecycle event: %w", err)
		}

		env, err := DecodeEnvelope(msg)
		if err != nil {
			logger.Warn("skipping malformed lifecycle event",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			continue
		}

		if err := handle(env); err != nil {
			return err
		}
	}
}
