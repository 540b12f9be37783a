// Package main читает события жизненного цикла транзакций из Kafka и печатает их в лог.
//
// Брокеры и топик берутся из тех же переменных, что и у transbank-api:
//   - KAFKA_BROKERS (например, "localhost:19092" или "kafka:9092" для Docker)
//   - KAFKA_TRANSBANK_EVENTS_TOPIC (по умолчанию transbank.transaction.events)
//
// Чтение всегда идёт в consumer group (KAFKA_CONSUMER_GROUP, по умолчанию transbank-events),
// поэтому читаются все партиции топика. Новая группа начинает с самого раннего offset'а.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	platformkafka "github.com/shestoi/webpay-bridge/platform/kafka"
	platformlogging "github.com/shestoi/webpay-bridge/platform/logging"
	eventkafka "github.com/shestoi/webpay-bridge/services/transbank/internal/event/kafka"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: "transbank-events",
		Env:         "local",
		Level:       os.Getenv("LOG_LEVEL"),
		Format:      "console",
		AddCaller:   true,
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer platformlogging.Sync(logger)

	cfg := platformkafka.DefaultConfig()
	if err := platformkafka.LoadEnv(&cfg); err != nil {
		logger.Error("failed to load kafka config", zap.Error(err))
		return err
	}

	groupID := os.Getenv("KAFKA_CONSUMER_GROUP")
	if groupID == "" {
		groupID = eventkafka.DefaultConsumerGroup
	}

	reader := eventkafka.NewLifecycleReader(cfg.Brokers, cfg.Topic, groupID)
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Error("failed to close kafka reader", zap.Error(err))
		}
	}()

	logger.Info("reading lifecycle events",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
		zap.String("group_id", groupID),
	)

	err = eventkafka.ConsumeLifecycleEvents(ctx, logger, reader, func(env eventkafka.Envelope) error {
		logger.Info("lifecycle event",
			zap.String("event_type", env.EventType),
			zap.String("buy_order", env.BuyOrder),
			zap.String("token", env.Token),
			zap.String("occurred_at", env.OccurredAt),
			zap.Any("data", env.Data),
		)
		return nil
	})
	if err != nil {
		logger.Error("consumer stopped", zap.Error(err))
		return err
	}
	return nil
}
