package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/webpay-bridge/services/transbank/internal/service"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestLifecyclePublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newLifecyclePublisher(zap.NewNop(), w, "transbank.transaction.events")

	at := time.Date(2025, 5, 22, 14, 0, 0, 0, time.UTC)
	err := p.PublishLifecycleEvent(context.Background(), service.LifecycleEvent{
		Type:       service.EventTransactionConfirmed,
		BuyOrder:   "O1",
		Token:      "T1",
		OccurredAt: at,
		Payload:    map[string]any{"status": "AUTHORIZED"},
	})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	require.Equal(t, "O1", string(msg.Key))
	require.Equal(t, "event_type", msg.Headers[0].Key)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	require.Equal(t, service.EventTransactionConfirmed, payload["event_type"])
	require.Equal(t, "2025-05-22T14:00:00Z", payload["occurred_at"])
	require.Equal(t, "T1", payload["token"])
	require.NotEmpty(t, payload["event_id"])
	require.Equal(t, "AUTHORIZED", payload["data"].(map[string]any)["status"])

	require.NoError(t, p.Close())
	require.True(t, w.closed)
}

func TestLifecyclePublisher_KeyFallsBackToToken(t *testing.T) {
	w := &fakeWriter{}
	p := newLifecyclePublisher(zap.NewNop(), w, "events")

	err := p.PublishLifecycleEvent(context.Background(), service.LifecycleEvent{
		Type:  service.EventTransactionRefunded,
		Token: "T9",
	})
	require.NoError(t, err)
	require.Equal(t, "T9", string(w.messages[0].Key))
}

func TestLifecyclePublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := newLifecyclePublisher(zap.NewNop(), w, "events")

	err := p.PublishLifecycleEvent(context.Background(), service.LifecycleEvent{Type: service.EventTransactionCreated, BuyOrder: "O1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "leader not available")
}

func TestNoOpPublisher(t *testing.T) {
	p := NewNoOpPublisher(zap.NewNop())
	require.NoError(t, p.PublishLifecycleEvent(context.Background(), service.LifecycleEvent{Type: service.EventTransactionCreated}))
}
