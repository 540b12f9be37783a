package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/webpay-bridge/services/transbank/internal/service"
)

// fakeReader отдаёт сообщения по очереди, затем ошибку end
type fakeReader struct {
	messages []kafka.Message
	end      error
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.messages) == 0 {
		return kafka.Message{}, r.end
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func TestDecodeEnvelope_RoundTripWithPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := newLifecyclePublisher(zap.NewNop(), w, "events")
	require.NoError(t, p.PublishLifecycleEvent(context.Background(), service.LifecycleEvent{
		Type:     service.EventTransactionCreated,
		BuyOrder: "O1",
		Token:    "T1",
		Payload:  map[string]any{"amount": 1000},
	}))

	env, err := DecodeEnvelope(w.messages[0])
	require.NoError(t, err)
	require.Equal(t, service.EventTransactionCreated, env.EventType)
	require.Equal(t, EnvelopeVersion, env.EventVersion)
	require.Equal(t, "O1", env.BuyOrder)
	require.Equal(t, "T1", env.Token)
	require.NotEmpty(t, env.EventID)
}

func TestDecodeEnvelope_Invalid(t *testing.T) {
	_, err := DecodeEnvelope(kafka.Message{Value: []byte("not json")})
	require.Error(t, err)

	_, err = DecodeEnvelope(kafka.Message{Value: []byte(`{"buy_order":"O1"}`)})
	require.Error(t, err)
}

func TestConsumeLifecycleEvents(t *testing.T) {
	r := &fakeReader{
		messages: []kafka.Message{
			{Value: []byte(`{"event_type":"transbank.transaction.created","buy_order":"O1"}`)},
			{Value: []byte(`garbage`), Offset: 1},
			{Value: []byte(`{"event_type":"transbank.transaction.confirmed","buy_order":"O1"}`), Offset: 2},
		},
		end: context.Canceled,
	}

	var got []string
	err := ConsumeLifecycleEvents(context.Background(), zap.NewNop(), r, func(env Envelope) error {
		got = append(got, env.EventType)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{service.EventTransactionCreated, service.EventTransactionConfirmed}, got)
}

func TestConsumeLifecycleEvents_Errors(t *testing.T) {
	t.Run("reader error", func(t *testing.T) {
		r := &fakeReader{end: errors.New("broker down")}
		err := ConsumeLifecycleEvents(context.Background(), zap.NewNop(), r, func(Envelope) error { return nil })
		require.ErrorContains(t, err, "broker down")
	})

	t.Run("handler error stops", func(t *testing.T) {
		r := &fakeReader{
			messages: []kafka.Message{
				{Value: []byte(`{"event_type":"transbank.transaction.created"}`)},
				{Value: []byte(`{"event_type":"transbank.transaction.confirmed"}`)},
			},
			end: context.Canceled,
		}
		calls := 0
		err := ConsumeLifecycleEvents(context.Background(), zap.NewNop(), r, func(Envelope) error {
			calls++
			return errors.New("stop")
		})
		require.ErrorContains(t, err, "stop")
		require.Equal(t, 1, calls)
	})
}

func TestLifecycleReaderConfig_AlwaysUsesConsumerGroup(t *testing.T) {
	// события одной топики разложены по партициям, читать надо все
	cfg := lifecycleReaderConfig([]string{"localhost:19092"}, "transbank.transaction.events", "")
	require.Equal(t, DefaultConsumerGroup, cfg.GroupID)
	require.Zero(t, cfg.Partition)
	require.Equal(t, kafka.FirstOffset, cfg.StartOffset)

	cfg = lifecycleReaderConfig([]string{"localhost:19092"}, "transbank.transaction.events", "audit")
	require.Equal(t, "audit", cfg.GroupID)
}
