package service

import (
	"context"
	"time"
)

// GatewayResponse сырой ответ шлюза: статус и тело без изменений
type GatewayResponse struct {
	StatusCode int
	Body       []byte
}

// OK true для 2xx
func (r GatewayResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=GatewayClient --dir=. --output=./mocks --outpkg=mocks

// GatewayClient определяет интерфейс для работы с REST API Transbank Webpay
// Ошибка возвращается только при сбое транспорта; любой полученный ответ, включая не-2xx,
// возвращается как GatewayResponse
type GatewayClient interface {
	// CreateTransaction POST /transactions с телом запроса как есть
	CreateTransaction(ctx context.Context, body map[string]any) (GatewayResponse, error)

	// CommitTransaction PUT /transactions/{token} без тела
	CommitTransaction(ctx context.Context, token string) (GatewayResponse, error)

	// RefundTransaction POST /transactions/{token}/refunds
	RefundTransaction(ctx context.Context, token string, body map[string]any) (GatewayResponse, error)

	// TransactionStatus GET /transactions/{token}
	TransactionStatus(ctx context.Context, token string) (GatewayResponse, error)
}

// Типы событий жизненного цикла транзакции
const (
	EventTransactionCreated   = "transbank.transaction.created"
	EventTransactionConfirmed = "transbank.transaction.confirmed"
	EventTransactionRefunded  = "transbank.transaction.refunded"
)

// LifecycleEvent событие об успешном вызове шлюза.
// Payload не содержит данных карты.
type LifecycleEvent struct {
	Type       string
	BuyOrder   string
	Token      string
	OccurredAt time.Time
	Payload    map[string]any
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=EventPublisher --dir=. --output=./mocks --outpkg=mocks

// EventPublisher публикует события жизненного цикла транзакции
type EventPublisher interface {
	PublishLifecycleEvent(ctx context.Context, event LifecycleEvent) error
}
