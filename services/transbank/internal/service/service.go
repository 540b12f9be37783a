package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shestoi/webpay-bridge/platform/observability"
)

// Обязательные поля запроса create
var createRequiredFields = []string{"buy_order", "session_id", "amount", "return_url"}

// Result успешный ответ шлюза, который хендлер отдаёт как есть со статусом 200.
// Бухгалтерия отложена до Bookkeep, чтобы медленное хранилище не задерживало ответ.
type Result struct {
	Body     json.RawMessage
	followup func(ctx context.Context) []Outcome
}

// Bookkeep выполняет отложенные побочные записи и возвращает их исходы.
// Повторный вызов ничего не делает.
func (r *Result) Bookkeep(ctx context.Context) []Outcome {
	if r == nil || r.followup == nil {
		return nil
	}
	fn := r.followup
	r.followup = nil
	return fn(ctx)
}

// TransactionService пересылает шаги жизненного цикла транзакции в Transbank
// и делает best-effort бухгалтерию после успешного ответа шлюза
type TransactionService struct {
	logger    *zap.Logger
	gateway   GatewayClient
	books     *Bookkeeper
	publisher EventPublisher
	now       func() time.Time
	pending   sync.WaitGroup
}

// NewTransactionService создаёт новый экземпляр TransactionService
// publisher может быть nil: тогда события не публикуются
func NewTransactionService(logger *zap.Logger, gateway GatewayClient, books *Bookkeeper, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		logger:    logger,
		gateway:   gateway,
		books:     books,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create создаёт транзакцию в шлюзе.
// Create не идемпотентен на стороне шлюза и никогда не повторяется.
func (s *TransactionService) Create(ctx context.Context, request map[string]any) (*Result, error) {
	if request == nil {
		return nil, &ValidationError{Message: "incomplete transaction data"}
	}
	for _, key := range createRequiredFields {
		if _, ok := request[key]; !ok {
			return nil, &ValidationError{Message: fmt.Sprintf("incomplete transaction data: %s is required", key)}
		}
	}

	log := observability.L(ctx, s.logger)
	buyOrder := stringField(request, "buy_order")

	resp, err := s.gateway.CreateTransaction(ctx, request)
	if err != nil {
		log.Error("gateway create failed", zap.String("buy_order", buyOrder), zap.Error(err))
		return nil, &UpstreamError{Op: "create transaction", Err: err}
	}
	if !resp.OK() {
		log.Warn("gateway create rejected",
			zap.String("buy_order", buyOrder),
			zap.Int("gateway_status", resp.StatusCode),
		)
		return nil, &UpstreamError{Op: "create transaction", StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	payload, err := DecodeObject(resp.Body)
	if err != nil {
		return nil, &InternalError{Err: fmt.Errorf("decode gateway create response: %w", err)}
	}

	token := stringField(payload, "token")
	log.Info("transaction created", zap.String("buy_order", buyOrder), zap.String("token", token))

	event := LifecycleEvent{
		Type:       EventTransactionCreated,
		BuyOrder:   buyOrder,
		Token:      token,
		OccurredAt: s.now(),
		Payload: map[string]any{
			"amount":     normalize(request["amount"]),
			"session_id": normalize(request["session_id"]),
		},
	}

	return &Result{Body: resp.Body, followup: func(ctx context.Context) []Outcome {
		outcomes := []Outcome{s.books.RecordInitiation(ctx, request, payload)}
		return s.publish(ctx, outcomes, event)
	}}, nil
}

// Commit подтверждает транзакцию по токену
func (s *TransactionService) Commit(ctx context.Context, token string) (*Result, error) {
	if token == "" {
		return nil, &ValidationError{Message: "token is required"}
	}

	log := observability.L(ctx, s.logger)

	resp, err := s.gateway.CommitTransaction(ctx, token)
	if err != nil {
		log.Error("gateway commit failed", zap.String("token", token), zap.Error(err))
		return nil, &UpstreamError{Op: "commit transaction", Relay: true, Err: err}
	}
	if !resp.OK() {
		log.Warn("gateway commit rejected",
			zap.String("token", token),
			zap.Int("gateway_status", resp.StatusCode),
		)
		return nil, &UpstreamError{Op: "commit transaction", StatusCode: resp.StatusCode, Body: string(resp.Body), Relay: true}
	}

	payload, err := DecodeObject(resp.Body)
	if err != nil {
		return nil, &InternalError{Err: fmt.Errorf("decode gateway commit response: %w", err)}
	}

	buyOrder := stringField(payload, "buy_order")
	status := stringField(payload, "status")
	log.Info("transaction committed",
		zap.String("token", token),
		zap.String("buy_order", buyOrder),
		zap.String("status", status),
	)

	event := LifecycleEvent{
		Type:       EventTransactionConfirmed,
		BuyOrder:   buyOrder,
		Token:      token,
		OccurredAt: s.now(),
		Payload: map[string]any{
			"status":             status,
			"amount":             normalize(payload["amount"]),
			"response_code":      normalize(payload["response_code"]),
			"authorization_code": stringField(payload, "authorization_code"),
		},
	}

	return &Result{Body: resp.Body, followup: func(ctx context.Context) []Outcome {
		outcomes := s.books.RecordCommit(ctx, token, payload)
		return s.publish(ctx, outcomes, event)
	}}, nil
}

// Refund делает reverse-or-cancel транзакции по токену
func (s *TransactionService) Refund(ctx context.Context, token string, request map[string]any) (*Result, error) {
	if token == "" {
		return nil, &ValidationError{Message: "token is required"}
	}
	amount, ok := request["amount"]
	if !ok {
		return nil, &ValidationError{Message: "refund amount is required"}
	}

	log := observability.L(ctx, s.logger)

	resp, err := s.gateway.RefundTransaction(ctx, token, request)
	if err != nil {
		log.Error("gateway refund failed", zap.String("token", token), zap.Error(err))
		return nil, &UpstreamError{Op: "refund transaction", Relay: true, Err: err}
	}
	if !resp.OK() {
		log.Warn("gateway refund rejected",
			zap.String("token", token),
			zap.Int("gateway_status", resp.StatusCode),
		)
		return nil, &UpstreamError{Op: "refund transaction", StatusCode: resp.StatusCode, Body: string(resp.Body), Relay: true}
	}

	payload, err := DecodeObject(resp.Body)
	if err != nil {
		return nil, &InternalError{Err: fmt.Errorf("decode gateway refund response: %w", err)}
	}

	log.Info("transaction refunded", zap.String("token", token), zap.String("type", stringField(payload, "type")))

	event := LifecycleEvent{
		Type:       EventTransactionRefunded,
		Token:      token,
		OccurredAt: s.now(),
		Payload: map[string]any{
			"amount": normalize(amount),
			"type":   stringField(payload, "type"),
		},
	}

	return &Result{Body: resp.Body, followup: func(ctx context.Context) []Outcome {
		outcomes := []Outcome{s.books.RecordRefund(ctx, token, amount, payload)}
		return s.publish(ctx, outcomes, event)
	}}, nil
}

// Status запрашивает состояние транзакции; бухгалтерии нет
func (s *TransactionService) Status(ctx context.Context, token string) (*Result, error) {
	if token == "" {
		return nil, &ValidationError{Message: "token is required"}
	}

	resp, err := s.gateway.TransactionStatus(ctx, token)
	if err != nil {
		observability.L(ctx, s.logger).Error("gateway status failed", zap.String("token", token), zap.Error(err))
		return nil, &UpstreamError{Op: "transaction status", Relay: true, Err: err}
	}
	if !resp.OK() {
		return nil, &UpstreamError{Op: "transaction status", StatusCode: resp.StatusCode, Body: string(resp.Body), Relay: true}
	}

	if _, err := DecodeObject(resp.Body); err != nil {
		return nil, &InternalError{Err: fmt.Errorf("decode gateway status response: %w", err)}
	}

	return &Result{Body: resp.Body}, nil
}

// publish отправляет событие через тот же механизм побочных записей, что и бухгалтерия
func (s *TransactionService) publish(ctx context.Context, outcomes []Outcome, event LifecycleEvent) []Outcome {
	if s.publisher == nil {
		return outcomes
	}

	out := s.books.effects.run(ctx, WritePublishEvent, func(ctx context.Context) error {
		return s.publisher.PublishLifecycleEvent(ctx, event)
	})
	return append(outcomes, out)
}

// Dispatch запускает бухгалтерию результата в фоне. Хендлер вызывает его после записи ответа.
func (s *TransactionService) Dispatch(ctx context.Context, res *Result) {
	ctx = context.WithoutCancel(ctx)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		res.Bookkeep(ctx)
	}()
}

// Drain ждёт завершения фоновой бухгалтерии или отмены ctx; регистрируется в shutdown manager
func (s *TransactionService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain bookkeeping: %w", ctx.Err())
	}
}
