package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/shestoi/webpay-bridge/platform/observability"
	"github.com/shestoi/webpay-bridge/services/transbank/internal/repository"
)

// Имена побочных записей (метка write в метриках)
const (
	WriteInitiation           = "save_initiation"
	WriteConfirmedTransaction = "save_confirmed_transaction"
	WriteConfirmInitiation    = "confirm_initiation"
	WriteRefund               = "save_refund"
	WriteIntegrationError     = "save_integration_error"
	WritePublishEvent         = "publish_event"
)

const (
	integrationErrorType = "Document Store Save Error"
	cardNumberAbsent     = "N/A"
	statusUnknown        = "UNKNOWN"
)

// Bookkeeper пишет снимки шагов транзакции в документное хранилище.
// Все записи best-effort: ошибки логируются и возвращаются только как Outcome.
type Bookkeeper struct {
	logger  *zap.Logger
	repo    repository.BookkeepingRepository
	effects sideEffectRunner
	now     func() time.Time
}

// NewBookkeeper создаёт Bookkeeper; timeout ограничивает каждую отдельную запись
func NewBookkeeper(logger *zap.Logger, repo repository.BookkeepingRepository, timeout time.Duration, recorder OutcomeRecorder) *Bookkeeper {
	return &Bookkeeper{
		logger: logger,
		repo:   repo,
		effects: sideEffectRunner{
			logger:   logger,
			timeout:  timeout,
			recorder: recorder,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// RecordInitiation сохраняет запись инициации со статусом PENDING_INITIATION
func (b *Bookkeeper) RecordInitiation(ctx context.Context, request, gateway map[string]any) Outcome {
	rec := repository.InitiationRecord{
		BuyOrder:     stringField(request, "buy_order"),
		Amount:       normalize(request["amount"]),
		Status:       repository.StatusPendingInitiation,
		GatewayToken: stringField(gateway, "token"),
		CreatedAt:    b.now(),
	}

	return b.effects.run(ctx, WriteInitiation, func(ctx context.Context) error {
		_, err := b.repo.SaveInitiation(ctx, rec)
		return err
	})
}

// RecordCommit сохраняет подтверждённую транзакцию и, если есть buy_order, обновляет запись инициации.
// Записи независимы: сбой одной не отменяет другую. Каждый сбой дополнительно пишется
// в коллекцию ошибок интеграции.
func (b *Bookkeeper) RecordCommit(ctx context.Context, token string, gateway map[string]any) []Outcome {
	tx := BuildConfirmedTransaction(token, gateway, b.now())
	outcomes := make([]Outcome, 0, 4)

	saved := b.effects.run(ctx, WriteConfirmedTransaction, func(ctx context.Context) error {
		_, err := b.repo.SaveConfirmedTransaction(ctx, tx)
		return err
	})
	outcomes = append(outcomes, saved)
	if !saved.Succeeded() {
		outcomes = append(outcomes, b.recordIntegrationError(ctx, token, saved, tx.RawGatewayResponse))
	}

	if tx.BuyOrder == "" {
		return outcomes
	}

	upd := repository.InitiationConfirmation{
		Status:       ConfirmedStatus(stringField(gateway, "status")),
		ResponseCode: normalize(gateway["response_code"]),
		ConfirmedAt:  b.now(),
	}
	confirmed := b.effects.run(ctx, WriteConfirmInitiation, func(ctx context.Context) error {
		err := b.repo.ConfirmInitiation(ctx, tx.BuyOrder, upd)
		if errors.Is(err, repository.ErrNotFound) {
			observability.L(ctx, b.logger).Warn("initiation record not found, status not updated",
				zap.String("buy_order", tx.BuyOrder),
			)
			return nil
		}
		return err
	})
	outcomes = append(outcomes, confirmed)
	if !confirmed.Succeeded() {
		outcomes = append(outcomes, b.recordIntegrationError(ctx, token, confirmed, tx.RawGatewayResponse))
	}

	return outcomes
}

// RecordRefund добавляет запись о возврате/отмене
func (b *Bookkeeper) RecordRefund(ctx context.Context, token string, amount any, gateway map[string]any) Outcome {
	rec := repository.RefundRecord{
		OriginalToken:  token,
		RefundAmount:   normalize(amount),
		RefundResponse: MaskCardNumbers(normalizeMap(gateway)),
		RefundAt:       b.now(),
	}

	return b.effects.run(ctx, WriteRefund, func(ctx context.Context) error {
		_, err := b.repo.SaveRefund(ctx, rec)
		return err
	})
}

// recordIntegrationError сохраняет диагностику о сбое записи; если и она не удалась, остаётся только лог
func (b *Bookkeeper) recordIntegrationError(ctx context.Context, token string, failed Outcome, gateway map[string]any) Outcome {
	rec := repository.IntegrationErrorRecord{
		ErrorType:       integrationErrorType,
		Token:           token,
		Message:         fmt.Sprintf("%s: %v", failed.Name, failed.Err),
		Timestamp:       b.now(),
		Traceback:       traceback(failed.Err),
		GatewayResponse: gateway,
	}

	return b.effects.run(ctx, WriteIntegrationError, func(ctx context.Context) error {
		_, err := b.repo.SaveIntegrationError(ctx, rec)
		return err
	})
}

// BuildConfirmedTransaction собирает снимок подтверждённой транзакции из ответа шлюза.
// Номер карты сокращается до последних 4 символов и в полях записи, и в сохранённом сыром ответе.
func BuildConfirmedTransaction(token string, gateway map[string]any, processedAt time.Time) repository.ConfirmedTransaction {
	accountingID := gateway["accounting_id"]
	if accountingID == nil {
		accountingID = gateway["accounting_date"]
	}

	return repository.ConfirmedTransaction{
		BuyOrder:               stringField(gateway, "buy_order"),
		SessionID:              normalize(gateway["session_id"]),
		Amount:                 normalize(gateway["amount"]),
		Status:                 stringField(gateway, "status"),
		ResponseCode:           normalize(gateway["response_code"]),
		VCI:                    stringField(gateway, "vci"),
		CardLast4:              CardLast4(gateway),
		AccountingID:           normalize(accountingID),
		GatewayTransactionDate: stringField(gateway, "transaction_date"),
		AuthorizationCode:      stringField(gateway, "authorization_code"),
		PaymentTypeCode:        stringField(gateway, "payment_type_code"),
		InstallmentsNumber:     normalize(gateway["installments_number"]),
		CommerceCode:           normalize(gateway["commerce_code"]),
		GatewayToken:           token,
		ProcessedAt:            processedAt,
		RawGatewayResponse:     MaskCardNumbers(normalizeMap(gateway)),
	}
}

// ConfirmedStatus статус записи инициации после commit: CONFIRMED_<status>, UNKNOWN если статуса нет
func ConfirmedStatus(gatewayStatus string) string {
	if gatewayStatus == "" {
		gatewayStatus = statusUnknown
	}
	return repository.StatusConfirmedPrefix + gatewayStatus
}

// CardLast4 возвращает последние 4 символа card_detail.card_number или "N/A"
func CardLast4(gateway map[string]any) string {
	detail, ok := gateway["card_detail"].(map[string]any)
	if !ok {
		return cardNumberAbsent
	}
	number := stringField(detail, "card_number")
	if number == "" {
		return cardNumberAbsent
	}
	return lastN(number, 4)
}

// MaskCardNumbers возвращает копию ответа, где card_detail.card_number сокращён до 4 символов
func MaskCardNumbers(gateway map[string]any) map[string]any {
	if gateway == nil {
		return nil
	}
	out := make(map[string]any, len(gateway))
	for k, v := range gateway {
		out[k] = v
	}

	detail, ok := gateway["card_detail"].(map[string]any)
	if !ok {
		return out
	}
	masked := make(map[string]any, len(detail))
	for k, v := range detail {
		masked[k] = v
	}
	if number := stringField(detail, "card_number"); number != "" {
		masked["card_number"] = lastN(number, 4)
	}
	out["card_detail"] = masked
	return out
}

func lastN(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func traceback(err error) string {
	var p *panicError
	if errors.As(err, &p) {
		return string(p.stack)
	}
	return fmt.Sprintf("%+v\n%s", err, debug.Stack())
}
