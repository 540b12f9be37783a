package repository

import (
	"context"
	"errors"
	"time"
)

// Коллекции документного хранилища. Имена совпадают с уже существующими коллекциями Firestore.
const (
	CollectionInitiations       = "transbank_testing"
	CollectionTransactions      = "transbank_transactions"
	CollectionRefunds           = "transbank_refunds"
	CollectionIntegrationErrors = "transbank_firebase_errors"
)

// Статусы записи инициации
const (
	StatusPendingInitiation = "PENDING_INITIATION"
	StatusConfirmedPrefix   = "CONFIRMED_"
)

// InitiationRecord снимок успешного create, ключ документа = buy_order
type InitiationRecord struct {
	BuyOrder     string    `bson:"buy_order" firestore:"buy_order"`
	Amount       any       `bson:"amount" firestore:"amount"`
	Status       string    `bson:"status" firestore:"status"`
	GatewayToken string    `bson:"transbank_token" firestore:"transbank_token"`
	CreatedAt    time.Time `bson:"created_at" firestore:"created_at"`
}

// InitiationConfirmation поля, которые commit обновляет в записи инициации
type InitiationConfirmation struct {
	Status       string
	ResponseCode any
	ConfirmedAt  time.Time
}

// ConfirmedTransaction снимок успешного commit.
// CardLast4 содержит не больше 4 последних символов номера карты.
type ConfirmedTransaction struct {
	BuyOrder               string         `bson:"buy_order" firestore:"buy_order"`
	SessionID              any            `bson:"session_id" firestore:"session_id"`
	Amount                 any            `bson:"amount" firestore:"amount"`
	Status                 string         `bson:"status" firestore:"status"`
	ResponseCode           any            `bson:"response_code" firestore:"response_code"`
	VCI                    string         `bson:"vci" firestore:"vci"`
	CardLast4              string         `bson:"card_number_last_4" firestore:"card_number_last_4"`
	AccountingID           any            `bson:"accounting_id" firestore:"accounting_id"`
	GatewayTransactionDate string         `bson:"transaction_date_tbk" firestore:"transaction_date_tbk"`
	AuthorizationCode      string         `bson:"authorization_code" firestore:"authorization_code"`
	PaymentTypeCode        string         `bson:"payment_type_code" firestore:"payment_type_code"`
	InstallmentsNumber     any            `bson:"installments_number" firestore:"installments_number"`
	CommerceCode           any            `bson:"commerce_code" firestore:"commerce_code"`
	GatewayToken           string         `bson:"transbank_token_ws" firestore:"transbank_token_ws"`
	ProcessedAt            time.Time      `bson:"processed_at" firestore:"processed_at"`
	RawGatewayResponse     map[string]any `bson:"raw_transbank_response" firestore:"raw_transbank_response"`
}

// RefundRecord снимок reverse-or-cancel, только добавление
type RefundRecord struct {
	OriginalToken  string         `bson:"original_token_ws" firestore:"original_token_ws"`
	RefundAmount   any            `bson:"refund_amount" firestore:"refund_amount"`
	RefundResponse map[string]any `bson:"refund_response" firestore:"refund_response"`
	RefundAt       time.Time      `bson:"refund_at" firestore:"refund_at"`
}

// IntegrationErrorRecord диагностическая запись о сбое самого хранилища, только добавление
type IntegrationErrorRecord struct {
	ErrorType       string         `bson:"error_type" firestore:"error_type"`
	Token           string         `bson:"token_ws" firestore:"token_ws"`
	Message         string         `bson:"message" firestore:"message"`
	Timestamp       time.Time      `bson:"timestamp" firestore:"timestamp"`
	Traceback       string         `bson:"traceback" firestore:"traceback"`
	GatewayResponse map[string]any `bson:"transbank_response" firestore:"transbank_response"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=BookkeepingRepository --dir=. --output=./mocks --outpkg=mocks

// BookkeepingRepository определяет операции бухгалтерии поверх документного хранилища
// Service слой зависит от этого интерфейса, а не от Firestore/MongoDB
type BookkeepingRepository interface {
	// SaveInitiation записывает запись инициации под ключом BuyOrder (upsert),
	// при пустом BuyOrder - под автоматически сгенерированным ID. Возвращает ID документа.
	SaveInitiation(ctx context.Context, rec InitiationRecord) (string, error)

	// ConfirmInitiation обновляет статус записи инициации с ключом buyOrder
	// Возвращает ErrNotFound, если записи нет
	ConfirmInitiation(ctx context.Context, buyOrder string, upd InitiationConfirmation) error

	// SaveConfirmedTransaction делает upsert по BuyOrder, при пустом BuyOrder - insert с авто ID
	SaveConfirmedTransaction(ctx context.Context, tx ConfirmedTransaction) (string, error)

	// SaveRefund добавляет запись о возврате
	SaveRefund(ctx context.Context, rec RefundRecord) (string, error)

	// SaveIntegrationError добавляет диагностическую запись
	SaveIntegrationError(ctx context.Context, rec IntegrationErrorRecord) (string, error)

	// Ping проверяет доступность хранилища (для readiness)
	Ping(ctx context.Context) error
}

// ErrNotFound возвращается, когда документ не найден в хранилище
var ErrNotFound = errors.New("document not found")
