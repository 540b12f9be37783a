package service_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/webpay-bridge/services/transbank/internal/repository"
	"github.com/shestoi/webpay-bridge/services/transbank/internal/service"
	"github.com/shestoi/webpay-bridge/services/transbank/internal/service/mocks"
)

// stalledRepository зависает на каждой записи до истечения ctx
type stalledRepository struct {
	writes atomic.Int32
}

func (r *stalledRepository) wait(ctx context.Context) error {
	r.writes.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (r *stalledRepository) SaveInitiation(ctx context.Context, _ repository.InitiationRecord) (string, error) {
	return "", r.wait(ctx)
}

func (r *stalledRepository) ConfirmInitiation(ctx context.Context, _ string, _ repository.InitiationConfirmation) error {
	return r.wait(ctx)
}

func (r *stalledRepository) SaveConfirmedTransaction(ctx context.Context, _ repository.ConfirmedTransaction) (string, error) {
	return "", r.wait(ctx)
}

func (r *stalledRepository) SaveRefund(ctx context.Context, _ repository.RefundRecord) (string, error) {
	return "", r.wait(ctx)
}

func (r *stalledRepository) SaveIntegrationError(ctx context.Context, _ repository.IntegrationErrorRecord) (string, error) {
	return "", r.wait(ctx)
}

func (r *stalledRepository) Ping(ctx context.Context) error {
	return nil
}

func TestTransactionService_StalledStoreDoesNotDelayResult(t *testing.T) {
	ctx := context.Background()
	const writeTimeout = 200 * time.Millisecond

	gw := mocks.NewGatewayClient(t)
	repo := &stalledRepository{}
	books := service.NewBookkeeper(zap.NewNop(), repo, writeTimeout, nil)
	svc := service.NewTransactionService(zap.NewNop(), gw, books, nil)

	gw.On("CommitTransaction", mock.Anything, "T1").
		Return(service.GatewayResponse{StatusCode: http.StatusOK, Body: []byte(commitBody)}, nil).Once()

	// Act: результат готов без обращения к хранилищу
	start := time.Now()
	res, err := svc.Commit(ctx, "T1")
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.JSONEq(t, commitBody, string(res.Body))
	require.Less(t, elapsed, writeTimeout)
	require.Zero(t, repo.writes.Load())

	// Фоновая бухгалтерия упирается в таймауты, но завершается и дожидается Drain
	svc.Dispatch(ctx, res)
	drainCtx, cancel := context.WithTimeout(ctx, 10*writeTimeout)
	defer cancel()
	require.NoError(t, svc.Drain(drainCtx))

	// confirmed tx + ошибка интеграции + confirm initiation + ошибка интеграции
	require.Equal(t, int32(4), repo.writes.Load())
	require.Empty(t, res.Bookkeep(ctx))
}

func TestTransactionService_DrainRespectsContext(t *testing.T) {
	gw := mocks.NewGatewayClient(t)
	books := service.NewBookkeeper(zap.NewNop(), &stalledRepository{}, time.Second, nil)
	svc := service.NewTransactionService(zap.NewNop(), gw, books, nil)

	gw.On("CreateTransaction", mock.Anything, mock.Anything).
		Return(service.GatewayResponse{StatusCode: http.StatusOK, Body: []byte(`{"token":"T1"}`)}, nil).Once()

	res, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	svc.Dispatch(context.Background(), res)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, svc.Drain(ctx), context.DeadlineExceeded)

	// после таймаута записи фон всё равно завершается
	require.NoError(t, svc.Drain(context.Background()))
}
