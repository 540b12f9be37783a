package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shestoi/webpay-bridge/services/transbank/internal/repository"
)

func TestMemoryRepository_InitiationLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	id, err := repo.SaveInitiation(ctx, repository.InitiationRecord{
		BuyOrder:     "O1",
		Amount:       int64(1000),
		Status:       repository.StatusPendingInitiation,
		GatewayToken: "T1",
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)
	require.Equal(t, "O1", id)

	err = repo.ConfirmInitiation(ctx, "O1", repository.InitiationConfirmation{
		Status:       "CONFIRMED_AUTHORIZED",
		ResponseCode: int64(0),
	})
	require.NoError(t, err)

	rec, ok := repo.Initiation("O1")
	require.True(t, ok)
	require.Equal(t, "CONFIRMED_AUTHORIZED", rec.Status)
	require.Equal(t, "T1", rec.GatewayToken)

	upd, ok := repo.Confirmation("O1")
	require.True(t, ok)
	require.Equal(t, int64(0), upd.ResponseCode)
}

func TestMemoryRepository_ConfirmUnknownInitiation(t *testing.T) {
	repo := NewMemoryRepository()

	err := repo.ConfirmInitiation(context.Background(), "missing", repository.InitiationConfirmation{})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMemoryRepository_EmptyKeyGetsGeneratedID(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	id1, err := repo.SaveConfirmedTransaction(ctx, repository.ConfirmedTransaction{})
	require.NoError(t, err)
	id2, err := repo.SaveConfirmedTransaction(ctx, repository.ConfirmedTransaction{})
	require.NoError(t, err)

	require.NotEmpty(t, id1)
	require.NotEqual(t, id1, id2)
	require.Equal(t, 2, repo.Counts()[repository.CollectionTransactions])
}

func TestMemoryRepository_AppendOnlyCollections(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	for i := 0; i < 2; i++ {
		_, err := repo.SaveRefund(ctx, repository.RefundRecord{OriginalToken: "T1"})
		require.NoError(t, err)
	}
	_, err := repo.SaveIntegrationError(ctx, repository.IntegrationErrorRecord{ErrorType: "X"})
	require.NoError(t, err)

	require.Len(t, repo.Refunds(), 2)
	require.Len(t, repo.IntegrationErrors(), 1)
}

func TestMemoryRepository_Unavailable(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	repo.SetUnavailable(true)

	_, err := repo.SaveInitiation(ctx, repository.InitiationRecord{BuyOrder: "O1"})
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, repo.Ping(ctx), ErrUnavailable)
	require.ErrorIs(t, repo.ConfirmInitiation(ctx, "O1", repository.InitiationConfirmation{}), ErrUnavailable)

	for _, n := range repo.Counts() {
		require.Zero(t, n)
	}

	repo.SetUnavailable(false)
	require.NoError(t, repo.Ping(ctx))
}
