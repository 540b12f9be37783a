package firestore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/shestoi/webpay-bridge/services/transbank/internal/repository"
)

// NewClient создаёт клиент Firestore.
// Если задан FIRESTORE_EMULATOR_HOST, SDK сам подключается к эмулятору и файл ключа не нужен.
// Пустой credentialsFile означает Application Default Credentials.
func NewClient(ctx context.Context, projectID, credentialsFile string) (*firestore.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" && os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return client, nil
}

// Repository реализует BookkeepingRepository поверх Firestore
type Repository struct {
	client *firestore.Client
}

// NewRepository создаёт новый Firestore репозиторий
func NewRepository(client *firestore.Client) *Repository {
	return &Repository{client: client}
}

func (r *Repository) SaveInitiation(ctx context.Context, rec repository.InitiationRecord) (string, error) {
	return r.set(ctx, repository.CollectionInitiations, rec.BuyOrder, rec)
}

// ConfirmInitiation обновляет документ инициации по ключу buy_order.
// Update в Firestore падает с NotFound, если документа нет, это превращается в ErrNotFound.
func (r *Repository) ConfirmInitiation(ctx context.Context, buyOrder string, upd repository.InitiationConfirmation) error {
	if buyOrder == "" {
		return repository.ErrNotFound
	}

	_, err := r.client.Collection(repository.CollectionInitiations).Doc(buyOrder).Update(ctx, []firestore.Update{
		{Path: "status", Value: upd.Status},
		{Path: "response_code", Value: upd.ResponseCode},
		{Path: "confirmed_at", Value: upd.ConfirmedAt},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return repository.ErrNotFound
		}
		return fmt.Errorf("update initiation %s: %w", buyOrder, err)
	}
	return nil
}

func (r *Repository) SaveConfirmedTransaction(ctx context.Context, tx repository.ConfirmedTransaction) (string, error) {
	return r.set(ctx, repository.CollectionTransactions, tx.BuyOrder, tx)
}

func (r *Repository) SaveRefund(ctx context.Context, rec repository.RefundRecord) (string, error) {
	return r.add(ctx, repository.CollectionRefunds, rec)
}

func (r *Repository) SaveIntegrationError(ctx context.Context, rec repository.IntegrationErrorRecord) (string, error) {
	return r.add(ctx, repository.CollectionIntegrationErrors, rec)
}

// Ping читает максимум один документ, у Firestore нет отдельного health-вызова
func (r *Repository) Ping(ctx context.Context) error {
	it := r.client.Collection(repository.CollectionInitiations).Limit(1).Documents(ctx)
	defer it.Stop()

	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore ping: %w", err)
	}
	return nil
}

// set записывает документ под ключом; пустой ключ означает Add с автоматическим ID
func (r *Repository) set(ctx context.Context, collection, key string, doc any) (string, error) {
	if key == "" {
		return r.add(ctx, collection, doc)
	}

	if _, err := r.client.Collection(collection).Doc(key).Set(ctx, doc); err != nil {
		return "", fmt.Errorf("set %s/%s: %w", collection, key, err)
	}
	return key, nil
}

func (r *Repository) add(ctx context.Context, collection string, doc any) (string, error) {
	ref, _, err := r.client.Collection(collection).Add(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("add %s: %w", collection, err)
	}
	return ref.ID, nil
}
