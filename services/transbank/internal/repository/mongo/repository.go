package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/shestoi/webpay-bridge/services/transbank/internal/repository"
)

// Repository реализует BookkeepingRepository используя MongoDB
// Документы хранятся с _id = buy_order (для инициаций и транзакций), как и в Firestore
type Repository struct {
	client       *mongo.Client
	db           *mongo.Database
	initiations  *mongo.Collection
	transactions *mongo.Collection
	refunds      *mongo.Collection
	errorsCol    *mongo.Collection
}

// NewRepository создаёт новый MongoDB репозиторий
// Все чтения и записи идут по _id, вторичные индексы не нужны
func NewRepository(client *mongo.Client, dbName string) *Repository {
	db := client.Database(dbName)
	return &Repository{
		client:       client,
		db:           db,
		initiations:  db.Collection(repository.CollectionInitiations),
		transactions: db.Collection(repository.CollectionTransactions),
		refunds:      db.Collection(repository.CollectionRefunds),
		errorsCol:    db.Collection(repository.CollectionIntegrationErrors),
	}
}

func (r *Repository) SaveInitiation(ctx context.Context, rec repository.InitiationRecord) (string, error) {
	return upsert(ctx, r.initiations, rec.BuyOrder, rec)
}

// ConfirmInitiation обновляет запись инициации по ключу buy_order
// Возвращает ErrNotFound, если документ с таким ключом отсутствует
func (r *Repository) ConfirmInitiation(ctx context.Context, buyOrder string, upd repository.InitiationConfirmation) error {
	update := bson.M{
		"$set": bson.M{
			"status":        upd.Status,
			"response_code": upd.ResponseCode,
			"confirmed_at":  upd.ConfirmedAt,
		},
	}

	res, err := r.initiations.UpdateOne(ctx, bson.M{"_id": buyOrder}, update)
	if err != nil {
		return fmt.Errorf("update initiation %s: %w", buyOrder, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *Repository) SaveConfirmedTransaction(ctx context.Context, tx repository.ConfirmedTransaction) (string, error) {
	return upsert(ctx, r.transactions, tx.BuyOrder, tx)
}

func (r *Repository) SaveRefund(ctx context.Context, rec repository.RefundRecord) (string, error) {
	return insert(ctx, r.refunds, rec)
}

func (r *Repository) SaveIntegrationError(ctx context.Context, rec repository.IntegrationErrorRecord) (string, error) {
	return insert(ctx, r.errorsCol, rec)
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

// upsert записывает документ под ключом key; пустой ключ означает insert с новым ID
func upsert(ctx context.Context, col *mongo.Collection, key string, doc any) (string, error) {
	if key == "" {
		return insert(ctx, col, doc)
	}

	_, err := col.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return "", fmt.Errorf("upsert %s/%s: %w", col.Name(), key, err)
	}
	return key, nil
}

func insert(ctx context.Context, col *mongo.Collection, doc any) (string, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal %s document: %w", col.Name(), err)
	}

	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return "", fmt.Errorf("unmarshal %s document: %w", col.Name(), err)
	}

	id := uuid.NewString()
	m["_id"] = id
	if _, err := col.InsertOne(ctx, m); err != nil {
		return "", fmt.Errorf("insert %s: %w", col.Name(), err)
	}
	return id, nil
}
