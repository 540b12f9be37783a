package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/shestoi/webpay-bridge/services/transbank/internal/repository"
)

// ErrUnavailable возвращается всеми операциями, пока хранилище выключено через SetUnavailable
var ErrUnavailable = errors.New("memory store unavailable")

// MemoryRepository реализует BookkeepingRepository используя in-memory хранилище
// Используется для локальной разработки и тестирования
type MemoryRepository struct {
	mu           sync.RWMutex
	unavailable  bool
	initiations  map[string]repository.InitiationRecord
	confirmed    map[string]repository.ConfirmedTransaction
	confirms     map[string]repository.InitiationConfirmation
	refunds      map[string]repository.RefundRecord
	errorRecords map[string]repository.IntegrationErrorRecord
}

// NewMemoryRepository создаёт новый in-memory репозиторий
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		initiations:  make(map[string]repository.InitiationRecord),
		confirmed:    make(map[string]repository.ConfirmedTransaction),
		confirms:     make(map[string]repository.InitiationConfirmation),
		refunds:      make(map[string]repository.RefundRecord),
		errorRecords: make(map[string]repository.IntegrationErrorRecord),
	}
}

// SetUnavailable имитирует недоступность хранилища: все операции возвращают ErrUnavailable
func (r *MemoryRepository) SetUnavailable(unavailable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unavailable = unavailable
}

func (r *MemoryRepository) SaveInitiation(ctx context.Context, rec repository.InitiationRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unavailable {
		return "", ErrUnavailable
	}

	id := docID(rec.BuyOrder)
	r.initiations[id] = rec
	return id, nil
}

func (r *MemoryRepository) ConfirmInitiation(ctx context.Context, buyOrder string, upd repository.InitiationConfirmation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unavailable {
		return ErrUnavailable
	}

	rec, ok := r.initiations[buyOrder]
	if !ok {
		return repository.ErrNotFound
	}
	rec.Status = upd.Status
	r.initiations[buyOrder] = rec
	r.confirms[buyOrder] = upd
	return nil
}

func (r *MemoryRepository) SaveConfirmedTransaction(ctx context.Context, tx repository.ConfirmedTransaction) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unavailable {
		return "", ErrUnavailable
	}

	id := docID(tx.BuyOrder)
	r.confirmed[id] = tx
	return id, nil
}

func (r *MemoryRepository) SaveRefund(ctx context.Context, rec repository.RefundRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unavailable {
		return "", ErrUnavailable
	}

	id := uuid.NewString()
	r.refunds[id] = rec
	return id, nil
}

func (r *MemoryRepository) SaveIntegrationError(ctx context.Context, rec repository.IntegrationErrorRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unavailable {
		return "", ErrUnavailable
	}

	id := uuid.NewString()
	r.errorRecords[id] = rec
	return id, nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.unavailable {
		return ErrUnavailable
	}
	return nil
}

// Initiation возвращает запись инициации по ключу
func (r *MemoryRepository) Initiation(id string) (repository.InitiationRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.initiations[id]
	return rec, ok
}

// Confirmation возвращает последнее подтверждение, применённое к записи инициации
func (r *MemoryRepository) Confirmation(buyOrder string) (repository.InitiationConfirmation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	upd, ok := r.confirms[buyOrder]
	return upd, ok
}

// ConfirmedTransaction возвращает подтверждённую транзакцию по ключу
func (r *MemoryRepository) ConfirmedTransaction(id string) (repository.ConfirmedTransaction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.confirmed[id]
	return tx, ok
}

// Counts возвращает количество документов по коллекциям
func (r *MemoryRepository) Counts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return map[string]int{
		repository.CollectionInitiations:       len(r.initiations),
		repository.CollectionTransactions:      len(r.confirmed),
		repository.CollectionRefunds:           len(r.refunds),
		repository.CollectionIntegrationErrors: len(r.errorRecords),
	}
}

// Refunds возвращает копию всех записей о возвратах
func (r *MemoryRepository) Refunds() []repository.RefundRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]repository.RefundRecord, 0, len(r.refunds))
	for _, rec := range r.refunds {
		out = append(out, rec)
	}
	return out
}

// IntegrationErrors возвращает копию всех диагностических записей
func (r *MemoryRepository) IntegrationErrors() []repository.IntegrationErrorRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]repository.IntegrationErrorRecord, 0, len(r.errorRecords))
	for _, rec := range r.errorRecords {
		out = append(out, rec)
	}
	return out
}

// docID возвращает бизнес-ключ или новый UUID, если ключа нет
func docID(key string) string {
	if key == "" {
		return uuid.NewString()
	}
	return key
}
