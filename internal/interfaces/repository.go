package interfaces

import (
	"context"

	"github.com/YelzhanWeb/pickup/internal/domain"
)

// Repository interfaces (adapter/jsonfile, adapter/postgres, adapter/memory).
// Load methods return domain.ErrNoData when nothing has been stored yet and
// domain.ErrCorruptState when the stored document cannot be decoded.

type TimeSlotRepository interface {
	Load(ctx context.Context) (*domain.TimeSlotConfig, error)
	Save(ctx context.Context, cfg *domain.TimeSlotConfig) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
	ListByPickupDate(ctx context.Context, date string) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Order, error)
	ReplaceAll(ctx context.Context, orders []*domain.Order) error
}

type PaymentSettingsRepository interface {
	Load(ctx context.Context) (*domain.PaymentSettings, error)
	Save(ctx context.Context, settings *domain.PaymentSettings) error
}

type BackupStore interface {
	Write(ctx context.Context, id string, snap *domain.Snapshot) error
	Read(ctx context.Context, id string) (*domain.Snapshot, error)
	List(ctx context.Context) ([]domain.Backup, error)
	Delete(ctx context.Context, id string) error
}

// SlotLocker serializes capacity-affecting work on one (date, start time) pair.
// The returned function releases the lock and is safe to call more than once.
type SlotLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
