package interfaces

import (
	"context"

	"github.com/YelzhanWeb/pickup/internal/domain"
)

// Service interfaces consumed by the HTTP adapter.

type TimeSlotService interface {
	GetConfig(ctx context.Context) (*domain.TimeSlotConfig, error)
	ReplaceConfig(ctx context.Context, cfg *domain.TimeSlotConfig) (*domain.TimeSlotConfig, error)
	AddSlot(ctx context.Context, slot domain.TimeSlot) (*domain.TimeSlotConfig, error)
	UpdateSlot(ctx context.Context, id string, patch domain.TimeSlotPatch) (*domain.TimeSlotConfig, error)
	DeleteSlot(ctx context.Context, id string) (*domain.TimeSlotConfig, error)
}

type AvailabilityService interface {
	AvailableDates(ctx context.Context) ([]string, error)
	AvailableSlots(ctx context.Context, date string) ([]domain.AvailableSlot, error)
}

type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, date string) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error)
}

type PaymentService interface {
	Get(ctx context.Context) (*domain.PaymentSettings, error)
	Update(ctx context.Context, settings domain.PaymentSettings) (*domain.PaymentSettings, error)
	QRCode(ctx context.Context, size int) ([]byte, error)
}

type BackupService interface {
	Create(ctx context.Context) (string, error)
	List(ctx context.Context) ([]domain.Backup, error)
	Restore(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// Commands
type CreateOrderCommand struct {
	Customer            domain.Customer
	Pickup              domain.Pickup
	Items               []domain.OrderItem
	SpecialInstructions string
	Status              string
}
