package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/YelzhanWeb/pickup/internal/domain"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

// In-memory repositories for the "memory" storage driver and for tests.
// Every read and write copies, so callers never share state with the store.

type timeSlotRepository struct {
	mu  sync.RWMutex
	cfg *domain.TimeSlotConfig
}

func NewTimeSlotRepository() interfaces.TimeSlotRepository {
	return &timeSlotRepository{}
}

func (r *timeSlotRepository) Load(ctx context.Context) (*domain.TimeSlotConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cfg == nil {
		return nil, domain.ErrNoData
	}
	return r.cfg.Clone(), nil
}

func (r *timeSlotRepository) Save(ctx context.Context, cfg *domain.TimeSlotConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg.Clone()
	return nil
}

type paymentSettingsRepository struct {
	mu       sync.RWMutex
	settings *domain.PaymentSettings
}

func NewPaymentSettingsRepository() interfaces.PaymentSettingsRepository {
	return &paymentSettingsRepository{}
}

func (r *paymentSettingsRepository) Load(ctx context.Context) (*domain.PaymentSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.settings == nil {
		return nil, domain.ErrNoData
	}
	s := *r.settings
	return &s, nil
}

func (r *paymentSettingsRepository) Save(ctx context.Context, settings *domain.PaymentSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := *settings
	r.settings = &s
	return nil
}

type orderRepository struct {
	mu     sync.RWMutex
	orders []*domain.Order
}

func NewOrderRepository() interfaces.OrderRepository {
	return &orderRepository{}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == order.ID {
			return fmt.Errorf("order %s already exists", order.ID)
		}
	}
	r.orders = append(r.orders, order.Clone())
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.ID == id {
			return o.Clone(), nil
		}
	}
	return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
}

func (r *orderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.filter(func(*domain.Order) bool { return true }), nil
}

func (r *orderRepository) ListByPickupDate(ctx context.Context, date string) ([]*domain.Order, error) {
	return r.filter(func(o *domain.Order) bool { return o.Pickup.Date == date }), nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			o.Status = status
			o.UpdatedAt = time.Now().UTC()
			return o.Clone(), nil
		}
	}
	return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
}

func (r *orderRepository) ReplaceAll(ctx context.Context, orders []*domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = make([]*domain.Order, 0, len(orders))
	for _, o := range orders {
		r.orders = append(r.orders, o.Clone())
	}
	return nil
}

func (r *orderRepository) filter(keep func(*domain.Order) bool) []*domain.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	return out
}
