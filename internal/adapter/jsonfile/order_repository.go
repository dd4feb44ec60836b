package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/YelzhanWeb/pickup/internal/domain"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

// orderFile mirrors the on-disk layout: {"orders": [...]}.
type orderFile struct {
	Orders []*domain.Order `json:"orders"`
}

type orderRepository struct {
	doc *Document[orderFile]
}

func NewOrderRepository(dataDir string) interfaces.OrderRepository {
	return &orderRepository{
		doc: NewDocument[orderFile](filepath.Join(dataDir, "orders.json")),
	}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.doc.Update(func(f *orderFile) error {
		for _, o := range f.Orders {
			if o.ID == order.ID {
				return fmt.Errorf("order %s already exists", order.ID)
			}
		}
		f.Orders = append(f.Orders, order.Clone())
		return nil
	})
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	orders, err := r.all()
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
}

func (r *orderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.all()
}

func (r *orderRepository) ListByPickupDate(ctx context.Context, date string) ([]*domain.Order, error) {
	orders, err := r.all()
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(orders, func(o *domain.Order) bool {
		return o.Pickup.Date != date
	}), nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Order, error) {
	var updated *domain.Order
	err := r.doc.Update(func(f *orderFile) error {
		for _, o := range f.Orders {
			if o.ID == id {
				o.Status = status
				o.UpdatedAt = time.Now().UTC()
				updated = o.Clone()
				return nil
			}
		}
		return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *orderRepository) ReplaceAll(ctx context.Context, orders []*domain.Order) error {
	f := &orderFile{Orders: make([]*domain.Order, 0, len(orders))}
	for _, o := range orders {
		f.Orders = append(f.Orders, o.Clone())
	}
	return r.doc.Save(f)
}

// all treats a missing file as an empty ledger.
func (r *orderRepository) all() ([]*domain.Order, error) {
	f, err := r.doc.Load()
	if errors.Is(err, domain.ErrNoData) {
		return []*domain.Order{}, nil
	}
	if err != nil {
		return nil, err
	}
	if f.Orders == nil {
		return []*domain.Order{}, nil
	}
	return f.Orders, nil
}
