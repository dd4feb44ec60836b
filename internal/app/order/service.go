package order

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/pickup/internal/adapter/logger"
	"github.com/YelzhanWeb/pickup/internal/domain"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

// SlotConfigSource provides the current time-slot configuration.
type SlotConfigSource interface {
	GetConfig(ctx context.Context) (*domain.TimeSlotConfig, error)
}

type Options struct {
	Policy   domain.CapacityPolicy
	Location *time.Location
}

type Service struct {
	repo      interfaces.OrderRepository
	slots     SlotConfigSource
	locker    interfaces.SlotLocker
	publisher interfaces.OrderEventPublisher
	logger    logger.Logger
	policy    domain.CapacityPolicy
	loc       *time.Location
	now       func() time.Time
}

func NewService(
	repo interfaces.OrderRepository,
	slots SlotConfigSource,
	locker interfaces.SlotLocker,
	publisher interfaces.OrderEventPublisher,
	logger logger.Logger,
	opts Options,
) *Service {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repo:      repo,
		slots:     slots,
		locker:    locker,
		publisher: publisher,
		logger:    logger,
		policy:    opts.Policy,
		loc:       loc,
		now:       time.Now,
	}
}

func (s *Service) CreateOrder(ctx context.Context, cmd interfaces.CreateOrderCommand) (*domain.Order, error) {
	reqID := logger.RequestID(ctx)

	status := domain.StatusPending
	if cmd.Status != "" {
		st, err := domain.ParseStatus(cmd.Status)
		if err != nil {
			return nil, domain.Invalid("status", err.Error())
		}
		if !st.OpensOrder() {
			return nil, domain.Invalid("status", fmt.Sprintf("new orders must be %s or %s", domain.StatusPending, domain.StatusPendingPayment))
		}
		status = st
	}

	order, err := domain.NewOrder(cmd.Customer, cmd.Pickup, cmd.Items, cmd.SpecialInstructions, status)
	if err != nil {
		s.logger.Debug("validation_failed", "Order validation failed", reqID, map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	date, err := domain.ParseDate(order.Pickup.Date)
	if err != nil {
		return nil, domain.Invalid("pickup.date", err.Error())
	}

	if err := s.admit(ctx, order, date); err != nil {
		return nil, err
	}

	s.logger.Info("order_created", "Order placed", reqID, map[string]interface{}{
		"order_id":    order.ID,
		"pickup_date": order.Pickup.Date,
		"pickup_time": order.Pickup.Time,
		"total":       order.Total,
	})

	msg := interfaces.OrderPlacedMessage{
		OrderID:      order.ID,
		CustomerName: order.Customer.Name,
		PickupDate:   order.Pickup.Date,
		PickupTime:   order.Pickup.Time,
		ItemCount:    len(order.Items),
		Total:        order.Total,
		Status:       order.Status,
		PlacedAt:     order.CreatedAt,
	}
	if err := s.publisher.PublishOrderPlaced(ctx, msg); err != nil {
		// the order is stored, checkout still succeeds
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish order placed event", reqID, map[string]interface{}{
			"order_id": order.ID,
		}, err)
	}

	return order, nil
}

// admit checks the pickup against the slot configuration, counts and persists the
// order, all while holding the slot lock.
func (s *Service) admit(ctx context.Context, order *domain.Order, date time.Time) error {
	unlock, err := s.locker.Lock(ctx, slotKey(order.Pickup))
	if err != nil {
		return fmt.Errorf("failed to lock pickup slot: %w", err)
	}
	defer unlock()

	cfg, err := s.slots.GetConfig(ctx)
	if err != nil {
		return err
	}
	if !domain.IsBookableDate(cfg, date, s.now(), s.loc) {
		return domain.Invalid("pickup.date", "is not available for pickup")
	}
	slot, ok := cfg.SlotStartingAt(order.Pickup.Time)
	if !ok {
		return domain.Invalid("pickup.time", "does not match a pickup time slot")
	}

	if s.policy.Holds(order.Status) {
		if err := s.checkCapacity(ctx, order.Pickup.Date, slot); err != nil {
			return err
		}
	}

	order.ID = domain.NewOrderID(s.now())
	if err := s.repo.Create(ctx, order); err != nil {
		s.logger.Error("order_save_failed", "Failed to save order", logger.RequestID(ctx), nil, err)
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

// checkCapacity must be called with the slot lock held.
func (s *Service) checkCapacity(ctx context.Context, date string, slot domain.TimeSlot) error {
	counts, err := s.CountByStartTime(ctx, date)
	if err != nil {
		return err
	}
	if counts[slot.StartTime] < slot.MaxOrders {
		return nil
	}
	s.logger.Info("slot_full", "Pickup slot is full", logger.RequestID(ctx), map[string]interface{}{
		"pickup_date": date,
		"pickup_time": slot.StartTime,
		"max_orders":  slot.MaxOrders,
	})
	return fmt.Errorf("%s at %s: %w", date, slot.StartTime, domain.ErrSlotFull)
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.FindByID(ctx, id)
}

// ListOrders returns every order, or those picked up on date when it is set.
func (s *Service) ListOrders(ctx context.Context, date string) ([]*domain.Order, error) {
	if date == "" {
		return s.repo.List(ctx)
	}
	if _, err := domain.ParseDate(date); err != nil {
		return nil, domain.Invalid("date", err.Error())
	}
	return s.OrdersForDate(ctx, date)
}

// OrdersForDate returns the orders whose pickup date equals date.
func (s *Service) OrdersForDate(ctx context.Context, date string) ([]*domain.Order, error) {
	orders, err := s.repo.ListByPickupDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for %s: %w", date, err)
	}
	return orders, nil
}

// CountByStartTime counts the capacity-holding orders of date per slot start time.
func (s *Service) CountByStartTime(ctx context.Context, date string) (map[string]int, error) {
	orders, err := s.OrdersForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return domain.CountByStartTime(orders, s.policy), nil
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, domain.Invalid("status", err.Error())
	}

	found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, previous, err := s.transition(ctx, found, st)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order_status_updated", "Order status updated", logger.RequestID(ctx), map[string]interface{}{
		"order_id":   id,
		"old_status": previous.Status,
		"new_status": updated.Status,
	})

	if previous.Status != updated.Status {
		msg := interfaces.StatusChangedMessage{
			OrderID:   id,
			OldStatus: previous.Status,
			NewStatus: updated.Status,
			ChangedAt: updated.UpdatedAt,
		}
		if err := s.publisher.PublishStatusChanged(ctx, msg); err != nil {
			s.logger.Error("rabbitmq_publish_failed", "Failed to publish status changed event", logger.RequestID(ctx), map[string]interface{}{
				"order_id": id,
			}, err)
		}
	}
	return updated, nil
}

// transition moves an order to st under its slot lock. The order is re-read once the
// lock is held; when that status no longer holds the slot and st does, capacity is
// checked again. It returns the updated order and the order as it was just before.
func (s *Service) transition(ctx context.Context, order *domain.Order, st domain.Status) (*domain.Order, *domain.Order, error) {
	unlock, err := s.locker.Lock(ctx, slotKey(order.Pickup))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock pickup slot: %w", err)
	}
	defer unlock()

	current, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, nil, err
	}

	if !s.policy.Holds(current.Status) && s.policy.Holds(st) {
		cfg, err := s.slots.GetConfig(ctx)
		if err != nil {
			return nil, nil, err
		}
		// a slot removed from the configuration has no capacity left to enforce
		if slot, ok := cfg.SlotStartingAt(current.Pickup.Time); ok {
			if err := s.checkCapacity(ctx, current.Pickup.Date, slot); err != nil {
				return nil, nil, err
			}
		}
	}

	updated, err := s.repo.UpdateStatus(ctx, current.ID, st)
	if err != nil {
		return nil, nil, err
	}
	return updated, current, nil
}

func slotKey(p domain.Pickup) string {
	return p.Date + "|" + p.Time
}
