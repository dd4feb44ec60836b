package availability

import (
	"context"
	"slices"
	"time"

	"github.com/YelzhanWeb/pickup/internal/domain"
)

type SlotConfigSource interface {
	GetConfig(ctx context.Context) (*domain.TimeSlotConfig, error)
}

type OrderCounter interface {
	CountByStartTime(ctx context.Context, date string) (map[string]int, error)
}

// Service answers storefront questions about which dates and slots can still be booked.
type Service struct {
	slots  SlotConfigSource
	orders OrderCounter
	loc    *time.Location
	now    func() time.Time
}

func NewService(slots SlotConfigSource, orders OrderCounter, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		slots:  slots,
		orders: orders,
		loc:    loc,
		now:    time.Now,
	}
}

func (s *Service) AvailableDates(ctx context.Context) ([]string, error) {
	cfg, err := s.slots.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	dates := slices.Collect(domain.AvailableDates(cfg, s.now(), s.loc))
	if dates == nil {
		dates = []string{}
	}
	return dates, nil
}

// AvailableSlots annotates every slot with its remaining capacity on date.
func (s *Service) AvailableSlots(ctx context.Context, date string) ([]domain.AvailableSlot, error) {
	d, err := domain.ParseDate(date)
	if err != nil {
		return nil, domain.Invalid("date", err.Error())
	}

	cfg, err := s.slots.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.AllowsWeekday(d.Weekday()) {
		return []domain.AvailableSlot{}, nil
	}

	counts, err := s.orders.CountByStartTime(ctx, date)
	if err != nil {
		return nil, err
	}
	return domain.AvailableSlotsForDate(cfg, counts, d), nil
}
