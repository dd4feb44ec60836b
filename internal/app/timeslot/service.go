package timeslot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/pickup/internal/adapter/logger"
	"github.com/YelzhanWeb/pickup/internal/domain"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

// Service owns the time-slot configuration document. Mutations are serialized,
// so two admins editing at once never lose each other's writes.
type Service struct {
	repo   interfaces.TimeSlotRepository
	logger logger.Logger
	newID  func() string
	mu     sync.Mutex
}

func NewService(repo interfaces.TimeSlotRepository, logger logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		newID:  uuid.NewString,
	}
}

func (s *Service) GetConfig(ctx context.Context) (*domain.TimeSlotConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Service) ReplaceConfig(ctx context.Context, cfg *domain.TimeSlotConfig) (*domain.TimeSlotConfig, error) {
	next := cfg.Clone()
	next.Normalize()
	for i := range next.TimeSlots {
		next.TimeSlots[i].StartTime = strings.TrimSpace(next.TimeSlots[i].StartTime)
		next.TimeSlots[i].EndTime = strings.TrimSpace(next.TimeSlots[i].EndTime)
		if next.TimeSlots[i].ID == "" {
			next.TimeSlots[i].ID = s.newID()
		}
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	next.SortSlots()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	s.logger.Info("timeslot_config_replaced", "Time slot configuration replaced", logger.RequestID(ctx), map[string]interface{}{
		"slots":          len(next.TimeSlots),
		"available_days": next.AvailableDays,
	})
	return next.Clone(), nil
}

func (s *Service) AddSlot(ctx context.Context, slot domain.TimeSlot) (*domain.TimeSlotConfig, error) {
	slot.StartTime = strings.TrimSpace(slot.StartTime)
	slot.EndTime = strings.TrimSpace(slot.EndTime)
	if slot.ID == "" {
		slot.ID = s.newID()
	}
	if err := slot.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.IndexOf(slot.ID) >= 0 {
		return nil, domain.Invalid("id", "a slot with this id already exists")
	}
	if _, taken := cfg.SlotStartingAt(slot.StartTime); taken {
		return nil, domain.Invalid("startTime", "a slot starting at "+slot.StartTime+" already exists")
	}

	cfg.TimeSlots = append(cfg.TimeSlots, slot)
	cfg.SortSlots()

	if err := s.save(ctx, cfg); err != nil {
		return nil, err
	}
	s.logger.Info("timeslot_added", "Time slot added", logger.RequestID(ctx), map[string]interface{}{
		"slot_id":    slot.ID,
		"start_time": slot.StartTime,
		"max_orders": slot.MaxOrders,
	})
	return cfg, nil
}

func (s *Service) UpdateSlot(ctx context.Context, id string, patch domain.TimeSlotPatch) (*domain.TimeSlotConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	i := cfg.IndexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("time slot %s: %w", id, domain.ErrNotFound)
	}

	merged := cfg.TimeSlots[i].Apply(patch)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	if other, taken := cfg.SlotStartingAt(merged.StartTime); taken && other.ID != id {
		return nil, domain.Invalid("startTime", "a slot starting at "+merged.StartTime+" already exists")
	}

	cfg.TimeSlots[i] = merged
	cfg.SortSlots()

	if err := s.save(ctx, cfg); err != nil {
		return nil, err
	}
	s.logger.Info("timeslot_updated", "Time slot updated", logger.RequestID(ctx), map[string]interface{}{
		"slot_id":    id,
		"start_time": merged.StartTime,
		"end_time":   merged.EndTime,
		"max_orders": merged.MaxOrders,
	})
	return cfg, nil
}

func (s *Service) DeleteSlot(ctx context.Context, id string) (*domain.TimeSlotConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	i := cfg.IndexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("time slot %s: %w", id, domain.ErrNotFound)
	}

	cfg.TimeSlots = append(cfg.TimeSlots[:i], cfg.TimeSlots[i+1:]...)

	if err := s.save(ctx, cfg); err != nil {
		return nil, err
	}
	s.logger.Info("timeslot_deleted", "Time slot deleted", logger.RequestID(ctx), map[string]interface{}{
		"slot_id": id,
	})
	return cfg, nil
}

// load must be called with mu held. An absent document is replaced by the default,
// a stored configuration that fails validation is reported as corrupt.
func (s *Service) load(ctx context.Context) (*domain.TimeSlotConfig, error) {
	cfg, err := s.repo.Load(ctx)
	if err == nil {
		if verr := cfg.Validate(); verr != nil {
			err = fmt.Errorf("%w: stored time slot configuration: %v", domain.ErrCorruptState, verr)
			s.logger.Error("timeslot_load_failed", "Stored time slot configuration is invalid", logger.RequestID(ctx), nil, err)
			return nil, err
		}
		return cfg, nil
	}
	if !errors.Is(err, domain.ErrNoData) {
		s.logger.Error("timeslot_load_failed", "Failed to load time slot configuration", logger.RequestID(ctx), nil, err)
		return nil, err
	}

	cfg = domain.DefaultTimeSlotConfig(s.newID)
	if err := s.save(ctx, cfg); err != nil {
		return nil, err
	}
	s.logger.Info("timeslot_defaults_created", "Created default time slot configuration", logger.RequestID(ctx), map[string]interface{}{
		"slots": len(cfg.TimeSlots),
	})
	return cfg, nil
}

func (s *Service) save(ctx context.Context, cfg *domain.TimeSlotConfig) error {
	if err := s.repo.Save(ctx, cfg); err != nil {
		s.logger.Error("timeslot_save_failed", "Failed to save time slot configuration", logger.RequestID(ctx), nil, err)
		return fmt.Errorf("failed to save time slots: %w", err)
	}
	return nil
}
