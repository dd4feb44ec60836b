package backup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/pickup/internal/adapter/logger"
	"github.com/YelzhanWeb/pickup/internal/domain"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

// DefaultKeep is how many backups Prune leaves behind when no limit is configured.
const DefaultKeep = 10

type Service struct {
	slots    interfaces.TimeSlotRepository
	orders   interfaces.OrderRepository
	payments interfaces.PaymentSettingsRepository
	store    interfaces.BackupStore
	logger   logger.Logger
	now      func() time.Time
	mu       sync.Mutex
}

func NewService(
	slots interfaces.TimeSlotRepository,
	orders interfaces.OrderRepository,
	payments interfaces.PaymentSettingsRepository,
	store interfaces.BackupStore,
	logger logger.Logger,
) *Service {
	return &Service{
		slots:    slots,
		orders:   orders,
		payments: payments,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// Create writes a snapshot of every stored document and returns its id.
func (s *Service) Create(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(ctx)
}

func (s *Service) create(ctx context.Context) (string, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return "", err
	}

	id := newBackupID(snap.Timestamp)
	if err := s.store.Write(ctx, id, snap); err != nil {
		s.logger.Error("backup_write_failed", "Failed to write backup", logger.RequestID(ctx), nil, err)
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	s.logger.Info("backup_created", "Backup created", logger.RequestID(ctx), map[string]interface{}{
		"backup_id": id,
		"orders":    len(snap.Data.Orders),
	})
	return id, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Backup, error) {
	return s.store.List(ctx)
}

// Restore writes the documents of backup id back into storage. The current state is
// backed up first so a mistaken restore can itself be undone.
func (s *Service) Restore(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Read(ctx, id)
	if err != nil {
		return err
	}
	if cfg := snap.Data.TimeSlots; cfg != nil {
		cfg.Normalize()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("%w: backup %s: %v", domain.ErrCorruptState, id, err)
		}
	}

	safety, err := s.create(ctx)
	if err != nil {
		return fmt.Errorf("failed to create safety backup: %w", err)
	}

	if snap.Data.TimeSlots != nil {
		if err := s.slots.Save(ctx, snap.Data.TimeSlots); err != nil {
			return fmt.Errorf("failed to restore time slots: %w", err)
		}
	}
	orders := snap.Data.Orders
	if orders == nil {
		orders = []*domain.Order{}
	}
	if err := s.orders.ReplaceAll(ctx, orders); err != nil {
		return fmt.Errorf("failed to restore orders: %w", err)
	}
	if snap.Data.PaymentSettings != nil {
		if err := s.payments.Save(ctx, snap.Data.PaymentSettings); err != nil {
			return fmt.Errorf("failed to restore payment settings: %w", err)
		}
	}

	s.logger.Info("backup_restored", "Backup restored", logger.RequestID(ctx), map[string]interface{}{
		"backup_id": id,
		"safety_id": safety,
		"orders":    len(orders),
	})
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("backup_deleted", "Backup deleted", logger.RequestID(ctx), map[string]interface{}{
		"backup_id": id,
	})
	return nil
}

// Prune deletes all but the newest keep backups and returns how many were removed.
func (s *Service) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		keep = DefaultKeep
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	backups, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(backups) <= keep {
		return 0, nil
	}

	removed := 0
	for _, b := range backups[keep:] {
		if err := s.store.Delete(ctx, b.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return removed, err
		}
		removed++
	}

	s.logger.Info("backups_pruned", "Old backups removed", logger.RequestID(ctx), map[string]interface{}{
		"removed": removed,
		"kept":    keep,
	})
	return removed, nil
}

func (s *Service) snapshot(ctx context.Context) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{Timestamp: s.now().UTC()}

	cfg, err := s.slots.Load(ctx)
	switch {
	case err == nil:
		snap.Data.TimeSlots = cfg
	case !errors.Is(err, domain.ErrNoData):
		return nil, fmt.Errorf("failed to read time slots: %w", err)
	}

	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}
	snap.Data.Orders = orders

	settings, err := s.payments.Load(ctx)
	switch {
	case err == nil:
		snap.Data.PaymentSettings = settings
	case !errors.Is(err, domain.ErrNoData):
		return nil, fmt.Errorf("failed to read payment settings: %w", err)
	}

	return snap, nil
}

// newBackupID returns "<unix millis>-<8 hex>".
func newBackupID(t time.Time) string {
	return fmt.Sprintf("%d-%s", t.UnixMilli(), uuid.NewString()[:8])
}
