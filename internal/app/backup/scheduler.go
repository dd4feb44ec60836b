package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/YelzhanWeb/pickup/internal/adapter/logger"
)

// Scheduler takes a backup and prunes old ones on a cron schedule.
type Scheduler struct {
	svc    *Service
	keep   int
	logger logger.Logger
	cron   *cron.Cron
}

func NewScheduler(svc *Service, schedule string, keep int, logger logger.Logger) (*Scheduler, error) {
	s := &Scheduler{
		svc:    svc,
		keep:   keep,
		logger: logger,
		cron:   cron.New(),
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start takes one backup right away and then runs on schedule in the background.
func (s *Scheduler) Start() {
	s.run()
	s.cron.Start()
	s.logger.Info("backup_scheduler_started", "Backup scheduler started", "startup", map[string]interface{}{
		"next_run": s.cron.Entries()[0].Next,
		"keep":     s.keep,
	})
}

// Stop waits for a running backup to finish, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := s.svc.Create(ctx); err != nil {
		s.logger.Error("scheduled_backup_failed", "Scheduled backup failed", "", nil, err)
		return
	}
	if _, err := s.svc.Prune(ctx, s.keep); err != nil {
		s.logger.Error("backup_prune_failed", "Failed to prune backups", "", nil, err)
	}
}
