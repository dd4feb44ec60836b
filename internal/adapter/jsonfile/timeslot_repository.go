package jsonfile

import (
	"context"
	"path/filepath"

	"github.com/YelzhanWeb/pickup/internal/domain"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

type timeSlotRepository struct {
	doc *Document[domain.TimeSlotConfig]
}

func NewTimeSlotRepository(dataDir string) interfaces.TimeSlotRepository {
	return &timeSlotRepository{
		doc: NewDocument[domain.TimeSlotConfig](filepath.Join(dataDir, "timeSlots.json")),
	}
}

func (r *timeSlotRepository) Load(ctx context.Context) (*domain.TimeSlotConfig, error) {
	cfg, err := r.doc.Load()
	if err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

func (r *timeSlotRepository) Save(ctx context.Context, cfg *domain.TimeSlotConfig) error {
	return r.doc.Save(cfg)
}
