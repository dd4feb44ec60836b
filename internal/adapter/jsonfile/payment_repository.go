package jsonfile

import (
	"context"
	"path/filepath"

	"github.com/YelzhanWeb/pickup/internal/domain"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

type paymentSettingsRepository struct {
	doc *Document[domain.PaymentSettings]
}

func NewPaymentSettingsRepository(dataDir string) interfaces.PaymentSettingsRepository {
	return &paymentSettingsRepository{
		doc: NewDocument[domain.PaymentSettings](filepath.Join(dataDir, "paymentSettings.json")),
	}
}

func (r *paymentSettingsRepository) Load(ctx context.Context) (*domain.PaymentSettings, error) {
	return r.doc.Load()
}

func (r *paymentSettingsRepository) Save(ctx context.Context, settings *domain.PaymentSettings) error {
	return r.doc.Save(settings)
}
