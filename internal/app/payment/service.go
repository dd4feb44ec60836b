package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/YelzhanWeb/pickup/internal/adapter/logger"
	"github.com/YelzhanWeb/pickup/internal/domain"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

const (
	DefaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

type Service struct {
	repo   interfaces.PaymentSettingsRepository
	logger logger.Logger
	mu     sync.Mutex
}

func NewService(repo interfaces.PaymentSettingsRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Get returns the stored settings, persisting the defaults on first use.
func (s *Service) Get(ctx context.Context) (*domain.PaymentSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.repo.Load(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, domain.ErrNoData) {
		s.logger.Error("payment_settings_load_failed", "Failed to load payment settings", logger.RequestID(ctx), nil, err)
		return nil, err
	}

	settings = domain.DefaultPaymentSettings()
	if err := s.repo.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save payment settings: %w", err)
	}
	return settings, nil
}

func (s *Service) Update(ctx context.Context, settings domain.PaymentSettings) (*domain.PaymentSettings, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(ctx, &settings); err != nil {
		s.logger.Error("payment_settings_save_failed", "Failed to save payment settings", logger.RequestID(ctx), nil, err)
		return nil, fmt.Errorf("failed to save payment settings: %w", err)
	}
	s.logger.Info("payment_settings_updated", "Payment settings updated", logger.RequestID(ctx), map[string]interface{}{
		"venmo_username": settings.VenmoUsername,
	})
	return &settings, nil
}

// QRCode renders a PNG QR code linking to the Venmo profile. Sizes outside
// 64..1024 pixels are clamped; zero selects DefaultQRSize.
func (s *Service) QRCode(ctx context.Context, size int) ([]byte, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case size == 0:
		size = DefaultQRSize
	case size < minQRSize:
		size = minQRSize
	case size > maxQRSize:
		size = maxQRSize
	}

	png, err := qrcode.Encode(settings.VenmoProfileURL(), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}
