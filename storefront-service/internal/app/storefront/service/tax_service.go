package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/pkg/logger"
	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/repository"
)

// TaxService выдает версионированные настройки налога и доставки.
// Чтение идет через Redis кеш, запись администратора сразу кладет в кеш новую версию.
type TaxService struct {
	repo  repository.TaxRepository
	cache repository.TaxCache
}

func NewTaxService(repo repository.TaxRepository, cache repository.TaxCache) *TaxService {
	return &TaxService{repo: repo, cache: cache}
}

// GetSettings возвращает текущие настройки.
// Пока администратор ничего не сохранил, действуют значения по умолчанию (version 0).
func (s *TaxService) GetSettings(ctx context.Context) (*entity.TaxNShipping, error) {
	cached, err := s.cache.Get(ctx)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		logger.Ctx(ctx).Warn().Err(err).Msg("Tax config cache unavailable, reading from database")
	}

	tax, err := s.repo.Get(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrTaxConfigNotFound) {
			return nil, fmt.Errorf("failed to get tax config: %w", err)
		}
		logger.Ctx(ctx).Warn().Msg("Tax config is not set, using defaults")
		def := entity.DefaultTaxNShipping()
		tax = &def
	}

	if err := s.cache.Set(ctx, tax); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("Failed to cache tax config")
	}

	return tax, nil
}

// Snapshot фиксирует настройки для расчета заказа
func (s *TaxService) Snapshot(ctx context.Context) (entity.PricingSnapshot, error) {
	tax, err := s.GetSettings(ctx)
	if err != nil {
		return entity.PricingSnapshot{}, err
	}
	return tax.Snapshot(), nil
}

// Update сохраняет новые настройки и повышает version.
// Уже размещенные заказы хранят свой снимок и не меняются.
func (s *TaxService) Update(ctx context.Context, req *entity.UpdateTaxRequest) (*entity.TaxNShipping, error) {
	if req.TaxRate == nil || req.ShippingRate == nil {
		return nil, newError(ErrValidation, "taxRate and shippingRate are required")
	}
	if *req.TaxRate < 0 || *req.TaxRate > 1 || *req.ShippingRate < 0 {
		return nil, newError(ErrValidation, "tax rate must be within [0,1] and shipping rate non-negative")
	}
	if req.FreeShippingThreshold != nil && *req.FreeShippingThreshold < 0 {
		return nil, newError(ErrValidation, "free shipping threshold must not be negative")
	}

	tax, err := s.repo.Save(ctx, *req.TaxRate, *req.ShippingRate, req.FreeShippingThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to save tax config: %w", err)
	}

	// Кеш не очищается, а перезаписывается: после Del читатель со старым
	// значением из базы успел бы вернуть его в кеш на весь ttl.
	if err := s.cache.Set(ctx, tax); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("Failed to cache new tax config, invalidating")
		if err := s.cache.Invalidate(ctx); err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("Failed to invalidate tax config cache")
		}
	}

	logger.Info().
		Float64("tax_rate", tax.TaxRate).
		Float64("shipping_rate", tax.ShippingRate).
		Int64("version", tax.Version).
		Msg("Tax config updated")

	return tax, nil
}
