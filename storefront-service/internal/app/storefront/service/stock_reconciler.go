package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/repository"
)

const (
	stockReconcileLockKey = "storefront:lock:stock_reconcile"
	stockReconcileLockTTL = 5 * time.Minute
)

// StockReconciler применяет списания, которые не удались при оплате.
// Каждая запись журнала применяется не больше одного раза.
type StockReconciler struct {
	drifts   repository.StockDriftRepository
	products repository.ProductRepository
	lock     repository.LockRepository
}

func NewStockReconciler(
	drifts repository.StockDriftRepository,
	products repository.ProductRepository,
	lock repository.LockRepository,
) *StockReconciler {
	return &StockReconciler{drifts: drifts, products: products, lock: lock}
}

// ApplyPending обрабатывает до limit самых старых записей.
// Если другой экземпляр уже выполняет сверку, возвращает пустой отчет.
func (r *StockReconciler) ApplyPending(ctx context.Context, limit int) (*entity.StockReconcileReport, error) {
	report := &entity.StockReconcileReport{}

	token, ok, err := r.lock.Acquire(ctx, stockReconcileLockKey, stockReconcileLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.Debug().Msg("Stock reconcile is running elsewhere, skipping")
		return report, nil
	}
	defer func() {
		if err := r.lock.Release(context.WithoutCancel(ctx), stockReconcileLockKey, token); err != nil {
			logger.Warn().Err(err).Msg("Failed to release stock reconcile lock")
		}
	}()

	drifts, err := r.drifts.ListPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending stock drifts: %w", err)
	}

	for _, drift := range drifts {
		switch r.apply(ctx, drift) {
		case entity.DriftStatusApplied:
			report.Applied++
			metrics.StockDriftApplied.WithLabelValues("success").Inc()
		case entity.DriftStatusDiscarded:
			report.Discarded++
			metrics.StockDriftApplied.WithLabelValues("discarded").Inc()
		default:
			report.Failed++
			metrics.StockDriftApplied.WithLabelValues("failed").Inc()
		}
	}

	if len(drifts) > 0 {
		logger.Info().
			Int("applied", report.Applied).
			Int("discarded", report.Discarded).
			Int("failed", report.Failed).
			Msg("Stock drift reconciled")
	}

	return report, nil
}

// apply возвращает итоговый статус записи; pending означает, что запись осталась в очереди
func (r *StockReconciler) apply(ctx context.Context, drift entity.StockDrift) entity.DriftStatus {
	log := logger.With().
		Str("drift_id", drift.ID.String()).
		Str("order_id", drift.OrderID).
		Str("slug", drift.Slug).
		Logger()

	if _, err := r.products.GetBySlug(ctx, drift.Slug); err != nil {
		if !errors.Is(err, repository.ErrProductNotFound) {
			log.Error().Err(err).Msg("Failed to read product for stock drift")
			return entity.DriftStatusPending
		}
		if err := r.drifts.Claim(ctx, drift.ID, entity.DriftStatusDiscarded); err != nil {
			log.Error().Err(err).Msg("Failed to discard stock drift")
			return entity.DriftStatusPending
		}
		log.Warn().Msg("Product no longer exists, stock drift discarded")
		return entity.DriftStatusDiscarded
	}

	if err := r.drifts.Claim(ctx, drift.ID, entity.DriftStatusApplied); err != nil {
		log.Warn().Err(err).Msg("Failed to claim stock drift")
		return entity.DriftStatusPending
	}

	if err := r.products.DecrementStock(ctx, drift.Slug, drift.Quantity); err != nil {
		log.Error().Err(err).Msg("Failed to apply stock drift")
		if err := r.drifts.Reopen(ctx, drift.ID, err.Error()); err != nil {
			log.Error().Err(err).Msg("Failed to reopen stock drift")
		}
		return entity.DriftStatusPending
	}

	return entity.DriftStatusApplied
}
