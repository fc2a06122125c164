package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/pkg/metrics"
	"storefront/storefront-service/internal/app/storefront/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrDriftNotPending - запись уже обработана другим процессом
	ErrDriftNotPending = errors.New("stock drift is not pending")
)

type stockDriftRepository struct {
	db *gorm.DB
}

// NewStockDriftRepository создает журнал несписанных остатков на GORM
func NewStockDriftRepository(db *gorm.DB) StockDriftRepository {
	return &stockDriftRepository{db: db}
}

func (r *stockDriftRepository) Record(ctx context.Context, drift *entity.StockDrift) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "stock_drifts")

	if drift.ID == uuid.Nil {
		drift.ID = uuid.New()
	}
	if drift.Status == "" {
		drift.Status = entity.DriftStatusPending
	}

	err := r.db.WithContext(ctx).Create(drift).Error
	timer.Done(err)
	if err != nil {
		return fmt.Errorf("failed to record stock drift: %w", err)
	}

	return nil
}

// ListPending возвращает самые старые необработанные записи
func (r *stockDriftRepository) ListPending(ctx context.Context, limit int) ([]entity.StockDrift, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "stock_drifts")

	var drifts []entity.StockDrift
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.DriftStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&drifts).Error
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock drifts: %w", err)
	}

	return drifts, nil
}

// Claim переводит pending запись в итоговый статус.
// Условие по статусу гарантирует, что запись применяется один раз.
func (r *stockDriftRepository) Claim(ctx context.Context, id uuid.UUID, status entity.DriftStatus) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "stock_drifts")

	result := r.db.WithContext(ctx).Model(&entity.StockDrift{}).
		Where("id = ? AND status = ?", id, entity.DriftStatusPending).
		Updates(map[string]interface{}{
			"status":     status,
			"applied_at": time.Now().UTC(),
		})
	timer.Done(result.Error)

	if result.Error != nil {
		return fmt.Errorf("failed to update stock drift: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrDriftNotPending
	}

	return nil
}

// Reopen возвращает запись в pending, если списание не удалось
func (r *stockDriftRepository) Reopen(ctx context.Context, id uuid.UUID, reason string) error {
	result := r.db.WithContext(ctx).Model(&entity.StockDrift{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     entity.DriftStatusPending,
			"reason":     reason,
			"applied_at": nil,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to reopen stock drift: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrDriftNotPending
	}

	return nil
}
