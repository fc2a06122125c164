package processor

import (
	"context"
	"log"

	"storefront/pkg/logger"
	"storefront/storefront-service/internal/app/storefront/config"
	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/service"

	"github.com/robfig/cron/v3"
)

// OutboxRelayer публикует накопленные события outbox
type OutboxRelayer interface {
	Relay(ctx context.Context) (service.RelayResult, error)
}

// StockApplier применяет отложенные списания остатков
type StockApplier interface {
	ApplyPending(ctx context.Context, limit int) (*entity.StockReconcileReport, error)
}

// stockBatchSize - сколько записей журнала обрабатывает один запуск сверки
const stockBatchSize = 100

type CronScheduler struct {
	cron       *cron.Cron
	relay      OutboxRelayer
	reconciler StockApplier
}

func NewCronScheduler(relay OutboxRelayer, reconciler StockApplier) *CronScheduler {
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cron.VerbosePrintfLogger(log.Default())),
	)

	return &CronScheduler{
		cron:       c,
		relay:      relay,
		reconciler: reconciler,
	}
}

// Start регистрирует обе задачи и сразу выполняет первый проход relay,
// чтобы события, накопленные до рестарта, не ждали расписания
func (s *CronScheduler) Start(ctx context.Context, schedules config.CronScheduleConfig) error {
	logger.Info().
		Str("outbox_relay", schedules.OutboxRelay).
		Str("stock_reconcile", schedules.StockReconcile).
		Msg("Starting cron scheduler")

	if _, err := s.cron.AddFunc(schedules.OutboxRelay, func() { s.relayOutbox(ctx) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(schedules.StockReconcile, func() { s.reconcileStock(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Msg("Cron scheduler started")

	s.relayOutbox(ctx)

	return nil
}

func (s *CronScheduler) relayOutbox(ctx context.Context) {
	result, err := s.relay.Relay(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Outbox relay failed")
		return
	}
	if result.Published > 0 || result.Failed > 0 {
		logger.Debug().
			Int("published", result.Published).
			Int("failed", result.Failed).
			Msg("Outbox relay job completed")
	}
}

func (s *CronScheduler) reconcileStock(ctx context.Context) {
	logger.Debug().Msg("Cron job triggered: reconciling stock drift")

	if _, err := s.reconciler.ApplyPending(ctx, stockBatchSize); err != nil {
		logger.Error().Err(err).Msg("Stock reconcile failed")
	}
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
