package service

import (
	"context"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/storefront-service/internal/app/storefront/infrastructure"
	"storefront/storefront-service/internal/app/storefront/repository"
)

const (
	outboxRelayLockKey = "storefront:lock:outbox_relay"
	outboxRelayLockTTL = time.Minute
)

// RelayResult - итог одного прохода outbox relay
type RelayResult struct {
	Published int
	Failed    int
	Dead      int
}

// OutboxRelay публикует события из outbox в Kafka в порядке создания
type OutboxRelay struct {
	outbox      repository.OutboxRepository
	publisher   infrastructure.MessagePublisher
	lock        repository.LockRepository
	batchSize   int64
	maxAttempts int
}

func NewOutboxRelay(
	outbox repository.OutboxRepository,
	publisher infrastructure.MessagePublisher,
	lock repository.LockRepository,
	batchSize int64,
	maxAttempts int,
) *OutboxRelay {
	return &OutboxRelay{
		outbox:      outbox,
		publisher:   publisher,
		lock:        lock,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
	}
}

// Relay публикует очередную пачку pending событий.
// На первой ошибке брокера проход останавливается, остаток уйдет в следующий раз.
// Событие, исчерпавшее maxAttempts, переводится в failed и больше не держит очередь.
func (r *OutboxRelay) Relay(ctx context.Context) (RelayResult, error) {
	var result RelayResult

	token, ok, err := r.lock.Acquire(ctx, outboxRelayLockKey, outboxRelayLockTTL)
	if err != nil {
		return result, err
	}
	if !ok {
		return result, nil
	}
	defer func() {
		if err := r.lock.Release(context.WithoutCancel(ctx), outboxRelayLockKey, token); err != nil {
			logger.Warn().Err(err).Msg("Failed to release outbox relay lock")
		}
	}()

	events, err := r.outbox.FetchPending(ctx, r.batchSize)
	if err != nil {
		return result, err
	}

	for _, event := range events {
		id := event.ID.Hex()

		if err := r.publisher.PublishMessage(ctx, event.AggregateID, []byte(event.Payload)); err != nil {
			dead := r.maxAttempts > 0 && event.Attempts+1 >= r.maxAttempts
			logger.Error().Err(err).
				Str("event_id", id).
				Str("event_type", event.EventType).
				Int("attempts", event.Attempts+1).
				Bool("dead", dead).
				Msg("Failed to publish outbox event")
			if err := r.outbox.MarkFailed(ctx, id, err.Error(), dead); err != nil {
				logger.Error().Err(err).Str("event_id", id).Msg("Failed to record outbox failure")
				result.Failed++
				break
			}
			if dead {
				result.Dead++
				metrics.OutboxPublished.WithLabelValues("dead").Inc()
				continue
			}
			result.Failed++
			metrics.OutboxPublished.WithLabelValues("failed").Inc()
			break
		}

		if err := r.outbox.MarkPublished(ctx, id, time.Now().UTC()); err != nil {
			// событие уйдет повторно; worker получит дубликат
			logger.Error().Err(err).Str("event_id", id).Msg("Failed to mark outbox event published")
		}
		result.Published++
		metrics.OutboxPublished.WithLabelValues("success").Inc()
	}

	if len(events) > 0 {
		logger.Info().
			Int("published", result.Published).
			Int("failed", result.Failed).
			Int("dead", result.Dead).
			Msg("Outbox relay pass finished")
	}

	return result, nil
}
