package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/pkg/metrics"
	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/repository"
)

// NotificationService записывает письма в outbox.
// Доставкой занимается notification-worker после публикации в Kafka.
type NotificationService struct {
	outbox repository.OutboxRepository
}

func NewNotificationService(outbox repository.OutboxRepository) *NotificationService {
	return &NotificationService{outbox: outbox}
}

// Enqueue сохраняет событие в outbox со статусом pending
func (s *NotificationService) Enqueue(ctx context.Context, event entity.NotificationEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	outboxEvent := &entity.OutboxEvent{
		EventType:   event.EventType,
		AggregateID: event.AggregateID,
		Payload:     string(payload),
	}
	if err := s.outbox.Enqueue(ctx, outboxEvent); err != nil {
		return fmt.Errorf("failed to enqueue %s notification: %w", event.EventType, err)
	}

	metrics.OutboxEnqueued.WithLabelValues(event.EventType).Inc()
	return nil
}

// SendReply ставит в очередь ответ администратора на сообщение пользователя
func (s *NotificationService) SendReply(ctx context.Context, req *entity.ContactReplyRequest) error {
	if req.EmailTo == "" || req.Subject == "" || req.Content == "" {
		return newError(ErrValidation, "emailTo, subject and content are required")
	}

	return s.Enqueue(ctx, entity.NotificationEvent{
		EventType:   entity.EventContactReply,
		AggregateID: req.EmailTo,
		Recipient:   req.EmailTo,
		Subject:     req.Subject,
		TemplateData: map[string]interface{}{
			"replyContent": req.Content,
		},
	})
}
