package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/notification-worker/internal/app/notification/entity"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("notification-worker")

var (
	ErrUnknownEventType = errors.New("no template configured for event type")
	ErrMissingRecipient = errors.New("event has no recipient")
)

// EmailSender - провайдер доставки писем
type EmailSender interface {
	Send(ctx context.Context, mail entity.Email) error
}

// DeliveryServiceInterface используется consumer'ом
type DeliveryServiceInterface interface {
	Deliver(ctx context.Context, event *entity.NotificationEvent) error
}

// DeliveryService превращает событие в письмо по шаблону его типа
type DeliveryService struct {
	sender    EmailSender
	templates map[string]string
}

func NewDeliveryService(sender EmailSender, templates map[string]string) *DeliveryService {
	return &DeliveryService{sender: sender, templates: templates}
}

func (s *DeliveryService) Deliver(ctx context.Context, event *entity.NotificationEvent) (err error) {
	ctx, span := tracer.Start(ctx, "DeliveryService.Deliver")
	defer span.End()
	span.SetAttributes(
		attribute.String("event.type", event.EventType),
		attribute.String("event.aggregate_id", event.AggregateID),
	)

	defer func() {
		metrics.NotificationsSent.WithLabelValues(event.EventType, metrics.Result(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "delivery failed")
		}
	}()

	templateID := s.templates[event.EventType]
	if templateID == "" {
		return fmt.Errorf("%w: %s", ErrUnknownEventType, event.EventType)
	}
	if strings.TrimSpace(event.Recipient) == "" {
		return ErrMissingRecipient
	}

	mail := entity.Email{
		To:           event.Recipient,
		Subject:      event.Subject,
		TemplateID:   templateID,
		TemplateData: event.TemplateData,
	}
	if err := s.sender.Send(ctx, mail); err != nil {
		return fmt.Errorf("failed to send %s email: %w", event.EventType, err)
	}

	logger.Ctx(ctx).Info().
		Str("event_type", event.EventType).
		Str("aggregate_id", event.AggregateID).
		Msg("Notification email sent")

	return nil
}
