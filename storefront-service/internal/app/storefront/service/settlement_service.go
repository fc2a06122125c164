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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// Notifier ставит письмо в очередь на отправку
type Notifier interface {
	Enqueue(ctx context.Context, event entity.NotificationEvent) error
}

// SettlementService проводит заказ по состояниям created -> paid -> delivered.
// Переходы выполняются атомарным compare-and-set в MongoDB,
// поэтому повторный callback провайдера не спишет остатки дважды.
type SettlementService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	drifts   repository.StockDriftRepository
	notifier Notifier
	now      func() time.Time
}

func NewSettlementService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	drifts repository.StockDriftRepository,
	notifier Notifier,
) *SettlementService {
	return &SettlementService{
		orders:   orders,
		products: products,
		drifts:   drifts,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CapturePayment отмечает заказ оплаченным и списывает остатки по каждой позиции.
// Неудачное списание не отменяет оплату: оно логируется и попадает в журнал stock_drifts.
func (s *SettlementService) CapturePayment(ctx context.Context, orderID string, result entity.PaymentResult) (*entity.Order, error) {
	ctx, span := tracer.Start(ctx, "SettlementService.CapturePayment")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			metrics.OrderTransitions.WithLabelValues(string(entity.OrderStatePaid), "not_found").Inc()
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if _, err := order.CurrentState().Transition(entity.OrderStatePaid); err != nil {
		logger.Ctx(ctx).Debug().Err(err).Str("order_id", orderID).Msg("Payment rejected")
		metrics.OrderTransitions.WithLabelValues(string(entity.OrderStatePaid), "conflict").Inc()
		return nil, ErrAlreadyPaid
	}

	paid, err := s.orders.MarkPaid(ctx, orderID, result, s.now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderStateMismatch):
			metrics.OrderTransitions.WithLabelValues(string(entity.OrderStatePaid), "conflict").Inc()
			return nil, ErrAlreadyPaid
		case errors.Is(err, repository.ErrOrderNotFound):
			metrics.OrderTransitions.WithLabelValues(string(entity.OrderStatePaid), "not_found").Inc()
			return nil, ErrOrderNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "mark paid failed")
		return nil, fmt.Errorf("failed to mark order paid: %w", err)
	}
	metrics.OrderTransitions.WithLabelValues(string(entity.OrderStatePaid), "success").Inc()

	// оплата зафиксирована, отмена запроса больше не должна прерывать списание
	ctx = context.WithoutCancel(ctx)

	s.decrementStock(ctx, paid)

	if err := s.notifyPaid(ctx, paid); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order_id", orderID).Msg("Failed to enqueue receipt email")
	}

	logger.Ctx(ctx).Info().
		Str("order_id", orderID).
		Float64("grand_total", paid.GrandTotal).
		Int("items", len(paid.OrderItems)).
		Msg("Order paid")

	return paid, nil
}

// decrementStock уменьшает остаток каждой позиции параллельно и дожидается всех
func (s *SettlementService) decrementStock(ctx context.Context, order *entity.Order) {
	var g errgroup.Group

	for _, item := range order.OrderItems {
		g.Go(func() error {
			err := s.products.DecrementStock(ctx, item.Slug, item.Quantity)
			metrics.StockDecrements.WithLabelValues(metrics.Result(err)).Inc()
			if err != nil {
				s.recordDrift(ctx, order.ID.Hex(), item, err)
				return fmt.Errorf("%s: %w", item.Slug, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Ctx(ctx).Warn().Err(err).
			Str("order_id", order.ID.Hex()).
			Msg("Stock was not fully decremented for paid order")
	}
}

func (s *SettlementService) recordDrift(ctx context.Context, orderID string, item entity.OrderItem, cause error) {
	logger.Ctx(ctx).Error().Err(cause).
		Str("order_id", orderID).
		Str("slug", item.Slug).
		Int("quantity", item.Quantity).
		Msg("Failed to decrement stock")

	drift := &entity.StockDrift{
		OrderID:  orderID,
		Slug:     item.Slug,
		Quantity: item.Quantity,
		Reason:   cause.Error(),
	}
	if err := s.drifts.Record(ctx, drift); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("order_id", orderID).
			Str("slug", item.Slug).
			Msg("Failed to record stock drift")
	}
}

// MarkDelivered отмечает оплаченный заказ доставленным.
// Повторный вызов для доставленного заказа успешен и не меняет deliveredAt.
func (s *SettlementService) MarkDelivered(ctx context.Context, orderID string) (*entity.Order, error) {
	ctx, span := tracer.Start(ctx, "SettlementService.MarkDelivered")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			metrics.OrderTransitions.WithLabelValues(string(entity.OrderStateDelivered), "not_found").Inc()
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	state := order.CurrentState()
	if state == entity.OrderStateDelivered {
		return order, nil
	}
	if _, err := state.Transition(entity.OrderStateDelivered); err != nil {
		logger.Ctx(ctx).Debug().Err(err).Str("order_id", orderID).Msg("Delivery rejected")
		metrics.OrderTransitions.WithLabelValues(string(entity.OrderStateDelivered), "conflict").Inc()
		return nil, ErrNotPaid
	}

	delivered, err := s.orders.MarkDelivered(ctx, orderID, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrOrderStateMismatch) {
			// параллельный вызов успел отметить доставку
			return s.orders.GetByID(ctx, orderID)
		}
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to mark order delivered: %w", err)
	}
	metrics.OrderTransitions.WithLabelValues(string(entity.OrderStateDelivered), "success").Inc()

	if err := s.notifyDelivered(ctx, delivered); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order_id", orderID).Msg("Failed to enqueue delivery email")
	}

	return delivered, nil
}

func (s *SettlementService) notifyPaid(ctx context.Context, order *entity.Order) error {
	recipient := recipientOf(order)
	if recipient == "" {
		logger.Ctx(ctx).Warn().Str("order_id", order.ID.Hex()).Msg("Paid order has no payer email, receipt skipped")
		return nil
	}

	items := make([]map[string]interface{}, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		items = append(items, map[string]interface{}{
			"name":     item.Name,
			"price":    item.Price,
			"quantity": item.Quantity,
		})
	}

	return s.notifier.Enqueue(ctx, entity.NotificationEvent{
		EventType:   entity.EventOrderPaid,
		AggregateID: order.ID.Hex(),
		Recipient:   recipient,
		Subject:     "Your order has been paid",
		TemplateData: map[string]interface{}{
			"orderId":       order.ID.Hex(),
			"fullName":      order.ShippingAddress.FullName,
			"orderItems":    items,
			"itemsTotal":    order.ItemsTotal,
			"taxTotal":      order.TaxTotal,
			"shippingTotal": order.ShippingTotal,
			"grandTotal":    order.GrandTotal,
		},
	})
}

func (s *SettlementService) notifyDelivered(ctx context.Context, order *entity.Order) error {
	recipient := recipientOf(order)
	if recipient == "" {
		return nil
	}

	return s.notifier.Enqueue(ctx, entity.NotificationEvent{
		EventType:   entity.EventOrderDelivered,
		AggregateID: order.ID.Hex(),
		Recipient:   recipient,
		Subject:     "Your order has been delivered",
		TemplateData: map[string]interface{}{
			"orderId":  order.ID.Hex(),
			"fullName": order.ShippingAddress.FullName,
			"address":  order.ShippingAddress.Address,
			"city":     order.ShippingAddress.City,
		},
	})
}

func recipientOf(order *entity.Order) string {
	if order.PaymentResult == nil {
		return ""
	}
	return order.PaymentResult.EmailAddress
}
