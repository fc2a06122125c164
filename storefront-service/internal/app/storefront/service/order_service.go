package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/pricing"
	"storefront/storefront-service/internal/app/storefront/repository"

	"github.com/google/uuid"
)

// PricingSource выдает снимок настроек налога и доставки для нового заказа
type PricingSource interface {
	Snapshot(ctx context.Context) (entity.PricingSnapshot, error)
}

// OrderService размещает заказы и отдает их владельцу и администратору
type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	users    repository.UserRepository
	pricing  PricingSource
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	pricing PricingSource,
) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		users:    users,
		pricing:  pricing,
	}
}

// PlaceOrder создает заказ в состоянии created.
// Название, картинка и цена каждой позиции читаются из каталога и замораживаются в заказе,
// вместе с версией настроек налога, по которой посчитаны суммы.
func (s *OrderService) PlaceOrder(ctx context.Context, requester entity.Requester, req *entity.PlaceOrderRequest) (*entity.Order, error) {
	if requester.UserID == "" {
		return nil, ErrLoginRequired
	}
	if len(req.OrderItems) == 0 {
		return nil, validationError(pricing.ErrEmptyCart)
	}

	quantities := make(map[string]int, len(req.OrderItems))
	slugs := make([]string, 0, len(req.OrderItems))
	for _, item := range req.OrderItems {
		if item.Quantity <= 0 {
			return nil, validationError(fmt.Errorf("%w: %s", pricing.ErrInvalidQuantity, item.Slug))
		}
		if _, seen := quantities[item.Slug]; !seen {
			slugs = append(slugs, item.Slug)
		}
		quantities[item.Slug] += item.Quantity
	}

	items := make([]entity.OrderItem, 0, len(slugs))
	for _, slug := range slugs {
		product, err := s.products.GetBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrProductNotFound, slug)
			}
			return nil, fmt.Errorf("failed to get product %s: %w", slug, err)
		}

		if product.InStock < quantities[slug] {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, slug)
		}

		items = append(items, entity.OrderItem{
			Slug:     product.Slug,
			Name:     product.Name,
			Image:    product.Image,
			Price:    product.Price,
			Quantity: quantities[slug],
		})
	}

	snapshot, err := s.pricing.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing snapshot: %w", err)
	}

	totals, err := pricing.Calculate(items, snapshot)
	if err != nil {
		return nil, validationError(err)
	}

	ownerID := requester.UserID
	order := &entity.Order{
		OwnerID:    &ownerID,
		OrderItems: items,
		ShippingAddress: entity.ShippingAddress{
			FullName: req.ShippingAddress.FullName,
			Address:  req.ShippingAddress.Address,
			City:     req.ShippingAddress.City,
			State:    req.ShippingAddress.State,
			Zip:      req.ShippingAddress.Zip,
		},
		PaymentMethod: req.PaymentMethod,
		ItemsTotal:    totals.ItemsTotal,
		TaxTotal:      totals.TaxTotal,
		ShippingTotal: totals.ShippingTotal,
		GrandTotal:    totals.GrandTotal,
		Pricing:       &snapshot,
		State:         entity.OrderStateCreated,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	metrics.OrdersPlaced.Inc()
	metrics.OrdersGrandTotal.Add(order.GrandTotal)

	logger.Ctx(ctx).Info().
		Str("order_id", order.ID.Hex()).
		Str("owner_id", ownerID).
		Float64("grand_total", order.GrandTotal).
		Int64("pricing_version", snapshot.Version).
		Msg("Order placed")

	return order, nil
}

// GetOrder возвращает заказ владельцу или администратору
func (s *OrderService) GetOrder(ctx context.Context, orderID string, requester entity.Requester) (*entity.OrderView, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if !requester.IsAdmin && !order.IsOwnedBy(requester.UserID) {
		return nil, ErrNotOrderOwner
	}

	views, err := s.withOwnerNames(ctx, []entity.Order{*order})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// GetOrderHistory возвращает заказы пользователя, новые первыми
func (s *OrderService) GetOrderHistory(ctx context.Context, userID string) ([]entity.Order, error) {
	if userID == "" {
		return nil, ErrLoginRequired
	}

	orders, err := s.orders.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order history: %w", err)
	}
	return orders, nil
}

// ListOrders возвращает все заказы с именами владельцев
func (s *OrderService) ListOrders(ctx context.Context) ([]entity.OrderView, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return s.withOwnerNames(ctx, orders)
}

func (s *OrderService) DeleteOrder(ctx context.Context, orderID string) error {
	if err := s.orders.Delete(ctx, orderID); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}

	logger.Ctx(ctx).Info().Str("order_id", orderID).Msg("Order deleted")
	return nil
}

// GetSummary собирает сводку для панели администратора
func (s *OrderService) GetSummary(ctx context.Context) (*entity.Summary, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	products, err := s.products.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	orders, err := s.orders.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	sales, err := s.orders.MonthlySales(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly sales: %w", err)
	}

	return &entity.Summary{
		Users:        users,
		Products:     products,
		Orders:       orders,
		MonthlySales: sales,
	}, nil
}

// withOwnerNames подставляет имена владельцев.
// Для удаленного или отсутствующего пользователя выводится DeletedUserName.
func (s *OrderService) withOwnerNames(ctx context.Context, orders []entity.Order) ([]entity.OrderView, error) {
	ids := make([]uuid.UUID, 0, len(orders))
	seen := make(map[uuid.UUID]bool)
	for _, order := range orders {
		if order.OwnerID == nil {
			continue
		}
		id, err := uuid.Parse(*order.OwnerID)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	names := map[uuid.UUID]string{}
	if len(ids) > 0 {
		var err error
		names, err = s.users.GetNames(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to get owner names: %w", err)
		}
	}

	views := make([]entity.OrderView, 0, len(orders))
	for _, order := range orders {
		view := entity.OrderView{Order: order, OwnerName: entity.DeletedUserName}
		if order.OwnerID != nil {
			if id, err := uuid.Parse(*order.OwnerID); err == nil {
				if name, ok := names[id]; ok {
					view.OwnerName = name
				}
			}
		}
		views = append(views, view)
	}

	return views, nil
}
