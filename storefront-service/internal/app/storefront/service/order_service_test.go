package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/repository"
	"storefront/storefront-service/internal/app/storefront/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var defaultSnapshot = entity.PricingSnapshot{Version: 3, TaxRate: 0.11, ShippingRate: 15, FreeShippingThreshold: 200}

func placeOrderRequest(items ...entity.CartItemRequest) *entity.PlaceOrderRequest {
	return &entity.PlaceOrderRequest{
		OrderItems: items,
		ShippingAddress: entity.ShippingAddressRequest{
			FullName: "Jane Doe",
			Address:  "1 Main St",
			City:     "Springfield",
			State:    "IL",
			Zip:      "62701",
		},
		PaymentMethod: "PayPal",
	}
}

// ===================== PlaceOrder Tests =====================

func TestPlaceOrder_Success(t *testing.T) {
	// Arrange
	orderRepo := new(mocks.MockOrderRepository)
	productRepo := new(mocks.MockProductRepository)
	pricing := new(mockPricing)
	service := NewOrderService(orderRepo, productRepo, new(mocks.MockUserRepository), pricing)

	ctx := context.Background()
	requester := entity.Requester{UserID: uuid.NewString()}

	productRepo.On("GetBySlug", ctx, "mug").Return(&entity.Product{
		ID: primitive.NewObjectID(), Slug: "mug", Name: "Mug", Image: "mug.png", Price: 20, InStock: 5,
	}, nil)
	pricing.On("Snapshot", ctx).Return(defaultSnapshot, nil)
	orderRepo.On("Create", ctx, mock.AnythingOfType("*entity.Order")).Return(nil)

	// Act
	order, err := service.PlaceOrder(ctx, requester, placeOrderRequest(entity.CartItemRequest{Slug: "mug", Quantity: 3}))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, requester.UserID, *order.OwnerID)
	assert.Equal(t, entity.OrderStateCreated, order.State)
	assert.False(t, order.IsPaid)
	require.Len(t, order.OrderItems, 1)
	assert.Equal(t, entity.OrderItem{Slug: "mug", Name: "Mug", Image: "mug.png", Price: 20, Quantity: 3}, order.OrderItems[0])
	// 20.00 x 3 при 0.11 / 15 / 200
	assert.Equal(t, 60.0, order.ItemsTotal)
	assert.Equal(t, 6.6, order.TaxTotal)
	assert.Equal(t, 15.0, order.ShippingTotal)
	assert.Equal(t, 81.6, order.GrandTotal)
	assert.Equal(t, defaultSnapshot, *order.Pricing)
	assert.Equal(t, "Jane Doe", order.ShippingAddress.FullName)

	orderRepo.AssertExpectations(t)
}

func TestPlaceOrder_MergesDuplicateSlugs(t *testing.T) {
	// Arrange
	orderRepo := new(mocks.MockOrderRepository)
	productRepo := new(mocks.MockProductRepository)
	pricing := new(mockPricing)
	service := NewOrderService(orderRepo, productRepo, new(mocks.MockUserRepository), pricing)

	ctx := context.Background()
	productRepo.On("GetBySlug", ctx, "mug").Return(&entity.Product{Slug: "mug", Price: 10, InStock: 3}, nil).Once()
	pricing.On("Snapshot", ctx).Return(defaultSnapshot, nil)
	orderRepo.On("Create", ctx, mock.Anything).Return(nil)

	// Act
	order, err := service.PlaceOrder(ctx, entity.Requester{UserID: "u1"}, placeOrderRequest(
		entity.CartItemRequest{Slug: "mug", Quantity: 1},
		entity.CartItemRequest{Slug: "mug", Quantity: 2},
	))

	// Assert
	require.NoError(t, err)
	require.Len(t, order.OrderItems, 1)
	assert.Equal(t, 3, order.OrderItems[0].Quantity)
	productRepo.AssertExpectations(t)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	// Arrange
	orderRepo := new(mocks.MockOrderRepository)
	productRepo := new(mocks.MockProductRepository)
	service := NewOrderService(orderRepo, productRepo, new(mocks.MockUserRepository), new(mockPricing))

	ctx := context.Background()
	productRepo.On("GetBySlug", ctx, "mug").Return(&entity.Product{Slug: "mug", Price: 10, InStock: 1}, nil)

	// Act
	order, err := service.PlaceOrder(ctx, entity.Requester{UserID: "u1"}, placeOrderRequest(entity.CartItemRequest{Slug: "mug", Quantity: 2}))

	// Assert
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.ErrorIs(t, err, ErrConflict)
	orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	productRepo := new(mocks.MockProductRepository)
	service := NewOrderService(new(mocks.MockOrderRepository), productRepo, new(mocks.MockUserRepository), new(mockPricing))

	ctx := context.Background()
	productRepo.On("GetBySlug", ctx, "ghost").Return(nil, repository.ErrProductNotFound)

	_, err := service.PlaceOrder(ctx, entity.Requester{UserID: "u1"}, placeOrderRequest(entity.CartItemRequest{Slug: "ghost", Quantity: 1}))

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlaceOrder_Validation(t *testing.T) {
	service := NewOrderService(new(mocks.MockOrderRepository), new(mocks.MockProductRepository), new(mocks.MockUserRepository), new(mockPricing))
	ctx := context.Background()

	_, err := service.PlaceOrder(ctx, entity.Requester{}, placeOrderRequest(entity.CartItemRequest{Slug: "mug", Quantity: 1}))
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = service.PlaceOrder(ctx, entity.Requester{UserID: "u1"}, placeOrderRequest())
	assert.ErrorIs(t, err, ErrValidation)

	_, err = service.PlaceOrder(ctx, entity.Requester{UserID: "u1"}, placeOrderRequest(entity.CartItemRequest{Slug: "mug", Quantity: 0}))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPlaceOrder_LaterConfigChangeDoesNotTouchPlacedOrder(t *testing.T) {
	// Arrange
	store := newMemStore()
	store.addProduct("mug", 20, 10)
	pricing := new(mockPricing)
	orders := memOrders{store}
	service := NewOrderService(orders, memProducts{store}, new(mocks.MockUserRepository), pricing)

	ctx := context.Background()
	pricing.On("Snapshot", ctx).Return(defaultSnapshot, nil).Once()
	pricing.On("Snapshot", ctx).Return(entity.PricingSnapshot{Version: 4, TaxRate: 0.2, ShippingRate: 30, FreeShippingThreshold: 200}, nil).Once()

	first, err := service.PlaceOrder(ctx, entity.Requester{UserID: "u1"}, placeOrderRequest(entity.CartItemRequest{Slug: "mug", Quantity: 3}))
	require.NoError(t, err)

	// Act
	second, err := service.PlaceOrder(ctx, entity.Requester{UserID: "u1"}, placeOrderRequest(entity.CartItemRequest{Slug: "mug", Quantity: 3}))
	require.NoError(t, err)

	// Assert
	stored, err := orders.GetByID(ctx, first.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 81.6, stored.GrandTotal)
	assert.Equal(t, int64(3), stored.Pricing.Version)
	assert.Equal(t, 102.0, second.GrandTotal)
	assert.Equal(t, int64(4), second.Pricing.Version)
}

// ===================== GetOrder Tests =====================

func TestGetOrder_OwnerAndAdmin(t *testing.T) {
	// Arrange
	orderRepo := new(mocks.MockOrderRepository)
	userRepo := new(mocks.MockUserRepository)
	service := NewOrderService(orderRepo, new(mocks.MockProductRepository), userRepo, new(mockPricing))

	ctx := context.Background()
	ownerID := uuid.New()
	owner := ownerID.String()
	order := &entity.Order{ID: primitive.NewObjectID(), OwnerID: &owner}

	orderRepo.On("GetByID", ctx, order.ID.Hex()).Return(order, nil)
	userRepo.On("GetNames", ctx, []uuid.UUID{ownerID}).Return(map[uuid.UUID]string{ownerID: "Jane"}, nil)

	// Act
	asOwner, ownerErr := service.GetOrder(ctx, order.ID.Hex(), entity.Requester{UserID: owner})
	asAdmin, adminErr := service.GetOrder(ctx, order.ID.Hex(), entity.Requester{UserID: uuid.NewString(), IsAdmin: true})
	_, strangerErr := service.GetOrder(ctx, order.ID.Hex(), entity.Requester{UserID: uuid.NewString()})

	// Assert
	require.NoError(t, ownerErr)
	require.NoError(t, adminErr)
	assert.Equal(t, "Jane", asOwner.OwnerName)
	assert.Equal(t, "Jane", asAdmin.OwnerName)
	assert.ErrorIs(t, strangerErr, ErrNotOrderOwner)
	assert.ErrorIs(t, strangerErr, ErrUnauthorized)
}

func TestGetOrder_NotFound(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	service := NewOrderService(orderRepo, new(mocks.MockProductRepository), new(mocks.MockUserRepository), new(mockPricing))

	ctx := context.Background()
	orderRepo.On("GetByID", ctx, "nope").Return(nil, repository.ErrOrderNotFound)

	_, err := service.GetOrder(ctx, "nope", entity.Requester{UserID: "u1"})

	assert.ErrorIs(t, err, ErrOrderNotFound)
}

// ===================== ListOrders Tests =====================

func TestListOrders_RendersDeletedOwners(t *testing.T) {
	// Arrange
	orderRepo := new(mocks.MockOrderRepository)
	userRepo := new(mocks.MockUserRepository)
	service := NewOrderService(orderRepo, new(mocks.MockProductRepository), userRepo, new(mockPricing))

	ctx := context.Background()
	liveID := uuid.New()
	goneID := uuid.New()
	live := liveID.String()
	gone := goneID.String()

	orders := []entity.Order{
		{ID: primitive.NewObjectID(), OwnerID: &live},
		{ID: primitive.NewObjectID(), OwnerID: nil},
		{ID: primitive.NewObjectID(), OwnerID: &gone},
		{ID: primitive.NewObjectID(), OwnerID: &live},
	}
	orderRepo.On("ListAll", ctx).Return(orders, nil)
	userRepo.On("GetNames", ctx, []uuid.UUID{liveID, goneID}).Return(map[uuid.UUID]string{liveID: "Jane"}, nil)

	// Act
	views, err := service.ListOrders(ctx)

	// Assert
	require.NoError(t, err)
	require.Len(t, views, 4)
	assert.Equal(t, "Jane", views[0].OwnerName)
	assert.Equal(t, entity.DeletedUserName, views[1].OwnerName)
	assert.Equal(t, entity.DeletedUserName, views[2].OwnerName)
	assert.Equal(t, "Jane", views[3].OwnerName)
}

func TestListOrders_NoOwnersSkipsLookup(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	userRepo := new(mocks.MockUserRepository)
	service := NewOrderService(orderRepo, new(mocks.MockProductRepository), userRepo, new(mockPricing))

	ctx := context.Background()
	orderRepo.On("ListAll", ctx).Return([]entity.Order{{ID: primitive.NewObjectID()}}, nil)

	views, err := service.ListOrders(ctx)

	require.NoError(t, err)
	assert.Equal(t, entity.DeletedUserName, views[0].OwnerName)
	userRepo.AssertNotCalled(t, "GetNames", mock.Anything, mock.Anything)
}

// ===================== History / Delete / Summary Tests =====================

func TestGetOrderHistory(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	service := NewOrderService(orderRepo, new(mocks.MockProductRepository), new(mocks.MockUserRepository), new(mockPricing))

	ctx := context.Background()
	newer := entity.Order{ID: primitive.NewObjectID(), CreatedAt: time.Now()}
	older := entity.Order{ID: primitive.NewObjectID(), CreatedAt: time.Now().Add(-time.Hour)}
	orderRepo.On("ListByOwner", ctx, "u1").Return([]entity.Order{newer, older}, nil)

	orders, err := service.GetOrderHistory(ctx, "u1")

	require.NoError(t, err)
	assert.Equal(t, []entity.Order{newer, older}, orders)

	_, err = service.GetOrderHistory(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestDeleteOrder(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	service := NewOrderService(orderRepo, new(mocks.MockProductRepository), new(mocks.MockUserRepository), new(mockPricing))

	ctx := context.Background()
	orderRepo.On("Delete", ctx, "o1").Return(nil)
	orderRepo.On("Delete", ctx, "o2").Return(repository.ErrOrderNotFound)

	assert.NoError(t, service.DeleteOrder(ctx, "o1"))
	assert.ErrorIs(t, service.DeleteOrder(ctx, "o2"), ErrOrderNotFound)
}

func TestGetSummary(t *testing.T) {
	// Arrange
	orderRepo := new(mocks.MockOrderRepository)
	productRepo := new(mocks.MockProductRepository)
	userRepo := new(mocks.MockUserRepository)
	service := NewOrderService(orderRepo, productRepo, userRepo, new(mockPricing))

	ctx := context.Background()
	sales := []entity.MonthlySales{{Month: "2024-01", ItemsTotal: 120.5, Orders: 3}}
	userRepo.On("Count", ctx).Return(int64(10), nil)
	productRepo.On("Count", ctx).Return(int64(25), nil)
	orderRepo.On("Count", ctx).Return(int64(3), nil)
	orderRepo.On("MonthlySales", ctx).Return(sales, nil)

	// Act
	summary, err := service.GetSummary(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, &entity.Summary{Users: 10, Products: 25, Orders: 3, MonthlySales: sales}, summary)
}

func TestGetSummary_CountError(t *testing.T) {
	userRepo := new(mocks.MockUserRepository)
	service := NewOrderService(new(mocks.MockOrderRepository), new(mocks.MockProductRepository), userRepo, new(mockPricing))

	ctx := context.Background()
	userRepo.On("Count", ctx).Return(int64(0), errors.New("pg down"))

	_, err := service.GetSummary(ctx)

	assert.Error(t, err)
}
