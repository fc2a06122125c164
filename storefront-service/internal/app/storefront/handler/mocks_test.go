package handler

import (
	"context"

	"storefront/storefront-service/internal/app/storefront/entity"

	"github.com/stretchr/testify/mock"
)

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) GetProductBySlug(ctx context.Context, slug string) (*entity.ProductDetails, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProductDetails), args.Error(1)
}

func (m *MockCatalogService) ListProducts(ctx context.Context, page int) (*entity.ProductPage, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProductPage), args.Error(1)
}

func (m *MockCatalogService) CreateProduct(ctx context.Context, req *entity.CreateProductRequest) (*entity.Product, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockCatalogService) DeleteProduct(ctx context.Context, productID string) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) UpsertReview(ctx context.Context, productID, authorID, content string, rating int) (*entity.Review, error) {
	args := m.Called(ctx, productID, authorID, content, rating)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, requester entity.Requester, req *entity.PlaceOrderRequest) (*entity.Order, error) {
	args := m.Called(ctx, requester, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID string, requester entity.Requester) (*entity.OrderView, error) {
	args := m.Called(ctx, orderID, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.OrderView), args.Error(1)
}

func (m *MockOrderService) GetOrderHistory(ctx context.Context, userID string) ([]entity.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context) ([]entity.OrderView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.OrderView), args.Error(1)
}

func (m *MockOrderService) DeleteOrder(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockOrderService) GetSummary(ctx context.Context) (*entity.Summary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Summary), args.Error(1)
}

type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) CapturePayment(ctx context.Context, orderID string, result entity.PaymentResult) (*entity.Order, error) {
	args := m.Called(ctx, orderID, result)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockSettlementService) MarkDelivered(ctx context.Context, orderID string) (*entity.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) DeleteUser(ctx context.Context, userID string) (*entity.ReconcileReport, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReconcileReport), args.Error(1)
}

func (m *MockUserService) DeleteAccount(ctx context.Context, requester entity.Requester, req *entity.DeleteAccountRequest) (*entity.ReconcileReport, error) {
	args := m.Called(ctx, requester, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReconcileReport), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, requester entity.Requester, req *entity.UpdateProfileRequest) (*entity.User, error) {
	args := m.Called(ctx, requester, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

type MockTaxService struct {
	mock.Mock
}

func (m *MockTaxService) GetSettings(ctx context.Context) (*entity.TaxNShipping, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TaxNShipping), args.Error(1)
}

func (m *MockTaxService) Update(ctx context.Context, req *entity.UpdateTaxRequest) (*entity.TaxNShipping, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TaxNShipping), args.Error(1)
}

type MockReplyService struct {
	mock.Mock
}

func (m *MockReplyService) SendReply(ctx context.Context, req *entity.ContactReplyRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
