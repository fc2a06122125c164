package handler

import (
	"context"
	"net/http"

	"storefront/storefront-service/internal/app/storefront/entity"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type OrderServiceInterface interface {
	PlaceOrder(ctx context.Context, requester entity.Requester, req *entity.PlaceOrderRequest) (*entity.Order, error)
	GetOrder(ctx context.Context, orderID string, requester entity.Requester) (*entity.OrderView, error)
	GetOrderHistory(ctx context.Context, userID string) ([]entity.Order, error)
	ListOrders(ctx context.Context) ([]entity.OrderView, error)
	DeleteOrder(ctx context.Context, orderID string) error
	GetSummary(ctx context.Context) (*entity.Summary, error)
}

type SettlementServiceInterface interface {
	CapturePayment(ctx context.Context, orderID string, result entity.PaymentResult) (*entity.Order, error)
	MarkDelivered(ctx context.Context, orderID string) (*entity.Order, error)
}

type OrderHandler struct {
	orders     OrderServiceInterface
	settlement SettlementServiceInterface
	validator  *validator.Validate
}

func NewOrderHandler(orders OrderServiceInterface, settlement SettlementServiceInterface) *OrderHandler {
	return &OrderHandler{
		orders:     orders,
		settlement: settlement,
		validator:  validator.New(),
	}
}

// PlaceOrder POST /api/orders
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req entity.PlaceOrderRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), requesterFrom(c), &req)
	if err != nil {
		respondError(c, err, "Failed to place order")
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GetOrder GET /api/orders/:id - владелец или администратор
func (h *OrderHandler) GetOrder(c *gin.Context) {
	view, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"), requesterFrom(c))
	if err != nil {
		respondError(c, err, "Failed to get order")
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetMyOrders GET /api/orders/mine
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	orders, err := h.orders.GetOrderHistory(c.Request.Context(), requesterFrom(c).UserID)
	if err != nil {
		respondError(c, err, "Failed to get orders")
		return
	}

	c.JSON(http.StatusOK, orders)
}

// CapturePayment PUT /api/orders/:id/pay
// Тело - результат захвата платежа от провайдера.
func (h *OrderHandler) CapturePayment(c *gin.Context) {
	var req entity.CapturePaymentRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	order, err := h.settlement.CapturePayment(c.Request.Context(), c.Param("id"), req.ToPaymentResult())
	if err != nil {
		respondError(c, err, "Failed to capture payment")
		return
	}

	c.JSON(http.StatusOK, order)
}

// MarkDelivered PUT /api/orders/:id/deliver (admin)
func (h *OrderHandler) MarkDelivered(c *gin.Context) {
	order, err := h.settlement.MarkDelivered(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to mark order delivered")
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListOrders GET /api/orders (admin)
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list orders")
		return
	}

	c.JSON(http.StatusOK, orders)
}

// DeleteOrder DELETE /api/orders/:id (admin)
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.orders.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete order")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Order deleted successfully"})
}

// GetSummary GET /api/orders/summary (admin)
func (h *OrderHandler) GetSummary(c *gin.Context) {
	summary, err := h.orders.GetSummary(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to build summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}
