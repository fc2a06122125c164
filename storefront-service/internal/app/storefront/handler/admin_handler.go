package handler

import (
	"context"
	"net/http"

	"storefront/storefront-service/internal/app/storefront/entity"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type TaxServiceInterface interface {
	GetSettings(ctx context.Context) (*entity.TaxNShipping, error)
	Update(ctx context.Context, req *entity.UpdateTaxRequest) (*entity.TaxNShipping, error)
}

type ReplyServiceInterface interface {
	SendReply(ctx context.Context, req *entity.ContactReplyRequest) error
}

// AdminHandler - настройки налога/доставки и ответы на обращения
type AdminHandler struct {
	tax       TaxServiceInterface
	replies   ReplyServiceInterface
	validator *validator.Validate
}

func NewAdminHandler(tax TaxServiceInterface, replies ReplyServiceInterface) *AdminHandler {
	return &AdminHandler{
		tax:       tax,
		replies:   replies,
		validator: validator.New(),
	}
}

// GetTax GET /api/tax - публичный, нужен корзине для предварительного расчета
func (h *AdminHandler) GetTax(c *gin.Context) {
	settings, err := h.tax.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to get tax settings")
		return
	}

	c.JSON(http.StatusOK, settings)
}

// UpdateTax PUT /api/tax (admin)
func (h *AdminHandler) UpdateTax(c *gin.Context) {
	var req entity.UpdateTaxRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	settings, err := h.tax.Update(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to update tax settings")
		return
	}

	c.JSON(http.StatusOK, settings)
}

// SendReply POST /api/admin/reply
func (h *AdminHandler) SendReply(c *gin.Context) {
	var req entity.ContactReplyRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	if err := h.replies.SendReply(c.Request.Context(), &req); err != nil {
		respondError(c, err, "Failed to send reply")
		return
	}

	c.JSON(http.StatusAccepted, entity.SuccessResponse{Message: "Reply queued"})
}
