package handler

import (
	"context"
	"net/http"

	"storefront/storefront-service/internal/app/storefront/entity"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type UserServiceInterface interface {
	DeleteUser(ctx context.Context, userID string) (*entity.ReconcileReport, error)
	DeleteAccount(ctx context.Context, requester entity.Requester, req *entity.DeleteAccountRequest) (*entity.ReconcileReport, error)
	UpdateProfile(ctx context.Context, requester entity.Requester, req *entity.UpdateProfileRequest) (*entity.User, error)
}

type UserHandler struct {
	users     UserServiceInterface
	validator *validator.Validate
}

func NewUserHandler(users UserServiceInterface) *UserHandler {
	return &UserHandler{
		users:     users,
		validator: validator.New(),
	}
}

// UpdateProfile PUT /api/users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req entity.UpdateProfileRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), requesterFrom(c), &req)
	if err != nil {
		respondError(c, err, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteAccount DELETE /api/users/profile; тело подтверждает email аккаунта
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	var req entity.DeleteAccountRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	report, err := h.users.DeleteAccount(c.Request.Context(), requesterFrom(c), &req)
	if err != nil {
		respondError(c, err, "Failed to delete account")
		return
	}

	c.JSON(http.StatusOK, report)
}

// DeleteUser DELETE /api/users/:id (admin)
func (h *UserHandler) DeleteUser(c *gin.Context) {
	report, err := h.users.DeleteUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to delete user")
		return
	}

	c.JSON(http.StatusOK, report)
}
