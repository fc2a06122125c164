package handler

import (
	"context"
	"net/http"
	"strconv"

	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type CatalogServiceInterface interface {
	GetProductBySlug(ctx context.Context, slug string) (*entity.ProductDetails, error)
	ListProducts(ctx context.Context, page int) (*entity.ProductPage, error)
	CreateProduct(ctx context.Context, req *entity.CreateProductRequest) (*entity.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}

type ReviewServiceInterface interface {
	UpsertReview(ctx context.Context, productID, authorID, content string, rating int) (*entity.Review, error)
}

type ProductHandler struct {
	catalog   CatalogServiceInterface
	reviews   ReviewServiceInterface
	validator *validator.Validate
}

func NewProductHandler(catalog CatalogServiceInterface, reviews ReviewServiceInterface) *ProductHandler {
	return &ProductHandler{
		catalog:   catalog,
		reviews:   reviews,
		validator: validator.New(),
	}
}

// ListProducts GET /api/products?page=N
func (h *ProductHandler) ListProducts(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, service.ErrInvalidPage, "Failed to list products")
			return
		}
		page = n
	}

	result, err := h.catalog.ListProducts(c.Request.Context(), page)
	if err != nil {
		respondError(c, err, "Failed to list products")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetProduct GET /api/products/:slug
func (h *ProductHandler) GetProduct(c *gin.Context) {
	details, err := h.catalog.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err, "Failed to get product")
		return
	}

	c.JSON(http.StatusOK, details)
}

// CreateProduct POST /api/products (admin)
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req entity.CreateProductRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, product)
}

// DeleteProduct DELETE /api/products/:id (admin); отзывы товара удаляются вместе с ним
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete product")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Product deleted successfully"})
}

// UpsertReview POST /api/products/:id/reviews
// Повторный отзыв того же автора заменяет предыдущий.
// Имя автора берется из хранилища пользователей, а не из токена.
func (h *ProductHandler) UpsertReview(c *gin.Context) {
	var req entity.UpsertReviewRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	requester := requesterFrom(c)
	review, err := h.reviews.UpsertReview(
		c.Request.Context(),
		c.Param("id"),
		requester.UserID,
		req.Content,
		req.Rating,
	)
	if err != nil {
		respondError(c, err, "Failed to save review")
		return
	}

	c.JSON(http.StatusCreated, review)
}
