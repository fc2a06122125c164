package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/pkg/logger"
	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/repository"
)

// CatalogService обрабатывает бизнес-логику каталога товаров
type CatalogService struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
}

func NewCatalogService(products repository.ProductRepository, reviews repository.ReviewRepository) *CatalogService {
	return &CatalogService{products: products, reviews: reviews}
}

// GetProductBySlug возвращает товар вместе с отзывами
func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (*entity.ProductDetails, error) {
	product, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	reviews, err := s.reviews.ListByProduct(ctx, product.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to get product reviews: %w", err)
	}

	return &entity.ProductDetails{Product: *product, Reviews: reviews}, nil
}

// ListProducts возвращает страницу каталога по ProductsPerPage товаров
func (s *CatalogService) ListProducts(ctx context.Context, page int) (*entity.ProductPage, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}

	total, err := s.products.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	pages := int((total + entity.ProductsPerPage - 1) / entity.ProductsPerPage)
	skip := int64(page-1) * entity.ProductsPerPage

	products := []entity.Product{}
	if skip < total {
		products, err = s.products.List(ctx, skip, entity.ProductsPerPage)
		if err != nil {
			return nil, fmt.Errorf("failed to list products: %w", err)
		}
	}

	return &entity.ProductPage{
		Products: products,
		Page:     page,
		Pages:    pages,
		Total:    total,
	}, nil
}

// CreateProduct добавляет товар без отзывов
func (s *CatalogService) CreateProduct(ctx context.Context, req *entity.CreateProductRequest) (*entity.Product, error) {
	now := time.Now().UTC()
	product := &entity.Product{
		Slug:        req.Slug,
		Name:        req.Name,
		Image:       req.Image,
		Brand:       req.Brand,
		Category:    req.Category,
		Description: req.Description,
		Price:       req.Price,
		InStock:     req.InStock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrSlugTaken) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// DeleteProduct удаляет товар и все его отзывы
func (s *CatalogService) DeleteProduct(ctx context.Context, productID string) error {
	if err := s.products.Delete(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	removed, err := s.reviews.DeleteByProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to delete reviews of product %s: %w", productID, err)
	}

	logger.Ctx(ctx).Info().
		Str("product_id", productID).
		Int64("reviews_removed", removed).
		Msg("Product deleted")

	return nil
}
