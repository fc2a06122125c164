package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// AuthorDirectory - источник актуальных данных об авторах отзывов
type AuthorDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

// RatingAggregator поддерживает productRating и numberOfReviews товара
// равными среднему и количеству его текущих отзывов.
// Агрегат всегда пересчитывается по свежему чтению отзывов, а не инкрементально.
type RatingAggregator struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	authors  AuthorDirectory
}

func NewRatingAggregator(products repository.ProductRepository, reviews repository.ReviewRepository, authors AuthorDirectory) *RatingAggregator {
	return &RatingAggregator{products: products, reviews: reviews, authors: authors}
}

// UpsertReview создает отзыв или перезаписывает отзыв того же автора,
// затем пересчитывает агрегат товара.
// Автор должен существовать в хранилище пользователей, имя берется оттуда же.
func (a *RatingAggregator) UpsertReview(ctx context.Context, productID, authorID, content string, rating int) (*entity.Review, error) {
	ctx, span := tracer.Start(ctx, "RatingAggregator.UpsertReview")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	author, err := a.lookupAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	if _, err := a.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	review := &entity.Review{
		ProductID:    productID,
		AuthorID:     authorID,
		AuthorName:   author.Name,
		Content:      content,
		ReviewRating: rating,
	}
	created, err := a.reviews.Upsert(ctx, review)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	// Удаление пользователя могло пройти между проверкой и записью:
	// тогда его зачистка отзывов уже выполнена и этот отзыв убираем сами.
	if _, err := a.lookupAuthor(ctx, authorID); errors.Is(err, ErrMissingAuthor) {
		if err := a.reviews.Delete(ctx, review.ID.Hex()); err != nil && !errors.Is(err, repository.ErrReviewNotFound) {
			return nil, fmt.Errorf("failed to drop review of removed author: %w", err)
		}
		if err := a.Recompute(ctx, productID); err != nil {
			return nil, err
		}
		return nil, ErrMissingAuthor
	}

	kind := "updated"
	if created {
		kind = "created"
	}
	metrics.ReviewsUpserted.WithLabelValues(kind).Inc()
	metrics.ReviewsRating.Observe(float64(rating))

	if err := a.Recompute(ctx, productID); err != nil {
		return nil, err
	}

	return review, nil
}

// lookupAuthor возвращает ErrMissingAuthor для пустого, некорректного или удаленного автора
func (a *RatingAggregator) lookupAuthor(ctx context.Context, authorID string) (*entity.User, error) {
	id, err := uuid.Parse(authorID)
	if err != nil {
		return nil, ErrMissingAuthor
	}

	user, err := a.authors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrMissingAuthor
		}
		return nil, fmt.Errorf("failed to get review author: %w", err)
	}

	return user, nil
}

// Recompute перечитывает отзывы товара и записывает среднее и количество
func (a *RatingAggregator) Recompute(ctx context.Context, productID string) error {
	ctx, span := tracer.Start(ctx, "RatingAggregator.Recompute")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	count, mean, err := a.reviews.RatingStats(ctx, productID)
	if err != nil {
		metrics.RatingRecomputes.WithLabelValues("failed").Inc()
		span.RecordError(err)
		return fmt.Errorf("failed to read review stats: %w", err)
	}
	if count == 0 {
		mean = 0
	}

	err = a.products.SetRating(ctx, productID, mean, count)
	metrics.RatingRecomputes.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to update product rating: %w", err)
	}

	span.SetAttributes(
		attribute.Int("reviews.count", count),
		attribute.Float64("reviews.mean", mean),
	)
	return nil
}

// RemoveAuthorReviews удаляет отзывы автора и пересчитывает каждый затронутый товар.
// Ошибка по одному товару не прерывает обработку остальных и попадает в отчет.
func (a *RatingAggregator) RemoveAuthorReviews(ctx context.Context, authorID string) (*entity.ReconcileReport, error) {
	ctx, span := tracer.Start(ctx, "RatingAggregator.RemoveAuthorReviews")
	defer span.End()

	report := &entity.ReconcileReport{AuthorID: authorID, ProductsUpdated: []string{}}

	reviews, err := a.reviews.ListByAuthor(ctx, authorID)
	if err != nil {
		return report, fmt.Errorf("failed to list author reviews: %w", err)
	}

	for _, review := range reviews {
		if err := a.reviews.Delete(ctx, review.ID.Hex()); err != nil && !errors.Is(err, repository.ErrReviewNotFound) {
			logger.Ctx(ctx).Error().Err(err).
				Str("review_id", review.ID.Hex()).
				Str("author_id", authorID).
				Msg("Failed to delete review of removed author")
			report.Failures = append(report.Failures, review.ProductID)
			continue
		}
		report.ReviewsRemoved++

		if err := a.Recompute(ctx, review.ProductID); err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Str("product_id", review.ProductID).
				Str("author_id", authorID).
				Msg("Failed to recompute product rating")
			report.Failures = append(report.Failures, review.ProductID)
			continue
		}
		report.ProductsUpdated = append(report.ProductsUpdated, review.ProductID)
	}

	span.SetAttributes(
		attribute.Int("reviews.removed", report.ReviewsRemoved),
		attribute.Int("products.failed", len(report.Failures)),
	)
	return report, nil
}

// RecomputeAll пересчитывает агрегаты всех товаров
func (a *RatingAggregator) RecomputeAll(ctx context.Context) (*entity.ReconcileReport, error) {
	ids, err := a.products.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	report := &entity.ReconcileReport{ProductsUpdated: []string{}}
	for _, id := range ids {
		if err := a.Recompute(ctx, id); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("product_id", id).Msg("Failed to recompute product rating")
			report.Failures = append(report.Failures, id)
			continue
		}
		report.ProductsUpdated = append(report.ProductsUpdated, id)
	}

	return report, nil
}
