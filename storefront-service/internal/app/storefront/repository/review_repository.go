package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/storefront-service/internal/app/storefront/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrReviewNotFound = errors.New("review not found")
)

type reviewRepository struct {
	collection *mongo.Collection
}

// NewReviewRepository создает репозиторий отзывов.
// Уникальный составной индекс (productId, authorId) гарантирует один отзыв автора на товар,
// индекс по authorId нужен для каскада при удалении пользователя.
func NewReviewRepository(db *mongo.Database) ReviewRepository {
	collection := db.Collection("reviews")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "productId", Value: 1}, {Key: "authorId", Value: 1}},
			Options: options.Index().SetName("product_author_unique_idx").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "authorId", Value: 1}},
			Options: options.Index().SetName("author_id_idx"),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warn().Err(err).Str("collection", "reviews").Msg("Failed to create review indexes")
	}

	return &reviewRepository{collection: collection}
}

// Upsert создаёт отзыв или перезаписывает существующий отзыв того же автора.
// У существующего отзыва сохраняются _id и createdAt.
func (r *reviewRepository) Upsert(ctx context.Context, review *entity.Review) (bool, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "reviews")

	now := time.Now().UTC().Truncate(time.Millisecond)
	filter := bson.M{"productId": review.ProductID, "authorId": review.AuthorID}
	update := bson.M{
		"$set": bson.M{
			"content":      review.Content,
			"reviewRating": review.ReviewRating,
			"authorName":   review.AuthorName,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved entity.Review
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved)
	if mongo.IsDuplicateKeyError(err) {
		// параллельный upsert успел вставить документ, повторная попытка его обновит
		err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved)
	}
	timer.Done(err)
	if err != nil {
		return false, fmt.Errorf("failed to upsert review: %w", err)
	}

	*review = saved
	return saved.CreatedAt.Equal(now), nil
}

// ListByProduct возвращает отзывы товара, новые первыми
func (r *reviewRepository) ListByProduct(ctx context.Context, productID string) ([]entity.Review, error) {
	return r.find(ctx, bson.M{"productId": productID})
}

// ListByAuthor возвращает все отзывы пользователя
func (r *reviewRepository) ListByAuthor(ctx context.Context, authorID string) ([]entity.Review, error) {
	return r.find(ctx, bson.M{"authorId": authorID})
}

func (r *reviewRepository) find(ctx context.Context, filter bson.M) ([]entity.Review, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "reviews")

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := []entity.Review{}
	err = cursor.All(ctx, &reviews)
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}

	return reviews, nil
}

// RatingStats считает количество и среднюю оценку по текущему набору отзывов товара
func (r *reviewRepository) RatingStats(ctx context.Context, productID string) (int, float64, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpAggregate, "reviews")

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"productId": productID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"count": bson.M{"$sum": 1},
			"mean":  bson.M{"$avg": "$reviewRating"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		timer.Done(err)
		return 0, 0, fmt.Errorf("failed to aggregate review stats: %w", err)
	}
	defer cursor.Close(ctx)

	var stats []struct {
		Count int     `bson:"count"`
		Mean  float64 `bson:"mean"`
	}
	err = cursor.All(ctx, &stats)
	timer.Done(err)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode review stats: %w", err)
	}

	if len(stats) == 0 {
		return 0, 0, nil
	}
	return stats[0].Count, stats[0].Mean, nil
}

func (r *reviewRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrReviewNotFound
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, "reviews")
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	timer.Done(err)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// DeleteByProduct удаляет все отзывы товара (каскад при удалении товара)
func (r *reviewRepository) DeleteByProduct(ctx context.Context, productID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"productId": productID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete product reviews: %w", err)
	}
	return result.DeletedCount, nil
}

// UpdateAuthorName синхронизирует денормализованное имя автора
func (r *reviewRepository) UpdateAuthorName(ctx context.Context, authorID, name string) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"authorId": authorID},
		bson.M{"$set": bson.M{"authorName": name}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update author name: %w", err)
	}
	return result.ModifiedCount, nil
}
