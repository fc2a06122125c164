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
	ErrOutboxEventNotFound = errors.New("outbox event not found")
)

type outboxRepository struct {
	collection *mongo.Collection
}

// NewOutboxRepository создает репозиторий outbox.
// Relay выбирает pending события по createdAt, для этого нужен составной индекс.
func NewOutboxRepository(db *mongo.Database) OutboxRepository {
	collection := db.Collection("outbox")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}},
		Options: options.Index().SetName("status_created_idx"),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Warn().Err(err).Str("collection", "outbox").Msg("Failed to create outbox index")
	}

	return &outboxRepository{collection: collection}
}

func (r *outboxRepository) Enqueue(ctx context.Context, event *entity.OutboxEvent) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "outbox")

	event.Status = entity.OutboxStatusPending
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, event)
	timer.Done(err)
	if err != nil {
		return fmt.Errorf("failed to enqueue outbox event: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		event.ID = oid
	}
	return nil
}

// FetchPending возвращает неопубликованные события в порядке создания
func (r *outboxRepository) FetchPending(ctx context.Context, limit int64) ([]entity.OutboxEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"status": entity.OutboxStatusPending}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find outbox events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []entity.OutboxEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode outbox events: %w", err)
	}

	return events, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	return r.update(ctx, id, bson.M{
		"$set": bson.M{"status": entity.OutboxStatusPublished, "publishedAt": publishedAt},
		"$inc": bson.M{"attempts": 1},
	})
}

// MarkFailed запоминает причину. Без dead событие остается в pending
// и будет выбрано снова, с dead уходит в failed для ручного разбора.
func (r *outboxRepository) MarkFailed(ctx context.Context, id string, reason string, dead bool) error {
	set := bson.M{"lastError": reason}
	if dead {
		set["status"] = entity.OutboxStatusFailed
	}
	return r.update(ctx, id, bson.M{
		"$set": set,
		"$inc": bson.M{"attempts": 1},
	})
}

func (r *outboxRepository) update(ctx context.Context, id string, update bson.M) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrOutboxEventNotFound
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update outbox event: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrOutboxEventNotFound
	}

	return nil
}
