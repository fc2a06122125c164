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
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderStateMismatch - compare-and-set не нашёл заказ в ожидаемом состоянии
	ErrOrderStateMismatch = errors.New("order is not in the expected state")
)

type orderRepository struct {
	collection *mongo.Collection
}

// NewOrderRepository создает репозиторий заказов
func NewOrderRepository(db *mongo.Database) OrderRepository {
	collection := db.Collection("orders")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("owner_created_idx"),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Warn().Err(err).Str("collection", "orders").Msg("Failed to create owner index")
	}

	return &orderRepository{collection: collection}
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "orders")

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, order)
	timer.Done(err)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		order.ID = oid
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "orders")

	var order entity.Order
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			timer.Done(nil)
			return nil, ErrOrderNotFound
		}
		timer.Done(err)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	timer.Done(nil)

	return &order, nil
}

// ListByOwner возвращает историю заказов пользователя, новые первыми
func (r *orderRepository) ListByOwner(ctx context.Context, ownerID string) ([]entity.Order, error) {
	return r.find(ctx, bson.M{"ownerId": ownerID})
}

func (r *orderRepository) ListAll(ctx context.Context) ([]entity.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *orderRepository) find(ctx context.Context, filter bson.M) ([]entity.Order, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "orders")

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []entity.Order{}
	err = cursor.All(ctx, &orders)
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	return orders, nil
}

// MarkPaid атомарно переводит неоплаченный заказ в paid.
// Повторный вызов для того же заказа вернёт ErrOrderStateMismatch.
func (r *orderRepository) MarkPaid(ctx context.Context, id string, result entity.PaymentResult, paidAt time.Time) (*entity.Order, error) {
	filter := bson.M{"isPaid": bson.M{"$ne": true}}
	update := bson.M{"$set": bson.M{
		"isPaid":        true,
		"paidAt":        paidAt,
		"paymentResult": result,
		"state":         entity.OrderStatePaid,
	}}
	return r.compareAndSet(ctx, id, filter, update)
}

// MarkDelivered атомарно переводит оплаченный заказ в delivered
func (r *orderRepository) MarkDelivered(ctx context.Context, id string, deliveredAt time.Time) (*entity.Order, error) {
	filter := bson.M{"isPaid": true, "isDelivered": bson.M{"$ne": true}}
	update := bson.M{"$set": bson.M{
		"isDelivered": true,
		"deliveredAt": deliveredAt,
		"state":       entity.OrderStateDelivered,
	}}
	return r.compareAndSet(ctx, id, filter, update)
}

func (r *orderRepository) compareAndSet(ctx context.Context, id string, filter, update bson.M) (*entity.Order, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	filter["_id"] = objectID

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "orders")

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order entity.Order
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			timer.Done(nil)
			return nil, ErrOrderStateMismatch
		}
		timer.Done(err)
		return nil, fmt.Errorf("failed to update order state: %w", err)
	}
	timer.Done(nil)

	return &order, nil
}

// DetachOwner обнуляет ownerId у всех заказов удалённого пользователя
func (r *orderRepository) DetachOwner(ctx context.Context, ownerID string) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"ownerId": ownerID},
		bson.M{"$set": bson.M{"ownerId": nil}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to detach order owner: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrOrderNotFound
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *orderRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// MonthlySales группирует сумму позиций по месяцам размещения (YYYY-MM)
func (r *orderRepository) MonthlySales(ctx context.Context) ([]entity.MonthlySales, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpAggregate, "orders")

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":        bson.M{"$dateToString": bson.M{"format": "%Y-%m", "date": "$createdAt"}},
			"itemsTotal": bson.M{"$sum": "$itemsTotal"},
			"orders":     bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to aggregate monthly sales: %w", err)
	}
	defer cursor.Close(ctx)

	sales := []entity.MonthlySales{}
	err = cursor.All(ctx, &sales)
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode monthly sales: %w", err)
	}

	return sales, nil
}
