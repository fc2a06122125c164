package repository

import (
	"context"
	"time"

	"storefront/storefront-service/internal/app/storefront/entity"

	"github.com/google/uuid"
)

const serviceName = "storefront-service"

// ProductRepository - товары в MongoDB
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Product, error)
	List(ctx context.Context, skip, limit int64) ([]entity.Product, error)
	ListIDs(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
	DecrementStock(ctx context.Context, slug string, quantity int) error
	SetRating(ctx context.Context, id string, rating float64, count int) error
	Delete(ctx context.Context, id string) error
}

// ReviewRepository - отзывы в MongoDB, уникальны по (productId, authorId)
type ReviewRepository interface {
	Upsert(ctx context.Context, review *entity.Review) (created bool, err error)
	ListByProduct(ctx context.Context, productID string) ([]entity.Review, error)
	ListByAuthor(ctx context.Context, authorID string) ([]entity.Review, error)
	RatingStats(ctx context.Context, productID string) (count int, mean float64, err error)
	Delete(ctx context.Context, id string) error
	DeleteByProduct(ctx context.Context, productID string) (int64, error)
	UpdateAuthorName(ctx context.Context, authorID, name string) (int64, error)
}

// OrderRepository - заказы в MongoDB
// MarkPaid и MarkDelivered - атомарные compare-and-set по текущему состоянию
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	ListByOwner(ctx context.Context, ownerID string) ([]entity.Order, error)
	ListAll(ctx context.Context) ([]entity.Order, error)
	MarkPaid(ctx context.Context, id string, result entity.PaymentResult, paidAt time.Time) (*entity.Order, error)
	MarkDelivered(ctx context.Context, id string, deliveredAt time.Time) (*entity.Order, error)
	DetachOwner(ctx context.Context, ownerID string) (int64, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	MonthlySales(ctx context.Context) ([]entity.MonthlySales, error)
}

// TaxRepository - документ-одиночка TaxNShipping
type TaxRepository interface {
	Get(ctx context.Context) (*entity.TaxNShipping, error)
	Save(ctx context.Context, taxRate, shippingRate float64, freeShippingThreshold *float64) (*entity.TaxNShipping, error)
}

// OutboxRepository - события, ожидающие публикации
type OutboxRepository interface {
	Enqueue(ctx context.Context, event *entity.OutboxEvent) error
	FetchPending(ctx context.Context, limit int64) ([]entity.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	// MarkFailed фиксирует неудачную попытку; dead переводит событие в failed
	MarkFailed(ctx context.Context, id string, reason string, dead bool) error
}

// UserRepository - пользователи в PostgreSQL
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// StockDriftRepository - журнал несписанных остатков в PostgreSQL
type StockDriftRepository interface {
	Record(ctx context.Context, drift *entity.StockDrift) error
	ListPending(ctx context.Context, limit int) ([]entity.StockDrift, error)
	Claim(ctx context.Context, id uuid.UUID, status entity.DriftStatus) error
	Reopen(ctx context.Context, id uuid.UUID, reason string) error
}

// TaxCache - кеш настроек налога в Redis
type TaxCache interface {
	Get(ctx context.Context) (*entity.TaxNShipping, error)
	Set(ctx context.Context, tax *entity.TaxNShipping) error
	Invalidate(ctx context.Context) error
}

// LockRepository - распределённая блокировка на Redis SETNX
type LockRepository interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}
