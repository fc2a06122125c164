package entity

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// ProductsPerPage - размер страницы каталога
	ProductsPerPage = 12

	// DeletedUserName выводится вместо имени владельца, если пользователь удалён
	DeletedUserName = "DELETED USER"
)

// Product представляет товар каталога (коллекция products)
// inStock может уйти в минус: при оплате остаток списывается без проверки
type Product struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Slug            string             `json:"slug" bson:"slug"`
	Name            string             `json:"name" bson:"name"`
	Image           string             `json:"image" bson:"image"`
	Brand           string             `json:"brand" bson:"brand"`
	Category        string             `json:"category" bson:"category"`
	Description     string             `json:"description" bson:"description"`
	Price           float64            `json:"price" bson:"price"`
	InStock         int                `json:"inStock" bson:"inStock"`
	ProductRating   float64            `json:"productRating" bson:"productRating"`
	NumberOfReviews int                `json:"numberOfReviews" bson:"numberOfReviews"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Review - отзыв; одна запись на пару (productId, authorId)
// AuthorID - слабая ссылка на пользователя из PostgreSQL
type Review struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProductID    string             `json:"productId" bson:"productId"`
	AuthorID     string             `json:"authorId" bson:"authorId"`
	AuthorName   string             `json:"authorName" bson:"authorName"`
	Content      string             `json:"content" bson:"content"`
	ReviewRating int                `json:"reviewRating" bson:"reviewRating"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// OrderItem - снимок позиции на момент размещения заказа, live-каталог больше не читается
type OrderItem struct {
	Slug     string  `json:"slug" bson:"slug"`
	Name     string  `json:"name" bson:"name"`
	Image    string  `json:"image" bson:"image"`
	Price    float64 `json:"price" bson:"price"`
	Quantity int     `json:"quantity" bson:"quantity"`
}

type ShippingAddress struct {
	FullName string `json:"fullName" bson:"fullName"`
	Address  string `json:"address" bson:"address"`
	City     string `json:"city" bson:"city"`
	State    string `json:"state" bson:"state"`
	Zip      string `json:"zip" bson:"zip"`
}

// PaymentResult - ответ платёжного провайдера, хранится как есть
type PaymentResult struct {
	PaypalID     string `json:"paypalId" bson:"paypalId"`
	Status       string `json:"status" bson:"status"`
	EmailAddress string `json:"email_address" bson:"email_address"`
}

// PricingSnapshot - версия настроек налога и доставки, по которой посчитан заказ
type PricingSnapshot struct {
	Version               int64   `json:"version" bson:"version"`
	TaxRate               float64 `json:"taxRate" bson:"taxRate"`
	ShippingRate          float64 `json:"shippingRate" bson:"shippingRate"`
	FreeShippingThreshold float64 `json:"freeShippingThreshold" bson:"freeShippingThreshold"`
}

// Order представляет заказ (коллекция orders)
// OwnerID == nil после удаления пользователя, заказ при этом сохраняется
type Order struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OwnerID         *string            `json:"ownerId" bson:"ownerId"`
	OrderItems      []OrderItem        `json:"orderItems" bson:"orderItems"`
	ShippingAddress ShippingAddress    `json:"shippingAddress" bson:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod" bson:"paymentMethod"`
	ItemsTotal      float64            `json:"itemsTotal" bson:"itemsTotal"`
	TaxTotal        float64            `json:"taxTotal" bson:"taxTotal"`
	ShippingTotal   float64            `json:"shippingTotal" bson:"shippingTotal"`
	GrandTotal      float64            `json:"grandTotal" bson:"grandTotal"`
	Pricing         *PricingSnapshot   `json:"pricing,omitempty" bson:"pricing,omitempty"`
	State           OrderState         `json:"state" bson:"state,omitempty"`
	IsPaid          bool               `json:"isPaid" bson:"isPaid"`
	PaidAt          *time.Time         `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	PaymentResult   *PaymentResult     `json:"paymentResult,omitempty" bson:"paymentResult,omitempty"`
	IsDelivered     bool               `json:"isDelivered" bson:"isDelivered"`
	DeliveredAt     *time.Time         `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
}

// CurrentState возвращает состояние заказа.
// Документы старого формата не содержат state, тогда оно выводится из isPaid/isDelivered.
func (o *Order) CurrentState() OrderState {
	if o.State != "" {
		return o.State
	}
	switch {
	case o.IsDelivered:
		return OrderStateDelivered
	case o.IsPaid:
		return OrderStatePaid
	default:
		return OrderStateCreated
	}
}

// IsOwnedBy проверяет, что заказ принадлежит пользователю
func (o *Order) IsOwnedBy(userID string) bool {
	return o.OwnerID != nil && *o.OwnerID == userID
}

const TaxNShippingID = "tax-n-shipping"

// DefaultFreeShippingThreshold - порог бесплатной доставки, если он не задан в настройках
const DefaultFreeShippingThreshold = 200.0

// TaxNShipping - единственный документ настроек налога и доставки
// Version увеличивается при каждом изменении администратором
type TaxNShipping struct {
	ID                    string    `json:"-" bson:"_id"`
	TaxRate               float64   `json:"taxRate" bson:"taxRate"`
	ShippingRate          float64   `json:"shippingRate" bson:"shippingRate"`
	FreeShippingThreshold *float64  `json:"freeShippingThreshold,omitempty" bson:"freeShippingThreshold,omitempty"`
	Version               int64     `json:"version" bson:"version"`
	UpdatedAt             time.Time `json:"updatedAt" bson:"updatedAt"`
}

// DefaultTaxNShipping используется, пока администратор не сохранил настройки
func DefaultTaxNShipping() TaxNShipping {
	return TaxNShipping{
		ID:           TaxNShippingID,
		TaxRate:      0.11,
		ShippingRate: 15,
		Version:      0,
	}
}

// Snapshot фиксирует текущие значения для расчёта заказа
func (t TaxNShipping) Snapshot() PricingSnapshot {
	threshold := DefaultFreeShippingThreshold
	if t.FreeShippingThreshold != nil {
		threshold = *t.FreeShippingThreshold
	}
	return PricingSnapshot{
		Version:               t.Version,
		TaxRate:               t.TaxRate,
		ShippingRate:          t.ShippingRate,
		FreeShippingThreshold: threshold,
	}
}

// User хранится в PostgreSQL и принадлежит сервису аутентификации
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Requester - проверенная личность вызывающего из JWT
type Requester struct {
	UserID  string
	Name    string
	Email   string
	IsAdmin bool
}

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	// Failed - событие исчерпало попытки и больше не выбирается relay
	OutboxStatusFailed OutboxStatus = "failed"
)

// Типы событий уведомлений
const (
	EventOrderPaid      = "ORDER_PAID"
	EventOrderDelivered = "ORDER_DELIVERED"
	EventContactReply   = "CONTACT_REPLY"
)

// OutboxEvent - событие, ожидающее публикации в Kafka (коллекция outbox)
type OutboxEvent struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	EventType   string             `json:"eventType" bson:"eventType"`
	AggregateID string             `json:"aggregateId" bson:"aggregateId"`
	Payload     string             `json:"payload" bson:"payload"`
	Status      OutboxStatus       `json:"status" bson:"status"`
	Attempts    int                `json:"attempts" bson:"attempts"`
	LastError   string             `json:"lastError,omitempty" bson:"lastError,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	PublishedAt *time.Time         `json:"publishedAt,omitempty" bson:"publishedAt,omitempty"`
}

// NotificationEvent - содержимое Payload и тело сообщения Kafka
type NotificationEvent struct {
	EventType    string                 `json:"event_type"`
	AggregateID  string                 `json:"aggregate_id"`
	Recipient    string                 `json:"recipient"`
	Subject      string                 `json:"subject"`
	TemplateData map[string]interface{} `json:"template_data"`
	Timestamp    time.Time              `json:"timestamp"`
}

type DriftStatus string

const (
	DriftStatusPending   DriftStatus = "pending"
	DriftStatusApplied   DriftStatus = "applied"
	DriftStatusDiscarded DriftStatus = "discarded"
)

// StockDrift - несписанный остаток после оплаты, применяется позже сверкой
type StockDrift struct {
	ID        uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID   string      `json:"order_id" gorm:"type:varchar(64);not null;index"`
	Slug      string      `json:"slug" gorm:"type:varchar(255);not null"`
	Quantity  int         `json:"quantity" gorm:"not null"`
	Reason    string      `json:"reason" gorm:"type:text"`
	Status    DriftStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	CreatedAt time.Time   `json:"created_at" gorm:"autoCreateTime"`
	AppliedAt *time.Time  `json:"applied_at,omitempty"`
}

func (StockDrift) TableName() string {
	return "stock_drifts"
}
