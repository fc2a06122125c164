package entity

// CartItemRequest - позиция корзины; цена берётся из каталога, не от клиента
type CartItemRequest struct {
	Slug     string `json:"slug" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type ShippingAddressRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	Zip      string `json:"zip" validate:"required"`
}

// PlaceOrderRequest - запрос на оформление заказа
type PlaceOrderRequest struct {
	OrderItems      []CartItemRequest      `json:"orderItems" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddressRequest `json:"shippingAddress" validate:"required"`
	PaymentMethod   string                 `json:"paymentMethod" validate:"required"`
}

// CapturePaymentRequest - результат захвата платежа в формате провайдера
type CapturePaymentRequest struct {
	ID     string `json:"id" validate:"required"`
	Status string `json:"status" validate:"required"`
	Payer  struct {
		EmailAddress string `json:"email_address" validate:"omitempty,email"`
	} `json:"payer"`
}

func (r *CapturePaymentRequest) ToPaymentResult() PaymentResult {
	return PaymentResult{
		PaypalID:     r.ID,
		Status:       r.Status,
		EmailAddress: r.Payer.EmailAddress,
	}
}

type UpsertReviewRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
}

type CreateProductRequest struct {
	Slug        string  `json:"slug" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Image       string  `json:"image" validate:"required"`
	Brand       string  `json:"brand" validate:"required"`
	Category    string  `json:"category" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Price       float64 `json:"price" validate:"gt=0"`
	InStock     int     `json:"inStock" validate:"min=0"`
}

// UpdateTaxRequest - изменение настроек; каждое сохранение повышает version
type UpdateTaxRequest struct {
	TaxRate               *float64 `json:"taxRate" validate:"required,min=0,max=1"`
	ShippingRate          *float64 `json:"shippingRate" validate:"required,min=0"`
	FreeShippingThreshold *float64 `json:"freeShippingThreshold" validate:"omitempty,min=0"`
}

type UpdateProfileRequest struct {
	Name     string `json:"name" validate:"omitempty,min=1,max=100"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

// DeleteAccountRequest - подтверждение удаления собственного аккаунта
type DeleteAccountRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ContactReplyRequest struct {
	EmailTo string `json:"emailTo" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// OrderView - заказ вместе с именем владельца
type OrderView struct {
	Order
	OwnerName string `json:"ownerName"`
}

type ProductPage struct {
	Products []Product `json:"products"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
	Total    int64     `json:"total"`
}

type ProductDetails struct {
	Product Product  `json:"product"`
	Reviews []Review `json:"reviews"`
}

type MonthlySales struct {
	Month      string  `json:"month" bson:"_id"`
	ItemsTotal float64 `json:"itemsTotal" bson:"itemsTotal"`
	Orders     int     `json:"orders" bson:"orders"`
}

type Summary struct {
	Users        int64          `json:"users"`
	Products     int64          `json:"products"`
	Orders       int64          `json:"orders"`
	MonthlySales []MonthlySales `json:"monthlySales"`
}

// ReconcileReport - итог удаления отзывов автора и пересчёта рейтингов
type ReconcileReport struct {
	AuthorID        string   `json:"authorId"`
	ReviewsRemoved  int      `json:"reviewsRemoved"`
	ProductsUpdated []string `json:"productsUpdated"`
	Failures        []string `json:"failures,omitempty"`
}

// StockReconcileReport - итог применения отложенных списаний
type StockReconcileReport struct {
	Applied   int `json:"applied"`
	Discarded int `json:"discarded"`
	Failed    int `json:"failed"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}
