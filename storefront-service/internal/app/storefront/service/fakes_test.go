package service

import (
	"context"
	"sync"
	"time"

	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore - потокобезопасное хранилище в памяти с той же атомарностью,
// что дают одиночные операции MongoDB
type memStore struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]*entity.Product
	reviews  map[primitive.ObjectID]*entity.Review
	orders   map[primitive.ObjectID]*entity.Order
	users    map[uuid.UUID]*entity.User
}

func newMemStore() *memStore {
	return &memStore{
		products: map[primitive.ObjectID]*entity.Product{},
		reviews:  map[primitive.ObjectID]*entity.Review{},
		orders:   map[primitive.ObjectID]*entity.Order{},
		users:    map[uuid.UUID]*entity.User{},
	}
}

func (s *memStore) addProduct(slug string, price float64, inStock int) *entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &entity.Product{ID: primitive.NewObjectID(), Slug: slug, Name: slug, Price: price, InStock: inStock}
	s.products[p.ID] = p
	return p
}

func (s *memStore) product(id primitive.ObjectID) entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.products[id]
}

// addUser регистрирует пользователя и возвращает его id строкой, как в токене
func (s *memStore) addUser(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &entity.User{ID: uuid.New(), Name: name, Email: name + "@example.com"}
	s.users[u.ID] = u
	return u.ID.String()
}

func (s *memStore) removeUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, uuid.MustParse(id))
}

func (s *memStore) renameUser(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[uuid.MustParse(id)].Name = name
}

// ===== users =====

type memUsers struct{ s *memStore }

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// ===== products =====

type memProducts struct{ s *memStore }

func (r memProducts) Create(_ context.Context, product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.Slug == product.Slug {
			return repository.ErrSlugTaken
		}
	}
	product.ID = primitive.NewObjectID()
	cp := *product
	r.s.products[cp.ID] = &cp
	return nil
}

func (r memProducts) GetByID(_ context.Context, id string) (*entity.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrProductNotFound
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[oid]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memProducts) GetBySlug(_ context.Context, slug string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (r memProducts) List(context.Context, int64, int64) ([]entity.Product, error) {
	return nil, nil
}

func (r memProducts) ListIDs(context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]string, 0, len(r.s.products))
	for id := range r.s.products {
		ids = append(ids, id.Hex())
	}
	return ids, nil
}

func (r memProducts) Count(context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.products)), nil
}

func (r memProducts) DecrementStock(_ context.Context, slug string, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.Slug == slug {
			p.InStock -= quantity
			return nil
		}
	}
	return repository.ErrProductNotFound
}

func (r memProducts) SetRating(_ context.Context, id string, rating float64, count int) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrProductNotFound
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[oid]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.ProductRating = rating
	p.NumberOfReviews = count
	return nil
}

func (r memProducts) Delete(_ context.Context, id string) error {
	oid, _ := primitive.ObjectIDFromHex(id)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[oid]; !ok {
		return repository.ErrProductNotFound
	}
	delete(r.s.products, oid)
	return nil
}

// ===== reviews =====

type memReviews struct{ s *memStore }

func (r memReviews) Upsert(_ context.Context, review *entity.Review) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	for _, existing := range r.s.reviews {
		if existing.ProductID == review.ProductID && existing.AuthorID == review.AuthorID {
			existing.Content = review.Content
			existing.ReviewRating = review.ReviewRating
			existing.AuthorName = review.AuthorName
			existing.UpdatedAt = now
			*review = *existing
			return false, nil
		}
	}
	review.ID = primitive.NewObjectID()
	review.CreatedAt = now
	review.UpdatedAt = now
	cp := *review
	r.s.reviews[cp.ID] = &cp
	return true, nil
}

func (r memReviews) list(match func(*entity.Review) bool) []entity.Review {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []entity.Review{}
	for _, rv := range r.s.reviews {
		if match(rv) {
			out = append(out, *rv)
		}
	}
	return out
}

func (r memReviews) ListByProduct(_ context.Context, productID string) ([]entity.Review, error) {
	return r.list(func(rv *entity.Review) bool { return rv.ProductID == productID }), nil
}

func (r memReviews) ListByAuthor(_ context.Context, authorID string) ([]entity.Review, error) {
	return r.list(func(rv *entity.Review) bool { return rv.AuthorID == authorID }), nil
}

func (r memReviews) RatingStats(_ context.Context, productID string) (int, float64, error) {
	reviews := r.list(func(rv *entity.Review) bool { return rv.ProductID == productID })
	if len(reviews) == 0 {
		return 0, 0, nil
	}
	sum := 0
	for _, rv := range reviews {
		sum += rv.ReviewRating
	}
	return len(reviews), float64(sum) / float64(len(reviews)), nil
}

func (r memReviews) Delete(_ context.Context, id string) error {
	oid, _ := primitive.ObjectIDFromHex(id)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reviews[oid]; !ok {
		return repository.ErrReviewNotFound
	}
	delete(r.s.reviews, oid)
	return nil
}

func (r memReviews) DeleteByProduct(_ context.Context, productID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, rv := range r.s.reviews {
		if rv.ProductID == productID {
			delete(r.s.reviews, id)
			n++
		}
	}
	return n, nil
}

func (r memReviews) UpdateAuthorName(_ context.Context, authorID, name string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, rv := range r.s.reviews {
		if rv.AuthorID == authorID {
			rv.AuthorName = name
			n++
		}
	}
	return n, nil
}

// ===== orders =====

type memOrders struct{ s *memStore }

func (r memOrders) Create(_ context.Context, order *entity.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	order.ID = primitive.NewObjectID()
	cp := *order
	r.s.orders[cp.ID] = &cp
	return nil
}

func (r memOrders) get(id string) (*entity.Order, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	o, ok := r.s.orders[oid]
	return o, ok
}

func (r memOrders) GetByID(_ context.Context, id string) (*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.get(id)
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r memOrders) ListByOwner(context.Context, string) ([]entity.Order, error) { return nil, nil }
func (r memOrders) ListAll(context.Context) ([]entity.Order, error)            { return nil, nil }

func (r memOrders) MarkPaid(_ context.Context, id string, result entity.PaymentResult, paidAt time.Time) (*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.get(id)
	if !ok {
		return nil, repository.ErrOrderStateMismatch
	}
	if o.IsPaid {
		return nil, repository.ErrOrderStateMismatch
	}
	o.IsPaid = true
	o.PaidAt = &paidAt
	o.PaymentResult = &result
	o.State = entity.OrderStatePaid
	cp := *o
	return &cp, nil
}

func (r memOrders) MarkDelivered(_ context.Context, id string, deliveredAt time.Time) (*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.get(id)
	if !ok || !o.IsPaid || o.IsDelivered {
		return nil, repository.ErrOrderStateMismatch
	}
	o.IsDelivered = true
	o.DeliveredAt = &deliveredAt
	o.State = entity.OrderStateDelivered
	cp := *o
	return &cp, nil
}

func (r memOrders) DetachOwner(_ context.Context, ownerID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, o := range r.s.orders {
		if o.IsOwnedBy(ownerID) {
			o.OwnerID = nil
			n++
		}
	}
	return n, nil
}

func (r memOrders) Delete(context.Context, string) error                         { return nil }
func (r memOrders) Count(context.Context) (int64, error)                         { return 0, nil }
func (r memOrders) MonthlySales(context.Context) ([]entity.MonthlySales, error) { return nil, nil }

// ===== collaborators =====

// mockNotifier мок для Notifier
type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Enqueue(ctx context.Context, event entity.NotificationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// mockReconciler мок для ReviewReconciler
type mockReconciler struct {
	mock.Mock
}

func (m *mockReconciler) RemoveAuthorReviews(ctx context.Context, authorID string) (*entity.ReconcileReport, error) {
	args := m.Called(ctx, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReconcileReport), args.Error(1)
}

// mockPricing мок для PricingSource
type mockPricing struct {
	mock.Mock
}

func (m *mockPricing) Snapshot(ctx context.Context) (entity.PricingSnapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(entity.PricingSnapshot), args.Error(1)
}
