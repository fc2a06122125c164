package service

import (
	"context"
	"errors"
	"testing"

	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/repository"
	"storefront/storefront-service/internal/app/storefront/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type userServiceDeps struct {
	users      *mocks.MockUserRepository
	reviews    *mocks.MockReviewRepository
	orders     *mocks.MockOrderRepository
	reconciler *mockReconciler
}

func newUserService() (*UserService, userServiceDeps) {
	deps := userServiceDeps{
		users:      new(mocks.MockUserRepository),
		reviews:    new(mocks.MockReviewRepository),
		orders:     new(mocks.MockOrderRepository),
		reconciler: new(mockReconciler),
	}
	return NewUserService(deps.users, deps.reviews, deps.orders, deps.reconciler), deps
}

// ===================== DeleteUser Tests =====================

func TestDeleteUser_Success(t *testing.T) {
	// Arrange
	service, deps := newUserService()
	ctx := context.Background()
	user := &entity.User{ID: uuid.New(), Email: "jane@example.com"}
	report := &entity.ReconcileReport{AuthorID: user.ID.String(), ReviewsRemoved: 2, ProductsUpdated: []string{"p1", "p2"}}

	var calls []string
	deps.users.On("GetByID", ctx, user.ID).Return(user, nil)
	deps.users.On("Delete", ctx, user.ID).Run(func(mock.Arguments) { calls = append(calls, "delete") }).Return(nil)
	deps.reconciler.On("RemoveAuthorReviews", ctx, user.ID.String()).Run(func(mock.Arguments) { calls = append(calls, "reviews") }).Return(report, nil)
	deps.orders.On("DetachOwner", ctx, user.ID.String()).Run(func(mock.Arguments) { calls = append(calls, "orders") }).Return(int64(3), nil)

	// Act
	result, err := service.DeleteUser(ctx, user.ID.String())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, report, result)
	assert.Equal(t, []string{"delete", "reviews", "orders"}, calls)
}

func TestDeleteUser_AdminCannotBeDeleted(t *testing.T) {
	service, deps := newUserService()
	ctx := context.Background()
	admin := &entity.User{ID: uuid.New(), IsAdmin: true}
	deps.users.On("GetByID", ctx, admin.ID).Return(admin, nil)

	_, err := service.DeleteUser(ctx, admin.ID.String())

	assert.ErrorIs(t, err, ErrAdminDeletion)
	assert.ErrorIs(t, err, ErrUnauthorized)
	deps.users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteUser_NotFound(t *testing.T) {
	service, deps := newUserService()
	ctx := context.Background()
	id := uuid.New()
	deps.users.On("GetByID", ctx, id).Return(nil, repository.ErrUserNotFound)

	_, err := service.DeleteUser(ctx, id.String())
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = service.DeleteUser(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUser_ReconcileFailureStillSucceeds(t *testing.T) {
	// Arrange
	service, deps := newUserService()
	ctx := context.Background()
	user := &entity.User{ID: uuid.New()}

	deps.users.On("GetByID", ctx, user.ID).Return(user, nil)
	deps.users.On("Delete", ctx, user.ID).Return(nil)
	deps.reconciler.On("RemoveAuthorReviews", ctx, user.ID.String()).Return(nil, errors.New("mongo down"))
	deps.orders.On("DetachOwner", ctx, user.ID.String()).Return(int64(0), errors.New("mongo down"))

	// Act
	report, err := service.DeleteUser(ctx, user.ID.String())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), report.AuthorID)
	assert.Zero(t, report.ReviewsRemoved)
}

// ===================== DeleteAccount Tests =====================

func TestDeleteAccount_EmailMustMatch(t *testing.T) {
	service, deps := newUserService()
	ctx := context.Background()
	user := &entity.User{ID: uuid.New(), Email: "jane@example.com"}
	deps.users.On("GetByID", ctx, user.ID).Return(user, nil)

	_, err := service.DeleteAccount(ctx, entity.Requester{UserID: user.ID.String()}, &entity.DeleteAccountRequest{Email: "other@example.com"})

	assert.ErrorIs(t, err, ErrEmailMismatch)
	deps.users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteAccount_Success(t *testing.T) {
	service, deps := newUserService()
	ctx := context.Background()
	user := &entity.User{ID: uuid.New(), Email: "jane@example.com"}

	deps.users.On("GetByID", ctx, user.ID).Return(user, nil)
	deps.users.On("Delete", ctx, user.ID).Return(nil)
	deps.reconciler.On("RemoveAuthorReviews", ctx, user.ID.String()).Return(&entity.ReconcileReport{AuthorID: user.ID.String()}, nil)
	deps.orders.On("DetachOwner", ctx, user.ID.String()).Return(int64(1), nil)

	_, err := service.DeleteAccount(ctx, entity.Requester{UserID: user.ID.String()}, &entity.DeleteAccountRequest{Email: "Jane@Example.com"})

	assert.NoError(t, err)
	deps.orders.AssertExpectations(t)
}

func TestDeleteAccount_Unauthenticated(t *testing.T) {
	service, _ := newUserService()

	_, err := service.DeleteAccount(context.Background(), entity.Requester{}, &entity.DeleteAccountRequest{Email: "a@b.c"})

	assert.ErrorIs(t, err, ErrUnauthenticated)
}

// ===================== UpdateProfile Tests =====================

func TestUpdateProfile_RenamesAndSyncsReviews(t *testing.T) {
	// Arrange
	service, deps := newUserService()
	ctx := context.Background()
	user := &entity.User{ID: uuid.New(), Name: "Jane", Email: "jane@example.com", PasswordHash: "old"}

	deps.users.On("GetByID", ctx, user.ID).Return(user, nil)
	deps.users.On("GetByEmail", ctx, "jane.doe@example.com").Return(nil, repository.ErrUserNotFound)
	deps.users.On("Update", ctx, mock.AnythingOfType("*entity.User")).Return(nil)
	deps.reviews.On("UpdateAuthorName", ctx, user.ID.String(), "Jane Doe").Return(int64(2), nil)

	// Act
	updated, err := service.UpdateProfile(ctx, entity.Requester{UserID: user.ID.String()}, &entity.UpdateProfileRequest{
		Name:     "Jane Doe",
		Email:    "jane.doe@example.com",
		Password: "secret123",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", updated.Name)
	assert.Equal(t, "jane.doe@example.com", updated.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("secret123")))
	deps.reviews.AssertExpectations(t)
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	service, deps := newUserService()
	ctx := context.Background()
	user := &entity.User{ID: uuid.New(), Name: "Jane", Email: "jane@example.com"}
	other := &entity.User{ID: uuid.New(), Email: "bob@example.com"}

	deps.users.On("GetByID", ctx, user.ID).Return(user, nil)
	deps.users.On("GetByEmail", ctx, "bob@example.com").Return(other, nil)

	_, err := service.UpdateProfile(ctx, entity.Requester{UserID: user.ID.String()}, &entity.UpdateProfileRequest{Email: "bob@example.com"})

	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.ErrorIs(t, err, ErrConflict)
	deps.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateProfile_SameNameSkipsReviewSync(t *testing.T) {
	service, deps := newUserService()
	ctx := context.Background()
	user := &entity.User{ID: uuid.New(), Name: "Jane", Email: "jane@example.com"}

	deps.users.On("GetByID", ctx, user.ID).Return(user, nil)
	deps.users.On("Update", ctx, user).Return(nil)

	_, err := service.UpdateProfile(ctx, entity.Requester{UserID: user.ID.String()}, &entity.UpdateProfileRequest{Name: "Jane"})

	assert.NoError(t, err)
	deps.reviews.AssertNotCalled(t, "UpdateAuthorName", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProfile_UniqueViolationOnWrite(t *testing.T) {
	service, deps := newUserService()
	ctx := context.Background()
	user := &entity.User{ID: uuid.New(), Name: "Jane", Email: "jane@example.com"}

	deps.users.On("GetByID", ctx, user.ID).Return(user, nil)
	deps.users.On("GetByEmail", ctx, "new@example.com").Return(nil, repository.ErrUserNotFound)
	deps.users.On("Update", ctx, user).Return(repository.ErrEmailTaken)

	_, err := service.UpdateProfile(ctx, entity.Requester{UserID: user.ID.String()}, &entity.UpdateProfileRequest{Email: "new@example.com"})

	assert.ErrorIs(t, err, ErrEmailTaken)
}
