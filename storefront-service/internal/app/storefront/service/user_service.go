package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/pkg/logger"
	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ReviewReconciler убирает отзывы удаленного автора и пересчитывает рейтинги
type ReviewReconciler interface {
	RemoveAuthorReviews(ctx context.Context, authorID string) (*entity.ReconcileReport, error)
}

// UserService удаляет и изменяет пользователей, поддерживая ссылки на них в MongoDB
type UserService struct {
	users      repository.UserRepository
	reviews    repository.ReviewRepository
	orders     repository.OrderRepository
	reconciler ReviewReconciler
}

func NewUserService(
	users repository.UserRepository,
	reviews repository.ReviewRepository,
	orders repository.OrderRepository,
	reconciler ReviewReconciler,
) *UserService {
	return &UserService{
		users:      users,
		reviews:    reviews,
		orders:     orders,
		reconciler: reconciler,
	}
}

// DeleteUser удаляет пользователя по запросу администратора.
// Администраторов удалять нельзя.
func (s *UserService) DeleteUser(ctx context.Context, userID string) (*entity.ReconcileReport, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.IsAdmin {
		return nil, ErrAdminDeletion
	}

	return s.deleteAndReconcile(ctx, user.ID)
}

// DeleteAccount удаляет собственный аккаунт; email должен совпасть с email аккаунта
func (s *UserService) DeleteAccount(ctx context.Context, requester entity.Requester, req *entity.DeleteAccountRequest) (*entity.ReconcileReport, error) {
	if requester.UserID == "" {
		return nil, ErrLoginRequired
	}

	user, err := s.getUser(ctx, requester.UserID)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(user.Email, strings.TrimSpace(req.Email)) {
		return nil, ErrEmailMismatch
	}

	return s.deleteAndReconcile(ctx, user.ID)
}

// deleteAndReconcile удаляет пользователя, затем его отзывы с пересчетом рейтингов,
// затем отвязывает его заказы. Удаление пользователя считается успешным,
// даже если часть пересчетов не удалась.
func (s *UserService) deleteAndReconcile(ctx context.Context, id uuid.UUID) (*entity.ReconcileReport, error) {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	authorID := id.String()
	log := logger.Ctx(ctx)

	report, err := s.reconciler.RemoveAuthorReviews(ctx, authorID)
	if err != nil {
		log.Error().Err(err).Str("user_id", authorID).Msg("Failed to reconcile reviews of deleted user")
	}
	if report == nil {
		report = &entity.ReconcileReport{AuthorID: authorID, ProductsUpdated: []string{}}
	}
	if len(report.Failures) > 0 {
		log.Warn().
			Str("user_id", authorID).
			Strs("products", report.Failures).
			Msg("Some product ratings were not recomputed")
	}

	detached, err := s.orders.DetachOwner(ctx, authorID)
	if err != nil {
		log.Error().Err(err).Str("user_id", authorID).Msg("Failed to detach orders of deleted user")
	}

	log.Info().
		Str("user_id", authorID).
		Int("reviews_removed", report.ReviewsRemoved).
		Int64("orders_detached", detached).
		Msg("User deleted")

	return report, nil
}

// UpdateProfile меняет имя, email и пароль.
// Новое имя переносится в authorName всех отзывов пользователя.
func (s *UserService) UpdateProfile(ctx context.Context, requester entity.Requester, req *entity.UpdateProfileRequest) (*entity.User, error) {
	if requester.UserID == "" {
		return nil, ErrLoginRequired
	}

	user, err := s.getUser(ctx, requester.UserID)
	if err != nil {
		return nil, err
	}

	if req.Email != "" && !strings.EqualFold(req.Email, user.Email) {
		other, err := s.users.GetByEmail(ctx, req.Email)
		switch {
		case err == nil && other.ID != user.ID:
			return nil, ErrEmailTaken
		case err != nil && !errors.Is(err, repository.ErrUserNotFound):
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		user.Email = req.Email
	}

	nameChanged := req.Name != "" && req.Name != user.Name
	if nameChanged {
		user.Name = req.Name
	}

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailTaken):
			return nil, ErrEmailTaken
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if nameChanged {
		if _, err := s.reviews.UpdateAuthorName(ctx, user.ID.String(), user.Name); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to sync author name in reviews")
		}
	}

	return user, nil
}

func (s *UserService) getUser(ctx context.Context, userID string) (*entity.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
