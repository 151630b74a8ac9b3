package services

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/repository"
)

// userService handles user-related business logic.
type userService struct {
	store repository.Store
	cost  int
}

// NewUserService creates a new UserServicer.
func NewUserService(store repository.Store) UserServicer {
	return &userService{store: store, cost: bcrypt.DefaultCost}
}

// CreateUser registers a new user with the USER role.
func (s *userService) CreateUser(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username, email and password are required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUser,
	}

	err = s.store.Atomic(ctx, func(r repository.Repositories) error {
		exists, err := r.Users().ExistsByEmail(ctx, email)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if exists {
			return apperrors.ErrDuplicateEmail
		}

		exists, err = r.Users().ExistsByUsername(ctx, username)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if exists {
			return apperrors.ErrDuplicateUsername
		}

		// A concurrent registration can still win the unique index; the
		// failed insert does not say which column collided.
		return writeErr(r.Users().Create(ctx, user),
			apperrors.WithMessage(apperrors.ErrDuplicateEmail, "A user with this email or username already exists"), apperrors.ErrUserNotFound)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (s *userService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrUserNotFound)
	}
	return user, nil
}

// AttemptLogin returns the user when the credentials match. Unknown emails
// and wrong passwords fail the same way.
func (s *userService) AttemptLogin(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}
