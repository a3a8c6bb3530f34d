// internal/app/features/users/service.go
package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	userstore "github.com/dalemusser/strataview/internal/app/store/users"
	"github.com/dalemusser/strataview/internal/app/system/authutil"
	"github.com/dalemusser/strataview/internal/app/system/normalize"
	"github.com/dalemusser/strataview/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Validation errors returned by the service. Handlers map these to 400.
var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrUsernameLength  = fmt.Errorf("username must be %d-%d characters", models.UsernameMinLen, models.UsernameMaxLen)
	ErrFullNameTooLong = fmt.Errorf("full name must be at most %d characters", models.FullNameMaxLen)
)

// Service wraps the user store with input validation and uniqueness checks.
type Service struct {
	store  *userstore.Store
	logger *zap.Logger
}

// NewService creates a user Service.
func NewService(store *userstore.Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Store exposes the underlying store for analytics pass-through.
func (s *Service) Store() *userstore.Store {
	return s.store
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

func validateUsername(username string) error {
	if len(username) < models.UsernameMinLen || len(username) > models.UsernameMaxLen {
		return ErrUsernameLength
	}
	return nil
}

func validateFullName(name string) error {
	if len(name) > models.FullNameMaxLen {
		return ErrFullNameTooLong
	}
	return nil
}

// IsValidationErr reports whether err is an input validation failure.
func IsValidationErr(err error) bool {
	return errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrUsernameLength) ||
		errors.Is(err, ErrFullNameTooLong) ||
		errors.Is(err, authutil.ErrPasswordTooShort) ||
		errors.Is(err, authutil.ErrPasswordTooLong)
}

// IsDuplicateErr reports whether err is an email/username uniqueness failure.
func IsDuplicateErr(err error) bool {
	return errors.Is(err, userstore.ErrDuplicateEmail) ||
		errors.Is(err, userstore.ErrDuplicateUsername)
}

// Create validates the request, hashes the password, and inserts the user.
// New users are active by default unless the request says otherwise.
func (s *Service) Create(ctx context.Context, req CreateRequest) (models.User, error) {
	username := normalize.Username(req.Username)
	email := normalize.Email(req.Email)
	fullName := normalize.Name(req.FullName)

	if err := validateUsername(username); err != nil {
		return models.User{}, err
	}
	if err := validateEmail(email); err != nil {
		return models.User{}, err
	}
	if err := validateFullName(fullName); err != nil {
		return models.User{}, err
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		return models.User{}, err
	}

	if taken, err := s.store.EmailTaken(ctx, email, primitive.NilObjectID); err != nil {
		return models.User{}, err
	} else if taken {
		return models.User{}, userstore.ErrDuplicateEmail
	}
	if taken, err := s.store.UsernameTaken(ctx, username, primitive.NilObjectID); err != nil {
		return models.User{}, err
	} else if taken {
		return models.User{}, userstore.ErrDuplicateUsername
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		IsActive:     true,
		IsSuperuser:  false,
		PasswordHash: hash,
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsSuperuser != nil {
		user.IsSuperuser = *req.IsSuperuser
	}

	created, err := s.store.Create(ctx, user)
	if err != nil {
		return models.User{}, err
	}

	s.logger.Info("user created",
		zap.String("user_id", created.ID.Hex()),
		zap.String("username", created.Username))
	return created, nil
}

// Get retrieves a user by ID.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.store.GetByID(ctx, id)
}

// GetByEmail retrieves a user by email (case-insensitive).
func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.store.GetByEmail(ctx, normalize.Email(email))
}

// GetByUsername retrieves a user by username.
func (s *Service) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.store.GetByUsername(ctx, normalize.Username(username))
}

// List returns a page of users ordered by creation time.
func (s *Service) List(ctx context.Context, skip, limit int64) ([]models.User, error) {
	return s.store.List(ctx, skip, limit)
}

// Count returns the total number of users.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.Count(ctx, bson.M{})
}

// Update validates and applies a partial update, then returns the updated
// user. Returns mongo.ErrNoDocuments when the user does not exist.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, req UpdateRequest) (*models.User, error) {
	var input userstore.UpdateInput

	if req.Username != nil {
		username := normalize.Username(*req.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		if taken, err := s.store.UsernameTaken(ctx, username, id); err != nil {
			return nil, err
		} else if taken {
			return nil, userstore.ErrDuplicateUsername
		}
		input.Username = &username
	}
	if req.Email != nil {
		email := normalize.Email(*req.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		if taken, err := s.store.EmailTaken(ctx, email, id); err != nil {
			return nil, err
		} else if taken {
			return nil, userstore.ErrDuplicateEmail
		}
		input.Email = &email
	}
	if req.FullName != nil {
		fullName := normalize.Name(*req.FullName)
		if err := validateFullName(fullName); err != nil {
			return nil, err
		}
		input.FullName = &fullName
	}
	if req.Password != nil {
		if err := authutil.ValidatePassword(*req.Password); err != nil {
			return nil, err
		}
		hash, err := authutil.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		input.PasswordHash = &hash
	}
	input.IsActive = req.IsActive
	input.IsSuperuser = req.IsSuperuser

	if err := s.store.Update(ctx, id, input); err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, id)
}

// Delete removes a user. Returns the number of documents deleted.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("user deleted", zap.String("user_id", id.Hex()))
	}
	return deleted, nil
}
