package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "users-crud/internal/domain/user"
	pkgerrors "users-crud/pkg/errors"
	"users-crud/pkg/logger"
)

// Repository defines the interface for user data access operations.
// Update and Delete return the number of rows matched so callers can tell
// a hit from a silent no-op.
type Repository interface {
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, u *domain.User) (int64, error)
	Update(ctx context.Context, u *domain.User) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// Options tunes usecase behavior.
type Options struct {
	// ReportMissing turns update/delete of an unknown ID into a NotFoundError.
	// When false such calls succeed without effect.
	ReportMissing bool
}

// Service implements the business logic for user management operations.
type Service struct {
	repo     Repository
	log      *zap.Logger
	validate *validator.Validate
	opts     Options
}

var _ Usecase = (*Service)(nil)

// New creates a new Service with the provided repository and logger.
func New(r Repository, log *zap.Logger, opts Options) *Service {
	return &Service{repo: r, log: log, validate: validator.New(), opts: opts}
}

// formatValidationError converts validator.ValidationErrors into a ValidationError.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return pkgerrors.NewValidationError("", err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		case "gt":
			messages = append(messages, fmt.Sprintf("%s must be greater than %s", e.Field(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return pkgerrors.NewValidationError("", strings.Join(messages, ", "))
}

// ListUsers returns every user in storage order.
func (s *Service) ListUsers(ctx context.Context) (*ListUsersResponse, error) {
	log := logger.WithContext(ctx, s.log)
	log.Debug("listing users")

	domainUsers, err := s.repo.List(ctx)
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to list users", err)
	}

	users := make([]User, len(domainUsers))
	for i, du := range domainUsers {
		users[i] = User{
			ID:    du.ID,
			Name:  du.Name,
			Email: du.Email,
		}
	}

	return &ListUsersResponse{Users: users}, nil
}

// CreateUser validates presence of name and email and stores a new user.
func (s *Service) CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error) {
	log := logger.WithContext(ctx, s.log)
	log.Info("creating user", zap.String("name", in.Name), zap.String("email", in.Email))

	if err := s.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	id, err := s.repo.Create(ctx, &domain.User{
		Name:  in.Name,
		Email: in.Email,
	})
	if err != nil {
		log.Error("failed to create user", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to create user", err)
	}

	return &CreateUserResponse{ID: id, Name: in.Name, Email: in.Email}, nil
}

// UpdateUser overwrites name and email of an existing user.
func (s *Service) UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error) {
	log := logger.WithContext(ctx, s.log)
	log.Info("updating user", zap.Int64("id", in.ID), zap.String("name", in.Name), zap.String("email", in.Email))

	if err := s.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	rows, err := s.repo.Update(ctx, &domain.User{
		ID:    in.ID,
		Name:  in.Name,
		Email: in.Email,
	})
	if err != nil {
		log.Error("failed to update user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to update user", err)
	}

	if err := s.checkMatched(log, "update", in.ID, rows); err != nil {
		return nil, err
	}

	return &UpdateUserResponse{ID: in.ID, Matched: rows > 0}, nil
}

// DeleteUser removes a user by ID.
func (s *Service) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	log := logger.WithContext(ctx, s.log)
	log.Info("deleting user", zap.Int64("id", in.ID))

	if err := s.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	rows, err := s.repo.Delete(ctx, in.ID)
	if err != nil {
		log.Error("failed to delete user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to delete user", err)
	}

	if err := s.checkMatched(log, "delete", in.ID, rows); err != nil {
		return nil, err
	}

	return &DeleteUserResponse{ID: in.ID, Matched: rows > 0}, nil
}

// checkMatched applies the missing-row policy.
func (s *Service) checkMatched(log *zap.Logger, op string, id, rows int64) error {
	if rows > 0 {
		return nil
	}
	if s.opts.ReportMissing {
		log.Warn(op+" target not found", zap.Int64("id", id))
		return pkgerrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%d", id))
	}
	log.Warn(op+" matched no rows, reporting success", zap.Int64("id", id))
	return nil
}
