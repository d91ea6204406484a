package sqlrepo

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"users-crud/internal/adapter/db/connector"
	"users-crud/internal/domain/user"
	"users-crud/pkg/logger"
)

// UserRepo implements the user Repository with GORM. Every method acquires
// a handle from the provider, runs exactly one parameterized statement and
// releases the handle before returning.
type UserRepo struct {
	provider connector.Provider
	log      *zap.Logger
}

// NewUserRepo creates a new instance of UserRepo.
func NewUserRepo(provider connector.Provider, log *zap.Logger) *UserRepo {
	return &UserRepo{provider: provider, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID    int64  `gorm:"primaryKey;autoIncrement"`
	Name  string `gorm:"not null"`
	Email string `gorm:"not null"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// List returns every row in natural storage order.
func (r *UserRepo) List(ctx context.Context) ([]user.User, error) {
	db, release, err := r.provider.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer r.release(ctx, release)

	var models []UserSchema
	if err := db.Find(&models).Error; err != nil {
		logger.WithContext(ctx, r.log).Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, len(models))
	for i, model := range models {
		users[i] = user.User{
			ID:    model.ID,
			Name:  model.Name,
			Email: model.Email,
		}
	}

	return users, nil
}

// Create inserts a new row and returns the id the database assigned.
func (r *UserRepo) Create(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	db, release, err := r.provider.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer r.release(ctx, release)

	model := UserSchema{
		Name:  u.Name,
		Email: u.Email,
	}

	if err := db.Create(&model).Error; err != nil {
		logger.WithContext(ctx, r.log).Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	logger.WithContext(ctx, r.log).Info("user created in db", zap.Int64("id", model.ID))
	return model.ID, nil
}

// Update overwrites name and email of the row with u.ID and returns the
// number of rows matched. Zero means no such row.
func (r *UserRepo) Update(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	db, release, err := r.provider.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer r.release(ctx, release)

	res := db.Model(&UserSchema{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{"name": u.Name, "email": u.Email})
	if res.Error != nil {
		logger.WithContext(ctx, r.log).Error("failed to update user in db", zap.Error(res.Error), zap.Int64("id", u.ID))
		return 0, fmt.Errorf("failed to update user: %w", res.Error)
	}

	logger.WithContext(ctx, r.log).Info("user updated in db", zap.Int64("id", u.ID), zap.Int64("rows", res.RowsAffected))
	return res.RowsAffected, nil
}

// Delete removes the row with id and returns the number of rows removed.
func (r *UserRepo) Delete(ctx context.Context, id int64) (int64, error) {
	db, release, err := r.provider.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer r.release(ctx, release)

	res := db.Where("id = ?", id).Delete(&UserSchema{})
	if res.Error != nil {
		logger.WithContext(ctx, r.log).Error("failed to delete user in db", zap.Error(res.Error), zap.Int64("id", id))
		return 0, fmt.Errorf("failed to delete user: %w", res.Error)
	}

	logger.WithContext(ctx, r.log).Info("user deleted in db", zap.Int64("id", id), zap.Int64("rows", res.RowsAffected))
	return res.RowsAffected, nil
}

func (r *UserRepo) release(ctx context.Context, release func() error) {
	if err := release(); err != nil {
		logger.WithContext(ctx, r.log).Warn("failed to release db connection", zap.Error(err))
	}
}
