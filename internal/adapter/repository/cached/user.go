package cached

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"users-crud/internal/adapter/cache"
	domain "users-crud/internal/domain/user"
	"users-crud/internal/usecase/user"
	"users-crud/pkg/logger"
)

// UserRepository decorates a persistent repository with a cached list.
// Every successful mutation drops the cached list so the next List call
// observes it.
type UserRepository struct {
	dbRepo user.Repository
	cache  cache.UserListCache
	log    *zap.Logger
	group  singleflight.Group
}

var _ user.Repository = (*UserRepository)(nil)

const listLoadTimeout = 30 * time.Second

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(dbRepo user.Repository, cache cache.UserListCache, log *zap.Logger) *UserRepository {
	return &UserRepository{
		dbRepo: dbRepo,
		cache:  cache,
		log:    log,
	}
}

// List serves from cache, falling back to the database on a miss or a cache
// error. Concurrent misses of the same generation share one database read,
// and a read that races with a mutation is returned but never cached.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	log := logger.WithContext(ctx, r.log)

	users, ok, err := r.cache.Get(ctx)
	if err != nil {
		log.Warn("cache get error, falling back to database", zap.Error(err))
	} else if ok {
		return users, nil
	}

	gen, err := r.cache.Generation(ctx)
	if err != nil {
		log.Warn("cache generation unavailable, reading database directly", zap.Error(err))
		return r.dbRepo.List(ctx)
	}

	// The shared load must outlive any single caller's cancellation.
	key := cache.ListKey + ":" + strconv.FormatInt(gen, 10)
	ch := r.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listLoadTimeout)
		defer cancel()
		return r.load(loadCtx, gen)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			log.Debug("user list load shared with concurrent caller")
		}
		return res.Val.([]domain.User), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *UserRepository) load(ctx context.Context, gen int64) ([]domain.User, error) {
	users, err := r.dbRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := r.cache.Set(ctx, gen, users); err != nil {
		logger.WithContext(ctx, r.log).Warn("failed to cache user list", zap.Error(err))
	}
	return users, nil
}

// Create delegates to the DB repository and invalidates the cached list.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	id, err := r.dbRepo.Create(ctx, u)
	if err != nil {
		return 0, err
	}
	r.invalidate(ctx, "create")
	return id, nil
}

// Update delegates to the DB repository and invalidates the cached list.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (int64, error) {
	rows, err := r.dbRepo.Update(ctx, u)
	if err != nil {
		return 0, err
	}
	if rows > 0 {
		r.invalidate(ctx, "update")
	}
	return rows, nil
}

// Delete delegates to the DB repository and invalidates the cached list.
func (r *UserRepository) Delete(ctx context.Context, id int64) (int64, error) {
	rows, err := r.dbRepo.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	if rows > 0 {
		r.invalidate(ctx, "delete")
	}
	return rows, nil
}

func (r *UserRepository) invalidate(ctx context.Context, op string) {
	if err := r.cache.Invalidate(ctx); err != nil {
		logger.WithContext(ctx, r.log).Warn("failed to invalidate user list cache", zap.String("op", op), zap.Error(err))
	}
}
