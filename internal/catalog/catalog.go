// Package catalog manages the global category catalog and per-user
// membership, seeding new users with the base set.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"gastos/internal/cache"
	"gastos/internal/core"
)

// Store is the persistence surface the catalog needs.
type Store interface {
	IsRegistered(ctx context.Context, userID int64) (bool, error)
	RegisterUser(ctx context.Context, userID int64, seed []string) error
	AddGlobalCategory(ctx context.Context, name string) (bool, error)
	LinkUserCategory(ctx context.Context, userID int64, name string) (bool, error)
	UnlinkUserCategory(ctx context.Context, userID int64, name string) (bool, error)
	GetUserCategories(ctx context.Context, userID int64) ([]string, error)
}

type Service struct {
	store Store
	cache *cache.LRU[[]string]
}

func New(store Store, cacheSize int, cacheTTL time.Duration) *Service {
	return &Service{
		store: store,
		cache: cache.NewLRU[[]string](cacheSize, cacheTTL),
	}
}

// Cache exposes the underlying cache for janitor registration.
func (s *Service) Cache() cache.Cleaner {
	return s.cache
}

// EnsureRegistered registers the user with the base catalog on first
// contact. Registering an already-registered user is a no-op.
func (s *Service) EnsureRegistered(ctx context.Context, userID int64) error {
	registered, err := s.store.IsRegistered(ctx, userID)
	if err != nil {
		return fmt.Errorf("check registration: %w", err)
	}
	if registered {
		return nil
	}

	err = s.store.RegisterUser(ctx, userID, core.BaseCategories())
	if errors.Is(err, core.ErrUserExists) {
		// Lost a registration race; the other writer seeded the user.
		return nil
	}
	if err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	return nil
}

// Allowed returns the user's linked category names, served from cache when
// fresh. Callers get their own copy; the cached slice is never aliased.
func (s *Service) Allowed(ctx context.Context, userID int64) ([]string, error) {
	key := cacheKey(userID)
	if cats, ok := s.cache.Get(key); ok {
		return slices.Clone(cats), nil
	}

	cats, err := s.store.GetUserCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user categories: %w", err)
	}
	s.cache.Set(key, cats)
	return slices.Clone(cats), nil
}

// AddGlobal inserts a category into the global catalog if absent. It never
// touches existing users' links.
func (s *Service) AddGlobal(ctx context.Context, name string) (bool, error) {
	created, err := s.store.AddGlobalCategory(ctx, name)
	if err != nil {
		return false, fmt.Errorf("add global category: %w", err)
	}
	if created {
		slog.InfoContext(ctx, "Category added to global catalog", "category", name)
	}
	return created, nil
}

// Link grants the user the category and invalidates the cached set.
// Returns false when the category is not in the global catalog.
func (s *Service) Link(ctx context.Context, userID int64, name string) (bool, error) {
	ok, err := s.store.LinkUserCategory(ctx, userID, name)
	if err != nil {
		return false, fmt.Errorf("link category: %w", err)
	}
	if ok {
		s.cache.Delete(cacheKey(userID))
	}
	return ok, nil
}

// Unlink revokes the membership and invalidates the cached set.
func (s *Service) Unlink(ctx context.Context, userID int64, name string) (bool, error) {
	ok, err := s.store.UnlinkUserCategory(ctx, userID, name)
	if err != nil {
		return false, fmt.Errorf("unlink category: %w", err)
	}
	if ok {
		s.cache.Delete(cacheKey(userID))
	}
	return ok, nil
}

func cacheKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
