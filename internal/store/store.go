package store

import (
	"context"
	"errors"
	"fmt"
)

var ErrEmailTaken = errors.New("email already registered")

// Store is the persistence boundary for accounts and user contexts. Lookups
// return (nil, nil) when the row does not exist.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	CreateUser(ctx context.Context, user *User) (*User, error)

	GetUserContext(ctx context.Context, userID string) (*UserContext, error)
	// GetOrCreateUserContext is idempotent: concurrent callers for the same
	// user all receive the single stored row.
	GetOrCreateUserContext(ctx context.Context, userID string) (*UserContext, error)
	UpdateLikedRecommendations(ctx context.Context, userID string, liked []string) error
	UpdateRecentSearches(ctx context.Context, userID string, searches []string) error
	UpdatePreferredGenres(ctx context.Context, userID string, genres []string) error

	Close() error
}

// Open returns the Store for driver ("sqlite" or "postgres"), with migrations
// applied.
func Open(ctx context.Context, driver, dataSourceName string) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLiteStore(dataSourceName)
	case "postgres":
		return NewPostgresStore(ctx, dataSourceName)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
