package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"gwi.com/reelpick/internal/logging"
)

const pgUniqueViolation = "23505"

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migratePostgres(databaseURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &PostgresStore{db: pool}, nil
}

// migratePostgres runs migrations on a dedicated handle and closes it, so the
// connection the migrate driver holds is never taken from the store's pool.
func migratePostgres(databaseURL string) error {
	db, err := OpenDB("postgres", databaseURL)
	if err != nil {
		return err
	}

	m, err := NewMigrator(db, "postgres")
	if err != nil {
		db.Close()
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logging.Warn().AnErr("source_error", srcErr).AnErr("database_error", dbErr).Msg("Failed to close migrator")
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, "SELECT id, email, name, password_hash, created_at FROM users WHERE email = $1", email)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.getUser(ctx, "SELECT id, email, name, password_hash, created_at FROM users WHERE id = $1", id)
}

func (s *PostgresStore) getUser(ctx context.Context, query, arg string) (*User, error) {
	var u User
	err := s.db.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *User) (*User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	var created User
	err := s.db.QueryRow(ctx, `
		INSERT INTO users (id, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, name, password_hash, created_at
	`, user.ID, user.Email, user.Name, user.PasswordHash).
		Scan(&created.ID, &created.Email, &created.Name, &created.PasswordHash, &created.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == "users_email_key" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) GetUserContext(ctx context.Context, userID string) (*UserContext, error) {
	var uc UserContext
	err := s.db.QueryRow(ctx, `
		SELECT user_id, preferred_genres, recent_searches, liked_recommendations, updated_at
		FROM user_contexts
		WHERE user_id = $1
	`, userID).Scan(&uc.UserID, &uc.PreferredGenres, &uc.RecentSearches, &uc.LikedRecommendations, &uc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user context: %w", err)
	}
	return &uc, nil
}

func (s *PostgresStore) GetOrCreateUserContext(ctx context.Context, userID string) (*UserContext, error) {
	_, err := s.db.Exec(ctx,
		"INSERT INTO user_contexts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create user context: %w", err)
	}

	uc, err := s.GetUserContext(ctx, userID)
	if err != nil {
		return nil, err
	}
	if uc == nil {
		return nil, fmt.Errorf("user context for %s missing after insert", userID)
	}
	return uc, nil
}

func (s *PostgresStore) UpdateLikedRecommendations(ctx context.Context, userID string, liked []string) error {
	return s.updateList(ctx, "liked_recommendations", userID, liked)
}

func (s *PostgresStore) UpdateRecentSearches(ctx context.Context, userID string, searches []string) error {
	return s.updateList(ctx, "recent_searches", userID, searches)
}

func (s *PostgresStore) UpdatePreferredGenres(ctx context.Context, userID string, genres []string) error {
	return s.updateList(ctx, "preferred_genres", userID, genres)
}

func (s *PostgresStore) updateList(ctx context.Context, column, userID string, values []string) error {
	if values == nil {
		values = []string{}
	}

	tag, err := s.db.Exec(ctx,
		"UPDATE user_contexts SET "+column+" = $1, updated_at = $2 WHERE user_id = $3",
		values, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user context for %s not found, %s not updated", userID, column)
	}
	return nil
}
