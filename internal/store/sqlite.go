package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err = migrateUp(db, "sqlite"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// sqliteDSN turns a bare file path into a DSN with foreign keys and a busy
// timeout enabled. Full "file:" DSNs are passed through untouched.
func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", path)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// User methods
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *SQLiteStore) getUser(ctx context.Context, column, value string) (*User, error) {
	var user User
	query := "SELECT id, email, name, password_hash, created_at FROM users WHERE " + column + " = ?"
	err := s.db.QueryRowContext(ctx, query, value).Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) (*User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, name, password_hash) VALUES (?, ?, ?, ?)",
		user.ID, user.Email, user.Name, user.PasswordHash)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique &&
			strings.Contains(sqliteErr.Error(), "users.email") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return s.GetUserByID(ctx, user.ID)
}

// UserContext methods
func (s *SQLiteStore) GetUserContext(ctx context.Context, userID string) (*UserContext, error) {
	var (
		uc                      UserContext
		genres, searches, liked string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, preferred_genres, recent_searches, liked_recommendations, updated_at FROM user_contexts WHERE user_id = ?",
		userID).Scan(&uc.UserID, &genres, &searches, &liked, &uc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user context: %w", err)
	}

	for _, col := range []struct {
		raw  string
		dest *[]string
	}{
		{genres, &uc.PreferredGenres},
		{searches, &uc.RecentSearches},
		{liked, &uc.LikedRecommendations},
	} {
		if err := decodeList(col.raw, col.dest); err != nil {
			return nil, fmt.Errorf("failed to decode user context for %s: %w", userID, err)
		}
	}
	return &uc, nil
}

func (s *SQLiteStore) GetOrCreateUserContext(ctx context.Context, userID string) (*UserContext, error) {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO user_contexts (user_id, updated_at) VALUES (?, ?) ON CONFLICT (user_id) DO NOTHING",
		userID, time.Now().UTC())
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

func (s *SQLiteStore) UpdateLikedRecommendations(ctx context.Context, userID string, liked []string) error {
	return s.updateList(ctx, "liked_recommendations", userID, liked)
}

func (s *SQLiteStore) UpdateRecentSearches(ctx context.Context, userID string, searches []string) error {
	return s.updateList(ctx, "recent_searches", userID, searches)
}

func (s *SQLiteStore) UpdatePreferredGenres(ctx context.Context, userID string, genres []string) error {
	return s.updateList(ctx, "preferred_genres", userID, genres)
}

func (s *SQLiteStore) updateList(ctx context.Context, column, userID string, values []string) error {
	if values == nil {
		values = []string{}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", column, err)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE user_contexts SET "+column+" = ?, updated_at = ? WHERE user_id = ?",
		string(encoded), time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("user context for %s not found, %s not updated", userID, column)
	}
	return nil
}

func decodeList(raw string, dest *[]string) error {
	*dest = []string{}
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dest)
}
