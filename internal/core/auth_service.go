package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gwi.com/reelpick/internal/auth"
	"gwi.com/reelpick/internal/logging"
	"gwi.com/reelpick/internal/metrics"
	"gwi.com/reelpick/internal/store"
)

// dummyPassword is hashed once when constant-time login is enabled so that an
// unknown email costs the same bcrypt work as a wrong password.
const dummyPassword = "reelpick-constant-time-login"

type AuthService struct {
	store        store.Store
	hasher       auth.PasswordHasher
	tokens       *auth.TokenCodec
	constantTime bool
	dummyHash    string
}

type AuthOption func(*AuthService)

// WithConstantTimeLogin makes Login run the password verifier even when the
// email is unknown.
func WithConstantTimeLogin(enabled bool) AuthOption {
	return func(s *AuthService) { s.constantTime = enabled }
}

func WithPasswordHasher(h auth.PasswordHasher) AuthOption {
	return func(s *AuthService) { s.hasher = h }
}

func NewAuthService(st store.Store, tokens *auth.TokenCodec, opts ...AuthOption) (*AuthService, error) {
	s := &AuthService{
		store:  st,
		hasher: auth.NewBcryptHasher(),
		tokens: tokens,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.constantTime {
		hash, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare constant-time login hash: %w", err)
		}
		s.dummyHash = hash
	}
	return s, nil
}

type Session struct {
	User  auth.Identity
	Token string
}

// Login checks the credentials and mints a session token. Unknown emails and
// wrong passwords both fail with ErrInvalidCredentials. Unless constant-time
// login is enabled, an unknown email returns before any hashing work, which
// makes the two cases distinguishable by response time.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, invalidInput("Email and password required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		metrics.RecordLogin("error")
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user == nil {
		if s.constantTime {
			s.hasher.Compare(s.dummyHash, password)
		}
		metrics.RecordLogin("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		metrics.RecordLogin("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	identity := auth.Identity{ID: user.ID, Name: user.Name, Email: user.Email}
	token, err := s.tokens.Sign(identity)
	if err != nil {
		metrics.RecordLogin("error")
		if errors.Is(err, auth.ErrMissingSecret) {
			return nil, ErrSigningSecretMissing
		}
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	metrics.RecordLogin("success")
	logging.Ctx(ctx).Info().Str("user_id", user.ID).Msg("User logged in")
	return &Session{User: identity, Token: token}, nil
}

// SessionTTL is the lifetime of the tokens Login issues.
func (s *AuthService) SessionTTL() time.Duration {
	return s.tokens.TTL()
}

// Identify resolves a session token. A missing or invalid token yields nil,
// which callers treat as an anonymous request.
func (s *AuthService) Identify(ctx context.Context, token string) *auth.Identity {
	if token == "" {
		return nil
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Ignoring invalid session token")
		return nil
	}
	id := claims.Identity
	return &id
}

type RegisterInput struct {
	ID       string
	Email    string
	Name     string
	Password string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*store.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return nil, invalidInput("Email and password are required")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, invalidInput("Password must be at most 72 bytes")
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, &store.User{
		ID:           strings.TrimSpace(in.ID),
		Email:        in.Email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logging.Ctx(ctx).Info().Str("user_id", user.ID).Msg("User created")
	return user, nil
}

// Me returns the caller's account and context. The context is empty, not
// nil, when the user has not created one yet.
func (s *AuthService) Me(ctx context.Context, userID string) (*store.User, *store.UserContext, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrUnauthorized
	}

	uc, err := s.store.GetUserContext(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user context: %w", err)
	}
	if uc == nil {
		uc = &store.UserContext{
			UserID:               userID,
			PreferredGenres:      []string{},
			RecentSearches:       []string{},
			LikedRecommendations: []string{},
		}
	}
	return user, uc, nil
}
