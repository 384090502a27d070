package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gwi.com/reelpick/internal/auth"
	"gwi.com/reelpick/internal/core"
	"gwi.com/reelpick/internal/store"
)

const completion = `Movies:
1. **Inception** (2010): A mind-bending thriller.
2. **Heat** (1995): A heist goes wrong.

TV Series:
None.`

type stubCompleter struct {
	text string
	err  error
}

func (s *stubCompleter) Name() string { return "stub" }

func (s *stubCompleter) Complete(context.Context, string, string) (string, error) {
	return s.text, s.err
}

type testEnv struct {
	router http.Handler
	store  store.Store
}

type envOptions struct {
	secret    string
	completer core.Completer
	router    RouterConfig
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ttl := 7 * 24 * time.Hour
	authService, err := core.NewAuthService(st, auth.NewTokenCodec(opts.secret, ttl),
		core.WithPasswordHasher(&auth.BcryptHasher{Cost: bcrypt.MinCost}))
	require.NoError(t, err)

	completer := opts.completer
	if completer == nil {
		completer = &stubCompleter{text: completion}
	}
	llm := core.NewLLMService(completer, time.Second, core.BreakerSettings{})

	h := NewAPIHandler(authService, core.NewLikeService(st), core.NewRecommendationService(st, llm), false)

	rc := opts.router
	if rc.RateLimitRequests == 0 && rc.LoginRateLimit == 0 {
		rc.RateLimitDisabled = true
	}
	return &testEnv{router: NewRouter(h, rc), store: st}
}

func (e *testEnv) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) signup(t *testing.T, email, password string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/users", `{"email":"`+email+`","name":"Test User","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func (e *testEnv) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/login", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c := sessionCookie(rec)
	require.NotNil(t, c)
	return c
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestLoginHandler_Success(t *testing.T) {
	env := newTestEnv(t, envOptions{secret: "s3cret"})
	env.signup(t, "ada@example.com", "correct-horse")

	rec := env.do(t, http.MethodPost, "/api/login", `{"email":"ada@example.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.NotEmpty(t, c.Value)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 7*24*60*60, c.MaxAge)

	body := decodeBody(t, rec)
	assert.Equal(t, "Login successful", body["message"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "ada@example.com", user["email"])
	assert.Equal(t, "Test User", user["name"])
	assert.NotEmpty(t, user["id"])
	assert.NotContains(t, rec.Body.String(), "passwordHash")
	assert.NotContains(t, rec.Body.String(), "$2a$")
}

func TestLoginHandler_Failures(t *testing.T) {
	env := newTestEnv(t, envOptions{secret: "s3cret"})
	env.signup(t, "ada@example.com", "correct-horse")

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"wrong password", `{"email":"ada@example.com","password":"wrong"}`, http.StatusUnauthorized, "Invalid credentials"},
		{"unknown email", `{"email":"bob@example.com","password":"correct-horse"}`, http.StatusUnauthorized, "Invalid credentials"},
		{"missing password", `{"email":"ada@example.com"}`, http.StatusBadRequest, "Email and password required"},
		{"missing email", `{"password":"correct-horse"}`, http.StatusBadRequest, "Email and password required"},
		{"malformed body", `{"email":`, http.StatusBadRequest, "Invalid request body"},
		{"empty body", ``, http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/login", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, decodeBody(t, rec)["error"])
			assert.Nil(t, sessionCookie(rec))
		})
	}
}

func TestLoginHandler_MissingSecret(t *testing.T) {
	env := newTestEnv(t, envOptions{secret: ""})
	env.signup(t, "ada@example.com", "correct-horse")

	rec := env.do(t, http.MethodPost, "/api/login", `{"email":"ada@example.com","password":"correct-horse"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Something went wrong", decodeBody(t, rec)["error"])
	assert.Nil(t, sessionCookie(rec))
}

func TestSignupHandler(t *testing.T) {
	env := newTestEnv(t, envOptions{secret: "s3cret"})

	rec := env.do(t, http.MethodPost, "/api/users", `{"id":"u-1","email":"new@example.com","name":"New","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "User created", body["message"])
	assert.Equal(t, "u-1", body["user"].(map[string]interface{})["id"])
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	dup := env.do(t, http.MethodPost, "/api/users", `{"email":"new@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusConflict, dup.Code)
	assert.Equal(t, "Email already registered", decodeBody(t, dup)["error"])

	missing := env.do(t, http.MethodPost, "/api/users", `{"email":"x@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Equal(t, "Email and password are required", decodeBody(t, missing)["error"])
}

func TestSignupHandler_PasswordTooLong(t *testing.T) {
	env := newTestEnv(t, envOptions{secret: "s3cret"})

	rec := env.do(t, http.MethodPost, "/api/users", `{"email":"long@example.com","password":"`+strings.Repeat("p", 80)+`"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password must be at most 72 bytes", decodeBody(t, rec)["error"])
}

func TestLikeHandler_RequiresSession(t *testing.T) {
	env := newTestEnv(t, envOptions{secret: "s3cret"})

	rec := env.do(t, http.MethodPost, "/api/recommendations/like", `{"recommendationId":"r1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", decodeBody(t, rec)["error"])

	forged := &http.Cookie{Name: auth.CookieName, Value: "not-a-jwt"}
	rec = env.do(t, http.MethodPost, "/api/recommendations/like", `{"recommendationId":"r1"}`, forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLikeHandler_ToggleTwice(t *testing.T) {
	env := newTestEnv(t, envOptions{secret: "s3cret"})
	env.signup(t, "ada@example.com", "correct-horse")
	cookie := env.login(t, "ada@example.com", "correct-horse")

	missing := env.do(t, http.MethodPost, "/api/recommendations/like", `{}`, cookie)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Equal(t, "Recommendation ID is required", decodeBody(t, missing)["error"])

	first := env.do(t, http.MethodPost, "/api/recommendations/like", `{"recommendationId":"r1"}`, cookie)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, map[string]interface{}{"success": true, "isLiked": true, "totalLikes": float64(1)}, decodeBody(t, first))

	second := env.do(t, http.MethodPost, "/api/recommendations/like", `{"recommendationId":"r1"}`, cookie)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, map[string]interface{}{"success": true, "isLiked": false, "totalLikes": float64(0)}, decodeBody(t, second))

	likes := env.do(t, http.MethodGet, "/api/recommendations/likes", "", cookie)
	require.Equal(t, http.StatusOK, likes.Code)
	assert.Equal(t, float64(0), decodeBody(t, likes)["totalLikes"])
}

func TestRecommendationsHandler(t *testing.T) {
	env := newTestEnv(t, envOptions{secret: "s3cret"})

	rec := env.do(t, http.MethodPost, "/api/recommendations", `{"prompt":"heists"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result core.RecommendationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Movies, 2)
	assert.Equal(t, "Inception", result.Movies[0].Title)
	assert.Equal(t, "2010", result.Movies[0].Year)
	assert.NotEmpty(t, result.Movies[0].ID)
	assert.Empty(t, result.Shows)
	assert.Equal(t, completion, result.Raw)
	assert.Contains(t, rec.Body.String(), `"shows":[]`)

	missing := env.do(t, http.MethodPost, "/api/recommendations", `{}`)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Equal(t, "Prompt is required", decodeBody(t, missing)["error"])
}

func TestRecommendationsHandler_InvalidCookieIsAnonymous(t *testing.T) {
	env := newTestEnv(t, envOptions{secret: "s3cret"})

	forged := &http.Cookie{Name: auth.CookieName, Value: "garbage"}
	rec := env.do(t, http.MethodPost, "/api/recommendations", `{"prompt":"heists"}`, forged)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecommendationsHandler_SignedInSeesLikes(t *testing.T) {
	env := newTestEnv(t, envOptions{secret: "s3cret"})
	env.signup(t, "ada@example.com", "correct-horse")
	cookie := env.login(t, "ada@example.com", "correct-horse")

	id := core.RecommendationID(core.KindMovie, "Heat", "1995")
	like := env.do(t, http.MethodPost, "/api/recommendations/like", `{"recommendationId":"`+id+`"}`, cookie)
	require.Equal(t, http.StatusOK, like.Code)

	rec := env.do(t, http.MethodPost, "/api/recommendations", `{"prompt":"heists"}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var result core.RecommendationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Movies[0].IsLiked)
	assert.True(t, result.Movies[1].IsLiked)

	me := env.do(t, http.MethodGet, "/api/me", "", cookie)
	require.Equal(t, http.StatusOK, me.Code)
	ctxBody := decodeBody(t, me)["context"].(map[string]interface{})
	assert.Equal(t, []interface{}{"heists"}, ctxBody["recentSearches"])
	assert.Equal(t, []interface{}{id}, ctxBody["likedRecommendations"])
}

func TestRecommendationsHandler_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name      string
		completer core.Completer
		wantError string
	}{
		{"upstream failure", &stubCompleter{err: errors.New("dial tcp: connection refused")}, "Failed to generate recommendation"},
		{"empty completion", &stubCompleter{text: ""}, "No response from AI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, envOptions{secret: "s3cret", completer: tt.completer})

			rec := env.do(t, http.MethodPost, "/api/recommendations", `{"prompt":"anything"}`)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.wantError, decodeBody(t, rec)["error"])
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}

func TestMeAndPreferences(t *testing.T) {
	env := newTestEnv(t, envOptions{secret: "s3cret"})
	env.signup(t, "ada@example.com", "correct-horse")
	cookie := env.login(t, "ada@example.com", "correct-horse")

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/me", "").Code)

	me := env.do(t, http.MethodGet, "/api/me", "", cookie)
	require.Equal(t, http.StatusOK, me.Code)
	body := decodeBody(t, me)
	assert.Equal(t, "ada@example.com", body["user"].(map[string]interface{})["email"])
	assert.Equal(t, []interface{}{}, body["context"].(map[string]interface{})["likedRecommendations"])

	prefs := env.do(t, http.MethodPut, "/api/me/preferences", `{"preferredGenres":["Drama","drama","Noir"]}`, cookie)
	require.Equal(t, http.StatusOK, prefs.Code)
	assert.Equal(t, []interface{}{"Drama", "Noir"}, decodeBody(t, prefs)["preferredGenres"])

	bad := env.do(t, http.MethodPut, "/api/me/preferences", `{}`, cookie)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestLogoutHandler(t *testing.T) {
	env := newTestEnv(t, envOptions{secret: "s3cret"})

	rec := env.do(t, http.MethodPost, "/api/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)

	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.Less(t, c.MaxAge, 0)
}

func TestLoginRateLimit(t *testing.T) {
	env := newTestEnv(t, envOptions{secret: "s3cret", router: RouterConfig{
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		LoginRateLimit:    2,
	}})

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/api/login", `{"email":"a@example.com","password":"x"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/api/login", `{"email":"a@example.com","password":"x"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests", decodeBody(t, rec)["error"])
}

func TestHealthAndRequestID(t *testing.T) {
	env := newTestEnv(t, envOptions{secret: "s3cret"})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "req-123", rec.Header().Get(requestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, envOptions{secret: "s3cret"})
	env.do(t, http.MethodGet, "/api/health", "")

	rec := env.do(t, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.Contains(rec.Body.Bytes(), []byte("reelpick_api_requests_total")))
}
