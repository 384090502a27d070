package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "this_is_a_long_enough_secret_for_tests"

func TestSignAndVerify(t *testing.T) {
	codec := NewTokenCodec(testSecret, 7*24*time.Hour)

	tests := []struct {
		name string
		id   Identity
	}{
		{name: "full identity", id: Identity{ID: "u1", Name: "Ada", Email: "ada@example.com"}},
		{name: "empty name", id: Identity{ID: "u2", Email: "bob@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := codec.Sign(tt.id)
			require.NoError(t, err)
			require.NotEmpty(t, token)

			claims, err := codec.Verify(token)
			require.NoError(t, err)
			assert.Equal(t, tt.id, claims.Identity)
			assert.Equal(t, tt.id.ID, claims.Subject)

			ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
			assert.Equal(t, 7*24*time.Hour, ttl)
		})
	}
}

func TestSign_MissingSecret(t *testing.T) {
	codec := NewTokenCodec("", time.Hour)

	_, err := codec.Sign(Identity{ID: "u1"})
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = codec.Verify("anything")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Invalid(t *testing.T) {
	codec := NewTokenCodec(testSecret, time.Hour)
	valid, err := codec.Sign(Identity{ID: "u1"})
	require.NoError(t, err)

	otherKey, err := NewTokenCodec("a_completely_different_secret_value", time.Hour).Sign(Identity{ID: "u1"})
	require.NoError(t, err)

	expiredCodec := NewTokenCodec(testSecret, time.Hour)
	expiredCodec.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredCodec.Sign(Identity{ID: "u1"})
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id":  "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{name: "tampered", token: valid + "x"},
		{name: "wrong key", token: otherKey},
		{name: "expired", token: expired},
		{name: "alg none", token: noneToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := codec.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "tok", 7*24*time.Hour, true)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 604800, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	assert.Equal(t, "tok", TokenFromRequest(req))
	assert.Empty(t, TokenFromRequest(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestClearSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearSessionCookie(rec, false)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
	assert.False(t, cookies[0].Secure)
}

func TestPasswordHashing(t *testing.T) {
	hasher := &BcryptHasher{Cost: 4}

	hash, err := hasher.Hash("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.True(t, hasher.Compare(hash, "hunter2"))
	assert.False(t, hasher.Compare(hash, "hunter3"))
	assert.False(t, hasher.Compare("not-a-hash", "hunter2"))
}

func TestHashPasswordHelpers(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, NewBcryptHasher().Compare(hash, "correct horse"))
	assert.False(t, NewBcryptHasher().Compare(hash, "battery staple"))
}
