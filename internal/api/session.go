package api

import (
	"context"
	"net/http"

	"gwi.com/reelpick/internal/auth"
)

type contextKey string

const identityKey contextKey = "identity"

func identityFromContext(ctx context.Context) *auth.Identity {
	id, _ := ctx.Value(identityKey).(*auth.Identity)
	return id
}

// SessionMiddleware attaches the caller's identity when the request carries a
// valid session cookie. Missing or invalid tokens leave the request anonymous.
func (h *APIHandler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := h.authService.Identify(r.Context(), auth.TokenFromRequest(r)); id != nil {
			r = r.WithContext(context.WithValue(r.Context(), identityKey, id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession rejects anonymous requests with 401.
func (h *APIHandler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identityFromContext(r.Context()) == nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
