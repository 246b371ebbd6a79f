package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtinfra "github.com/go-todo-nosql/internal/infrastructure/jwt"
)

type contextKey string

const userIDKey contextKey = "user_id"

// TokenVerifier is satisfied by *jwtinfra.Provider.
type TokenVerifier interface {
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

// Auth returns middleware that validates the session token from
// "Authorization: <scheme> <token>" and injects the user id into context.
// The scheme word itself is not checked.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.Fields(r.Header.Get("Authorization"))
			if len(parts) != 2 {
				writeJSONError(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}
			claims, err := verifier.Verify(parts[1])
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Token is not valid")
				return
			}
			ctx := WithUserID(r.Context(), claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the authenticated user id from the request context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
