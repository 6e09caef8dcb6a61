package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/budgetkit/pkg/authtoken"
)

type contextKey struct{ name string }

var userIDKey = contextKey{"auth.user_id"}

// UserIDFromContext returns the authenticated user's ID injected by
// RequireAccessToken.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// RequireAccessToken verifies the bearer access token and injects the subject
// into the request context. Refresh tokens do not pass; the two kinds are
// signed with different keys.
func RequireAccessToken(codec *authtoken.Codec) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			userID, err := codec.Verify(token, authtoken.KindAccess)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header per RFC 6750.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrUnauthorized
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrUnauthorized
	}
	return parts[1], nil
}
