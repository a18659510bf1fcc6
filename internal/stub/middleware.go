package stub

import (
	"context"
	"net/http"
	"strings"

	"github.com/exotrack/exotrack-console/internal/domain"

	"go.uber.org/zap"
)

type contextKey string

const sessionUserKey contextKey = "sessionUser"

// JWTAuthMiddleware validates Bearer tokens and injects the session user
// into the request context.
func JWTAuthMiddleware(issuer *TokenIssuer, store *Store, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token", zap.String("path", r.URL.Path))
				writeError(w, http.StatusUnauthorized, "authentication token not provided")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid token format", zap.String("path", r.URL.Path))
				writeError(w, http.StatusUnauthorized, "invalid token format")
				return
			}

			userID, err := issuer.Validate(parts[1])
			if err != nil {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			user, err := store.GetUser(userID)
			if err != nil || !user.IsActive {
				writeError(w, http.StatusUnauthorized, "session user no longer valid")
				return
			}

			ctx := context.WithValue(r.Context(), sessionUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionUserFromContext extracts the authenticated user from the context.
func SessionUserFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(sessionUserKey).(*domain.User)
	return u
}

// RequireAdmin rejects requests whose session user is not an admin.
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := SessionUserFromContext(r.Context())
			if user == nil || user.Role != domain.RoleAdmin {
				logger.Warn("forbidden: admin required", zap.String("path", r.URL.Path))
				writeError(w, http.StatusForbidden, "admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
