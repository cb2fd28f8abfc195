package middleware

import (
	"net/http"
	"strings"

	"github.com/iho/pairpoints/internal/domain"
	"github.com/iho/pairpoints/internal/infrastructure/auth"
)

// AuthMiddleware verifies the Bearer token and puts the calling account's
// identity into the request context.
func AuthMiddleware(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := jwtManager.Verify(parts[1])
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := domain.ContextWithUser(r.Context(), &domain.AuthUser{AccountID: claims.AccountID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
