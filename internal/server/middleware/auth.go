package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ebraholidays/voyager/internal/model"
	"github.com/ebraholidays/voyager/internal/service"
)

type contextKeyAuth string

// AdminKey is the context key for the authenticated administrator.
const AdminKey contextKeyAuth = "auth_admin"

// Authenticate returns an HTTP middleware that validates the request's
// `Authorization: Bearer <token>` header. On success the resolved
// administrator record is attached to the request context. On any failure
// (missing or malformed header, bad signature, expiry, revoked token,
// deleted account) a 401 JSON error is returned without reaching the
// handler.
func Authenticate(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeAuthError(w, "Not authorized, no token")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			admin, err := authSvc.VerifyToken(r.Context(), token)
			if err != nil {
				writeAuthError(w, "Not authorized, token failed")
				return
			}

			ctx := context.WithValue(r.Context(), AdminKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdmin extracts the authenticated administrator from the context.
// Returns nil if the request did not pass through Authenticate.
func GetAdmin(ctx context.Context) *model.Admin {
	if a, ok := ctx.Value(AdminKey).(*model.Admin); ok {
		return a
	}
	return nil
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	// Manually construct JSON to avoid an import cycle with the handler package.
	w.Write([]byte(`{"message":"` + message + `"}`))
}
