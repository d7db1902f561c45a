package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hotelops/taskrouter/internal/domain"
)

type contextKey string

// ContextKeyStaff is the key for storing the authenticated staff member
// in the request context.
const ContextKeyStaff contextKey = "staff"

// StaffResolver resolves authentication tokens to staff records.
type StaffResolver interface {
	GetByToken(ctx context.Context, token string) (*domain.Staff, error)
}

// AuthMiddleware handles Bearer token authentication.
type AuthMiddleware struct {
	resolver StaffResolver
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(resolver StaffResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// Authenticate validates the Bearer token and adds the staff member to
// the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
			return
		}

		token := parts[1]
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		staff, err := m.resolver.GetByToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrStaffNotFound) {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		if !staff.IsActive {
			http.Error(w, "staff member inactive", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyStaff, staff)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetStaffFromContext retrieves the authenticated staff member from the
// request context.
func GetStaffFromContext(ctx context.Context) (*domain.Staff, error) {
	staff, ok := ctx.Value(ContextKeyStaff).(*domain.Staff)
	if !ok || staff == nil {
		return nil, domain.ErrStaffNotFound
	}
	return staff, nil
}
