package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/reelboard/reelboard/internal/auth"
	"github.com/reelboard/reelboard/internal/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// AuthMiddleware verifies bearer credentials on API requests.
type AuthMiddleware struct {
	authn *auth.Authenticator
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(authn *auth.Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authn: authn}
}

// RequireAuth verifies the Authorization header and attaches the
// caller's identity to the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			jsonError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		identity, err := m.authn.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			jsonError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		recordCaller(r.Context(), identity)
		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route to the given roles. Must be mounted after
// RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := make(map[models.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentityFromContext(r.Context())
			if identity == nil {
				jsonError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !allowed[identity.Role] {
				jsonError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetIdentityFromContext retrieves the authenticated identity from the
// request context.
func GetIdentityFromContext(ctx context.Context) *auth.Identity {
	identity, ok := ctx.Value(identityContextKey).(*auth.Identity)
	if !ok {
		return nil
	}
	return identity
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
