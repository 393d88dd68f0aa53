package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Rrens/trip-planner/internal/api/response"
	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/Rrens/trip-planner/internal/security"
	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey    contextKey = "userID"
	UserEmailKey contextKey = "userEmail"
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager *security.JWTManager
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *security.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

// Authenticate rejects requests without a valid access token
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return m.handle(next, true)
}

// Optional lets anonymous requests through. A token that is present must
// still be valid, so that clients learn their credential expired.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return m.handle(next, false)
}

func (m *AuthMiddleware) handle(next http.Handler, required bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if required {
				response.Unauthorized(w, "Authentication credentials were not provided.")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(w, "invalid authorization header format")
			return
		}

		claims, err := m.jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "Given token not valid for any token type")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, UserEmailKey, claims.Email)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID gets the user ID from context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetUserEmail gets the user email from context
func GetUserEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}

// GetUser rebuilds the authenticated user from the token claims, or nil
func GetUser(ctx context.Context) *domain.User {
	userID, ok := GetUserID(ctx)
	if !ok {
		return nil
	}
	email, _ := GetUserEmail(ctx)
	return &domain.User{ID: userID, Email: email}
}
