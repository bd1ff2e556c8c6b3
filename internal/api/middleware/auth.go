package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shuoxuer/shuoxuer-website/internal/api/response"
	"github.com/shuoxuer/shuoxuer-website/internal/security"
)

type contextKey string

const ReviewerKey contextKey = "reviewer"

// AuthMiddleware authenticates knowledge reviewers with bearer tokens
type AuthMiddleware struct {
	jwtManager *security.JWTManager
	required   bool
}

// NewAuthMiddleware creates a new auth middleware. When required is false a
// missing token is allowed through without a reviewer identity.
func NewAuthMiddleware(jwtManager *security.JWTManager, required bool) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager, required: required}
}

// Authenticate validates the JWT token
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.required {
				response.Unauthorized(w, "missing authorization header")
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

		claims, err := m.jwtManager.Validate(parts[1])
		if err != nil {
			response.Unauthorized(w, "invalid or expired token: "+err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), ReviewerKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetReviewer gets the authenticated reviewer name from context
func GetReviewer(ctx context.Context) (string, bool) {
	reviewer, ok := ctx.Value(ReviewerKey).(string)
	return reviewer, ok && reviewer != ""
}
