package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "shuoxuer-coach"

// ErrEmptySecret is returned when tokens are requested without a signing secret
var ErrEmptySecret = errors.New("jwt secret is not configured")

// Claims represents reviewer token claims. The subject is the reviewer name
// recorded on approved knowledge entries.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager handles reviewer token operations
type JWTManager struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Enabled reports whether a signing secret is configured
func (m *JWTManager) Enabled() bool {
	return len(m.secret) > 0
}

// Issue generates a reviewer token for subject. A zero ttl uses the
// manager's default.
func (m *JWTManager) Issue(subject string, ttl time.Duration) (string, error) {
	if !m.Enabled() {
		return "", ErrEmptySecret
	}
	if subject == "" {
		return "", errors.New("subject is required")
	}
	if ttl <= 0 {
		ttl = m.ttl
	}

	now := time.Now()
	claims := Claims{
		Role: "reviewer",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate validates a reviewer token and returns the claims
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	if !m.Enabled() {
		return nil, ErrEmptySecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	return claims, nil
}

// TTL returns the default token lifetime
func (m *JWTManager) TTL() time.Duration {
	return m.ttl
}
