package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "meridian_session"

// ErrInvalidToken indicates a token that failed signature or claim validation.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims carries the session payload inside the signed token. Role is a
// snapshot re-derived from the user record at issue time, never copied from
// the external provider.
type Claims struct {
	jwt.RegisteredClaims
	Role  string `json:"role,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Image string `json:"picture,omitempty"`
}

// Session materialises the typed session value from token claims.
func (c *Claims) Session() *Session {
	return &Session{
		SubjectID: c.Subject,
		Role:      c.Role,
		Name:      c.Name,
		Email:     c.Email,
		Image:     c.Image,
	}
}

// TokenManager signs and verifies session tokens with an HS256 secret.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// TTL exposes the configured token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue signs a token for the session.
func (tm *TokenManager) Issue(sess *Session) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
		Role:  sess.Role,
		Name:  sess.Name,
		Email: sess.Email,
		Image: sess.Image,
	})
	return token.SignedString(tm.secret)
}

// Parse verifies the token and returns its claims. Any failure, including an
// unexpected signing method or expiry, yields ErrInvalidToken so callers treat
// the request as unauthenticated rather than trusting a partial decode.
func (tm *TokenManager) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
