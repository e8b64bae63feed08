package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultSessionDuration is how long an admin session stays valid
const DefaultSessionDuration = 8 * time.Hour

const issuer = "mpp-chat-portal"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims identifies the admin user a session belongs to
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Session is a signed token with its expiry
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// TokenIssuer signs and verifies admin session tokens
type TokenIssuer struct {
	secret   []byte
	duration time.Duration
	now      func() time.Time
}

// ------------------------------------------------------------------------------------------------------
func NewTokenIssuer(secret string, duration time.Duration) *TokenIssuer {
	if duration <= 0 {
		duration = DefaultSessionDuration
	}
	return &TokenIssuer{
		secret:   []byte(secret),
		duration: duration,
		now:      time.Now,
	}
}

// ------------------------------------------------------------------------------------------------------
// Issue creates a session for the given user
func (t *TokenIssuer) Issue(userID uuid.UUID, username string) (*Session, error) {
	now := t.now()
	expiresAt := now.Add(t.duration)

	claims := &Claims{
		UserID:   userID.String(),
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Session{Token: signed, ExpiresAt: expiresAt.Truncate(time.Second)}, nil
}

// ------------------------------------------------------------------------------------------------------
// Parse validates a token and returns its claims
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ------------------------------------------------------------------------------------------------------
// Remaining returns how long the session behind claims is still valid
func (t *TokenIssuer) Remaining(claims *Claims) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}
	remaining := claims.ExpiresAt.Time.Sub(t.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ------------------------------------------------------------------------------------------------------
// Refresh issues a new full-length session for a still-valid token
func (t *TokenIssuer) Refresh(tokenString string) (*Session, *Claims, error) {
	claims, err := t.Parse(tokenString)
	if err != nil {
		return nil, nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	session, err := t.Issue(userID, claims.Username)
	if err != nil {
		return nil, nil, err
	}
	return session, claims, nil
}
