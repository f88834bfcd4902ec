package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionRole marks tokens that grant access to one interview session.
const sessionRole = "session"

var (
	// ErrWrongSession is returned when a valid token names another session.
	ErrWrongSession = errors.New("token was issued for a different session")
	// ErrDisabled is returned when tokens are requested but no secret is configured.
	ErrDisabled = errors.New("session tokens are disabled")
)

// JWTClaims represents the claims in our JWT token
type JWTClaims struct {
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates session-scoped tokens
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer, or nil when secret is empty.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if secret == "" {
		return nil
	}
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Enabled reports whether tokens are issued. It is safe to call on a nil issuer.
func (i *TokenIssuer) Enabled() bool {
	return i != nil
}

// GenerateSessionToken generates a JWT token granting access to sessionID
func (i *TokenIssuer) GenerateSessionToken(sessionID string) (string, time.Time, error) {
	if !i.Enabled() {
		return "", time.Time{}, ErrDisabled
	}

	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := &JWTClaims{
		SessionID: sessionID,
		Role:      sessionRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateSessionToken validates a JWT token and checks that it grants access to sessionID
func (i *TokenIssuer) ValidateSessionToken(tokenString, sessionID string) (*JWTClaims, error) {
	if !i.Enabled() {
		return nil, ErrDisabled
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.Role != sessionRole {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.SessionID != sessionID {
		return nil, ErrWrongSession
	}
	return claims, nil
}
