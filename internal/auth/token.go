package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rustam/servhub/internal/config"
)

// TokenPair holds an access/refresh token pair
type TokenPair struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// ErrInvalidToken is returned for malformed, mis-signed or expired tokens
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenIssuer signs and verifies session tokens
type TokenIssuer struct {
	cfg config.Auth
}

// NewTokenIssuer creates a token issuer from auth configuration
func NewTokenIssuer(cfg config.Auth) *TokenIssuer {
	return &TokenIssuer{cfg: cfg}
}

// IssuePair generates a new access and refresh token for a user
func (t *TokenIssuer) IssuePair(userID uuid.UUID) (*TokenPair, error) {
	access, err := signToken(userID, t.cfg.AccessSecret, t.cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}

	refresh, err := signToken(userID, t.cfg.RefreshSecret, t.cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// VerifyAccess validates an access token and returns the user id
func (t *TokenIssuer) VerifyAccess(token string) (uuid.UUID, error) {
	return verifyToken(token, t.cfg.AccessSecret)
}

// VerifyRefresh validates a refresh token and returns the user id
func (t *TokenIssuer) VerifyRefresh(token string) (uuid.UUID, error) {
	return verifyToken(token, t.cfg.RefreshSecret)
}

func signToken(userID uuid.UUID, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString([]byte(secret))
}

func verifyToken(token, secret string) (uuid.UUID, error) {
	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", tok.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return id, nil
}
