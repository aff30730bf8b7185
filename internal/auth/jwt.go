package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrMissingSecret = errors.New("gateway secret required")
)

// TokenSource mints short-lived bearer tokens that identify the payer to the
// charge gateway.
type TokenSource struct {
	secretKey     []byte
	payer         string
	tokenDuration time.Duration
}

// Claims represents the custom JWT claims sent with a charge request.
type Claims struct {
	Payer string `json:"payer"`
	jwt.RegisteredClaims
}

// NewTokenSource creates a token source for payer signed with secretKey.
// tokenDuration is how long each token remains valid (e.g., 5 minutes).
func NewTokenSource(secretKey, payer string, tokenDuration time.Duration) (*TokenSource, error) {
	if secretKey == "" {
		return nil, ErrMissingSecret
	}
	return &TokenSource{
		secretKey:     []byte(secretKey),
		payer:         payer,
		tokenDuration: tokenDuration,
	}, nil
}

// Token creates a new signed token.
func (s *TokenSource) Token() (string, error) {
	now := time.Now()
	claims := &Claims{
		Payer: s.payer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.payer,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate parses and validates a token, returning the claims if valid.
// Gateways sharing the secret use it to authenticate charge requests.
func (s *TokenSource) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			// Verify the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secretKey, nil
		},
	)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
