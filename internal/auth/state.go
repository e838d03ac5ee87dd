package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type stateClaims struct {
	Provider string `json:"provider"`
	Nonce    string `json:"nonce"`
	jwt.RegisteredClaims
}

// IssueState signs a short-lived OAuth state value bound to a provider.
func IssueState(secret, provider string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := stateClaims{
		Provider: provider,
		Nonce:    uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyState rejects empty, expired, tampered or cross-provider state values.
func VerifyState(secret, provider, state string) error {
	if state == "" {
		return ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(state, &stateClaims{}, hmacKey(secret))
	if err != nil {
		return ErrInvalidToken
	}
	claims, ok := token.Claims.(*stateClaims)
	if !ok || !token.Valid || claims.Provider != provider {
		return ErrInvalidToken
	}
	return nil
}
