package server

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrMissingSubject is returned for tokens without a usable user_id claim
var ErrMissingSubject = errors.New("token has no user_id claim")

// Authenticator verifies HS256 tokens issued by the gateway. Tokens carry the
// user UUID in the user_id claim.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates a new authenticator
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Verify checks the token signature and expiry and returns its user.
func (a *Authenticator) Verify(tokenString string) (uuid.UUID, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse token: %w", err)
	}

	raw, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, ErrMissingSubject
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrMissingSubject, err)
	}
	return userID, nil
}
