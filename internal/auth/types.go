package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrNoSubject    = errors.New("token has no subject")
)

// verified caller
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// checks a bearer token and yields the caller's identity
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// represents JWT claims; the subject is the user id
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
