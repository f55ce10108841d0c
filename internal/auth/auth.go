package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// verifies tokens signed by the identity provider
// either with a shared HMAC secret or with its PEM public key
type JWTVerifier struct {
	secret    []byte
	publicKey any
	methods   []string
}

// creates a verifier for HS256 tokens
func NewHMACVerifier(secret string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret not set")
	}

	return &JWTVerifier{
		secret:  []byte(secret),
		methods: []string{jwt.SigningMethodHS256.Alg()},
	}, nil
}

// creates a verifier from a PEM encoded RSA or ECDSA public key
func NewPublicKeyVerifier(pemKey string) (*JWTVerifier, error) {
	if rsaKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemKey)); err == nil {
		return &JWTVerifier{
			publicKey: rsaKey,
			methods:   []string{"RS256", "RS384", "RS512"},
		}, nil
	}

	ecKey, err := jwt.ParseECPublicKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT public key: %w", err)
	}

	return &JWTVerifier{
		publicKey: ecKey,
		methods:   []string{"ES256", "ES384", "ES512"},
	}, nil
}

// validates a token and returns the identity in its claims
func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (*Identity, error) {
	claims, err := v.ValidateJWT(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.Subject == "" {
		return nil, ErrNoSubject
	}

	return &Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// validates a JWT token and returns the claims
func (v *JWTVerifier) ValidateJWT(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.keyFunc, jwt.WithValidMethods(v.methods))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

func (v *JWTVerifier) keyFunc(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if v.secret != nil {
			return v.secret, nil
		}
	case *jwt.SigningMethodRSA:
		if key, ok := v.publicKey.(*rsa.PublicKey); ok {
			return key, nil
		}
	case *jwt.SigningMethodECDSA:
		if key, ok := v.publicKey.(*ecdsa.PublicKey); ok {
			return key, nil
		}
	}

	return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
}

// creates an HS256 token for a user; used by dev tooling and tests
func GenerateJWT(secret, userID, email string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("JWT secret not set")
	}

	now := time.Now()

	claims := Claims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
