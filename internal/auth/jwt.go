package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the access-token claims this service reads.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTAuthorizer verifies HS256 access tokens signed with a shared secret.
type JWTAuthorizer struct {
	signingKey []byte
}

func NewJWTAuthorizer(secret string) *JWTAuthorizer {
	return &JWTAuthorizer{signingKey: []byte(secret)}
}

func (a *JWTAuthorizer) Authorize(_ context.Context, token string) (*Principal, error) {
	if len(a.signingKey) == 0 {
		return nil, fmt.Errorf("no signing secret configured: %w", ErrInvalidToken)
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return a.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidToken)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Email == "" {
		return nil, ErrMissingEmail
	}
	return &Principal{Email: claims.Email, Subject: claims.Subject, Method: "jwt"}, nil
}

// Issue signs a token for email valid for ttl. Used by orderctl and tests.
func (a *JWTAuthorizer) Issue(email string, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	})
	return tok.SignedString(a.signingKey)
}
