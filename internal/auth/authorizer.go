// Package auth authenticates API callers from their bearer token.
package auth

import (
	"context"
	"errors"
)

// Principal is the authenticated caller.
type Principal struct {
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	// Method records which authorizer accepted the token ("jwt" or "dev").
	Method string `json:"method"`
}

// Authorizer resolves a bearer token to a Principal.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*Principal, error)
}

// Chain tries each authorizer in turn and returns the first success.
type Chain []Authorizer

func (c Chain) Authorize(ctx context.Context, token string) (*Principal, error) {
	err := ErrInvalidToken
	for _, a := range c {
		p, aerr := a.Authorize(ctx, token)
		if aerr == nil {
			return p, nil
		}
		if !errors.Is(aerr, ErrInvalidToken) {
			err = aerr
		}
	}
	return nil, err
}

// New returns the JWT authorizer, preceded by the local dev key when devAuth is set.
func New(secret string, devAuth bool) Authorizer {
	jwtAuth := NewJWTAuthorizer(secret)
	if devAuth {
		return Chain{NewMockAuthorizer(), jwtAuth}
	}
	return jwtAuth
}
