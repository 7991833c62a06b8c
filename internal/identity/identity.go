// Package identity talks to the external identity provider that owns party
// credentials. Accounts in the store mirror provider users one to one by email.
package identity

import (
	"context"
	"errors"
	"fmt"
)

// Error codes returned by the provider that callers map to specific outcomes.
const (
	CodeMismatch    = "CodeMismatchException"
	ExpiredCode     = "ExpiredCodeException"
	InvalidPassword = "InvalidPasswordException"
	UsernameExists  = "UsernameExistsException"
)

// SignUpRequest registers a user under their email address.
type SignUpRequest struct {
	Email      string
	Password   string
	Attributes map[string]string
}

// Provisioner is the subset of the identity provider the service relies on.
type Provisioner interface {
	SignUp(ctx context.Context, req SignUpRequest) error
	ConfirmSignUp(ctx context.Context, email, code string) error
}

// ProviderError is a structured failure reported by the provider.
type ProviderError struct {
	Code    string
	Message string
	Status  int
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCode reports whether err carries a ProviderError with the given code.
func IsCode(err error, code string) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == code
}
