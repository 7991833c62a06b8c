package auth

import (
	"context"
)

const (
	// LocalDevAPIKey is the hardcoded bearer token accepted in dev mode only.
	LocalDevAPIKey = "sk_local_dwq_dev_key"
	// LocalDevEmail is the requester the dev key resolves to.
	LocalDevEmail = "dev@dwq.local"
)

// MockAuthorizer recognises only LocalDevAPIKey.
type MockAuthorizer struct{}

func NewMockAuthorizer() *MockAuthorizer {
	return &MockAuthorizer{}
}

func (m *MockAuthorizer) Authorize(_ context.Context, token string) (*Principal, error) {
	if token != LocalDevAPIKey {
		return nil, ErrInvalidToken
	}
	return &Principal{Email: LocalDevEmail, Subject: "local-dev", Method: "dev"}, nil
}
