package identity

import (
	"context"

	"github.com/rs/zerolog"
)

// NoopProvisioner accepts every call. Local builds use it in place of a real
// user pool, so any confirmation code verifies.
type NoopProvisioner struct {
	log zerolog.Logger
}

func NewNoopProvisioner(log zerolog.Logger) *NoopProvisioner {
	return &NoopProvisioner{log: log}
}

func (p *NoopProvisioner) SignUp(_ context.Context, req SignUpRequest) error {
	p.log.Info().Str("email", req.Email).Msg("identity sign-up skipped (noop provider)")
	return nil
}

func (p *NoopProvisioner) ConfirmSignUp(_ context.Context, email, _ string) error {
	p.log.Info().Str("email", email).Msg("identity confirmation skipped (noop provider)")
	return nil
}
