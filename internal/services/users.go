package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/identity"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store"
)

const (
	MsgCodeInvalid   = "Verification code is invalid."
	MsgCodeExpired   = "Verification code has expired."
	MsgEmailVerified = "Email has been verified."
)

// VerifyResult is the answer to an email confirmation attempt. Verified is
// false for the known soft failures (bad or expired code, unknown account).
type VerifyResult struct {
	Verified bool
	Message  string
}

// UserService confirms party email addresses against the identity provider.
type UserService struct {
	store    store.Store
	identity identity.Provisioner
	timeout  time.Duration
	log      zerolog.Logger
}

func NewUserService(s store.Store, idp identity.Provisioner, timeout time.Duration, log zerolog.Logger) *UserService {
	return &UserService{store: s, identity: idp, timeout: timeout, log: log}
}

func (s *UserService) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// VerifyEmail confirms code with the provider and marks the account verified.
func (s *UserService) VerifyEmail(ctx context.Context, email, code string) (VerifyResult, error) {
	cctx, cancel := s.bounded(ctx)
	_, err := s.store.Accounts().GetByEmail(cctx, email)
	cancel()
	if errors.Is(err, model.ErrNotFound) {
		return VerifyResult{Message: fmt.Sprintf("Account for %s does not exist.", email)}, nil
	}
	if err != nil {
		return VerifyResult{}, model.StoreErr("get-account", err)
	}

	cctx, cancel = s.bounded(ctx)
	err = s.identity.ConfirmSignUp(cctx, email, code)
	cancel()
	switch {
	case identity.IsCode(err, identity.CodeMismatch):
		return VerifyResult{Message: MsgCodeInvalid}, nil
	case identity.IsCode(err, identity.ExpiredCode):
		return VerifyResult{Message: MsgCodeExpired}, nil
	case err != nil:
		return VerifyResult{}, model.IdentityErr("confirm-sign-up", err)
	}

	cctx, cancel = s.bounded(ctx)
	defer cancel()
	if err := s.store.Accounts().SetEmailVerified(cctx, email, true); err != nil {
		return VerifyResult{}, model.StoreErr("set-email-verified", err)
	}
	s.log.Info().Str("email", email).Msg("email verified")
	return VerifyResult{Verified: true, Message: MsgEmailVerified}, nil
}

// EmailStatus reports whether email has been verified. Unknown accounts wrap
// model.ErrNotFound.
func (s *UserService) EmailStatus(ctx context.Context, email string) (bool, error) {
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	acc, err := s.store.Accounts().GetByEmail(cctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return false, err
	}
	if err != nil {
		return false, model.StoreErr("get-account", err)
	}
	return acc.EmailVerified, nil
}

// DisplayName returns the stored name for email, or "" when the account is
// unknown or the lookup fails.
func (s *UserService) DisplayName(ctx context.Context, email string) string {
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	acc, err := s.store.Accounts().GetByEmail(cctx, email)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			s.log.Warn().Err(err).Str("email", email).Msg("requester lookup failed")
		}
		return ""
	}
	return acc.DisplayName()
}
