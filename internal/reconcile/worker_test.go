package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/identity"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store/memory"
)

type scriptedIDP struct {
	mu    sync.Mutex
	calls []string
	errs  map[string]error
}

func (p *scriptedIDP) SignUp(_ context.Context, req identity.SignUpRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, req.Email)
	return p.errs[req.Email]
}

func (p *scriptedIDP) ConfirmSignUp(context.Context, string, string) error { return nil }

func pending(t *testing.T, s store.Store, email string, due time.Time) {
	t.Helper()
	_, created, err := s.Accounts().CreateIfAbsent(context.Background(), &model.Account{
		Email:                 email,
		IdentityStatus:        model.IdentityPending,
		NextIdentityAttemptAt: due,
	})
	require.NoError(t, err)
	require.True(t, created)
}

func TestProcessOnce(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	s := memory.New()
	pending(t, s, "ok@example.test", now.Add(-time.Minute))
	pending(t, s, "exists@example.test", now.Add(-time.Minute))
	pending(t, s, "down@example.test", now.Add(-time.Minute))
	pending(t, s, "later@example.test", now.Add(time.Hour))

	idp := &scriptedIDP{errs: map[string]error{
		"exists@example.test": &identity.ProviderError{Code: identity.UsernameExists},
		"down@example.test":   errors.New("connection refused"),
	}}
	w := NewWorker(s, idp, Config{BatchSize: 10, CallTimeout: time.Second, DefaultPassword: "pw"}, zerolog.Nop())
	w.now = func() time.Time { return now }

	n, err := w.processOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NotContains(t, idp.calls, "later@example.test", "accounts not yet due are skipped")

	get := func(email string) *model.Account {
		acc, err := s.Accounts().GetByEmail(context.Background(), email)
		require.NoError(t, err)
		return acc
	}
	assert.Equal(t, model.IdentityProvisioned, get("ok@example.test").IdentityStatus)
	assert.Equal(t, model.IdentityProvisioned, get("exists@example.test").IdentityStatus)

	down := get("down@example.test")
	assert.Equal(t, model.IdentityPending, down.IdentityStatus)
	assert.Equal(t, 1, down.IdentityAttempts)
	assert.True(t, down.NextIdentityAttemptAt.Equal(now.Add(identity.RetryDelay(0))))

	// the failed account is not retried until its backoff elapses
	idp.calls = nil
	_, err = w.processOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, idp.calls)

	w.now = func() time.Time { return now.Add(identity.RetryDelay(0)) }
	_, err = w.processOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"down@example.test"}, idp.calls)
	assert.Equal(t, 2, get("down@example.test").IdentityAttempts)
}

func TestProcessOnce_ParksRejectedSignUps(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	s := memory.New()
	pending(t, s, "weak@example.test", now.Add(-time.Minute))
	idp := &scriptedIDP{errs: map[string]error{
		"weak@example.test": &identity.ProviderError{Code: identity.InvalidPassword},
	}}
	w := NewWorker(s, idp, Config{BatchSize: 10, CallTimeout: time.Second}, zerolog.Nop())
	w.now = func() time.Time { return now }

	n, err := w.processOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	acc, err := s.Accounts().GetByEmail(context.Background(), "weak@example.test")
	require.NoError(t, err)
	assert.Equal(t, model.IdentityRejected, acc.IdentityStatus)

	// later cycles leave the parked account alone
	w.now = func() time.Time { return now.Add(24 * time.Hour) }
	idp.calls = nil
	_, err = w.processOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, idp.calls)
}

func TestProcessOnce_RespectsBatchSize(t *testing.T) {
	now := time.Now().UTC()
	s := memory.New()
	for _, e := range []string{"a@example.test", "b@example.test", "c@example.test"} {
		pending(t, s, e, now.Add(-time.Minute))
	}
	idp := &scriptedIDP{}
	w := NewWorker(s, idp, Config{BatchSize: 2, CallTimeout: time.Second}, zerolog.Nop())

	n, err := w.processOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, idp.calls, 2)
}

func TestRun_StopsOnCancel(t *testing.T) {
	w := NewWorker(memory.New(), &scriptedIDP{}, Config{Interval: 10 * time.Millisecond}, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
