// Package storetest is a compliance suite shared by every store.Store driver.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store"
)

// Run exercises the suite against a store.Store implementation.
// makeStore must return a clean, isolated store on every call.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("Regions", func(t *testing.T) { testRegions(t, makeStore(t)) })
	t.Run("Accounts", func(t *testing.T) { testAccounts(t, makeStore(t)) })
	t.Run("PendingIdentity", func(t *testing.T) { testPendingIdentity(t, makeStore(t)) })
	t.Run("Orders", func(t *testing.T) { testOrders(t, makeStore(t)) })
	t.Run("OrderScan", func(t *testing.T) { testOrderScan(t, makeStore(t)) })
	t.Run("Notifications", func(t *testing.T) { testNotifications(t, makeStore(t)) })
}

func testRegions(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.Regions().Get(ctx, model.RegionJurisdiction, "CA")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotFound), "want ErrNotFound, got %v", err)

	_, err = s.Regions().Put(ctx, &model.Region{Code: "CA", Kind: model.RegionJurisdiction, IsActive: true, NopPeriod: 10, OpPeriod: 20})
	require.NoError(t, err)
	_, err = s.Regions().Put(ctx, &model.Region{Code: "CA", Kind: model.RegionCourt, IsActive: false, NopPeriod: 3, OpPeriod: 4})
	require.NoError(t, err)

	got, err := s.Regions().Get(ctx, model.RegionJurisdiction, "CA")
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Equal(t, 10, got.NopPeriod)
	assert.Equal(t, 20, got.OpPeriod)

	court, err := s.Regions().Get(ctx, model.RegionCourt, "CA")
	require.NoError(t, err)
	assert.False(t, court.IsActive)
	assert.Equal(t, 3, court.NopPeriod)

	// Put replaces an existing record.
	_, err = s.Regions().Put(ctx, &model.Region{Code: "CA", Kind: model.RegionJurisdiction, IsActive: false, NopPeriod: 11, OpPeriod: 21})
	require.NoError(t, err)
	got, err = s.Regions().Get(ctx, model.RegionJurisdiction, "CA")
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, 11, got.NopPeriod)

	// Codes are matched exactly.
	_, err = s.Regions().Get(ctx, model.RegionJurisdiction, "ca")
	assert.True(t, errors.Is(err, model.ErrNotFound), "want ErrNotFound, got %v", err)

	_, err = s.Regions().Put(ctx, &model.Region{Code: "AZ", Kind: model.RegionJurisdiction, IsActive: true})
	require.NoError(t, err)
	lst, err := s.Regions().List(ctx, model.RegionJurisdiction)
	require.NoError(t, err)
	require.Len(t, lst, 2)
	assert.Equal(t, "AZ", lst[0].Code)
	assert.Equal(t, "CA", lst[1].Code)
}

func newAccount(email string) *model.Account {
	return &model.Account{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordHash:   "hash",
		Tier:           model.TierFree,
		IdentityStatus: model.IdentityPending,
	}
}

func testAccounts(t *testing.T, s store.Store) {
	ctx := context.Background()
	email := "d-" + uuid.NewString() + "@example.test"

	_, err := s.Accounts().GetByEmail(ctx, email)
	assert.True(t, errors.Is(err, model.ErrNotFound), "want ErrNotFound, got %v", err)

	first, created, err := s.Accounts().CreateIfAbsent(ctx, newAccount(email))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, email, first.Email)
	assert.Equal(t, model.IdentityPending, first.IdentityStatus)
	assert.False(t, first.CreatedAt.IsZero())

	second, created, err := s.Accounts().CreateIfAbsent(ctx, newAccount(email))
	require.NoError(t, err)
	assert.False(t, created, "second insert for the same email must not create")
	assert.Equal(t, first.ID, second.ID)

	got, err := s.Accounts().GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Equal(t, model.TierFree, got.Tier)
	assert.False(t, got.EmailVerified)

	// Emails are case-sensitive keys.
	_, err = s.Accounts().GetByEmail(ctx, "D-"+email[2:])
	assert.True(t, errors.Is(err, model.ErrNotFound), "want ErrNotFound, got %v", err)

	require.NoError(t, s.Accounts().SetEmailVerified(ctx, email, true))
	require.NoError(t, s.Accounts().MarkProvisioned(ctx, email))
	got, err = s.Accounts().GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)
	assert.Equal(t, model.IdentityProvisioned, got.IdentityStatus)

	err = s.Accounts().MarkProvisioned(ctx, "missing-"+email)
	assert.True(t, errors.Is(err, model.ErrNotFound), "want ErrNotFound, got %v", err)
}

func testPendingIdentity(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.Now().UTC()

	due := "due-" + uuid.NewString() + "@example.test"
	later := "later-" + uuid.NewString() + "@example.test"
	done := "done-" + uuid.NewString() + "@example.test"
	for _, e := range []string{due, later, done} {
		_, _, err := s.Accounts().CreateIfAbsent(ctx, newAccount(e))
		require.NoError(t, err)
	}
	require.NoError(t, s.Accounts().MarkProvisioned(ctx, done))
	require.NoError(t, s.Accounts().MarkIdentityFailed(ctx, later, now.Add(time.Hour)))

	lst, err := s.Accounts().ListPendingIdentity(ctx, now.Add(time.Second), 10)
	require.NoError(t, err)
	require.Len(t, lst, 1)
	assert.Equal(t, due, lst[0].Email)

	got, err := s.Accounts().GetByEmail(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, 1, got.IdentityAttempts)
	assert.WithinDuration(t, now.Add(time.Hour), got.NextIdentityAttemptAt, time.Second)

	lst, err = s.Accounts().ListPendingIdentity(ctx, now.Add(2*time.Hour), 10)
	require.NoError(t, err)
	assert.Len(t, lst, 2)

	lst, err = s.Accounts().ListPendingIdentity(ctx, now.Add(2*time.Hour), 1)
	require.NoError(t, err)
	assert.Len(t, lst, 1)

	require.NoError(t, s.Accounts().MarkIdentityRejected(ctx, due))
	got, err = s.Accounts().GetByEmail(ctx, due)
	require.NoError(t, err)
	assert.Equal(t, model.IdentityRejected, got.IdentityStatus)
	assert.Equal(t, 1, got.IdentityAttempts)

	lst, err = s.Accounts().ListPendingIdentity(ctx, now.Add(2*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, lst, 1, "rejected accounts are not retried")
	assert.Equal(t, later, lst[0].Email)

	err = s.Accounts().MarkIdentityRejected(ctx, "missing-"+due)
	assert.True(t, errors.Is(err, model.ErrNotFound), "want ErrNotFound, got %v", err)
}

func testOrders(t *testing.T, s store.Store) {
	ctx := context.Background()
	started := time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC)

	in := &model.Order{
		Number:     uuid.NewString(),
		Region:     "CA",
		RegionKind: model.RegionJurisdiction,
		Plaintiffs: []string{"p@example.test"},
		Defendants: []string{"d1@example.test", "d2@example.test"},
		Notify:     true,
		Requester:  "p@example.test",
		StartedAt:  started,
		NopEndAt:   started.AddDate(0, 0, 10),
		OpEndAt:    started.AddDate(0, 0, 20),
		UpdatedAt:  started,
		Payload:    map[string]any{"caseName": "Doe v. Roe", "firstName": "Pat"},
	}
	_, err := s.Orders().Create(ctx, in)
	require.NoError(t, err)

	got, err := s.Orders().Get(ctx, in.Number)
	require.NoError(t, err)
	assert.Equal(t, "CA", got.Region)
	assert.Equal(t, model.RegionJurisdiction, got.RegionKind)
	assert.Equal(t, in.Plaintiffs, got.Plaintiffs)
	assert.Equal(t, in.Defendants, got.Defendants)
	assert.True(t, got.Notify)
	assert.Equal(t, "p@example.test", got.Requester)
	assert.True(t, got.StartedAt.Equal(started), "startedAt %s", got.StartedAt)
	assert.True(t, got.NopEndAt.Equal(in.NopEndAt), "nopEndAt %s", got.NopEndAt)
	assert.True(t, got.OpEndAt.Equal(in.OpEndAt), "opEndAt %s", got.OpEndAt)
	assert.Equal(t, "Doe v. Roe", got.Payload["caseName"])

	_, err = s.Orders().Get(ctx, uuid.NewString())
	assert.True(t, errors.Is(err, model.ErrNotFound), "want ErrNotFound, got %v", err)

	_, err = s.Orders().Create(ctx, in)
	assert.Error(t, err, "order numbers are unique")
}

func testOrderScan(t *testing.T, s store.Store) {
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		_, err := s.Orders().Create(ctx, &model.Order{
			Number:     fmt.Sprintf("order-%02d", i),
			Region:     "NY",
			RegionKind: model.RegionJurisdiction,
			Plaintiffs: []string{},
			Defendants: []string{},
			StartedAt:  time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	n, err := s.Orders().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	page, next, err := s.Orders().Scan(ctx, 5, "")
	require.NoError(t, err)
	require.Len(t, page, 5)
	assert.Equal(t, "order-00", page[0].Number)
	assert.Equal(t, "order-04", next)

	page, next, err = s.Orders().Scan(ctx, 5, next)
	require.NoError(t, err)
	require.Len(t, page, 5)
	assert.Equal(t, "order-05", page[0].Number)
	assert.Equal(t, "order-09", next)

	page, next, err = s.Orders().Scan(ctx, 5, next)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "order-11", page[1].Number)
	assert.Empty(t, next, "no cursor once the data is exhausted")

	page, next, err = s.Orders().Scan(ctx, 12, "")
	require.NoError(t, err)
	assert.Len(t, page, 12)
	assert.Empty(t, next)

	// a non-positive limit reads everything after the cursor
	page, next, err = s.Orders().Scan(ctx, 0, "order-09")
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "order-10", page[0].Number)
	assert.Empty(t, next)
}

func testNotifications(t *testing.T, s store.Store) {
	ctx := context.Background()
	email := "n-" + uuid.NewString() + "@example.test"
	base := time.Now().UTC().Add(-time.Minute)

	for i, title := range []string{"first", "second"} {
		_, err := s.Notifications().Create(ctx, &model.Notification{
			Email:     email,
			Title:     title,
			Content:   "content " + title,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}
	_, err := s.Notifications().Create(ctx, &model.Notification{Email: "other@example.test", Title: "x", Content: "y"})
	require.NoError(t, err)

	lst, err := s.Notifications().ListByEmail(ctx, email)
	require.NoError(t, err)
	require.Len(t, lst, 2)
	assert.Equal(t, "second", lst[0].Title)
	assert.Equal(t, "first", lst[1].Title)
	assert.False(t, lst[0].IsRead)
	assert.NotEmpty(t, lst[0].ID)
}
