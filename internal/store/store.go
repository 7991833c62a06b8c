package store

import (
	"context"
	"time"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (memory, sqlite, postgres).
// Lookups of absent records return an error wrapping model.ErrNotFound.
type Store interface {
	Regions() Regions
	Accounts() Accounts
	Orders() Orders
	Notifications() Notifications
}

type Regions interface {
	Get(ctx context.Context, kind model.RegionKind, code string) (*model.Region, error)
	// Put inserts or replaces the record for (kind, code).
	Put(ctx context.Context, r *model.Region) (*model.Region, error)
	List(ctx context.Context, kind model.RegionKind) ([]*model.Region, error)
}

type Accounts interface {
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	// CreateIfAbsent inserts a when no account holds its email. It returns the
	// stored account and whether this call created it.
	CreateIfAbsent(ctx context.Context, a *model.Account) (*model.Account, bool, error)
	MarkProvisioned(ctx context.Context, email string) error
	// MarkIdentityFailed bumps the attempt counter and defers the next attempt.
	MarkIdentityFailed(ctx context.Context, email string, next time.Time) error
	// MarkIdentityRejected parks an account the provider refuses permanently;
	// it is no longer listed as pending.
	MarkIdentityRejected(ctx context.Context, email string) error
	// ListPendingIdentity returns pending accounts due at or before now, oldest first.
	ListPendingIdentity(ctx context.Context, now time.Time, limit int) ([]*model.Account, error)
	SetEmailVerified(ctx context.Context, email string, verified bool) error
}

// Orders lists in ascending order number; Scan cursors are order numbers.
type Orders interface {
	Create(ctx context.Context, o *model.Order) (*model.Order, error)
	Get(ctx context.Context, number string) (*model.Order, error)
	Scan(ctx context.Context, limit int, after string) ([]*model.Order, string, error)
	Count(ctx context.Context) (int, error)
}

type Notifications interface {
	Create(ctx context.Context, n *model.Notification) (*model.Notification, error)
	// ListByEmail returns records for email, newest first.
	ListByEmail(ctx context.Context, email string) ([]*model.Notification, error)
}
