// Package memory is an in-process store.Store used by tests and throwaway
// local runs. Records are copied on the way in and out.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store"
)

type regionKey struct {
	kind model.RegionKind
	code string
}

type memStore struct {
	mu            sync.RWMutex
	regions       map[regionKey]model.Region
	accounts      map[string]model.Account
	orders        map[string]model.Order
	notifications []model.Notification
	now           func() time.Time
}

// New returns an empty store.
func New() store.Store {
	return &memStore{
		regions:  make(map[regionKey]model.Region),
		accounts: make(map[string]model.Account),
		orders:   make(map[string]model.Order),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *memStore) Regions() store.Regions             { return regions{s} }
func (s *memStore) Accounts() store.Accounts           { return accounts{s} }
func (s *memStore) Orders() store.Orders               { return orders{s} }
func (s *memStore) Notifications() store.Notifications { return notifications{s} }

// Ping always succeeds; memory is always reachable.
func (s *memStore) Ping(context.Context) error { return nil }

func notFound(what, key string) error {
	return fmt.Errorf("%s %q: %w", what, key, model.ErrNotFound)
}

// --- Regions ---
type regions struct{ s *memStore }

func (r regions) Get(_ context.Context, kind model.RegionKind, code string) (*model.Region, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.regions[regionKey{kind, code}]
	if !ok {
		return nil, notFound(string(kind), code)
	}
	return &v, nil
}

func (r regions) Put(_ context.Context, in *model.Region) (*model.Region, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v := *in
	k := regionKey{v.Kind, v.Code}
	if prev, ok := r.s.regions[k]; ok {
		v.CreatedAt = prev.CreatedAt
	} else {
		v.CreatedAt = r.s.now()
	}
	r.s.regions[k] = v
	return &v, nil
}

func (r regions) List(_ context.Context, kind model.RegionKind) ([]*model.Region, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Region
	for k, v := range r.s.regions {
		if k.kind == kind {
			v := v
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// --- Accounts ---
type accounts struct{ s *memStore }

func (a accounts) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	v, ok := a.s.accounts[email]
	if !ok {
		return nil, notFound("account", email)
	}
	return &v, nil
}

func (a accounts) CreateIfAbsent(_ context.Context, in *model.Account) (*model.Account, bool, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if v, ok := a.s.accounts[in.Email]; ok {
		return &v, false, nil
	}
	v := *in
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.IdentityStatus == "" {
		v.IdentityStatus = model.IdentityPending
	}
	v.CreatedAt = a.s.now()
	if v.NextIdentityAttemptAt.IsZero() {
		v.NextIdentityAttemptAt = v.CreatedAt
	}
	a.s.accounts[v.Email] = v
	return &v, true, nil
}

func (a accounts) update(email string, fn func(*model.Account)) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	v, ok := a.s.accounts[email]
	if !ok {
		return notFound("account", email)
	}
	fn(&v)
	a.s.accounts[email] = v
	return nil
}

func (a accounts) MarkProvisioned(_ context.Context, email string) error {
	return a.update(email, func(v *model.Account) { v.IdentityStatus = model.IdentityProvisioned })
}

func (a accounts) MarkIdentityFailed(_ context.Context, email string, next time.Time) error {
	return a.update(email, func(v *model.Account) {
		v.IdentityAttempts++
		v.NextIdentityAttemptAt = next.UTC()
	})
}

func (a accounts) MarkIdentityRejected(_ context.Context, email string) error {
	return a.update(email, func(v *model.Account) {
		v.IdentityStatus = model.IdentityRejected
		v.IdentityAttempts++
	})
}

func (a accounts) SetEmailVerified(_ context.Context, email string, verified bool) error {
	return a.update(email, func(v *model.Account) { v.EmailVerified = verified })
}

func (a accounts) ListPendingIdentity(_ context.Context, now time.Time, limit int) ([]*model.Account, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	var out []*model.Account
	for _, v := range a.s.accounts {
		if v.IdentityStatus == model.IdentityPending && !v.NextIdentityAttemptAt.After(now) {
			v := v
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NextIdentityAttemptAt.Equal(out[j].NextIdentityAttemptAt) {
			return out[i].Email < out[j].Email
		}
		return out[i].NextIdentityAttemptAt.Before(out[j].NextIdentityAttemptAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Orders ---
type orders struct{ s *memStore }

func (o orders) Create(_ context.Context, in *model.Order) (*model.Order, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	v := cloneOrder(*in)
	if v.Number == "" {
		v.Number = uuid.NewString()
	}
	if _, ok := o.s.orders[v.Number]; ok {
		return nil, fmt.Errorf("order %q: %w", v.Number, model.ErrConflict)
	}
	o.s.orders[v.Number] = v
	out := cloneOrder(v)
	return &out, nil
}

func (o orders) Get(_ context.Context, number string) (*model.Order, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	v, ok := o.s.orders[number]
	if !ok {
		return nil, notFound("order", number)
	}
	out := cloneOrder(v)
	return &out, nil
}

func (o orders) Scan(_ context.Context, limit int, after string) ([]*model.Order, string, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	keys := make([]string, 0, len(o.s.orders))
	for k := range o.s.orders {
		if k > after {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	next := ""
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
		next = keys[limit-1]
	}
	out := make([]*model.Order, 0, len(keys))
	for _, k := range keys {
		v := cloneOrder(o.s.orders[k])
		out = append(out, &v)
	}
	return out, next, nil
}

func (o orders) Count(context.Context) (int, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	return len(o.s.orders), nil
}

func cloneOrder(v model.Order) model.Order {
	v.Plaintiffs = append([]string(nil), v.Plaintiffs...)
	v.Defendants = append([]string(nil), v.Defendants...)
	if v.Payload != nil {
		p := make(map[string]any, len(v.Payload))
		for k, val := range v.Payload {
			p[k] = val
		}
		v.Payload = p
	}
	return v
}

// --- Notifications ---
type notifications struct{ s *memStore }

func (n notifications) Create(_ context.Context, in *model.Notification) (*model.Notification, error) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	v := *in
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = n.s.now()
	}
	n.s.notifications = append(n.s.notifications, v)
	return &v, nil
}

func (n notifications) ListByEmail(_ context.Context, email string) ([]*model.Notification, error) {
	n.s.mu.RLock()
	defer n.s.mu.RUnlock()
	var out []*model.Notification
	for i := len(n.s.notifications) - 1; i >= 0; i-- {
		if v := n.s.notifications[i]; v.Email == email {
			out = append(out, &v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
