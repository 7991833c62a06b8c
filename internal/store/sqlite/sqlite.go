// Package sqlite is the store.Store driver for local builds (modernc.org/sqlite, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store"
)

// New opens the database at path, creates the schema and returns the store.
func New(ctx context.Context, path string) (store.Store, *sql.DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return NewWithDB(db), db, nil
}

// NewWithDB wraps an existing connection whose schema is already in place.
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Regions() store.Regions             { return &regions{db: s.db} }
func (s *sqliteStore) Accounts() store.Accounts           { return &accounts{db: s.db} }
func (s *sqliteStore) Orders() store.Orders               { return &orders{db: s.db} }
func (s *sqliteStore) Notifications() store.Notifications { return &notifications{db: s.db} }

func (s *sqliteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func ms(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMS(v int64) time.Time { return time.UnixMilli(v).UTC() }

func now() time.Time { return time.Now().UTC() }

func notFound(err error, what, key string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %q: %w", what, key, model.ErrNotFound)
	}
	return err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- Regions ---
type regions struct{ db *sql.DB }

func (r *regions) Get(ctx context.Context, kind model.RegionKind, code string) (*model.Region, error) {
	out := model.Region{Kind: kind, Code: code}
	var created int64
	row := r.db.QueryRowContext(ctx, `
        SELECT is_active, nop_period, op_period, created_at
        FROM regions WHERE kind = ? AND code = ?`, string(kind), code)
	if err := row.Scan(&out.IsActive, &out.NopPeriod, &out.OpPeriod, &created); err != nil {
		return nil, notFound(err, string(kind), code)
	}
	out.CreatedAt = fromMS(created)
	return &out, nil
}

func (r *regions) Put(ctx context.Context, in *model.Region) (*model.Region, error) {
	created := now()
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO regions (kind, code, is_active, nop_period, op_period, created_at)
        VALUES (?,?,?,?,?,?)
        ON CONFLICT(kind, code) DO UPDATE SET
            is_active = excluded.is_active,
            nop_period = excluded.nop_period,
            op_period = excluded.op_period`,
		string(in.Kind), in.Code, in.IsActive, in.NopPeriod, in.OpPeriod, ms(created))
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, in.Kind, in.Code)
}

func (r *regions) List(ctx context.Context, kind model.RegionKind) ([]*model.Region, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT code, is_active, nop_period, op_period, created_at
        FROM regions WHERE kind = ? ORDER BY code ASC`, string(kind))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Region
	for rows.Next() {
		v := model.Region{Kind: kind}
		var created int64
		if err := rows.Scan(&v.Code, &v.IsActive, &v.NopPeriod, &v.OpPeriod, &created); err != nil {
			return nil, err
		}
		v.CreatedAt = fromMS(created)
		res = append(res, &v)
	}
	return res, rows.Err()
}

// --- Accounts ---
type accounts struct{ db *sql.DB }

const accountColumns = `id, email, password_hash, first_name, last_name, email_verified, tier,
        created_at, identity_status, identity_attempts, next_identity_attempt_at`

func scanAccount(sc interface{ Scan(...any) error }) (*model.Account, error) {
	var a model.Account
	var status string
	var created, next int64
	if err := sc.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.EmailVerified,
		&a.Tier, &created, &status, &a.IdentityAttempts, &next); err != nil {
		return nil, err
	}
	a.IdentityStatus = model.IdentityStatus(status)
	a.CreatedAt = fromMS(created)
	a.NextIdentityAttemptAt = fromMS(next)
	return &a, nil
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := a.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	out, err := scanAccount(row)
	if err != nil {
		return nil, notFound(err, "account", email)
	}
	return out, nil
}

func (a *accounts) CreateIfAbsent(ctx context.Context, in *model.Account) (*model.Account, bool, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	status := in.IdentityStatus
	if status == "" {
		status = model.IdentityPending
	}
	created := now()
	next := in.NextIdentityAttemptAt
	if next.IsZero() {
		next = created
	}
	res, err := a.db.ExecContext(ctx, `
        INSERT INTO accounts (`+accountColumns+`)
        VALUES (?,?,?,?,?,?,?,?,?,?,?)
        ON CONFLICT(email) DO NOTHING`,
		id, in.Email, in.PasswordHash, in.FirstName, in.LastName, in.EmailVerified, in.Tier,
		ms(created), string(status), in.IdentityAttempts, ms(next))
	if err != nil {
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	out, err := a.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, false, err
	}
	return out, n == 1, nil
}

func (a *accounts) exec(ctx context.Context, email, query string, args ...any) error {
	res, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("account %q: %w", email, model.ErrNotFound)
	}
	return nil
}

func (a *accounts) MarkProvisioned(ctx context.Context, email string) error {
	return a.exec(ctx, email, `UPDATE accounts SET identity_status = ? WHERE email = ?`,
		string(model.IdentityProvisioned), email)
}

func (a *accounts) MarkIdentityFailed(ctx context.Context, email string, next time.Time) error {
	return a.exec(ctx, email, `
        UPDATE accounts
        SET identity_attempts = identity_attempts + 1, next_identity_attempt_at = ?
        WHERE email = ?`, ms(next), email)
}

func (a *accounts) MarkIdentityRejected(ctx context.Context, email string) error {
	return a.exec(ctx, email, `
        UPDATE accounts
        SET identity_status = ?, identity_attempts = identity_attempts + 1
        WHERE email = ?`, string(model.IdentityRejected), email)
}

func (a *accounts) SetEmailVerified(ctx context.Context, email string, verified bool) error {
	return a.exec(ctx, email, `UPDATE accounts SET email_verified = ? WHERE email = ?`, verified, email)
}

func (a *accounts) ListPendingIdentity(ctx context.Context, at time.Time, limit int) ([]*model.Account, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := a.db.QueryContext(ctx, `
        SELECT `+accountColumns+` FROM accounts
        WHERE identity_status = ? AND next_identity_attempt_at <= ?
        ORDER BY next_identity_attempt_at ASC, email ASC
        LIMIT ?`, string(model.IdentityPending), ms(at), limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, acc)
	}
	return res, rows.Err()
}

// --- Orders ---
type orders struct{ db *sql.DB }

const orderColumns = `number, region, region_kind, plaintiffs, defendants, notify, requester,
        started_at, nop_end_at, op_end_at, updated_at, payload`

func scanOrder(sc interface{ Scan(...any) error }) (*model.Order, error) {
	var o model.Order
	var kind, plaintiffs, defendants, payload string
	var started, nop, op, updated int64
	if err := sc.Scan(&o.Number, &o.Region, &kind, &plaintiffs, &defendants, &o.Notify, &o.Requester,
		&started, &nop, &op, &updated, &payload); err != nil {
		return nil, err
	}
	o.RegionKind = model.RegionKind(kind)
	o.StartedAt, o.NopEndAt, o.OpEndAt, o.UpdatedAt = fromMS(started), fromMS(nop), fromMS(op), fromMS(updated)
	if err := json.Unmarshal([]byte(plaintiffs), &o.Plaintiffs); err != nil {
		return nil, fmt.Errorf("decode plaintiffs: %w", err)
	}
	if err := json.Unmarshal([]byte(defendants), &o.Defendants); err != nil {
		return nil, fmt.Errorf("decode defendants: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &o.Payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &o, nil
}

func (o *orders) Create(ctx context.Context, in *model.Order) (*model.Order, error) {
	out := *in
	if out.Number == "" {
		out.Number = uuid.NewString()
	}
	plaintiffs, err := json.Marshal(nonNil(out.Plaintiffs))
	if err != nil {
		return nil, err
	}
	defendants, err := json.Marshal(nonNil(out.Defendants))
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(out.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	_, err = o.db.ExecContext(ctx, `INSERT INTO orders (`+orderColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		out.Number, out.Region, string(out.RegionKind), string(plaintiffs), string(defendants), out.Notify,
		out.Requester, ms(out.StartedAt), ms(out.NopEndAt), ms(out.OpEndAt), ms(out.UpdatedAt), string(payload))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("order %q: %w", out.Number, model.ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (o *orders) Get(ctx context.Context, number string) (*model.Order, error) {
	row := o.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE number = ?`, number)
	out, err := scanOrder(row)
	if err != nil {
		return nil, notFound(err, "order", number)
	}
	return out, nil
}

// Scan fetches one row past limit to learn whether a cursor is needed.
func (o *orders) Scan(ctx context.Context, limit int, after string) ([]*model.Order, string, error) {
	rows, err := o.db.QueryContext(ctx, `
        SELECT `+orderColumns+` FROM orders
        WHERE number > ? ORDER BY number ASC LIMIT ?`, after, fetchLimit(limit))
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = rows.Close() }()
	res := make([]*model.Order, 0, max(limit, 0))
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, "", err
		}
		res = append(res, ord)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	if limit > 0 && len(res) > limit {
		res = res[:limit]
		return res, res[limit-1].Number, nil
	}
	return res, "", nil
}

// fetchLimit asks for one row past limit to detect a following page.
// SQLite reads a negative LIMIT as no limit.
func fetchLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit + 1
}

func (o *orders) Count(ctx context.Context) (int, error) {
	var n int
	err := o.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n)
	return n, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// --- Notifications ---
type notifications struct{ db *sql.DB }

func (n *notifications) Create(ctx context.Context, in *model.Notification) (*model.Notification, error) {
	out := *in
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now()
	}
	_, err := n.db.ExecContext(ctx, `
        INSERT INTO notifications (id, email, title, content, is_read, created_at)
        VALUES (?,?,?,?,?,?)`, out.ID, out.Email, out.Title, out.Content, out.IsRead, ms(out.CreatedAt))
	if err != nil {
		return nil, err
	}
	out.CreatedAt = fromMS(ms(out.CreatedAt))
	return &out, nil
}

func (n *notifications) ListByEmail(ctx context.Context, email string) ([]*model.Notification, error) {
	rows, err := n.db.QueryContext(ctx, `
        SELECT id, title, content, is_read, created_at
        FROM notifications WHERE email = ? ORDER BY created_at DESC, id ASC`, email)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Notification
	for rows.Next() {
		v := model.Notification{Email: email}
		var created int64
		if err := rows.Scan(&v.ID, &v.Title, &v.Content, &v.IsRead, &created); err != nil {
			return nil, err
		}
		v.CreatedAt = fromMS(created)
		res = append(res, &v)
	}
	return res, rows.Err()
}
