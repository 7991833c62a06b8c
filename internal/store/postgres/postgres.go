package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Regions() store.Regions             { return &regions{db: s.db} }
func (s *pgStore) Accounts() store.Accounts           { return &accounts{db: s.db} }
func (s *pgStore) Orders() store.Orders               { return &orders{db: s.db} }
func (s *pgStore) Notifications() store.Notifications { return &notifications{db: s.db} }

// Ping reports whether the pool can reach Postgres.
func (s *pgStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Bootstrap checks connectivity and applies the schema.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil
	}
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return EnsureSchema(ctx, db)
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFound(err error, what, key string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %q: %w", what, key, model.ErrNotFound)
	}
	return err
}

// --- Regions ---
type regions struct{ db *sql.DB }

func (r *regions) Get(ctx context.Context, kind model.RegionKind, code string) (*model.Region, error) {
	out := model.Region{Kind: kind, Code: code}
	row := r.db.QueryRowContext(ctx, `
        SELECT is_active, nop_period, op_period, created_at
        FROM regions WHERE kind=$1 AND code=$2
    `, string(kind), code)
	if err := row.Scan(&out.IsActive, &out.NopPeriod, &out.OpPeriod, &out.CreatedAt); err != nil {
		return nil, notFound(err, string(kind), code)
	}
	return &out, nil
}

func (r *regions) Put(ctx context.Context, in *model.Region) (*model.Region, error) {
	out := *in
	row := r.db.QueryRowContext(ctx, `
        INSERT INTO regions (kind, code, is_active, nop_period, op_period)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (kind, code) DO UPDATE
        SET is_active=EXCLUDED.is_active, nop_period=EXCLUDED.nop_period, op_period=EXCLUDED.op_period
        RETURNING created_at
    `, string(in.Kind), in.Code, in.IsActive, in.NopPeriod, in.OpPeriod)
	if err := row.Scan(&out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *regions) List(ctx context.Context, kind model.RegionKind) ([]*model.Region, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT code, is_active, nop_period, op_period, created_at
        FROM regions WHERE kind=$1 ORDER BY code ASC
    `, string(kind))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Region
	for rows.Next() {
		v := model.Region{Kind: kind}
		if err := rows.Scan(&v.Code, &v.IsActive, &v.NopPeriod, &v.OpPeriod, &v.CreatedAt); err != nil {
			return nil, err
		}
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
	if err := sc.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.EmailVerified,
		&a.Tier, &a.CreatedAt, &status, &a.IdentityAttempts, &a.NextIdentityAttemptAt); err != nil {
		return nil, err
	}
	a.IdentityStatus = model.IdentityStatus(status)
	return &a, nil
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := a.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email=$1`, email)
	out, err := scanAccount(row)
	if err != nil {
		return nil, notFound(err, "account", email)
	}
	return out, nil
}

// CreateIfAbsent relies on the unique email index; concurrent callers race on
// the insert and exactly one observes RETURNING.
func (a *accounts) CreateIfAbsent(ctx context.Context, in *model.Account) (*model.Account, bool, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	status := in.IdentityStatus
	if status == "" {
		status = model.IdentityPending
	}
	row := a.db.QueryRowContext(ctx, `
        INSERT INTO accounts (id, email, password_hash, first_name, last_name, email_verified, tier,
                              identity_status, identity_attempts, next_identity_attempt_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,COALESCE($10, now()))
        ON CONFLICT (email) DO NOTHING
        RETURNING `+accountColumns,
		id, in.Email, in.PasswordHash, in.FirstName, in.LastName, in.EmailVerified, in.Tier,
		string(status), in.IdentityAttempts, nullTime(in.NextIdentityAttemptAt))
	out, err := scanAccount(row)
	switch {
	case err == nil:
		return out, true, nil
	case errors.Is(err, sql.ErrNoRows):
		existing, err := a.GetByEmail(ctx, in.Email)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	default:
		return nil, false, err
	}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
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
	return a.exec(ctx, email, `UPDATE accounts SET identity_status=$1 WHERE email=$2`,
		string(model.IdentityProvisioned), email)
}

func (a *accounts) MarkIdentityFailed(ctx context.Context, email string, next time.Time) error {
	return a.exec(ctx, email, `
        UPDATE accounts
        SET identity_attempts = identity_attempts + 1, next_identity_attempt_at = $1
        WHERE email=$2
    `, next.UTC(), email)
}

func (a *accounts) MarkIdentityRejected(ctx context.Context, email string) error {
	return a.exec(ctx, email, `
        UPDATE accounts
        SET identity_status=$1, identity_attempts = identity_attempts + 1
        WHERE email=$2
    `, string(model.IdentityRejected), email)
}

func (a *accounts) SetEmailVerified(ctx context.Context, email string, verified bool) error {
	return a.exec(ctx, email, `UPDATE accounts SET email_verified=$1 WHERE email=$2`, verified, email)
}

func (a *accounts) ListPendingIdentity(ctx context.Context, at time.Time, limit int) ([]*model.Account, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := a.db.QueryContext(ctx, `
        SELECT `+accountColumns+` FROM accounts
        WHERE identity_status=$1 AND next_identity_attempt_at <= $2
        ORDER BY next_identity_attempt_at ASC, email ASC
        LIMIT $3
    `, string(model.IdentityPending), at.UTC(), limit)
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
	var kind string
	var plaintiffs, defendants, payload []byte
	if err := sc.Scan(&o.Number, &o.Region, &kind, &plaintiffs, &defendants, &o.Notify, &o.Requester,
		&o.StartedAt, &o.NopEndAt, &o.OpEndAt, &o.UpdatedAt, &payload); err != nil {
		return nil, err
	}
	o.RegionKind = model.RegionKind(kind)
	if err := json.Unmarshal(plaintiffs, &o.Plaintiffs); err != nil {
		return nil, fmt.Errorf("decode plaintiffs: %w", err)
	}
	if err := json.Unmarshal(defendants, &o.Defendants); err != nil {
		return nil, fmt.Errorf("decode defendants: %w", err)
	}
	if err := json.Unmarshal(payload, &o.Payload); err != nil {
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
	_, err = o.db.ExecContext(ctx, `
        INSERT INTO orders (`+orderColumns+`)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    `, out.Number, out.Region, string(out.RegionKind), string(plaintiffs), string(defendants), out.Notify,
		out.Requester, out.StartedAt, out.NopEndAt, out.OpEndAt, out.UpdatedAt, string(payload))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("order %q: %w", out.Number, model.ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (o *orders) Get(ctx context.Context, number string) (*model.Order, error) {
	row := o.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE number=$1`, number)
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
        WHERE number > $1 ORDER BY number ASC LIMIT $2
    `, after, fetchLimit(limit))
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
// LIMIT NULL returns every row, matching limit <= 0 in the other drivers.
func fetchLimit(limit int) any {
	if limit <= 0 {
		return nil
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
	row := n.db.QueryRowContext(ctx, `
        INSERT INTO notifications (id, email, title, content, is_read, created_at)
        VALUES ($1,$2,$3,$4,$5,COALESCE($6, now()))
        RETURNING created_at
    `, out.ID, out.Email, out.Title, out.Content, out.IsRead, nullTime(out.CreatedAt))
	if err := row.Scan(&out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (n *notifications) ListByEmail(ctx context.Context, email string) ([]*model.Notification, error) {
	rows, err := n.db.QueryContext(ctx, `
        SELECT id, title, content, is_read, created_at
        FROM notifications WHERE email=$1 ORDER BY created_at DESC, id ASC
    `, email)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Notification
	for rows.Next() {
		v := model.Notification{Email: email}
		if err := rows.Scan(&v.ID, &v.Title, &v.Content, &v.IsRead, &v.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &v)
	}
	return res, rows.Err()
}
