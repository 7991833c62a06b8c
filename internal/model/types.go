package model

import (
	"encoding/json"
	"time"
)

// RegionKind distinguishes the two region catalogs an order can target.
type RegionKind string

const (
	RegionJurisdiction RegionKind = "jurisdiction"
	RegionCourt        RegionKind = "court"
)

// Valid reports whether k names a known catalog.
func (k RegionKind) Valid() bool {
	return k == RegionJurisdiction || k == RegionCourt
}

// Region is a jurisdiction or court eligibility entry keyed by (kind, code).
type Region struct {
	Code      string     `json:"code"`
	Kind      RegionKind `json:"kind"`
	IsActive  bool       `json:"isActive"`
	NopPeriod int        `json:"nopPeriod"`
	OpPeriod  int        `json:"opPeriod"`
	CreatedAt time.Time  `json:"createdAt"`
}

// IdentityStatus tracks whether an account has a matching identity-provider user.
type IdentityStatus string

const (
	IdentityPending     IdentityStatus = "pending"
	IdentityProvisioned IdentityStatus = "provisioned"
	// IdentityRejected accounts were refused by the provider and are not retried.
	IdentityRejected IdentityStatus = "rejected"
)

const TierFree = "free"

// Account is a party identity keyed by email.
type Account struct {
	ID                    string         `json:"id"`
	Email                 string         `json:"email"`
	PasswordHash          string         `json:"-"`
	FirstName             string         `json:"firstName,omitempty"`
	LastName              string         `json:"lastName,omitempty"`
	EmailVerified         bool           `json:"emailVerified"`
	Tier                  string         `json:"tier"`
	CreatedAt             time.Time      `json:"createdAt"`
	IdentityStatus        IdentityStatus `json:"identityStatus"`
	IdentityAttempts      int            `json:"identityAttempts"`
	NextIdentityAttemptAt time.Time      `json:"nextIdentityAttemptAt"`
}

// DisplayName joins first and last name, falling back to the email.
func (a *Account) DisplayName() string {
	switch {
	case a.FirstName != "" && a.LastName != "":
		return a.FirstName + " " + a.LastName
	case a.FirstName != "":
		return a.FirstName
	case a.LastName != "":
		return a.LastName
	}
	return a.Email
}

// Order is an accepted legal-notice request. Orders are immutable once stored.
type Order struct {
	Number     string
	Region     string
	RegionKind RegionKind
	Plaintiffs []string
	Defendants []string
	Notify     bool
	Requester  string
	StartedAt  time.Time
	NopEndAt   time.Time
	OpEndAt    time.Time
	UpdatedAt  time.Time
	// Payload holds request fields outside the fixed order shape, verbatim.
	Payload map[string]any
}

// reservedOrderKeys are owned by Order and never taken from Payload.
var reservedOrderKeys = map[string]bool{
	"number": true, "region": true, "state": true, "kind": true, "plaintiffs": true,
	"defendants": true, "notify": true, "email": true, "startedAt": true,
	"nopEndAt": true, "opEndAt": true, "updatedAt": true,
}

// IsReservedOrderKey reports whether key belongs to the fixed order shape.
func IsReservedOrderKey(key string) bool { return reservedOrderKeys[key] }

// MarshalJSON flattens Payload into the top-level object next to the fixed fields.
func (o Order) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(o.Payload)+12)
	for k, v := range o.Payload {
		if !reservedOrderKeys[k] {
			out[k] = v
		}
	}
	out["number"] = o.Number
	out["region"] = o.Region
	// state mirrors region under the name clients submit it with
	out["state"] = o.Region
	out["kind"] = o.RegionKind
	out["plaintiffs"] = nonNil(o.Plaintiffs)
	out["defendants"] = nonNil(o.Defendants)
	out["notify"] = o.Notify
	out["email"] = o.Requester
	out["startedAt"] = o.StartedAt
	out["nopEndAt"] = o.NopEndAt
	out["opEndAt"] = o.OpEndAt
	out["updatedAt"] = o.UpdatedAt
	return json.Marshal(out)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Notification is an in-app message addressed to an email.
type Notification struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}
