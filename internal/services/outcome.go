package services

import "github.com/azuresphere7/DWQ-Legal-Backend/internal/model"

// Role is the side a party takes on an order.
type Role string

const (
	RolePlaintiff Role = "plaintiff"
	RoleDefendant Role = "defendant"
)

// OutcomeKind classifies what happened to one party.
type OutcomeKind string

const (
	OutcomeSuccess   OutcomeKind = "success"
	OutcomeNotFound  OutcomeKind = "not_found"
	OutcomeRejected  OutcomeKind = "rejected"
	OutcomeHardError OutcomeKind = "error"
)

// PartyOutcome is the result of notifying or provisioning one party.
// Err is set only for OutcomeHardError.
type PartyOutcome struct {
	Email   string      `json:"email"`
	Role    Role        `json:"role"`
	Kind    OutcomeKind `json:"outcome"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
}

// Soft reports whether the outcome is an expected, user-facing failure.
func (o PartyOutcome) Soft() bool {
	return o.Kind == OutcomeNotFound || o.Kind == OutcomeRejected
}

// Tag returns the subsystem tag of a hard error, empty otherwise.
func (o PartyOutcome) Tag() string {
	if o.Kind != OutcomeHardError {
		return ""
	}
	return model.TagOf(o.Err)
}

func success(email string, role Role, msg string) PartyOutcome {
	return PartyOutcome{Email: email, Role: role, Kind: OutcomeSuccess, Message: msg}
}

func soft(kind OutcomeKind, email string, role Role, msg string) PartyOutcome {
	return PartyOutcome{Email: email, Role: role, Kind: kind, Message: msg}
}

func hard(email string, role Role, err error) PartyOutcome {
	return PartyOutcome{Email: email, Role: role, Kind: OutcomeHardError, Message: err.Error(), Err: err}
}
