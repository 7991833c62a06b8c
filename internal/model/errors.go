package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
)

// Subsystem tags reported in the "type" field of hard-error responses.
const (
	SubsystemStore    = "store"
	SubsystemIdentity = "identity"
	SubsystemEmail    = "email"
)

// SubsystemError tags a failure with the external system that produced it.
type SubsystemError struct {
	Subsystem string
	Op        string
	Err       error
}

func (e *SubsystemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Tag(), e.Err)
}

func (e *SubsystemError) Unwrap() error { return e.Err }

// Tag renders the subsystem and operation as "subsystem:op".
func (e *SubsystemError) Tag() string {
	return e.Subsystem + ":" + e.Op
}

func StoreErr(op string, err error) error {
	return &SubsystemError{Subsystem: SubsystemStore, Op: op, Err: err}
}

func IdentityErr(op string, err error) error {
	return &SubsystemError{Subsystem: SubsystemIdentity, Op: op, Err: err}
}

func EmailErr(op string, err error) error {
	return &SubsystemError{Subsystem: SubsystemEmail, Op: op, Err: err}
}

// TagOf returns the subsystem tag carried by err, or "internal" when untagged.
func TagOf(err error) string {
	var se *SubsystemError
	if errors.As(err, &se) {
		return se.Tag()
	}
	return "internal"
}
