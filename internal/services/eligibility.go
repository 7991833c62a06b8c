package services

import (
	"context"
	"errors"
	"time"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store"
)

// EligibilityResult is the three-way answer of an eligibility check.
type EligibilityResult int

const (
	Eligible EligibilityResult = iota
	RegionNotFound
	RegionInactive
)

func (r EligibilityResult) String() string {
	switch r {
	case Eligible:
		return "eligible"
	case RegionNotFound:
		return "region_not_found"
	case RegionInactive:
		return "region_inactive"
	}
	return "unknown"
}

// EligibilityGate decides whether a region accepts orders.
type EligibilityGate struct {
	store   store.Store
	timeout time.Duration
}

func NewEligibilityGate(s store.Store, timeout time.Duration) *EligibilityGate {
	return &EligibilityGate{store: s, timeout: timeout}
}

// Check looks up (kind, code) by exact match. Only store failures are errors;
// absent and inactive regions are reported through the result.
func (g *EligibilityGate) Check(ctx context.Context, kind model.RegionKind, code string) (*model.Region, EligibilityResult, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	r, err := g.store.Regions().Get(ctx, kind, code)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return nil, RegionNotFound, nil
	case err != nil:
		return nil, RegionNotFound, model.StoreErr("get-region", err)
	case !r.IsActive:
		return r, RegionInactive, nil
	}
	return r, Eligible, nil
}
