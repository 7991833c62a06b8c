package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store"
)

// RegionService maintains the jurisdiction and court catalogs.
type RegionService struct {
	store store.Store
}

func NewRegionService(s store.Store) *RegionService {
	return &RegionService{store: s}
}

// Put upserts r after normalising its code to upper case.
func (s *RegionService) Put(ctx context.Context, r *model.Region) (*model.Region, error) {
	in := *r
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	if !in.Kind.Valid() {
		return nil, fmt.Errorf("region kind %q: %w", in.Kind, model.ErrValidation)
	}
	if len(in.Code) != 2 {
		return nil, fmt.Errorf("region code %q must be two letters: %w", in.Code, model.ErrValidation)
	}
	if in.NopPeriod < 0 || in.OpPeriod < 0 {
		return nil, fmt.Errorf("region periods must not be negative: %w", model.ErrValidation)
	}
	out, err := s.store.Regions().Put(ctx, &in)
	if err != nil {
		return nil, model.StoreErr("put-region", err)
	}
	return out, nil
}

func (s *RegionService) Get(ctx context.Context, kind model.RegionKind, code string) (*model.Region, error) {
	return s.store.Regions().Get(ctx, kind, code)
}

func (s *RegionService) List(ctx context.Context, kind model.RegionKind) ([]*model.Region, error) {
	out, err := s.store.Regions().List(ctx, kind)
	if err != nil {
		return nil, model.StoreErr("list-regions", err)
	}
	return out, nil
}
