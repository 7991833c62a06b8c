package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/deadline"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/metrics"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/paging"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store"
)

// IntakeState is a step of order intake. Done, RegionNotFound, RegionInactive
// and Failed are terminal.
type IntakeState string

const (
	StateValidating         IntakeState = "validating"
	StateEligibilityChecked IntakeState = "eligibility_checked"
	StateNotifying          IntakeState = "notifying"
	StatePersisting         IntakeState = "persisting"
	StateDone               IntakeState = "done"
	StateRegionNotFound     IntakeState = "region_not_found"
	StateRegionInactive     IntakeState = "region_inactive"
	StateFailed             IntakeState = "failed"
)

const MsgOrderCreated = "Order has been created!"

// IntakeRequest is a validated order submission.
type IntakeRequest struct {
	Region     string
	Kind       model.RegionKind
	Plaintiffs []string
	Defendants []string
	Notify     bool
	// Requester is the email of whoever placed the order.
	Requester     string
	RequesterName string
	Payload       map[string]any
}

// IntakeResult is the aggregated answer for one submission. Order is set only
// when State is StateDone.
type IntakeResult struct {
	State    IntakeState    `json:"state"`
	Region   *model.Region  `json:"region,omitempty"`
	Order    *model.Order   `json:"order,omitempty"`
	Outcomes []PartyOutcome `json:"outcomes"`
	Message  string         `json:"message"`
}

// Success reports whether the order was stored with every party handled cleanly.
func (r *IntakeResult) Success() bool {
	if r.State != StateDone {
		return false
	}
	for _, o := range r.Outcomes {
		if o.Kind != OutcomeSuccess {
			return false
		}
	}
	return true
}

type OrderServiceConfig struct {
	FanOutLimit int
	CallTimeout time.Duration
}

// OrderService runs order intake and lists stored orders.
type OrderService struct {
	store   store.Store
	gate    *EligibilityGate
	parties PartyHandler
	calc    deadline.Calculator
	cfg     OrderServiceConfig
	log     zerolog.Logger
	now     func() time.Time
}

func NewOrderService(s store.Store, gate *EligibilityGate, parties PartyHandler, calc deadline.Calculator, cfg OrderServiceConfig, log zerolog.Logger) *OrderService {
	if cfg.FanOutLimit < 1 {
		cfg.FanOutLimit = 1
	}
	return &OrderService{
		store:   s,
		gate:    gate,
		parties: parties,
		calc:    calc,
		cfg:     cfg,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Submit checks eligibility, notifies every party, computes deadlines and
// stores the order. A non-nil error is always a tagged hard failure and comes
// with a StateFailed result; soft outcomes are reported through the result.
func (s *OrderService) Submit(ctx context.Context, req IntakeRequest) (*IntakeResult, error) {
	if !req.Kind.Valid() {
		req.Kind = model.RegionJurisdiction
	}
	started := time.Now()
	res, err := s.submit(ctx, req)
	metrics.IntakeDuration.Observe(time.Since(started).Seconds())
	metrics.IntakeResults.WithLabelValues(string(res.State), string(req.Kind)).Inc()
	return res, err
}

func (s *OrderService) submit(ctx context.Context, req IntakeRequest) (*IntakeResult, error) {
	res := &IntakeResult{State: StateValidating, Outcomes: []PartyOutcome{}}
	intakeAt := s.now()

	region, elig, err := s.gate.Check(ctx, req.Kind, req.Region)
	if err != nil {
		return s.fail(res, req, err)
	}
	switch elig {
	case RegionNotFound:
		res.State = StateRegionNotFound
		res.Message = fmt.Sprintf("%s for %s not found.", kindLabel(req.Kind), req.Region)
		s.log.Info().Str("region", req.Region).Str("kind", string(req.Kind)).Msg(res.Message)
		return res, nil
	case RegionInactive:
		res.State = StateRegionInactive
		res.Region = region
		res.Message = fmt.Sprintf("%s for %s is not active.", kindLabel(req.Kind), req.Region)
		s.log.Info().Str("region", req.Region).Str("kind", string(req.Kind)).Msg(res.Message)
		return res, nil
	}
	res.State = StateEligibilityChecked
	res.Region = region

	number := uuid.NewString()
	res.State = StateNotifying
	plaintiffs := dedupe(req.Plaintiffs)
	defendants := dedupe(req.Defendants)
	res.Outcomes = s.fanOut(ctx, plaintiffs, defendants, OrderContext{
		Number:         number,
		Region:         req.Region,
		Kind:           req.Kind,
		Notify:         req.Notify,
		RequesterEmail: req.Requester,
		RequesterName:  req.RequesterName,
	})

	softMsg := ""
	for _, o := range res.Outcomes {
		if o.Kind == OutcomeHardError {
			return s.fail(res, req, o.Err)
		}
		if o.Soft() && softMsg == "" {
			softMsg = o.Message
		}
	}

	res.State = StatePersisting
	order := &model.Order{
		Number:     number,
		Region:     req.Region,
		RegionKind: req.Kind,
		Plaintiffs: plaintiffs,
		Defendants: defendants,
		Notify:     req.Notify,
		Requester:  req.Requester,
		StartedAt:  intakeAt,
		NopEndAt:   s.calc.Compute(intakeAt, region.NopPeriod),
		OpEndAt:    s.calc.Compute(intakeAt, region.OpPeriod),
		UpdatedAt:  intakeAt,
		Payload:    req.Payload,
	}
	stored, err := s.persist(ctx, order)
	if err != nil {
		return s.fail(res, req, model.StoreErr("put-order", err))
	}

	res.State = StateDone
	res.Order = s.localize(stored)
	res.Message = MsgOrderCreated
	if softMsg != "" {
		res.Message = softMsg
	}
	s.log.Info().Str("order", number).Str("region", req.Region).
		Int("plaintiffs", len(plaintiffs)).Int("defendants", len(defendants)).
		Msg("order stored")
	return res, nil
}

// persist stores the order even if the caller has gone away, since parties
// have already been contacted. The write is still bounded by CallTimeout.
func (s *OrderService) persist(ctx context.Context, order *model.Order) (*model.Order, error) {
	ctx = context.WithoutCancel(ctx)
	if s.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
	}
	return s.store.Orders().Create(ctx, order)
}

func (s *OrderService) fail(res *IntakeResult, req IntakeRequest, err error) (*IntakeResult, error) {
	res.State = StateFailed
	res.Message = err.Error()
	s.log.Error().Stack().Err(err).Str("region", req.Region).Str("type", model.TagOf(err)).Msg("order intake failed")
	return res, err
}

// fanOut handles every party concurrently and returns outcomes in input order,
// plaintiffs first. Parties keep running when a sibling fails or the caller
// goes away.
func (s *OrderService) fanOut(ctx context.Context, plaintiffs, defendants []string, oc OrderContext) []PartyOutcome {
	ctx = context.WithoutCancel(ctx)
	out := make([]PartyOutcome, len(plaintiffs)+len(defendants))

	var g errgroup.Group
	g.SetLimit(s.cfg.FanOutLimit)
	for i, email := range plaintiffs {
		g.Go(func() error {
			out[i] = s.parties.Handle(ctx, email, RolePlaintiff, oc)
			return nil
		})
	}
	for i, email := range defendants {
		slot := len(plaintiffs) + i
		g.Go(func() error {
			out[slot] = s.parties.Handle(ctx, email, RoleDefendant, oc)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// List returns one page of orders with deadlines in the configured zone.
func (s *OrderService) List(ctx context.Context, limit, page int) (paging.Page[*model.Order], error) {
	p, err := paging.Walk[*model.Order](ctx, s.store.Orders(), limit, page)
	if err != nil {
		return p, model.StoreErr("scan-orders", err)
	}
	for i, o := range p.Items {
		p.Items[i] = s.localize(o)
	}
	return p, nil
}

func (s *OrderService) localize(o *model.Order) *model.Order {
	cp := *o
	cp.StartedAt = s.calc.In(o.StartedAt)
	cp.NopEndAt = s.calc.In(o.NopEndAt)
	cp.OpEndAt = s.calc.In(o.OpEndAt)
	cp.UpdatedAt = s.calc.In(o.UpdatedAt)
	return &cp
}

func kindLabel(k model.RegionKind) string {
	if k == model.RegionCourt {
		return "Court"
	}
	return "Jurisdiction"
}

// dedupe drops repeated emails, keeping first occurrences in order.
func dedupe(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
