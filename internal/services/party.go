package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/identity"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/metrics"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/notify"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store"
)

// OrderContext is the order data a party notification needs.
type OrderContext struct {
	Number         string
	Region         string
	Kind           model.RegionKind
	Notify         bool
	RequesterEmail string
	RequesterName  string
}

// PartyHandler notifies or provisions a single party.
type PartyHandler interface {
	Handle(ctx context.Context, email string, role Role, oc OrderContext) PartyOutcome
}

// PartyNotifierConfig tunes account provisioning.
type PartyNotifierConfig struct {
	DefaultPassword string
	CallTimeout     time.Duration
	BcryptCost      int
}

// PartyNotifier applies the per-role policy: plaintiffs must already exist and
// are told the case opened; defendants are either sent a notice or get an
// account provisioned on their behalf.
type PartyNotifier struct {
	store    store.Store
	identity identity.Provisioner
	gateway  notify.Gateway
	cfg      PartyNotifierConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewPartyNotifier(s store.Store, idp identity.Provisioner, gw notify.Gateway, cfg PartyNotifierConfig, log zerolog.Logger) *PartyNotifier {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &PartyNotifier{
		store:    s,
		identity: idp,
		gateway:  gw,
		cfg:      cfg,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (n *PartyNotifier) Handle(ctx context.Context, email string, role Role, oc OrderContext) PartyOutcome {
	var out PartyOutcome
	switch role {
	case RolePlaintiff:
		out = n.handlePlaintiff(ctx, email, oc)
	case RoleDefendant:
		out = n.handleDefendant(ctx, email, oc)
	default:
		out = hard(email, role, fmt.Errorf("unknown party role %q", role))
	}
	metrics.PartyOutcomes.WithLabelValues(string(role), string(out.Kind)).Inc()
	n.logOutcome(oc, out)
	return out
}

func (n *PartyNotifier) logOutcome(oc OrderContext, out PartyOutcome) {
	switch out.Kind {
	case OutcomeHardError:
		n.log.Error().Stack().Err(out.Err).
			Str("order", oc.Number).Str("email", out.Email).Str("role", string(out.Role)).Str("type", out.Tag()).
			Msg("party notification failed")
	case OutcomeNotFound, OutcomeRejected:
		n.log.Warn().
			Str("order", oc.Number).Str("email", out.Email).Str("role", string(out.Role)).Str("outcome", string(out.Kind)).
			Msg(out.Message)
	default:
		n.log.Debug().
			Str("order", oc.Number).Str("email", out.Email).Str("role", string(out.Role)).
			Msg(out.Message)
	}
}

// bounded runs fn under the per-call timeout.
func (n *PartyNotifier) bounded(ctx context.Context, fn func(context.Context) error) error {
	if n.cfg.CallTimeout <= 0 {
		return fn(ctx)
	}
	cctx, cancel := context.WithTimeout(ctx, n.cfg.CallTimeout)
	defer cancel()
	return fn(cctx)
}

// lookup returns (nil, nil) when no account holds email.
func (n *PartyNotifier) lookup(ctx context.Context, email string) (*model.Account, error) {
	var acc *model.Account
	err := n.bounded(ctx, func(ctx context.Context) error {
		var err error
		acc, err = n.store.Accounts().GetByEmail(ctx, email)
		return err
	})
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, model.StoreErr("get-account", err)
	}
	return acc, nil
}

func (n *PartyNotifier) handlePlaintiff(ctx context.Context, email string, oc OrderContext) PartyOutcome {
	acc, err := n.lookup(ctx, email)
	if err != nil {
		return hard(email, RolePlaintiff, err)
	}
	if acc == nil {
		return soft(OutcomeNotFound, email, RolePlaintiff, fmt.Sprintf("Plaintiff %s does not exist.", email))
	}

	msg, err := notify.CaseOpened(email, templateData(oc))
	if err != nil {
		return hard(email, RolePlaintiff, model.EmailErr("render", err))
	}
	if out, ok := n.sendEmail(ctx, msg, RolePlaintiff); !ok {
		return out
	}
	err = n.bounded(ctx, func(ctx context.Context) error {
		_, err := n.gateway.Record(ctx, email, msg.Subject, msg.Body)
		return err
	})
	if err != nil {
		return hard(email, RolePlaintiff, model.StoreErr("put-notification", err))
	}
	return success(email, RolePlaintiff, "Plaintiff notified.")
}

func (n *PartyNotifier) handleDefendant(ctx context.Context, email string, oc OrderContext) PartyOutcome {
	acc, err := n.lookup(ctx, email)
	if err != nil {
		return hard(email, RoleDefendant, err)
	}
	if acc != nil && oc.Notify {
		msg, err := notify.NoticeOfAction(email, templateData(oc))
		if err != nil {
			return hard(email, RoleDefendant, model.EmailErr("render", err))
		}
		if out, ok := n.sendEmail(ctx, msg, RoleDefendant); !ok {
			return out
		}
		return success(email, RoleDefendant, "Defendant notified.")
	}
	return n.provision(ctx, email, acc)
}

// sendEmail returns ok=false with the outcome to report when delivery fails.
func (n *PartyNotifier) sendEmail(ctx context.Context, msg notify.Message, role Role) (PartyOutcome, bool) {
	err := n.bounded(ctx, func(ctx context.Context) error { return n.gateway.SendEmail(ctx, msg) })
	switch {
	case err == nil:
		return PartyOutcome{}, true
	case errors.Is(err, notify.ErrRejected):
		return soft(OutcomeRejected, msg.To, role, fmt.Sprintf("Email to %s was rejected.", msg.To)), false
	default:
		return hard(msg.To, role, model.EmailErr("send", err)), false
	}
}

// provision makes sure the defendant has an account and an identity-provider
// user. It is safe to repeat: a provisioned account is left untouched and a
// pending one is signed up again.
func (n *PartyNotifier) provision(ctx context.Context, email string, acc *model.Account) PartyOutcome {
	created := false
	if acc == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(n.cfg.DefaultPassword), n.cfg.BcryptCost)
		if err != nil {
			return hard(email, RoleDefendant, fmt.Errorf("hash default password: %w", err))
		}
		now := n.now()
		candidate := &model.Account{
			ID:             uuid.NewString(),
			Email:          email,
			PasswordHash:   string(hash),
			EmailVerified:  false,
			Tier:           model.TierFree,
			IdentityStatus: model.IdentityPending,
			// keep the reconcile worker away while this request signs up
			NextIdentityAttemptAt: now.Add(2*n.cfg.CallTimeout + identity.RetryDelay(0)),
		}
		err = n.bounded(ctx, func(ctx context.Context) error {
			var err error
			acc, created, err = n.store.Accounts().CreateIfAbsent(ctx, candidate)
			return err
		})
		if err != nil {
			return hard(email, RoleDefendant, model.StoreErr("create-account", err))
		}
	}
	if acc.IdentityStatus == model.IdentityProvisioned {
		return success(email, RoleDefendant, "Defendant account already exists.")
	}

	err := n.bounded(ctx, func(ctx context.Context) error {
		return n.identity.SignUp(ctx, identity.SignUpRequest{Email: email, Password: n.cfg.DefaultPassword})
	})
	switch {
	case err == nil, identity.IsCode(err, identity.UsernameExists):
	case identity.IsCode(err, identity.InvalidPassword):
		n.park(ctx, email)
		return soft(OutcomeRejected, email, RoleDefendant,
			fmt.Sprintf("Identity provider rejected the default password for %s.", email))
	default:
		n.deferRetry(ctx, acc)
		return hard(email, RoleDefendant, model.IdentityErr("sign-up", err))
	}

	err = n.bounded(ctx, func(ctx context.Context) error {
		return n.store.Accounts().MarkProvisioned(ctx, email)
	})
	if err != nil {
		return hard(email, RoleDefendant, model.StoreErr("mark-provisioned", err))
	}
	if created {
		return success(email, RoleDefendant, "Defendant account created.")
	}
	return success(email, RoleDefendant, "Defendant account provisioned.")
}

// deferRetry records the failed attempt so the reconcile worker backs off.
func (n *PartyNotifier) deferRetry(ctx context.Context, acc *model.Account) {
	next := n.now().Add(identity.RetryDelay(acc.IdentityAttempts))
	err := n.bounded(ctx, func(ctx context.Context) error {
		return n.store.Accounts().MarkIdentityFailed(ctx, acc.Email, next)
	})
	if err != nil {
		n.log.Warn().Err(err).Str("email", acc.Email).Msg("could not record failed sign-up attempt")
	}
}

// park stops reconciliation for an account the provider refuses permanently.
func (n *PartyNotifier) park(ctx context.Context, email string) {
	err := n.bounded(ctx, func(ctx context.Context) error {
		return n.store.Accounts().MarkIdentityRejected(ctx, email)
	})
	if err != nil {
		n.log.Warn().Err(err).Str("email", email).Msg("could not mark sign-up rejected")
	}
}

func templateData(oc OrderContext) notify.TemplateData {
	return notify.TemplateData{
		Region:         oc.Region,
		OrderNumber:    oc.Number,
		RequesterEmail: oc.RequesterEmail,
		RequesterName:  oc.RequesterName,
	}
}
