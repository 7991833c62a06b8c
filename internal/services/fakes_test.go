package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/identity"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/notify"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store/memory"
)

const testPassword = "Default#Passw0rd"

// --- Fakes ---

type fakeProvisioner struct {
	mu         sync.Mutex
	signUps    []identity.SignUpRequest
	confirms   []string
	signUpErr  map[string]error
	confirmErr error
}

func newFakeProvisioner() *fakeProvisioner {
	return &fakeProvisioner{signUpErr: map[string]error{}}
}

func (p *fakeProvisioner) SignUp(_ context.Context, req identity.SignUpRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signUps = append(p.signUps, req)
	return p.signUpErr[req.Email]
}

func (p *fakeProvisioner) ConfirmSignUp(_ context.Context, email, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirms = append(p.confirms, email)
	return p.confirmErr
}

func (p *fakeProvisioner) signUpCount(email string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, r := range p.signUps {
		if r.Email == email {
			n++
		}
	}
	return n
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	errs map[string]error
}

func newFakeMailer() *fakeMailer { return &fakeMailer{errs: map[string]error{}} }

func (m *fakeMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[msg.To]; err != nil {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) sentTo(email string) []notify.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []notify.Message
	for _, msg := range m.sent {
		if msg.To == email {
			out = append(out, msg)
		}
	}
	return out
}

var errBoom = errors.New("boom")

// failingStore wraps a real store and fails the selected operations.
type failingStore struct {
	store.Store
	getAccount  error
	createOrder error
}

func (f *failingStore) Accounts() store.Accounts {
	return failingAccounts{Accounts: f.Store.Accounts(), err: f.getAccount}
}

func (f *failingStore) Orders() store.Orders {
	return failingOrders{Orders: f.Store.Orders(), err: f.createOrder}
}

type failingAccounts struct {
	store.Accounts
	err error
}

func (a failingAccounts) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.Accounts.GetByEmail(ctx, email)
}

type failingOrders struct {
	store.Orders
	err error
}

func (o failingOrders) Create(ctx context.Context, in *model.Order) (*model.Order, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.Orders.Create(ctx, in)
}

// --- Helpers ---

type harness struct {
	store    store.Store
	idp      *fakeProvisioner
	mailer   *fakeMailer
	notifier *PartyNotifier
}

func newHarness(t *testing.T, s store.Store) *harness {
	t.Helper()
	if s == nil {
		s = memory.New()
	}
	h := &harness{store: s, idp: newFakeProvisioner(), mailer: newFakeMailer()}
	h.notifier = NewPartyNotifier(s, h.idp, notify.NewGateway(h.mailer, s), PartyNotifierConfig{
		DefaultPassword: testPassword,
		CallTimeout:     time.Second,
		BcryptCost:      bcrypt.MinCost,
	}, zerolog.Nop())
	return h
}

func seedAccount(t *testing.T, s store.Store, a model.Account) *model.Account {
	t.Helper()
	if a.IdentityStatus == "" {
		a.IdentityStatus = model.IdentityProvisioned
	}
	out, created, err := s.Accounts().CreateIfAbsent(context.Background(), &a)
	require.NoError(t, err)
	require.True(t, created)
	if a.IdentityStatus == model.IdentityProvisioned {
		require.NoError(t, s.Accounts().MarkProvisioned(context.Background(), a.Email))
	}
	return out
}

func seedRegion(t *testing.T, s store.Store, r model.Region) {
	t.Helper()
	if r.Kind == "" {
		r.Kind = model.RegionJurisdiction
	}
	_, err := s.Regions().Put(context.Background(), &r)
	require.NoError(t, err)
}
