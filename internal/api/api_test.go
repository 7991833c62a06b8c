package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/auth"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/deadline"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/identity"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/notify"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/services"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store/memory"
)

const testSecret = "test-secret"

type fakeIDP struct {
	mu         sync.Mutex
	signUps    []string
	signUpErr  error
	confirmErr error
}

func (f *fakeIDP) SignUp(_ context.Context, req identity.SignUpRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signUps = append(f.signUps, req.Email)
	return f.signUpErr
}

func (f *fakeIDP) ConfirmSignUp(context.Context, string, string) error { return f.confirmErr }

type testServer struct {
	store store.Store
	idp   *fakeIDP
	srv   *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := memory.New()
	idp := &fakeIDP{}
	log := zerolog.Nop()
	gw := notify.NewGateway(notify.NewLogMailer(log), s)

	parties := services.NewPartyNotifier(s, idp, gw, services.PartyNotifierConfig{
		DefaultPassword: "Default#Passw0rd",
		CallTimeout:     time.Second,
		BcryptCost:      bcrypt.MinCost,
	}, log)
	orders := services.NewOrderService(s, services.NewEligibilityGate(s, time.Second), parties,
		deadline.New(time.UTC), services.OrderServiceConfig{FanOutLimit: 4, CallTimeout: time.Second}, log)
	users := services.NewUserService(s, idp, time.Second, log)

	router := NewRouter(Handlers{
		Orders:        NewOrderHandler(orders, users),
		Users:         NewUserHandler(users),
		Notifications: NewNotificationHandler(services.NewNotificationService(s)),
		Health:        NewHealthHandler(),
	}, auth.New(testSecret, true))

	ts := &testServer{store: s, idp: idp, srv: httptest.NewServer(router)}
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (ts *testServer) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := ts.store.Regions().Put(ctx, &model.Region{Code: "CA", Kind: model.RegionJurisdiction, IsActive: true, NopPeriod: 10, OpPeriod: 20})
	require.NoError(t, err)
	_, err = ts.store.Regions().Put(ctx, &model.Region{Code: "NV", Kind: model.RegionJurisdiction, IsActive: false})
	require.NoError(t, err)
	_, _, err = ts.store.Accounts().CreateIfAbsent(ctx, &model.Account{Email: "p@example.test", FirstName: "Pat", IdentityStatus: model.IdentityProvisioned})
	require.NoError(t, err)
}

func TestCreateOrder_RequiresToken(t *testing.T) {
	ts := newTestServer(t)
	code, body := ts.do(t, "POST", "/order", "", map[string]any{"state": "CA"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, false, body["success"])

	code, _ = ts.do(t, "POST", "/order", "not-a-token", map[string]any{"state": "CA"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCreateOrder_ValidationError(t *testing.T) {
	ts := newTestServer(t)
	code, body := ts.do(t, "POST", "/order", auth.LocalDevAPIKey, map[string]any{"state": "California", "plaintiffs": []string{"p@example.test"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "2-letter")

	code, _ = ts.do(t, "POST", "/order", auth.LocalDevAPIKey, "{not json")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCreateOrder_SoftRegionOutcomes(t *testing.T) {
	ts := newTestServer(t)
	ts.seed(t)

	code, body := ts.do(t, "POST", "/order", auth.LocalDevAPIKey, map[string]any{
		"state": "ZZ", "plaintiffs": []string{"p@example.test"}, "email": auth.LocalDevEmail,
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Jurisdiction for ZZ not found.", body["message"])

	code, body = ts.do(t, "POST", "/order", auth.LocalDevAPIKey, map[string]any{
		"state": "NV", "plaintiffs": []string{"p@example.test"}, "email": auth.LocalDevEmail,
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Jurisdiction for NV is not active.", body["message"])
}

func TestCreateOrder_EndToEnd(t *testing.T) {
	ts := newTestServer(t)
	ts.seed(t)

	code, body := ts.do(t, "POST", "/order", auth.LocalDevAPIKey, map[string]any{
		"state":      "CA",
		"plaintiffs": []string{"p@example.test"},
		"defendants": []string{"d@example.test"},
		"notify":     false,
		"email":      auth.LocalDevEmail,
		"caseTitle":  "Doe v. Roe",
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, services.MsgOrderCreated, body["message"])

	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["number"])
	assert.Equal(t, "CA", data["state"])
	assert.Equal(t, "Doe v. Roe", data["caseTitle"])

	started, err := time.Parse(time.RFC3339, data["startedAt"].(string))
	require.NoError(t, err)
	nop, err := time.Parse(time.RFC3339, data["nopEndAt"].(string))
	require.NoError(t, err)
	op, err := time.Parse(time.RFC3339, data["opEndAt"].(string))
	require.NoError(t, err)
	assert.True(t, nop.Equal(started.AddDate(0, 0, 10)))
	assert.True(t, op.Equal(started.AddDate(0, 0, 20)))

	acc, err := ts.store.Accounts().GetByEmail(context.Background(), "d@example.test")
	require.NoError(t, err)
	assert.False(t, acc.EmailVerified)
	assert.Equal(t, []string{"d@example.test"}, ts.idp.signUps)
}

func TestCreateOrder_SoftPartyOutcomeReportsOutcomes(t *testing.T) {
	ts := newTestServer(t)
	ts.seed(t)

	code, body := ts.do(t, "POST", "/order", auth.LocalDevAPIKey, map[string]any{
		"state": "CA", "plaintiffs": []string{"ghost@example.test"}, "email": auth.LocalDevEmail,
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "does not exist")
	data := body["data"].(map[string]any)
	outcomes := data["outcomes"].([]any)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "not_found", outcomes[0].(map[string]any)["outcome"])
}

func TestCreateOrder_HardErrorIsTagged(t *testing.T) {
	ts := newTestServer(t)
	ts.seed(t)
	ts.idp.signUpErr = errors.New("connection reset")

	code, body := ts.do(t, "POST", "/order", auth.LocalDevAPIKey, map[string]any{
		"state": "CA", "defendants": []string{"d@example.test"}, "email": auth.LocalDevEmail,
	})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "identity:sign-up", body["type"])
	assert.Contains(t, body["error"], "connection reset")

	n, err := ts.store.Orders().Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateOrder_RequesterFromToken(t *testing.T) {
	ts := newTestServer(t)
	ts.seed(t)
	token, err := auth.NewJWTAuthorizer(testSecret).Issue("p@example.test", time.Hour)
	require.NoError(t, err)

	code, body := ts.do(t, "POST", "/order", token, map[string]any{
		"state": "CA", "defendants": []string{"d@example.test"},
	})
	require.Equal(t, http.StatusOK, code, body)
	data := body["data"].(map[string]any)
	assert.Equal(t, "p@example.test", data["email"])
}

func TestCreateOrder_BodyEmailMustMatchToken(t *testing.T) {
	ts := newTestServer(t)
	ts.seed(t)
	token, err := auth.NewJWTAuthorizer(testSecret).Issue("p@example.test", time.Hour)
	require.NoError(t, err)

	code, body := ts.do(t, "POST", "/order", token, map[string]any{
		"state": "CA", "defendants": []string{"d@example.test"}, "email": "someone-else@example.test",
	})
	assert.Equal(t, http.StatusBadRequest, code, body)
	assert.Equal(t, "email must match the authenticated account", body["message"])
	n, err := ts.store.Orders().Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	code, body = ts.do(t, "POST", "/order", token, map[string]any{
		"state": "CA", "defendants": []string{"d@example.test"}, "email": "P@example.test",
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "p@example.test", body["data"].(map[string]any)["email"])
}

func TestListOrders_Paginates(t *testing.T) {
	ts := newTestServer(t)
	ts.seed(t)
	for i := 0; i < 3; i++ {
		code, _ := ts.do(t, "POST", "/order", auth.LocalDevAPIKey, map[string]any{
			"state": "CA", "defendants": []string{"d@example.test"}, "email": auth.LocalDevEmail,
		})
		require.Equal(t, http.StatusOK, code)
	}

	code, body := ts.do(t, "GET", "/order?limit=2&page=1", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 2, body["limit"])
	assert.EqualValues(t, 1, body["page"])
	assert.Len(t, body["list"], 2)
	assert.NotNil(t, body["lastEvaluatedKey"])

	code, body = ts.do(t, "GET", "/order?limit=2&page=2", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["list"], 1)
	assert.Nil(t, body["lastEvaluatedKey"])

	code, body = ts.do(t, "GET", "/order", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 5, body["limit"])
	assert.EqualValues(t, 1, body["page"])

	code, _ = ts.do(t, "GET", "/order?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestVerifyEmail(t *testing.T) {
	ts := newTestServer(t)
	ts.seed(t)

	code, body := ts.do(t, "GET", "/user/verify-email?email=p@example.test", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["emailVerified"])

	ts.idp.confirmErr = &identity.ProviderError{Code: identity.CodeMismatch}
	code, body = ts.do(t, "POST", "/user/verify-email", "", map[string]any{"email": "p@example.test", "code": "000000"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, services.MsgCodeInvalid, body["message"])

	ts.idp.confirmErr = nil
	code, body = ts.do(t, "POST", "/user/verify-email", "", map[string]any{"email": "p@example.test", "code": "123456"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	code, body = ts.do(t, "GET", "/user/verify-email?email=p@example.test", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["emailVerified"])

	code, _ = ts.do(t, "GET", "/user/verify-email?email=ghost@example.test", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestNotifications(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, "POST", "/notification", "", map[string]any{
		"email": auth.LocalDevEmail, "title": "Hello", "content": "World",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	code, _ = ts.do(t, "POST", "/notification", "", map[string]any{"email": auth.LocalDevEmail, "title": "", "content": "x"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.do(t, "GET", "/notification", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = ts.do(t, "GET", "/notification", auth.LocalDevAPIKey, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])
}

func TestHealthHandler_CheckHealth(t *testing.T) {
	BindServiceHealth(func() bool { return true })
	BindComponentHealth(func() map[string]bool { return map[string]bool{"store": true} })
	t.Cleanup(func() {
		BindServiceHealth(func() bool { return healthyFlag.Load() == 1 })
		BindComponentHealth(func() map[string]bool { return nil })
	})

	ts := newTestServer(t)
	code, body := ts.do(t, "GET", "/api/health", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, map[string]any{"store": true}, body["components"])
}
