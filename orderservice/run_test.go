package orderservice

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/auth"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/config"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/identity"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/notify"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store/memory"
)

func testDeps() *dependencies {
	return &dependencies{
		store:      memory.New(),
		closeStore: func() error { return nil },
		identity:   identity.NewNoopProvisioner(zerolog.Nop()),
		mailer:     notify.NewLogMailer(zerolog.Nop()),
	}
}

func TestStartupHealthTimeout(t *testing.T) {
	assert.Equal(t, 60*time.Second, startupHealthTimeout(5))
	assert.Equal(t, 120*time.Second, startupHealthTimeout(60))
}

func TestInitDependencies_RequiresJWTSecret(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.JWTSecret = ""
	cfg.DevAuth = false
	_, err := initDependencies(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestInitDependencies_Memory(t *testing.T) {
	deps, err := initDependencies(context.Background(), config.NewForTesting(), zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, deps.store)
	assert.NoError(t, deps.closeStore())
}

func TestBuildRouter_ServesOrdersAndMetrics(t *testing.T) {
	cfg := config.NewForTesting()
	deps := testDeps()
	_, err := deps.store.Regions().Put(context.Background(), &model.Region{
		Kind: model.RegionJurisdiction, Code: "CA", IsActive: true, NopPeriod: 10, OpPeriod: 20,
	})
	require.NoError(t, err)
	_, _, err = deps.store.Accounts().CreateIfAbsent(context.Background(), &model.Account{
		Email: "p@example.test", IdentityStatus: model.IdentityProvisioned,
	})
	require.NoError(t, err)

	router, err := buildRouter(deps, cfg, zerolog.Nop())
	require.NoError(t, err)
	srv := httptest.NewServer(router)
	defer srv.Close()

	raw, _ := json.Marshal(map[string]any{
		"state":      "CA",
		"plaintiffs": []string{"p@example.test"},
		"defendants": []string{"d@example.test"},
		"email":      auth.LocalDevEmail,
	})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/order", bytes.NewReader(raw))
	req.Header.Set("Authorization", "Bearer "+auth.LocalDevAPIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var created map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, created["success"], created)

	resp, err = http.Get(srv.URL + "/order?limit=5")
	require.NoError(t, err)
	var listed map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	resp.Body.Close()
	assert.Equal(t, float64(1), listed["total"])
	assert.Len(t, listed["list"], 1)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStartHealthCheckers_ReportsComponents(t *testing.T) {
	cfg := config.NewForTesting()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := startHealthCheckers(ctx, cfg, zerolog.Nop(), testDeps())
	require.NoError(t, waitUntilHealthy(ctx, cfg, svc))

	comps := svc.Components()
	assert.True(t, comps["store"])
	assert.True(t, comps["identity:noop"])
	assert.True(t, comps["mail:log"])
}
