package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/auth"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/services"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store/memory"
)

type captured struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]any
}

func recordServer(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method, got.path, got.query = r.Method, r.URL.Path, r.URL.RawQuery
		got.auth = r.Header.Get("Authorization")
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&got.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestRunOrderCreate(t *testing.T) {
	srv, got := recordServer(t, http.StatusOK, `{"success":true}`)
	var out bytes.Buffer

	err := runOrderCreate(newClient(srv.URL, "tok"), orderCreateOpts{
		State:      "CA",
		Defendants: []string{"d@example.test"},
		Fields:     map[string]string{"caseTitle": "Doe v. Roe"},
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/order", got.path)
	assert.Equal(t, "Bearer tok", got.auth)
	assert.Equal(t, "CA", got.body["state"])
	assert.Equal(t, []any{}, got.body["plaintiffs"])
	assert.Equal(t, []any{"d@example.test"}, got.body["defendants"])
	assert.Equal(t, "Doe v. Roe", got.body["caseTitle"])
	assert.NotContains(t, got.body, "email")
	assert.Contains(t, out.String(), `"success":true`)
}

func TestRunOrderCreate_Validation(t *testing.T) {
	c := newClient("http://127.0.0.1:1", "")
	assert.Error(t, runOrderCreate(c, orderCreateOpts{Defendants: []string{"d@example.test"}}, &bytes.Buffer{}))
	assert.Error(t, runOrderCreate(c, orderCreateOpts{State: "CA"}, &bytes.Buffer{}))
	err := runOrderCreate(c, orderCreateOpts{
		State: "CA", Defendants: []string{"d@example.test"}, Fields: map[string]string{"state": "NY"},
	}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "collides")
}

func TestRunOrderCreate_HTTPError(t *testing.T) {
	srv, _ := recordServer(t, http.StatusUnauthorized, `{"success":false,"code":401}`)
	err := runOrderCreate(newClient(srv.URL, ""), orderCreateOpts{State: "CA", Plaintiffs: []string{"p@example.test"}}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 401")
}

func TestRunOrderList(t *testing.T) {
	srv, got := recordServer(t, http.StatusOK, `{"success":true,"list":[]}`)
	var out bytes.Buffer
	require.NoError(t, runOrderList(newClient(srv.URL, ""), 3, 2, &out))
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/order", got.path)
	assert.Contains(t, got.query, "limit=3")
	assert.Contains(t, got.query, "page=2")
	assert.Empty(t, got.auth)

	require.NoError(t, runOrderList(newClient(srv.URL, ""), 0, 0, &out))
	assert.Empty(t, got.query)
}

func TestRunRegionPut(t *testing.T) {
	st := memory.New()
	svc := services.NewRegionService(st)
	var out bytes.Buffer

	err := runRegionPut(context.Background(), svc, model.Region{
		Kind: model.RegionCourt, Code: " ny ", IsActive: true, NopPeriod: 14, OpPeriod: 30,
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"code": "NY"`)

	r, err := st.Regions().Get(context.Background(), model.RegionCourt, "NY")
	require.NoError(t, err)
	assert.Equal(t, 14, r.NopPeriod)

	err = runRegionPut(context.Background(), svc, model.Region{Kind: model.RegionCourt, Code: "ZZ"}, &out)
	assert.ErrorContains(t, err, "not a known US state code")
}

func TestRunRegionGet(t *testing.T) {
	st := memory.New()
	svc := services.NewRegionService(st)
	_, err := svc.Put(context.Background(), &model.Region{Kind: model.RegionJurisdiction, Code: "CA", IsActive: true, NopPeriod: 10})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runRegionGet(context.Background(), svc, model.RegionJurisdiction, "ca", &out))
	assert.Contains(t, out.String(), `"code": "CA"`)

	err = runRegionGet(context.Background(), svc, model.RegionCourt, "CA", &out)
	assert.ErrorContains(t, err, "court CA not found")
}

func TestRunTokenIssue(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runTokenIssue("s3cret", "req@example.test", time.Minute, &out))

	p, err := auth.NewJWTAuthorizer("s3cret").Authorize(context.Background(), strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "req@example.test", p.Email)

	assert.Error(t, runTokenIssue("", "req@example.test", time.Minute, &out))
}
