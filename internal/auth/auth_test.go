package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		err    error
	}{
		{"missing", "", "", ErrMissingToken},
		{"basic scheme", "Basic abc", "", ErrInvalidToken},
		{"no token", "Bearer ", "", ErrInvalidToken},
		{"extra parts", "Bearer a b", "", ErrInvalidToken},
		{"ok", "Bearer abc.def", "abc.def", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, err := ExtractBearerToken(r)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJWTAuthorizer_RoundTrip(t *testing.T) {
	a := NewJWTAuthorizer("secret")
	tok, err := a.Issue("req@example.test", time.Minute)
	require.NoError(t, err)

	p, err := a.Authorize(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "req@example.test", p.Email)
	assert.Equal(t, "jwt", p.Method)
}

func TestJWTAuthorizer_Rejects(t *testing.T) {
	a := NewJWTAuthorizer("secret")
	ctx := context.Background()

	expired, err := a.Issue("req@example.test", -time.Minute)
	require.NoError(t, err)
	_, err = a.Authorize(ctx, expired)
	assert.ErrorIs(t, err, ErrTokenExpired)

	other, err := NewJWTAuthorizer("other").Issue("req@example.test", time.Minute)
	require.NoError(t, err)
	_, err = a.Authorize(ctx, other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noEmail, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = a.Authorize(ctx, noEmail)
	assert.ErrorIs(t, err, ErrMissingEmail)

	_, err = a.Authorize(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewJWTAuthorizer("").Authorize(ctx, other)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNew_DevKeyOnlyInDevMode(t *testing.T) {
	ctx := context.Background()

	p, err := New("secret", true).Authorize(ctx, LocalDevAPIKey)
	require.NoError(t, err)
	assert.Equal(t, LocalDevEmail, p.Email)

	_, err = New("secret", false).Authorize(ctx, LocalDevAPIKey)
	assert.ErrorIs(t, err, ErrInvalidToken)

	tok, err := NewJWTAuthorizer("secret").Issue("req@example.test", time.Minute)
	require.NoError(t, err)
	p, err = New("secret", true).Authorize(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "req@example.test", p.Email)
}

func TestMiddleware(t *testing.T) {
	var seen *Principal
	h := Middleware(New("secret", true))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/order", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Nil(t, seen)

	req := httptest.NewRequest("POST", "/order", nil)
	req.Header.Set("Authorization", "Bearer "+LocalDevAPIKey)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	require.NotNil(t, seen)
	assert.Equal(t, LocalDevEmail, seen.Email)
}
