package auth

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/api/respond"
)

// Middleware rejects requests without a valid bearer token and stores the
// caller in the request context.
func Middleware(a Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ExtractBearerToken(r)
			if err != nil {
				respond.WriteUnauthorized(w, err.Error())
				return
			}
			p, err := a.Authorize(r.Context(), token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrMissingEmail) {
					msg = err.Error()
				}
				log.Debug().Err(err).Str("url", r.URL.Path).Msg("rejected bearer token")
				respond.WriteUnauthorized(w, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
