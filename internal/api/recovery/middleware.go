// Package recovery turns handler panics into tagged 500 responses.
package recovery

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/api/respond"
)

// Middleware logs a panic from a downstream handler with its stack and answers
// with the standard 500 envelope.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.Error().
				Interface("panic", rec).
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Str("remote", r.RemoteAddr).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			respond.WriteJSON(w, http.StatusInternalServerError, respond.ErrorResponse{
				Type:    "internal",
				Message: "Internal Server Error",
				Error:   "panic",
				Code:    http.StatusInternalServerError,
			})
		}()
		next.ServeHTTP(w, r)
	})
}
