package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/fsp-platform/server/internal/api/problem"
	"github.com/rs/zerolog"
)

// Recovery converts handler panics into 500 problem responses instead of
// tearing down the connection.
func Recovery(env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger := zerolog.Ctx(r.Context())
					logger.Error().
						Interface("panic", rec).
						Bytes("stack", debug.Stack()).
						Str("path", r.URL.Path).
						Msg("handler panic")

					problem.Write(w, r, http.StatusInternalServerError,
						problem.TypeServerError, "Server error",
						fmt.Errorf("panic: %v", rec), env)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
