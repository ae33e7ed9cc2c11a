package middleware

import (
	"context"
	"net/http"

	"github.com/fsp-platform/server/internal/api/problem"
	"github.com/fsp-platform/server/internal/auth"
	"github.com/fsp-platform/server/internal/domain/users"
)

const callerKey contextKey = "caller"

// UserResolver loads the account behind a verified token.
type UserResolver interface {
	Resolve(ctx context.Context, userID string) (*users.User, error)
}

// BearerAuth verifies the Authorization header, loads the user, and stores it
// in the request context. Missing or invalid tokens end the request with 401.
func BearerAuth(tokens *auth.JWTManager, resolver UserResolver, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", err, env)
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", err, env)
				return
			}

			user, err := resolver.Resolve(r.Context(), claims.UserID())
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", err, env)
				return
			}

			ctx := context.WithValue(r.Context(), callerKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithCaller returns a context carrying the given user as the authenticated
// caller, the same way BearerAuth does after verifying a token.
func WithCaller(ctx context.Context, user *users.User) context.Context {
	return context.WithValue(ctx, callerKey, user)
}

// Caller returns the authenticated user placed in the context by BearerAuth.
func Caller(ctx context.Context) *users.User {
	if user, ok := ctx.Value(callerKey).(*users.User); ok {
		return user
	}
	return nil
}
