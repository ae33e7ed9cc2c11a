package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fsp-platform/server/internal/auth"
	"github.com/fsp-platform/server/internal/domain/users"
	"github.com/stretchr/testify/require"
)

type staticResolver struct {
	user *users.User
	err  error
}

func (r *staticResolver) Resolve(_ context.Context, _ string) (*users.User, error) {
	return r.user, r.err
}

func TestBearerAuth_ValidToken(t *testing.T) {
	tokens := auth.NewJWTManager("test-secret-test-secret-test-sec", time.Minute, "fsp")
	user := &users.User{ID: "u1", Role: users.RoleAthlete, IsActive: true}

	token, err := tokens.Issue(user.ID, string(user.Role))
	require.NoError(t, err)

	var got *users.User
	handler := BearerAuth(tokens, &staticResolver{user: user}, "test")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = Caller(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	require.Equal(t, "u1", got.ID)
}

func TestBearerAuth_MissingHeader(t *testing.T) {
	tokens := auth.NewJWTManager("test-secret-test-secret-test-sec", time.Minute, "fsp")
	handler := BearerAuth(tokens, &staticResolver{}, "test")(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestBearerAuth_BadToken(t *testing.T) {
	tokens := auth.NewJWTManager("test-secret-test-secret-test-sec", time.Minute, "fsp")
	handler := BearerAuth(tokens, &staticResolver{}, "test")(okHandler())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	r.Header.Set("Authorization", "Bearer not-a-token")
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerAuth_InactiveUser(t *testing.T) {
	tokens := auth.NewJWTManager("test-secret-test-secret-test-sec", time.Minute, "fsp")
	token, err := tokens.Issue("u1", "athlete")
	require.NoError(t, err)

	handler := BearerAuth(tokens, &staticResolver{err: users.ErrInactive}, "test")(okHandler())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCaller_AbsentIsNil(t *testing.T) {
	require.Nil(t, Caller(context.Background()))
}
