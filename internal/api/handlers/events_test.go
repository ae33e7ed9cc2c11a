package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fsp-platform/server/internal/api/middleware"
	"github.com/fsp-platform/server/internal/api/problem"
	"github.com/fsp-platform/server/internal/domain/users"
)

func TestParseEventDate(t *testing.T) {
	parsed, err := parseEventDate("2026-06-01T10:00:00Z")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC), parsed)

	parsed, err = parseEventDate("2026-06-01T10:00:00+05:00")
	require.NoError(t, err)
	require.Equal(t, 10, parsed.Hour())

	// The zone suffix is optional, FastAPI-style clients omit it.
	parsed, err = parseEventDate("2026-06-01T10:00:00")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC), parsed)

	for _, raw := range []string{"", "2026-06-01", "yesterday", "01.06.2026 10:00"} {
		_, err := parseEventDate(raw)
		require.Error(t, err, raw)
	}
}

func TestSplitTags(t *testing.T) {
	require.Nil(t, splitTags(nil))
	require.Equal(t, []string{"go", "sql"}, splitTags([]string{"go,sql"}))
	require.Equal(t, []string{"go", "sql", "ml"}, splitTags([]string{"go, sql", "ml"}))
	require.Equal(t, []string{"go"}, splitTags([]string{" go ", " ", ""}))
}

func TestEventHandlersRejectInvalidID(t *testing.T) {
	handler := &EventsHandler{Env: "test"}
	caller := &users.User{ID: "22222222-2222-4222-8222-222222222222", Role: users.RoleAthlete}

	cases := []struct {
		name string
		call func(w http.ResponseWriter, r *http.Request)
	}{
		{"get", handler.Get},
		{"update", handler.Update},
		{"delete", handler.Delete},
		{"register", handler.Register},
		{"unregister", handler.Unregister},
		{"participants", handler.Participants},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/events/not-a-uuid", nil)
			req = req.WithContext(middleware.WithCaller(req.Context(), caller))
			req.SetPathValue("id", "not-a-uuid")
			w := httptest.NewRecorder()
			tc.call(w, req)

			require.Equal(t, http.StatusBadRequest, w.Code)
			p := decodeProblem(t, w)
			require.Equal(t, problem.TypeValidation, p.Type)
		})
	}
}

func TestEventHandlersRequireCaller(t *testing.T) {
	handler := &EventsHandler{Env: "test"}

	cases := []struct {
		name string
		call func(w http.ResponseWriter, r *http.Request)
	}{
		{"create", handler.Create},
		{"my", handler.My},
		{"update", handler.Update},
		{"delete", handler.Delete},
		{"register", handler.Register},
		{"unregister", handler.Unregister},
		{"participants", handler.Participants},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/events", nil)
			w := httptest.NewRecorder()
			tc.call(w, req)

			require.Equal(t, http.StatusUnauthorized, w.Code)
			p := decodeProblem(t, w)
			require.Equal(t, problem.TypeUnauthorized, p.Type)
		})
	}
}

func TestListHandlerRejectsBadQuery(t *testing.T) {
	handler := &EventsHandler{Env: "test"}

	req := httptest.NewRequest(http.MethodGet, "/api/events?status=archived", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	p := decodeProblem(t, w)
	require.Equal(t, problem.TypeValidation, p.Type)
	require.Contains(t, p.Detail, "status")
}
