package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMethodMux_Dispatch(t *testing.T) {
	var called string
	mux := methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = http.MethodGet
		}),
		http.MethodPost: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = http.MethodPost
		}),
	})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/events", nil))
	require.Equal(t, http.MethodPost, called)
}

func TestMethodMux_MethodNotAllowed(t *testing.T) {
	mux := methodMux(map[string]http.Handler{
		http.MethodGet:  http.NotFoundHandler(),
		http.MethodPost: http.NotFoundHandler(),
	})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/events", nil))

	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.Equal(t, "GET, POST", w.Header().Get("Allow"))
}
