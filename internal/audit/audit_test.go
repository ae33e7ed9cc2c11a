package audit

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	req := httptest.NewRequest(http.MethodDelete, "/api/events/abc", nil)
	req = req.WithContext(logger.WithContext(req.Context()))
	req.Header.Set("X-Forwarded-For", "203.0.113.7")

	Record(req, ActionEventDelete, "user-1", "event-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, true, entry["audit"])
	require.Equal(t, ActionEventDelete, entry["action"])
	require.Equal(t, "user-1", entry["actor_id"])
	require.Equal(t, "event-1", entry["resource_id"])
	require.Equal(t, "203.0.113.7", entry["ip"])
}

func TestClientIPFallbacks(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Equal(t, req.RemoteAddr, clientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	require.Equal(t, "198.51.100.2", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	require.Equal(t, "203.0.113.7, 10.0.0.1", clientIP(req))
}
