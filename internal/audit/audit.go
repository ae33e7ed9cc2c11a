// Package audit records who did what to which resource. Entries ride the
// request-scoped zerolog logger, so they carry the request id and land in the
// same stream as the rest of the logs, marked with audit=true for filtering.
package audit

import (
	"net/http"

	"github.com/rs/zerolog"
)

const (
	ActionUserRegister    = "user.register"
	ActionEventCreate     = "event.create"
	ActionEventUpdate     = "event.update"
	ActionEventDelete     = "event.delete"
	ActionEventRegister   = "event.register"
	ActionEventUnregister = "event.unregister"
)

// Record writes one audit entry for a state-changing request. actorID is the
// authenticated user performing the action, resourceID the entity acted on.
func Record(r *http.Request, action, actorID, resourceID string) {
	zerolog.Ctx(r.Context()).Info().
		Bool("audit", true).
		Str("action", action).
		Str("actor_id", actorID).
		Str("resource_id", resourceID).
		Str("ip", clientIP(r)).
		Msg("audit")
}

// clientIP prefers proxy headers over the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
