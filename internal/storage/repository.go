// Package storage groups the per-domain repository interfaces behind a
// single access point so wiring code can hand one dependency to the router.
package storage

import (
	"github.com/fsp-platform/server/internal/domain/events"
	"github.com/fsp-platform/server/internal/domain/profiles"
	"github.com/fsp-platform/server/internal/domain/users"
)

type Repository interface {
	Users() users.Repository
	Profiles() profiles.Repository
	Events() events.Repository
}
