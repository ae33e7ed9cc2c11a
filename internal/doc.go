// Package internal documents the federation server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem responses, and routing
// - domain: business logic (users, profiles, events) and id generation
// - storage: PostgreSQL repositories and migrations
// - auth, audit, config, metrics, sanitize, uploads, validation: shared
//   infrastructure
//
// Code in internal/ is not meant for external import.
package internal
