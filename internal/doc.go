// Package internal documents the gatherpoint server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem responses, and routing
// - domain: business logic, including the event visibility policy
// - storage: database access and repositories (pgx + Postgres)
// - auth, config, metrics: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
