// Package stores provides the Redis-backed availability cache used by the
// registration pipeline.
//
// # Design
//
// Only "taken" answers are cached. A free username can be claimed by someone
// else at any moment, so a cached "free" would let a stale answer through;
// a taken one stays taken for the TTL window in practice. Keys are
// lower-cased so lookups are case-insensitive, matching how the backend
// compares identifiers.
//
// # Architecture boundaries
//
// This package owns persistence only. It does NOT call the auth backend or
// decide whether a field is valid; that is the job of internal/flows.
//
// # What this package must NOT do
//
//   - Import authgate or any sibling internal package.
//   - Treat a Redis failure as an answer. Errors are returned and the
//     caller falls through to the backend.
package stores
