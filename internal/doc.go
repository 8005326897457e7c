// Package internal holds the pieces of authgate that are private to the
// module.
//
// # Sub-packages
//
//   - devserver: in-memory storefront auth API for examples and end-to-end tests
//   - envconfig: environment and .env loading for the binaries
//   - flows: pure-function orchestrators for login, uniqueness checks, and registration
//   - limiters: the failed-login lockout state machine
//   - rate: Redis-backed failed-login limiter used by the dev server
//   - stores: Redis cache of identifiers the backend reported as taken
//
// # What this package must NOT do
//
//   - Export types that appear in the public authgate API.
package internal
