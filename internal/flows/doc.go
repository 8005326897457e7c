// Package flows contains the network-facing orchestrators behind the login
// controller and the registration pipeline.
//
// Each flow function (RunLogin, RunAvailabilityCheck, RunRegister) accepts a
// typed dependency struct and returns a classified outcome. The controllers
// in the root package own state, timers, and locking; a flow only decides
// what a single backend round trip meant.
//
// # Architecture boundaries
//
// Flow functions coordinate the backend call, the optional availability
// cache, metrics, audit, and logging. They do NOT own any of these
// resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authgate (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency funcs.
package flows
