// Package limiters holds the client-side login lockout state machine.
//
// # Limiters
//
//   - [Lockout]: consecutive-failure counter with a timed lockout window.
//
// Lockout is a plain value type with no timers and no locking: the owning
// controller serialises access and drives expiry from its own countdown.
// Every method takes the current time explicitly.
//
// # What this package must NOT do
//
//   - Import authgate or any sibling internal package.
//   - Schedule timers or perform I/O.
package limiters
