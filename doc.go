// Package authgate is the client-side authentication gate of the gift-box
// storefront: the login throttle with its live lockout countdown and the
// sign-up wizard's validation pipeline with debounced, network-backed
// uniqueness checks.
//
// An [Engine] is built once through [Builder.Build] and hands out
// per-screen controllers: [Engine.NewLoginController] for the login screen
// and [Engine.NewRegistration] for the two-step sign-up wizard. Controllers
// are safe to call from multiple goroutines; every state change, timer
// callback, and network completion is serialised through one mutex per
// controller, and listeners receive immutable snapshots.
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Engine], [Builder], [Config],
// the controllers, and value types (LoginState, RegistrationState,
// MetricsSnapshot). Network orchestration, the lockout state machine, and
// the availability cache live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Keep process-wide timers. Every countdown and debounce timer belongs to
//     one controller and dies with its Close.
//   - Apply a network response to a field whose value changed after the
//     request was issued.
//   - Panic on backend failures. Every failure is folded into field or
//     screen message state and returned as a sentinel error.
package authgate
