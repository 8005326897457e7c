// Package password implements the sign-up password strength policy.
//
// # Rules
//
// A password passes when it is at least [Config.MinLength] characters long
// and contains at least one uppercase letter, one lowercase letter, one
// digit, and one symbol from [Config.SpecialCharacters]. Rules are checked
// in that order and the first failing rule is reported as a [Violation]
// carrying a user-facing message.
//
// # Architecture boundaries
//
// This package owns strength checks only. The login screen's shorter
// minimum length and the confirm-password comparison live with their
// callers.
//
// # What this package must NOT do
//
//   - Hash, store, or transmit passwords.
//   - Import any other authgate package.
//   - Echo the candidate password in messages or errors.
package password
