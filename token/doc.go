// Package token reads the access token returned by the login endpoint.
//
// The storefront client never holds the signing key, so [Decode] parses the
// token without verifying its signature and exposes only display-level
// claims (subject, username, expiry). Authorization decisions stay with the
// backend, which verifies every token it receives.
//
// [Issuer] is the signing counterpart used by the development backend.
//
// # What this package must NOT do
//
//   - Persist tokens. Session storage is the caller's concern.
//   - Treat decoded claims as proof of identity.
package token
