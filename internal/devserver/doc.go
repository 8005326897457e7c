// Package devserver is an in-memory implementation of the storefront auth
// API used by the examples, the load test, and end-to-end tests.
//
// It serves the same four endpoints the authapi client calls, stores users
// with bcrypt hashes, and signs HS256 login tokens. Nothing is persisted.
package devserver
