// Package rate is the dev server's Redis-backed failed-login limiter. It
// stands in for the storefront server's own throttling so the client-side
// lockout can be exercised against a server that also refuses requests.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys:
//   - <prefix>:u:<username>  failed logins per username
//   - <prefix>:ip:<ip>       failed logins per client IP
package rate
