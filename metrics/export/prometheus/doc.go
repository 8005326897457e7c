// Package prometheus renders authgate metrics in Prometheus text exposition
// format.
//
// [NewExporter] takes an [authgate.Engine] and exposes an [http.Handler].
// Counters are named authgate_*_total; the two latency histograms are
// authgate_login_latency_seconds and authgate_availability_latency_seconds.
//
// # What this package must NOT do
//
//   - Register into a global Prometheus registry. Callers mount the Handler.
//   - Mutate engine state.
package prometheus
