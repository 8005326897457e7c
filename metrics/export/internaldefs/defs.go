package internaldefs

import (
	"github.com/MrEthical07/authgate"
)

// CounterDef maps one authgate counter onto its exported name.
type CounterDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// HistogramDef maps one authgate latency histogram onto its exported name.
type HistogramDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: authgate.MetricLoginSuccess, Name: "authgate_login_success_total", Help: "Logins accepted by the backend."},
	{ID: authgate.MetricLoginFailure, Name: "authgate_login_failure_total", Help: "Logins rejected for bad credentials."},
	{ID: authgate.MetricLoginTimeout, Name: "authgate_login_timeout_total", Help: "Logins that exceeded the login timeout."},
	{ID: authgate.MetricLoginUnavailable, Name: "authgate_login_unavailable_total", Help: "Logins that failed in transport."},
	{ID: authgate.MetricLoginInvalidInput, Name: "authgate_login_invalid_input_total", Help: "Login submissions stopped by field checks."},
	{ID: authgate.MetricLoginRejectedLocked, Name: "authgate_login_rejected_locked_total", Help: "Login submissions refused during a lockout."},
	{ID: authgate.MetricLoginInProgress, Name: "authgate_login_in_progress_total", Help: "Login submissions refused while one was in flight."},
	{ID: authgate.MetricLockoutStarted, Name: "authgate_lockout_started_total", Help: "Lockouts started after repeated failures."},
	{ID: authgate.MetricLockoutExpired, Name: "authgate_lockout_expired_total", Help: "Lockouts that ran out."},
	{ID: authgate.MetricAvailabilityCheck, Name: "authgate_availability_check_total", Help: "Username and email uniqueness checks issued."},
	{ID: authgate.MetricAvailabilityConflict, Name: "authgate_availability_conflict_total", Help: "Uniqueness checks answered taken."},
	{ID: authgate.MetricAvailabilityAvailable, Name: "authgate_availability_available_total", Help: "Uniqueness checks answered free."},
	{ID: authgate.MetricAvailabilityUnavailable, Name: "authgate_availability_unavailable_total", Help: "Uniqueness checks that failed in transport."},
	{ID: authgate.MetricAvailabilityStale, Name: "authgate_availability_stale_total", Help: "Uniqueness responses dropped because the field changed."},
	{ID: authgate.MetricAvailabilityCacheHit, Name: "authgate_availability_cache_hit_total", Help: "Uniqueness checks answered from the cache."},
	{ID: authgate.MetricDebounceSuperseded, Name: "authgate_debounce_superseded_total", Help: "Pending uniqueness checks replaced by newer input."},
	{ID: authgate.MetricRegistrationSuccess, Name: "authgate_registration_success_total", Help: "Registrations accepted by the backend."},
	{ID: authgate.MetricRegistrationFailure, Name: "authgate_registration_failure_total", Help: "Registrations rejected or failed."},
	{ID: authgate.MetricRegistrationFieldConflict, Name: "authgate_registration_field_conflict_total", Help: "Registrations rejected for a taken username or email."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: authgate.MetricLoginLatency, Name: "authgate_login_latency_seconds", Help: "Login round-trip latency."},
	{ID: authgate.MetricAvailabilityLatency, Name: "authgate_availability_latency_seconds", Help: "Uniqueness check round-trip latency."},
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "authgate_audit_dropped_total"

// HistogramBounds are the upper bucket bounds in seconds, as rendered in
// the Prometheus le label.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix names the same buckets for exporters that cannot
// carry labels.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
