package authgate

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by authgate APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricLoginSuccess counts logins the backend accepted.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts explicit credential rejections.
	MetricLoginFailure
	// MetricLoginTimeout counts logins that hit Backend.LoginTimeout.
	MetricLoginTimeout
	// MetricLoginUnavailable counts transport failures during login.
	MetricLoginUnavailable
	// MetricLoginInvalidInput counts submissions stopped by the synchronous checks.
	MetricLoginInvalidInput
	// MetricLoginRejectedLocked counts submissions refused while locked out.
	MetricLoginRejectedLocked
	// MetricLoginInProgress counts submissions refused because one was in flight.
	MetricLoginInProgress
	// MetricLockoutStarted counts Normal to Locked transitions.
	MetricLockoutStarted
	// MetricLockoutExpired counts Locked to Normal transitions.
	MetricLockoutExpired
	// MetricAvailabilityCheck counts uniqueness checks issued.
	MetricAvailabilityCheck
	// MetricAvailabilityConflict counts checks answered "taken".
	MetricAvailabilityConflict
	// MetricAvailabilityAvailable counts checks answered "free".
	MetricAvailabilityAvailable
	// MetricAvailabilityUnavailable counts checks that failed in transport.
	MetricAvailabilityUnavailable
	// MetricAvailabilityStale counts responses dropped because the field moved on.
	MetricAvailabilityStale
	// MetricAvailabilityCacheHit counts checks answered from the Redis cache.
	MetricAvailabilityCacheHit
	// MetricDebounceSuperseded counts pending checks replaced by newer input.
	MetricDebounceSuperseded
	// MetricRegistrationSuccess counts accepted submissions.
	MetricRegistrationSuccess
	// MetricRegistrationFailure counts rejected or failed submissions.
	MetricRegistrationFailure
	// MetricRegistrationFieldConflict counts submissions rejected for a taken username or email.
	MetricRegistrationFieldConflict
	// MetricLoginLatency is the login round-trip latency histogram.
	MetricLoginLatency
	// MetricAvailabilityLatency is the uniqueness check latency histogram.
	MetricAvailabilityLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by authgate APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot defines a public type used by authgate APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a metrics registry. A disabled registry ignores writes.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters record.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether histograms record.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in a latency histogram. Only histogram IDs accept
// observations.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if !isHistogramID(id) {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns a counter's current value.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when enabled, every histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, len(histogramIDs)),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if isHistogramID(id) {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for _, id := range histogramIDs {
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

var histogramIDs = []MetricID{MetricLoginLatency, MetricAvailabilityLatency}

func isHistogramID(id MetricID) bool {
	return id == MetricLoginLatency || id == MetricAvailabilityLatency
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
