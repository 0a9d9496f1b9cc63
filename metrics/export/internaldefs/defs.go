package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine latency histogram to its exported name.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricSessionCreated, Name: "gosession_session_created_total", Help: "Created sessions."},
	{ID: goSession.MetricRefreshSuccess, Name: "gosession_refresh_success_total", Help: "Successful refresh operations."},
	{ID: goSession.MetricRefreshFailure, Name: "gosession_refresh_failure_total", Help: "Rejected refresh operations, reuse included."},
	{ID: goSession.MetricRefreshReuseDetected, Name: "gosession_refresh_reuse_detected_total", Help: "Detected refresh credential reuses."},
	{ID: goSession.MetricReplayWithinWindow, Name: "gosession_replay_within_window_total", Help: "Reuses detected within the reuse window."},
	{ID: goSession.MetricRefreshRateLimited, Name: "gosession_refresh_rate_limited_total", Help: "Throttled refresh attempts."},
	{ID: goSession.MetricRefreshCASConflict, Name: "gosession_refresh_cas_conflict_total", Help: "Family record compare-and-swap conflicts."},
	{ID: goSession.MetricFamilyRevoked, Name: "gosession_family_revoked_total", Help: "Token families newly revoked."},
	{ID: goSession.MetricFamilyEviction, Name: "gosession_family_eviction_total", Help: "Family members evicted by the size bound."},
	{ID: goSession.MetricSessionRevoked, Name: "gosession_session_revoked_total", Help: "Sessions revoked."},
	{ID: goSession.MetricValidateSuccess, Name: "gosession_validate_success_total", Help: "Accepted access credentials."},
	{ID: goSession.MetricValidateFailure, Name: "gosession_validate_failure_total", Help: "Rejected access credentials."},
	{ID: goSession.MetricEventsDropped, Name: "gosession_events_dropped_total", Help: "Lifecycle events dropped on a full dispatcher buffer."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricRefreshLatency, Name: "gosession_refresh_latency_seconds", Help: "Refresh latency histogram."},
	{ID: goSession.MetricValidateLatency, Name: "gosession_validate_latency_seconds", Help: "Validate latency histogram."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The engine
// keeps one more overflow bucket beyond the last bound.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// NormalizeBuckets copies raw into a fixed eight-bucket array.
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
