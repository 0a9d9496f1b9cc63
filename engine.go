package goSession

import (
	"encoding/binary"
	"time"

	"github.com/MrEthical07/goSession/internal/family"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/refresh"
	"go.uber.org/zap"
)

const (
	keySession       = "session:"
	keyRevokedFamily = "revoked_family:"
	keyFamily        = "family:"
	keyUsedToken     = "used_token:"
)

// Engine defines a public type used by goSession APIs.
//
// Engine owns refresh rotation, token-family bookkeeping, reuse detection and
// revocation. All methods are safe for concurrent use after Build.
type Engine struct {
	config   Config
	store    Store
	codec    TokenCodec
	families *family.Table
	limiter  *rate.Limiter
	events   *eventDispatcher
	metrics  *Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// Close flushes pending events and stops the dispatcher. The store and
// Redis client are owned by the caller and stay open.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.events != nil {
		e.events.Close()
	}
}

// EventsDropped reports events discarded because the dispatcher buffer was full.
func (e *Engine) EventsDropped() uint64 {
	if e == nil || e.events == nil {
		return 0
	}
	return e.events.Dropped()
}

// MetricsSnapshot returns a copy of the in-process counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	snap := e.metrics.Snapshot()
	if e.metrics.Enabled() {
		snap.Counters[MetricEventsDropped] = e.EventsDropped()
	}
	return snap
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricAdd(id MetricID, n int) {
	if e == nil || e.metrics == nil || n <= 0 {
		return
	}
	e.metrics.Add(id, uint64(n))
}

func (e *Engine) observeSince(id MetricID, start time.Time) {
	if e == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

func (e *Engine) ready() bool {
	return e != nil && e.store != nil && e.codec != nil && e.families != nil
}

func (e *Engine) refreshTTL() time.Duration {
	return e.config.Token.RefreshTTL
}

func sessionKey(sessionID string) string {
	return keySession + sessionID
}

func tombstoneKey(familyID string) string {
	return keyRevokedFamily + familyID
}

func familyKey(familyID string) string {
	return keyFamily + familyID
}

func usedKey(fp refresh.Fingerprint) string {
	return keyUsedToken + fp.String()
}

func encodeUsedAt(t time.Time) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(t.UnixNano()))
	return b[:]
}

func decodeUsedAt(b []byte) (time.Time, bool) {
	if len(b) != 8 {
		return time.Time{}, false
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(b))), true
}

func cloneMetadata(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
