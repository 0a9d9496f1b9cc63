package family

import (
	"sync"
	"time"
)

// Config bounds the advisory caches.
type Config struct {
	MaxUsedEntries    int
	MaxRevokedEntries int
}

// Table is safe for concurrent use.
type Table struct {
	cfg Config

	mu      sync.Mutex
	locks   map[string]*familyLock
	used    map[[32]byte]time.Time
	revoked map[string]time.Time
}

type familyLock struct {
	mu   sync.Mutex
	refs int
}

// New returns an empty table. Non-positive bounds fall back to 100000 and 10000.
func New(cfg Config) *Table {
	if cfg.MaxUsedEntries <= 0 {
		cfg.MaxUsedEntries = 100000
	}
	if cfg.MaxRevokedEntries <= 0 {
		cfg.MaxRevokedEntries = 10000
	}
	return &Table{
		cfg:     cfg,
		locks:   make(map[string]*familyLock),
		used:    make(map[[32]byte]time.Time),
		revoked: make(map[string]time.Time),
	}
}

// Lock blocks until the caller holds the lock for familyID and returns the
// matching unlock. Lock entries are dropped once no caller references them.
func (t *Table) Lock(familyID string) func() {
	t.mu.Lock()
	l, ok := t.locks[familyID]
	if !ok {
		l = &familyLock{}
		t.locks[familyID] = l
	}
	l.refs++
	t.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			t.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(t.locks, familyID)
			}
			t.mu.Unlock()
		})
	}
}

// MarkUsed records that fp was redeemed at the given time.
func (t *Table) MarkUsed(fp [32]byte, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.used[fp]; !ok && len(t.used) >= t.cfg.MaxUsedEntries {
		// full: the store still holds the marker
		return
	}
	t.used[fp] = at
}

// LastUsed returns when fp was redeemed, if this process remembers it.
func (t *Table) LastUsed(fp [32]byte) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	at, ok := t.used[fp]
	return at, ok
}

// Forget drops used-markers for the given fingerprints.
func (t *Table) Forget(fps ...[32]byte) {
	if len(fps) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, fp := range fps {
		delete(t.used, fp)
	}
}

// MarkRevoked caches a revoked family until the given time, which should
// match the tombstone expiry.
func (t *Table) MarkRevoked(familyID string, until time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.revoked[familyID]; !ok && len(t.revoked) >= t.cfg.MaxRevokedEntries {
		return
	}
	t.revoked[familyID] = until
}

// IsRevoked reports whether familyID is cached as revoked at now.
func (t *Table) IsRevoked(familyID string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	until, ok := t.revoked[familyID]
	if !ok {
		return false
	}
	if !now.Before(until) {
		delete(t.revoked, familyID)
		return false
	}
	return true
}

// GC removes at most budget used-markers older than maxAge and expired
// revocation entries. It is not exhaustive; callers run it on every refresh.
func (t *Table) GC(now time.Time, maxAge time.Duration, budget int) int {
	if budget <= 0 {
		return 0
	}
	cutoff := now.Add(-maxAge)

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	scanned := 0
	for fp, at := range t.used {
		if scanned >= budget {
			break
		}
		scanned++
		if at.Before(cutoff) {
			delete(t.used, fp)
			removed++
		}
	}

	scanned = 0
	for fid, until := range t.revoked {
		if scanned >= budget {
			break
		}
		scanned++
		if !now.Before(until) {
			delete(t.revoked, fid)
			removed++
		}
	}
	return removed
}

// Stats reports cache sizes and live lock entries.
func (t *Table) Stats() (used, revoked, locks int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.used), len(t.revoked), len(t.locks)
}
