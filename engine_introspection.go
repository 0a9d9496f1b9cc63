package goSession

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// GetSession returns the persisted view of a session. Revoked reports whether
// its token family is tombstoned.
func (e *Engine) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	rec, err := e.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ttl, err := e.store.TTL(ctx, sessionKey(sessionID))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, storeErr(err)
	}

	revoked, err := e.store.Exists(ctx, tombstoneKey(rec.FamilyID))
	if err != nil {
		return nil, storeErr(err)
	}

	return &SessionInfo{
		SessionID:     rec.SessionID,
		UserID:        rec.UserID,
		FamilyID:      rec.FamilyID,
		Version:       rec.Version,
		Metadata:      cloneMetadata(rec.Metadata),
		CreatedAt:     time.Unix(0, rec.CreatedAt).UTC(),
		LastRefreshed: time.Unix(0, rec.LastRefreshed).UTC(),
		ExpiresIn:     ttl,
		Revoked:       revoked,
	}, nil
}

// FamilySize returns the number of refresh credentials currently redeemable
// in a family. Revoked and unknown families report zero.
func (e *Engine) FamilySize(ctx context.Context, familyID string) (int, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}

	revoked, err := e.store.Exists(ctx, tombstoneKey(familyID))
	if err != nil {
		return 0, storeErr(err)
	}
	if revoked {
		return 0, nil
	}

	fam, _, err := e.loadFamily(ctx, familyID)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return 0, nil
		}
		return 0, err
	}
	return len(fam.Members), nil
}

// Health pings the store.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if !e.ready() {
		return HealthStatus{}
	}
	latency, err := e.store.Ping(ctx)
	return HealthStatus{
		StoreAvailable: err == nil,
		StoreLatency:   latency,
	}
}
