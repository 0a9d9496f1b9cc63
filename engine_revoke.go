package goSession

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/goSession/refresh"
	"go.uber.org/zap"
)

const (
	revokeReasonReuse   = "reuse_detected"
	revokeReasonManual  = "manual"
	revokeReasonSession = "session_revoked"
)

var tombstoneValue = []byte{1}

// RevokeTokenFamily tombstones a token family so no member can be redeemed
// again, on this or any other engine sharing the store. The tombstone lives
// for the refresh lifetime. Revoking an unknown or already revoked family
// succeeds.
func (e *Engine) RevokeTokenFamily(ctx context.Context, familyID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	familyID = strings.TrimSpace(familyID)
	if familyID == "" {
		return nil
	}

	unlock := e.families.Lock(familyID)
	defer unlock()

	return e.revokeFamilyLocked(ctx, familyID, eventFields{family: familyID}, revokeReasonManual)
}

// RevokeSession revokes the session's token family and deletes the session
// record. Unknown sessions are a no-op.
func (e *Engine) RevokeSession(ctx context.Context, sessionID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}

	rec, err := e.loadSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		if errors.Is(err, ErrStoreUnavailable) {
			return err
		}
		// undecodable record: nothing to revoke beyond the record itself
		if err := e.store.Delete(ctx, sessionKey(sessionID)); err != nil {
			return storeErr(err)
		}
		return nil
	}

	fields := eventFields{
		userID:    rec.UserID,
		sessionID: rec.SessionID,
		family:    rec.FamilyID,
		version:   rec.Version,
	}

	unlock := e.families.Lock(rec.FamilyID)
	err = e.revokeFamilyLocked(ctx, rec.FamilyID, fields, revokeReasonSession)
	unlock()
	if err != nil {
		return err
	}

	if err := e.store.Delete(ctx, sessionKey(sessionID)); err != nil {
		return storeErr(err)
	}

	e.metricInc(MetricSessionRevoked)
	e.emitEvent(ctx, EventSessionRevoked, fields, nil)
	return nil
}

// revokeFamilyLocked must be called with the family lock held.
func (e *Engine) revokeFamilyLocked(ctx context.Context, familyID string, f eventFields, reason string) error {
	now := e.now()

	fresh, err := e.store.SetNX(ctx, tombstoneKey(familyID), tombstoneValue, e.refreshTTL())
	if err != nil {
		return storeErr(err)
	}

	var members [][32]byte
	fam, _, err := e.loadFamily(ctx, familyID)
	switch {
	case err == nil:
		members = fam.Members
		if f.userID == "" {
			f.userID = fam.UserID
		}
		if f.sessionID == "" {
			f.sessionID = fam.SessionID
		}
		if f.version == 0 {
			f.version = fam.Version
		}
	case errors.Is(err, ErrStoreUnavailable):
		return err
	}

	keys := make([]string, 0, len(members)+1)
	keys = append(keys, familyKey(familyID))
	for _, m := range members {
		keys = append(keys, usedKey(refresh.Fingerprint(m)))
	}
	if err := e.store.Delete(ctx, keys...); err != nil {
		return storeErr(err)
	}

	e.families.MarkRevoked(familyID, now.Add(e.refreshTTL()))
	e.families.Forget(members...)

	if e.limiter != nil {
		if err := e.limiter.ResetRefresh(ctx, familyID); err != nil {
			e.logger.Warn("refresh throttle reset failed",
				zap.String("family_id", familyID),
				zap.Error(err),
			)
		}
	}

	if !fresh {
		return nil
	}

	e.metricInc(MetricFamilyRevoked)
	e.logger.Info("token family revoked",
		zap.String("family_id", familyID),
		zap.String("reason", reason),
	)
	e.emitEvent(ctx, EventFamilyRevoked, f, func() map[string]string {
		return map[string]string{"reason": reason}
	})
	return nil
}
