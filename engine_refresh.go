package goSession

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/refresh"
	"github.com/MrEthical07/goSession/session"
	"go.uber.org/zap"
)

const (
	replayWithinWindow = "within_window"
	replayStale        = "stale"
	replayUnknown      = "unknown"
)

var errFamilyContention = errors.New("family record contention")

type refreshOutcome struct {
	fields eventFields
	replay string
}

// RefreshTokens redeems a refresh credential for a new credential pair.
//
// Each credential can be redeemed once. The redemption is recorded with an
// atomic insert-if-absent in the store, so of any number of concurrent calls
// presenting the same credential at most one proceeds. Every other call, and
// any later replay, revokes the whole token family and fails with
// ErrReuseDetected, which matches ErrInvalidToken under errors.Is and carries
// the same message.
//
// Once the redemption is recorded the call runs to completion even if ctx is
// canceled, so a consumed credential always yields its replacement.
func (e *Engine) RefreshTokens(ctx context.Context, refreshToken string) (*SessionToken, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	tokens, out, err := e.refresh(ctx, refreshToken)
	e.observeSince(MetricRefreshLatency, start)

	if err != nil {
		e.metricInc(MetricRefreshFailure)
		out.fields.err = err
		e.emitEvent(ctx, EventRefreshFailed, out.fields, func() map[string]string {
			if out.replay == "" {
				return nil
			}
			return map[string]string{"replay": out.replay}
		})
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitEvent(ctx, EventSessionRefreshed, out.fields, nil)
	return tokens, nil
}

func (e *Engine) refresh(ctx context.Context, token string) (*SessionToken, refreshOutcome, error) {
	var out refreshOutcome

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, out, ErrNoRefreshToken
	}

	claims, err := e.codec.ParseRefresh(token)
	if err != nil {
		return nil, out, ErrInvalidToken
	}
	out.fields = eventFields{
		userID:    claims.UID,
		sessionID: claims.SID,
		family:    claims.Family,
		version:   claims.Version,
	}

	now := e.now()
	if e.families.IsRevoked(claims.Family, now) {
		return nil, out, ErrInvalidToken
	}

	if e.limiter != nil {
		if err := e.limiter.CheckRefresh(ctx, claims.Family, clientIPFromContext(ctx)); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricRefreshRateLimited)
				return nil, out, ErrRefreshRateLimited
			}
			return nil, out, storeErr(err)
		}
	}

	unlock := e.families.Lock(claims.Family)
	defer unlock()

	fp := refresh.Of(token)
	rotating := e.config.Rotation.RotateRefreshToken

	if rotating {
		if usedAt, ok := e.families.LastUsed(fp); ok {
			out.replay = e.classifyReplay(now, usedAt, true)
			return nil, out, e.handleReuse(ctx, claims, out.replay)
		}

		won, err := e.store.SetNX(ctx, usedKey(fp), encodeUsedAt(now), e.refreshTTL())
		if err != nil {
			return nil, out, storeErr(err)
		}
		if !won {
			usedAt, known := e.durableUsedAt(ctx, fp)
			out.replay = e.classifyReplay(now, usedAt, known)
			return nil, out, e.handleReuse(ctx, claims, out.replay)
		}
		e.families.MarkUsed(fp, now)

		// consumed: finish regardless of caller cancellation
		ctx = context.WithoutCancel(ctx)
	}

	revoked, err := e.store.Exists(ctx, tombstoneKey(claims.Family))
	if err != nil {
		return nil, out, storeErr(err)
	}
	if revoked {
		e.families.MarkRevoked(claims.Family, now.Add(e.refreshTTL()))
		return nil, out, ErrInvalidToken
	}

	fam, famBlob, err := e.loadFamily(ctx, claims.Family)
	if err != nil {
		return nil, out, err
	}
	if fam.SessionID != claims.SID || !fam.Contains(fp) {
		return nil, out, ErrInvalidToken
	}

	rec, err := e.loadSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return nil, out, err
		}
		return nil, out, ErrInvalidToken
	}

	access, accessExp, err := e.codec.IssueAccess(claims.UID, claims.SID, rec.Metadata)
	if err != nil {
		return nil, out, issueErr(err)
	}

	if !rotating {
		expiry := time.Time{}
		if claims.ExpiresAt != nil {
			expiry = claims.ExpiresAt.Time
		}
		rec.LastRefreshed = now.UnixNano()
		if remaining := expiry.Sub(now); remaining > 0 {
			e.persistSession(ctx, rec, remaining)
		}
		out.fields.version = fam.Version
		return &SessionToken{
			AccessToken:        access,
			RefreshToken:       token,
			AccessTokenExpiry:  accessExp,
			RefreshTokenExpiry: expiry,
		}, out, nil
	}

	next, nextExp, fam, err := e.rotateFamily(ctx, claims, fp, fam, famBlob)
	if err != nil {
		return nil, out, err
	}

	rec.Version = fam.Version
	rec.LastRefreshed = now.UnixNano()
	e.persistSession(ctx, rec, e.refreshTTL())

	e.families.GC(now, e.refreshTTL(), e.config.Rotation.GCBatchSize)

	out.fields.version = fam.Version
	return &SessionToken{
		AccessToken:        access,
		RefreshToken:       next,
		AccessTokenExpiry:  accessExp,
		RefreshTokenExpiry: nextExp,
	}, out, nil
}

// rotateFamily replaces fp with a freshly issued credential in the family
// record. The swap is retried on contention up to MaxCASRetries times.
func (e *Engine) rotateFamily(ctx context.Context, claims *jwt.RefreshClaims, fp refresh.Fingerprint, fam *session.FamilyRecord, blob []byte) (string, time.Time, *session.FamilyRecord, error) {
	for attempt := 0; ; attempt++ {
		next, nextExp, err := e.codec.IssueRefresh(claims.UID, claims.SID, claims.Family, fam.Version+1)
		if err != nil {
			return "", time.Time{}, nil, issueErr(err)
		}

		updated := *fam
		updated.Members = append([][32]byte(nil), fam.Members...)
		evicted, ok := updated.Rotate(fp, refresh.Of(next), e.config.Rotation.MaxFamilySize)
		if !ok {
			return "", time.Time{}, nil, ErrInvalidToken
		}

		nextBlob, err := session.EncodeFamily(&updated)
		if err != nil {
			return "", time.Time{}, nil, err
		}

		swapped, err := e.store.CompareAndSwap(ctx, familyKey(claims.Family), blob, nextBlob, e.refreshTTL())
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return "", time.Time{}, nil, ErrInvalidToken
			}
			return "", time.Time{}, nil, storeErr(err)
		}
		if swapped {
			e.dropEvicted(ctx, claims.Family, evicted)
			return next, nextExp, &updated, nil
		}

		e.metricInc(MetricRefreshCASConflict)
		if attempt >= e.config.Rotation.MaxCASRetries {
			return "", time.Time{}, nil, storeErr(errFamilyContention)
		}

		fam, blob, err = e.loadFamily(ctx, claims.Family)
		if err != nil {
			return "", time.Time{}, nil, err
		}
		if !fam.Contains(fp) {
			return "", time.Time{}, nil, ErrInvalidToken
		}
	}
}

func (e *Engine) dropEvicted(ctx context.Context, familyID string, evicted [][32]byte) {
	if len(evicted) == 0 {
		return
	}

	keys := make([]string, 0, len(evicted))
	for _, m := range evicted {
		keys = append(keys, usedKey(refresh.Fingerprint(m)))
	}
	if err := e.store.Delete(ctx, keys...); err != nil {
		e.logger.Warn("evicted marker cleanup failed",
			zap.String("family_id", familyID),
			zap.Int("count", len(keys)),
			zap.Error(err),
		)
	}
	e.families.Forget(evicted...)
	e.metricAdd(MetricFamilyEviction, len(evicted))
}

func (e *Engine) persistSession(ctx context.Context, rec *session.Record, ttl time.Duration) {
	blob, err := session.EncodeRecord(rec)
	if err == nil {
		err = e.store.Set(ctx, sessionKey(rec.SessionID), blob, ttl)
	}
	if err != nil {
		e.logger.Warn("session record update failed",
			zap.String("session_id", rec.SessionID),
			zap.Error(err),
		)
	}
}

func (e *Engine) handleReuse(ctx context.Context, claims *jwt.RefreshClaims, replay string) error {
	e.metricInc(MetricRefreshReuseDetected)
	if replay == replayWithinWindow {
		e.metricInc(MetricReplayWithinWindow)
	}

	e.logger.Warn("refresh token reuse detected",
		zap.String("family_id", claims.Family),
		zap.String("session_id", claims.SID),
		zap.Uint32("version", claims.Version),
		zap.String("replay", replay),
	)

	err := e.revokeFamilyLocked(context.WithoutCancel(ctx), claims.Family, eventFields{
		userID:    claims.UID,
		sessionID: claims.SID,
		family:    claims.Family,
		version:   claims.Version,
	}, revokeReasonReuse)
	if err != nil {
		return errors.Join(ErrReuseDetected, err)
	}
	return ErrReuseDetected
}

func (e *Engine) durableUsedAt(ctx context.Context, fp refresh.Fingerprint) (time.Time, bool) {
	blob, err := e.store.Get(ctx, usedKey(fp))
	if err != nil {
		return time.Time{}, false
	}
	return decodeUsedAt(blob)
}

func (e *Engine) classifyReplay(now, usedAt time.Time, known bool) string {
	if !known {
		return replayUnknown
	}
	if now.Sub(usedAt) < e.config.Rotation.ReuseWindow {
		return replayWithinWindow
	}
	return replayStale
}
