package goSession

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/refresh"
	"github.com/MrEthical07/goSession/session"
)

// CreateSession starts a session for an already authenticated principal.
//
// A new session id and token family id are generated, the access credential
// carries metadata, and the refresh credential becomes the only member of the
// family. The session record and the family record are persisted with a TTL
// equal to the refresh lifetime before the credentials are returned.
func (e *Engine) CreateSession(ctx context.Context, userID string, metadata map[string]string) (*SessionToken, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}

	metadata = cloneMetadata(metadata)

	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, err
	}
	sessionID := sid.String()

	familyID, err := internal.NewFamilyID()
	if err != nil {
		return nil, err
	}

	access, accessExp, err := e.codec.IssueAccess(userID, sessionID, metadata)
	if err != nil {
		return nil, issueErr(err)
	}
	refreshToken, refreshExp, err := e.codec.IssueRefresh(userID, sessionID, familyID, 1)
	if err != nil {
		return nil, issueErr(err)
	}

	fam := &session.FamilyRecord{
		FamilyID:  familyID,
		SessionID: sessionID,
		UserID:    userID,
		Version:   1,
	}
	fam.Add(refresh.Of(refreshToken), e.config.Rotation.MaxFamilySize)

	famBlob, err := session.EncodeFamily(fam)
	if err != nil {
		return nil, err
	}

	now := e.now()
	rec := &session.Record{
		SessionID:     sessionID,
		UserID:        userID,
		FamilyID:      familyID,
		Version:       1,
		Metadata:      metadata,
		CreatedAt:     now.UnixNano(),
		LastRefreshed: now.UnixNano(),
	}
	recBlob, err := session.EncodeRecord(rec)
	if err != nil {
		return nil, err
	}

	if err := e.store.Set(ctx, familyKey(familyID), famBlob, e.refreshTTL()); err != nil {
		return nil, storeErr(err)
	}
	if err := e.store.Set(ctx, sessionKey(sessionID), recBlob, e.refreshTTL()); err != nil {
		// the family is unreachable without its session; drop it
		_ = e.store.Delete(context.WithoutCancel(ctx), familyKey(familyID))
		return nil, storeErr(err)
	}

	e.metricInc(MetricSessionCreated)
	e.emitEvent(ctx, EventSessionCreated, eventFields{
		userID:    userID,
		sessionID: sessionID,
		family:    familyID,
		version:   1,
	}, nil)

	return &SessionToken{
		AccessToken:        access,
		RefreshToken:       refreshToken,
		AccessTokenExpiry:  accessExp,
		RefreshTokenExpiry: refreshExp,
	}, nil
}

func (e *Engine) loadSession(ctx context.Context, sessionID string) (*session.Record, error) {
	blob, err := e.store.Get(ctx, sessionKey(sessionID))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, storeErr(err)
	}
	rec, err := session.DecodeRecord(blob)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (e *Engine) loadFamily(ctx context.Context, familyID string) (*session.FamilyRecord, []byte, error) {
	blob, err := e.store.Get(ctx, familyKey(familyID))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, storeErr(err)
	}
	fam, err := session.DecodeFamily(blob)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}
	return fam, blob, nil
}
