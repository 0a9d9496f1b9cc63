package goSession

import (
	"context"
	"errors"
)

// EventErrorCode is the internal reason attached to failure events.
type EventErrorCode string

const (
	eventErrInvalidToken     EventErrorCode = "invalid_token"
	eventErrReuseDetected    EventErrorCode = "reuse_detected"
	eventErrNoRefreshToken   EventErrorCode = "no_refresh_token"
	eventErrRateLimited      EventErrorCode = "rate_limited"
	eventErrStoreUnavailable EventErrorCode = "store_unavailable"
	eventErrTokenIssue       EventErrorCode = "token_issue"
	eventErrInternal         EventErrorCode = "internal_error"
)

type eventFields struct {
	userID    string
	sessionID string
	family    string
	version   uint32
	err       error
}

func (e *Engine) emitEvent(ctx context.Context, typ EventType, f eventFields, metadataBuilder func() map[string]string) {
	if e == nil || e.events == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		if metadata == nil {
			metadata = make(map[string]string, 1)
		}
		metadata["user_agent"] = ua
	}

	event := Event{
		Timestamp:   e.now().UTC(),
		Type:        typ,
		UserID:      f.userID,
		SessionID:   f.sessionID,
		TokenFamily: f.family,
		Version:     f.version,
		IP:          clientIPFromContext(ctx),
		Metadata:    metadata,
	}
	if code := eventErrorCode(f.err); code != "" {
		event.Error = string(code)
	}

	e.events.Emit(event)
}

func eventErrorCode(err error) EventErrorCode {
	if err == nil {
		return ""
	}

	// reuse wraps invalid token, so it must be matched first
	switch {
	case errors.Is(err, ErrReuseDetected):
		return eventErrReuseDetected
	case errors.Is(err, ErrInvalidToken):
		return eventErrInvalidToken
	case errors.Is(err, ErrNoRefreshToken):
		return eventErrNoRefreshToken
	case errors.Is(err, ErrRefreshRateLimited):
		return eventErrRateLimited
	case errors.Is(err, ErrStoreUnavailable):
		return eventErrStoreUnavailable
	case errors.Is(err, ErrTokenIssue):
		return eventErrTokenIssue
	default:
		return eventErrInternal
	}
}
