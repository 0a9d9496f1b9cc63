package goSession

import (
	"context"
	"time"
)

// ValidateAccessToken verifies an access credential without touching the
// store. Revoking a session or family does not affect access credentials
// already issued; they stay valid until they expire.
//
// Any verification failure yields (nil, false).
func (e *Engine) ValidateAccessToken(ctx context.Context, token string) (*AccessPayload, bool) {
	if e == nil || e.codec == nil || token == "" {
		return nil, false
	}

	start := time.Now()
	defer e.observeSince(MetricValidateLatency, start)

	claims, err := e.codec.ParseAccess(token)
	if err != nil {
		e.metricInc(MetricValidateFailure)
		return nil, false
	}
	e.metricInc(MetricValidateSuccess)

	payload := &AccessPayload{
		UserID:    claims.UID,
		SessionID: claims.SID,
		Type:      claims.Type,
		Metadata:  cloneMetadata(claims.Metadata),
	}
	if claims.IssuedAt != nil {
		payload.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		payload.ExpiresAt = claims.ExpiresAt.Time
	}
	return payload, true
}
