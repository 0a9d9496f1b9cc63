package goSession

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidToken is returned for malformed, foreign, expired, rotated-away
	// or revoked credentials. Callers must re-authenticate.
	ErrInvalidToken = errors.New("invalid token")
	// ErrReuseDetected is returned when an already redeemed refresh credential
	// is presented again. It wraps ErrInvalidToken and prints identically, so
	// only errors.Is can tell the two apart.
	ErrReuseDetected = fmt.Errorf("%w", ErrInvalidToken)
	// ErrNoRefreshToken is returned when a refresh is attempted without a credential.
	ErrNoRefreshToken = errors.New("no refresh token")
	// ErrRefreshRateLimited is returned when the refresh throttle rejects a call.
	// The presented credential is not consumed.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrStoreUnavailable wraps store failures. These are infrastructure errors,
	// not business errors, and the engine never retries them.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrTokenIssue wraps credential codec failures while signing.
	ErrTokenIssue = errors.New("token issue failed")
	// ErrSessionNotFound is returned by introspection for unknown sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidUserID is returned by CreateSession for an empty user id.
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrEngineNotReady is returned when an Engine is used before Build or after Close.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrEngineBuilt is returned when a Builder is reused.
	ErrEngineBuilt = errors.New("builder already used")
)

func storeErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func issueErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTokenIssue, err)
}
