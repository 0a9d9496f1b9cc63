package goSession

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

// SessionToken defines a public type used by goSession APIs.
//
// SessionToken is returned by CreateSession and RefreshTokens. Expiries are
// the exact expiries encoded in the credentials.
type SessionToken struct {
	AccessToken        string    `json:"access_token"`
	RefreshToken       string    `json:"refresh_token"`
	AccessTokenExpiry  time.Time `json:"access_token_expiry"`
	RefreshTokenExpiry time.Time `json:"refresh_token_expiry"`
}

// AccessPayload is the verified content of an access credential.
type AccessPayload struct {
	UserID    string
	SessionID string
	Type      string
	Metadata  map[string]string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionInfo is the safe introspection view of a session record.
// It never includes credential material or fingerprints.
type SessionInfo struct {
	SessionID     string
	UserID        string
	FamilyID      string
	Version       uint32
	Metadata      map[string]string
	CreatedAt     time.Time
	LastRefreshed time.Time
	ExpiresIn     time.Duration
	Revoked       bool
}

// HealthStatus is an on-demand backend health result.
type HealthStatus struct {
	StoreAvailable bool
	StoreLatency   time.Duration
}

// Store is the durable key-value contract the engine persists to.
// Get returns session.ErrNotFound for missing keys. SetNX and
// CompareAndSwap must be atomic across every engine instance sharing the store.
// *session.Store satisfies it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	CompareAndSwap(ctx context.Context, key string, old, next []byte, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	Ping(ctx context.Context) (time.Duration, error)
}

// TokenCodec signs and verifies session credentials. *jwt.Manager satisfies it.
type TokenCodec interface {
	IssueAccess(uid, sid string, metadata map[string]string) (string, time.Time, error)
	IssueRefresh(uid, sid, family string, version uint32) (string, time.Time, error)
	ParseAccess(token string) (*jwt.AccessClaims, error)
	ParseRefresh(token string) (*jwt.RefreshClaims, error)
}

var (
	_ Store      = (*session.Store)(nil)
	_ TokenCodec = (*jwt.Manager)(nil)
)
