package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a key is absent or expired.
var ErrNotFound = errors.New("session: key not found")

// ErrRedisUnavailable wraps every transport or server failure from Redis.
var ErrRedisUnavailable = errors.New("redis unavailable")

const (
	casStatusMissing  int64 = -1
	casStatusMismatch int64 = 0
	casStatusSwapped  int64 = 1
)

const compareAndSwapScript = `
local cur = redis.call("GET", KEYS[1])
if not cur then
  return -1
end
if cur ~= ARGV[1] then
  return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`

var compareAndSwapLua = redis.NewScript(compareAndSwapScript)

// Store is a namespaced key-value store on Redis with per-key expiry and the
// two atomic primitives the rotation engine relies on: SetNX and CompareAndSwap.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore wraps client. Every key is written as prefix + ":" + key unless
// prefix is empty.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  client,
		prefix: prefix,
	}
}

func (s *Store) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

// Get returns the value stored under key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redis.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return data, nil
}

// Set writes value under key with the given expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("session: ttl must be > 0")
	}
	if err := s.redis.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// SetNX writes value only if key is absent and reports whether it did.
// Exactly one of any number of concurrent callers observes true.
func (s *Store) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, errors.New("session: ttl must be > 0")
	}
	ok, err := s.redis.SetNX(ctx, s.key(key), value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return ok, nil
}

// CompareAndSwap replaces the value under key with next only if it still
// equals old. It returns ErrNotFound when key is gone and false when the
// current value differs from old.
func (s *Store) CompareAndSwap(ctx context.Context, key string, old, next []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, errors.New("session: ttl must be > 0")
	}
	ms := ttl.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	status, err := compareAndSwapLua.Run(ctx, s.redis, []string{s.key(key)}, old, next, ms).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	switch status {
	case casStatusSwapped:
		return true, nil
	case casStatusMismatch:
		return false, nil
	case casStatusMissing:
		return false, ErrNotFound
	default:
		return false, fmt.Errorf("session: unexpected compare-and-swap status %d", status)
	}
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

// Delete removes keys. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if len(keys) == 1 {
		if err := s.redis.Del(ctx, s.key(keys[0])).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		return nil
	}

	// one DEL per key: family and marker keys hash to different cluster slots
	pipe := s.redis.Pipeline()
	for _, k := range keys {
		pipe.Del(ctx, s.key(k))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// TTL returns the remaining lifetime of key, or ErrNotFound.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := s.redis.PTTL(ctx, s.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if d == -2*time.Millisecond || d == -2 {
		return 0, ErrNotFound
	}
	return d, nil
}

// Ping measures a round trip to Redis.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
