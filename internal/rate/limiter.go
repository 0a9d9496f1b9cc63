package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds refresh throttle tuning parameters.
type Config struct {
	Prefix                  string
	EnableRefreshThrottle   bool
	EnableIPThrottle        bool
	MaxRefreshAttempts      int
	RefreshCooldownDuration time.Duration
}

// Limiter enforces per-family and optionally per-IP refresh budgets using
// Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Enabled reports whether refresh throttling is active.
func (l *Limiter) Enabled() bool {
	return l != nil && l.redis != nil && l.config.EnableRefreshThrottle
}

// CheckRefresh counts one refresh attempt against the family (and the client
// IP when enabled) and returns ErrRateLimited once the window budget is spent.
func (l *Limiter) CheckRefresh(ctx context.Context, familyID, ip string) error {
	if !l.Enabled() {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, l.refreshKey(familyID), l.config.RefreshCooldownDuration)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxRefreshAttempts) {
		return ErrRateLimited
	}

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.incrementWithTTL(ctx, l.refreshIPKey(ip), l.config.RefreshCooldownDuration)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxRefreshAttempts) {
			return ErrRateLimited
		}
	}

	return nil
}

// ResetRefresh clears the family counter, used once the family is revoked.
func (l *Limiter) ResetRefresh(ctx context.Context, familyID string) error {
	if !l.Enabled() {
		return nil
	}
	if err := l.redis.Del(ctx, l.refreshKey(familyID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) refreshKey(familyID string) string {
	return l.withPrefix("rf:" + familyID)
}

func (l *Limiter) refreshIPKey(ip string) string {
	return l.withPrefix("rfi:" + ip)
}

func (l *Limiter) withPrefix(k string) string {
	if l.config.Prefix == "" {
		return k
	}
	return l.config.Prefix + ":" + k
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
