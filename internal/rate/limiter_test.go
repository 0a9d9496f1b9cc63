package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiterTest(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return New(rdb, cfg), mr
}

func TestCheckRefreshFixedWindow(t *testing.T) {
	l, mr := newLimiterTest(t, Config{
		Prefix:                  "gs",
		EnableRefreshThrottle:   true,
		MaxRefreshAttempts:      3,
		RefreshCooldownDuration: time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.CheckRefresh(ctx, "fam-1", ""); err != nil {
			t.Fatalf("attempt %d: unexpected error %v", i+1, err)
		}
	}
	if err := l.CheckRefresh(ctx, "fam-1", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if err := l.CheckRefresh(ctx, "fam-2", ""); err != nil {
		t.Fatalf("other family must have its own budget: %v", err)
	}
	if !mr.Exists("gs:rf:fam-1") {
		t.Fatal("expected namespaced counter key")
	}

	mr.FastForward(2 * time.Minute)
	if err := l.CheckRefresh(ctx, "fam-1", ""); err != nil {
		t.Fatalf("expected new window after cooldown: %v", err)
	}
}

func TestCheckRefreshPerIP(t *testing.T) {
	l, _ := newLimiterTest(t, Config{
		EnableRefreshThrottle:   true,
		EnableIPThrottle:        true,
		MaxRefreshAttempts:      2,
		RefreshCooldownDuration: time.Minute,
	})
	ctx := context.Background()

	_ = l.CheckRefresh(ctx, "fam-a", "10.0.0.1")
	_ = l.CheckRefresh(ctx, "fam-b", "10.0.0.1")
	if err := l.CheckRefresh(ctx, "fam-c", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected per-IP limit, got %v", err)
	}
}

func TestDisabledLimiterIsNoop(t *testing.T) {
	l, _ := newLimiterTest(t, Config{MaxRefreshAttempts: 1, RefreshCooldownDuration: time.Minute})
	for i := 0; i < 5; i++ {
		if err := l.CheckRefresh(context.Background(), "fam", ""); err != nil {
			t.Fatalf("disabled limiter returned %v", err)
		}
	}
	var nilLimiter *Limiter
	if err := nilLimiter.CheckRefresh(context.Background(), "fam", ""); err != nil {
		t.Fatalf("nil limiter returned %v", err)
	}
}
