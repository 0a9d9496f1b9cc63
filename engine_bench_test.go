package goSession

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var benchmarkKey = ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))

func newBenchmarkEngine(tb testing.TB) *Engine {
	tb.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		tb.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := defaultConfig()
	cfg.Token.PrivateKey = benchmarkKey
	cfg.Token.AccessTTL = 10 * time.Minute
	cfg.Token.RefreshTTL = time.Hour
	cfg.Security.EnableRefreshThrottle = false
	cfg.Events.Enabled = false

	engine, err := New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		tb.Fatalf("Build failed: %v", err)
	}
	tb.Cleanup(func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	})
	return engine
}

func BenchmarkValidateAccessToken(b *testing.B) {
	engine := newBenchmarkEngine(b)

	tok, err := engine.CreateSession(context.Background(), "alice", nil)
	if err != nil {
		b.Fatalf("CreateSession failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := engine.ValidateAccessToken(context.Background(), tok.AccessToken); !ok {
			b.Fatal("validate failed")
		}
	}
}

func BenchmarkRefreshRotation(b *testing.B) {
	engine := newBenchmarkEngine(b)

	tok, err := engine.CreateSession(context.Background(), "alice", nil)
	if err != nil {
		b.Fatalf("CreateSession failed: %v", err)
	}
	refresh := tok.RefreshToken

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		next, err := engine.RefreshTokens(context.Background(), refresh)
		if err != nil {
			b.Fatalf("refresh failed: %v", err)
		}
		refresh = next.RefreshToken
	}
}

func BenchmarkCreateAndRevokeSession(b *testing.B) {
	engine := newBenchmarkEngine(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tok, err := engine.CreateSession(context.Background(), "alice", nil)
		if err != nil {
			b.Fatalf("CreateSession failed: %v", err)
		}
		payload, ok := engine.ValidateAccessToken(context.Background(), tok.AccessToken)
		if !ok {
			b.Fatal("validate failed")
		}
		if err := engine.RevokeSession(context.Background(), payload.SessionID); err != nil {
			b.Fatalf("RevokeSession failed: %v", err)
		}
	}
}
