package main

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentile(samples, 0); got != 1 {
		t.Fatalf("p0 = %v", got)
	}
	if got := percentile(samples, 50); got != 5 {
		t.Fatalf("p50 = %v", got)
	}
	if got := percentile(samples, 100); got != 10 {
		t.Fatalf("p100 = %v", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("empty = %v", got)
	}
}

func TestPhasesNeverAcceptReplays(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	engine, err := buildEngine(client, "lt")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()
	states := make([]sessionState, 8)
	for i := range states {
		tokens, err := engine.CreateSession(ctx, "u", nil)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		states[i].refresh = tokens.RefreshToken
	}

	rot := runRotationPhase(ctx, engine, states, 200, 4, 0.5)
	if rot.accepted != 0 {
		t.Fatalf("accepted %d replays", rot.accepted)
	}
	if rot.detected != rot.replays {
		t.Fatalf("detected %d of %d replays", rot.detected, rot.replays)
	}

	race := runRacePhase(ctx, engine, 20, 4)
	if race.doubleWins != 0 {
		t.Fatalf("double wins: %d", race.doubleWins)
	}
}
