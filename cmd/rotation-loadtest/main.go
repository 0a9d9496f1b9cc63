package main

import (
	"context"
	"crypto/ed25519"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type sessionState struct {
	refresh string
	dead    bool
	mu      sync.Mutex
}

func main() {
	var (
		sessions    = flag.Int("sessions", 2000, "number of sessions to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "refresh operations in the rotation phase")
		races       = flag.Int("races", 500, "sessions redeemed concurrently by two clients in the race phase")
		replayRate  = flag.Float64("replay-rate", 0.05, "fraction of rotations followed by a replay of the old credential")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "lt", "store key prefix")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 || *races < 0 || *replayRate < 0 || *replayRate > 1 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency and ops must be > 0, races >= 0, replay-rate in [0,1]")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	engine, err := buildEngine(client, *prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	states := make([]sessionState, *sessions)
	fmt.Printf("seeding %d sessions...\n", *sessions)
	startSeed := time.Now()
	for i := range states {
		tokens, err := engine.CreateSession(ctx, fmt.Sprintf("user-%d", i), map[string]string{"client": "loadtest"})
		if err != nil {
			fmt.Fprintf(os.Stderr, "create session failed: %v\n", err)
			os.Exit(1)
		}
		states[i].refresh = tokens.RefreshToken
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	rotation := runRotationPhase(ctx, engine, states, *ops, *concurrency, *replayRate)
	race := runRacePhase(ctx, engine, *races, *concurrency)

	fmt.Println("---- results ----")
	printStats("rotate", rotation.phaseStats)
	fmt.Printf("replays: attempted=%d detected=%d accepted=%d\n", rotation.replays, rotation.detected, rotation.accepted)
	printStats("race", race.phaseStats)
	fmt.Printf("races: pairs=%d both_accepted=%d\n", race.pairs, race.doubleWins)

	if rotation.accepted > 0 || race.doubleWins > 0 {
		fmt.Fprintln(os.Stderr, "FAIL: a consumed refresh credential was accepted")
		os.Exit(1)
	}
}

func buildEngine(client redis.UniversalClient, prefix string) (*goSession.Engine, error) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, err
	}
	cfg := goSession.DefaultConfig()
	cfg.Token.PrivateKey = priv
	cfg.Token.Audience = "rotation-loadtest"
	cfg.Store.Prefix = prefix
	cfg.Security.EnableRefreshThrottle = false
	cfg.Events.Enabled = false
	return goSession.New().WithConfig(cfg).WithRedis(client).Build()
}

type rotationStats struct {
	phaseStats
	replays  int64
	detected int64
	accepted int64
}

// runRotationPhase rotates random sessions. A sampled rotation is followed by
// a replay of the credential it consumed, which must be rejected as reuse and
// kills the session for the rest of the phase.
func runRotationPhase(ctx context.Context, engine *goSession.Engine, states []sessionState, ops, concurrency int, replayRate float64) rotationStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		replays   int64
		detected  int64
		accepted  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				state := &states[r.Intn(len(states))]

				state.mu.Lock()
				if state.dead {
					state.mu.Unlock()
					continue
				}
				old := state.refresh
				t0 := time.Now()
				tokens, err := engine.RefreshTokens(ctx, old)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					state.dead = true
				} else {
					state.refresh = tokens.RefreshToken
					if r.Float64() < replayRate {
						atomic.AddInt64(&replays, 1)
						_, rerr := engine.RefreshTokens(ctx, old)
						switch {
						case rerr == nil:
							atomic.AddInt64(&accepted, 1)
						case errors.Is(rerr, goSession.ErrReuseDetected):
							atomic.AddInt64(&detected, 1)
						}
						state.dead = true
					}
				}
				state.mu.Unlock()

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return rotationStats{
		phaseStats: computeStats(total, latencies, failures),
		replays:    replays,
		detected:   detected,
		accepted:   accepted,
	}
}

type raceStats struct {
	phaseStats
	pairs      int64
	doubleWins int64
}

// runRacePhase creates fresh sessions and redeems each refresh credential from
// two goroutines at once. At most one redemption may succeed.
func runRacePhase(ctx context.Context, engine *goSession.Engine, pairs, concurrency int) raceStats {
	var (
		wg         sync.WaitGroup
		cursor     int64
		failures   int64
		doubleWins int64
		latencies  = make([]time.Duration, 0, 2*pairs)
		mu         sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= pairs {
					return
				}
				tokens, err := engine.CreateSession(ctx, fmt.Sprintf("racer-%d", i), nil)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}

				var (
					inner sync.WaitGroup
					wins  int64
				)
				for k := 0; k < 2; k++ {
					inner.Add(1)
					go func() {
						defer inner.Done()
						t0 := time.Now()
						_, err := engine.RefreshTokens(ctx, tokens.RefreshToken)
						d := time.Since(t0)
						if err == nil {
							atomic.AddInt64(&wins, 1)
						}
						mu.Lock()
						latencies = append(latencies, d)
						mu.Unlock()
					}()
				}
				inner.Wait()
				if wins > 1 {
					atomic.AddInt64(&doubleWins, 1)
				}
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return raceStats{
		phaseStats: computeStats(total, latencies, failures),
		pairs:      int64(pairs),
		doubleWins: doubleWins,
	}
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
