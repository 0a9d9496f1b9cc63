package goSession

import (
	"errors"
	"time"

	"github.com/MrEthical07/goSession/internal/family"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder defines a public type used by goSession APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  Store
	codec  TokenCodec
	sink   EventSink
	logger *zap.Logger
	now    func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration with a deep copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the default store and the refresh throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore overrides the durable store. The refresh throttle still needs WithRedis.
func (b *Builder) WithStore(store Store) *Builder {
	b.store = store
	return b
}

// WithTokenCodec overrides the credential codec; Config.Token keys are then not required.
func (b *Builder) WithTokenCodec(codec TokenCodec) *Builder {
	b.codec = codec
	return b
}

// WithEventSink sets the destination of lifecycle events.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.sink = sink
	return b
}

// WithLogger sets the structured logger. The default discards.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the wall clock used for credential times and record timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the refresh and validate latency histograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires the collaborators and starts the
// event dispatcher. A Builder can be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrEngineBuilt
	}

	cfg := cloneConfig(b.config)

	if err := cfg.validate(b.codec == nil); err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("store or redis client required")
		}
		store = session.NewStore(b.redis, cfg.Store.Prefix)
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	codec := b.codec
	if codec == nil {
		jm, err := jwt.NewManager(jwt.Config{
			AccessTTL:     cfg.Token.AccessTTL,
			RefreshTTL:    cfg.Token.RefreshTTL,
			SigningMethod: jwt.SigningMethod(cfg.Token.SigningMethod),
			PrivateKey:    cloneBytes(cfg.Token.PrivateKey),
			PublicKey:     cloneBytes(cfg.Token.PublicKey),
			Issuer:        cfg.Token.Issuer,
			Audience:      cfg.Token.Audience,
			Leeway:        cfg.Token.Leeway,
			RequireIAT:    cfg.Token.RequireIAT,
			MaxFutureIAT:  cfg.Token.MaxFutureIAT,
			KeyID:         cfg.Token.KeyID,
			VerifyKeys:    cfg.Token.VerifyKeys,
			Now:           now,
		})
		if err != nil {
			return nil, err
		}
		codec = jm
	}

	engine := &Engine{
		config: cfg,
		store:  store,
		codec:  codec,
		families: family.New(family.Config{
			MaxUsedEntries:    cfg.Rotation.MaxUsedCacheEntries,
			MaxRevokedEntries: cfg.Rotation.MaxRevokedCacheEntries,
		}),
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger.Named("gosession"),
		now:     now,
	}

	if b.redis != nil {
		engine.limiter = rate.New(b.redis, rate.Config{
			Prefix:                  cfg.Store.Prefix,
			EnableRefreshThrottle:   cfg.Security.EnableRefreshThrottle,
			EnableIPThrottle:        cfg.Security.EnableIPThrottle,
			MaxRefreshAttempts:      cfg.Security.MaxRefreshAttempts,
			RefreshCooldownDuration: cfg.Security.RefreshCooldownDuration,
		})
	}

	engine.events = newEventDispatcher(cfg.Events, b.sink)

	b.built = true

	return engine, nil
}
