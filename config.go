package goSession

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by goSession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token    TokenConfig
	Rotation RotationConfig
	Store    StoreConfig
	Events   EventsConfig
	Metrics  MetricsConfig
	Security SecurityConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig configures the credential codec built by the Builder when no
// codec is supplied through WithTokenCodec.
type TokenConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	RequireIAT    bool
	MaxFutureIAT  time.Duration
	KeyID         string
	VerifyKeys    map[string][]byte
}

/*
====================================
ROTATION CONFIG
====================================
*/

// RotationConfig controls refresh rotation and reuse bookkeeping.
type RotationConfig struct {
	// RotateRefreshToken issues a new refresh credential on every refresh.
	// When false the presented credential is returned unchanged.
	RotateRefreshToken bool
	// ReuseWindow separates a replay that races a fresh redemption from a
	// late replay in event metadata. Both are treated as reuse.
	ReuseWindow   time.Duration
	MaxFamilySize int
	// MaxCASRetries bounds compare-and-swap retries on the family record.
	MaxCASRetries int
	// GCBatchSize bounds how many in-process markers one refresh may inspect.
	GCBatchSize            int
	MaxUsedCacheEntries    int
	MaxRevokedCacheEntries int
}

// StoreConfig controls key layout in the durable store.
type StoreConfig struct {
	Prefix string
}

// EventsConfig controls the asynchronous lifecycle event dispatcher.
// Emission never blocks: events are dropped and counted once the buffer is full.
type EventsConfig struct {
	Enabled    bool
	BufferSize int
}

// MetricsConfig defines a public type used by goSession APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig defines a public type used by goSession APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// EnableRefreshThrottle (on by default) counts every refresh attempt of a
// family against MaxRefreshAttempts per RefreshCooldownDuration. Attempts
// past that budget fail with ErrRefreshRateLimited even when they present the
// family's current credential, so a current credential redeems successfully
// only while its family is under the budget. The refused credential is not
// consumed and can be retried once the window rolls over. Disable the
// throttle, or raise the budget, when clients legitimately rotate faster.
type SecurityConfig struct {
	ProductionMode          bool
	EnableRefreshThrottle   bool
	EnableIPThrottle        bool
	MaxRefreshAttempts      int
	RefreshCooldownDuration time.Duration
}

// DefaultConfig returns the baseline configuration. Signing keys are not
// included and must be supplied before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:     900 * time.Second,
			RefreshTTL:    604800 * time.Second,
			SigningMethod: "ed25519",
			Issuer:        "gosession",
			MaxFutureIAT:  10 * time.Minute,
		},
		Rotation: RotationConfig{
			RotateRefreshToken:     true,
			ReuseWindow:            10 * time.Second,
			MaxFamilySize:          5,
			MaxCASRetries:          3,
			GCBatchSize:            64,
			MaxUsedCacheEntries:    100000,
			MaxRevokedCacheEntries: 10000,
		},
		Store: StoreConfig{
			Prefix: "",
		},
		Events: EventsConfig{
			Enabled:    true,
			BufferSize: 1024,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Security: SecurityConfig{
			ProductionMode:          false,
			EnableRefreshThrottle:   true,
			EnableIPThrottle:        false,
			MaxRefreshAttempts:      20,
			RefreshCooldownDuration: time.Minute,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	if cfg.Token.VerifyKeys != nil {
		out.Token.VerifyKeys = make(map[string][]byte, len(cfg.Token.VerifyKeys))
		for kid, key := range cfg.Token.VerifyKeys {
			out.Token.VerifyKeys[kid] = cloneBytes(key)
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks the configuration for internal consistency. It does not
// check that keys parse; the codec does that during Build.
func (c *Config) Validate() error {
	return c.validate(true)
}

func (c *Config) validate(requireKeys bool) error {
	// Token
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token RefreshTTL must be > 0")
	}
	if c.Token.AccessTTL >= c.Token.RefreshTTL {
		return errors.New("Token AccessTTL must be shorter than RefreshTTL")
	}
	if c.Token.SigningMethod != "ed25519" && c.Token.SigningMethod != "hs256" {
		return errors.New("unsupported Token signing method")
	}
	if requireKeys && c.Token.SigningMethod == "ed25519" && len(c.Token.PrivateKey) == 0 {
		return errors.New("ed25519 requires PrivateKey")
	}
	if requireKeys && c.Token.SigningMethod == "hs256" && len(c.Token.PrivateKey) == 0 {
		return errors.New("hs256 requires PrivateKey")
	}
	if c.Security.ProductionMode && c.Token.SigningMethod == "hs256" && len(c.Token.PrivateKey) < 32 {
		return errors.New("hs256 PrivateKey must be at least 32 bytes in ProductionMode")
	}
	if strings.TrimSpace(c.Token.Issuer) == "" {
		return errors.New("Token Issuer must be set")
	}
	if c.Token.Audience != "" && strings.TrimSpace(c.Token.Audience) == "" {
		return errors.New("Token Audience must not be blank")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2m")
	}
	if c.Token.MaxFutureIAT < 0 || c.Token.MaxFutureIAT > 24*time.Hour {
		return errors.New("Token MaxFutureIAT must be between 0 and 24h")
	}

	// Rotation
	if c.Rotation.ReuseWindow <= 0 {
		return errors.New("Rotation ReuseWindow must be > 0")
	}
	if c.Rotation.ReuseWindow > c.Token.RefreshTTL {
		return errors.New("Rotation ReuseWindow must not exceed RefreshTTL")
	}
	if c.Rotation.MaxFamilySize < 1 || c.Rotation.MaxFamilySize > 255 {
		return errors.New("Rotation MaxFamilySize must be between 1 and 255")
	}
	if c.Rotation.MaxCASRetries < 0 {
		return errors.New("Rotation MaxCASRetries must be >= 0")
	}
	if c.Rotation.GCBatchSize < 0 {
		return errors.New("Rotation GCBatchSize must be >= 0")
	}

	// Store
	if strings.ContainsAny(c.Store.Prefix, " \t\r\n") {
		return errors.New("Store Prefix must not contain whitespace")
	}

	// Events
	if c.Events.Enabled && c.Events.BufferSize <= 0 {
		return errors.New("Events BufferSize must be > 0 when Events are enabled")
	}

	// Security
	if c.Security.EnableRefreshThrottle {
		if c.Security.MaxRefreshAttempts <= 0 {
			return errors.New("Security MaxRefreshAttempts must be > 0")
		}
		if c.Security.RefreshCooldownDuration <= 0 {
			return errors.New("Security RefreshCooldownDuration must be > 0")
		}
	}

	return nil
}
