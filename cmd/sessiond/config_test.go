package main

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *config {
	return &config{
		Env:                envDevelopment,
		Port:               8080,
		ReuseWindow:        10 * time.Second,
		MaxFamilySize:      5,
		MaxRefreshAttempts: 20,
		RotateRefreshToken: true,
		Redis:              redisConfig{Addr: "localhost:6379"},
		Token: tokenConfig{
			Issuer:     "gosession",
			Audience:   "gosession",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 24 * time.Hour,
		},
		Log: logConfig{Level: "info", Format: "json"},
	}
}

func TestConfigValidate(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)

	tests := []struct {
		name    string
		mutate  func(*config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*config) {}},
		{name: "bad env", mutate: func(c *config) { c.Env = "staging" }, wantErr: true},
		{name: "bad port", mutate: func(c *config) { c.Port = 0 }, wantErr: true},
		{name: "missing redis", mutate: func(c *config) { c.Redis.Addr = "" }, wantErr: true},
		{name: "access not shorter than refresh", mutate: func(c *config) { c.Token.AccessTTL = c.Token.RefreshTTL }, wantErr: true},
		{name: "zero reuse window", mutate: func(c *config) { c.ReuseWindow = 0 }, wantErr: true},
		{name: "short internal key", mutate: func(c *config) { c.InternalKey = "short" }, wantErr: true},
		{name: "brokers without topic", mutate: func(c *config) { c.Kafka.Brokers = []string{"localhost:9092"} }, wantErr: true},
		{name: "brokers with topic", mutate: func(c *config) {
			c.Kafka.Brokers = []string{"localhost:9092"}
			c.Kafka.Topic = "session-events"
		}},
		{name: "production without keys", mutate: func(c *config) { c.Env = envProduction }, wantErr: true},
		{name: "production with keys", mutate: func(c *config) {
			c.Env = envProduction
			c.InternalKey = "0123456789abcdef"
			c.Token.SigningKey = base64.StdEncoding.EncodeToString(seed)
		}},
		{name: "undecodable signing key", mutate: func(c *config) { c.Token.SigningKey = "%%%" }, wantErr: true},
		{name: "wrong signing key size", mutate: func(c *config) {
			c.Token.SigningKey = base64.StdEncoding.EncodeToString([]byte("short"))
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSigningKeyFromSeed(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}

	cfg := validTestConfig()
	cfg.Token.SigningKey = base64.StdEncoding.EncodeToString(seed)

	priv, err := cfg.signingKey()
	require.NoError(t, err)
	assert.Equal(t, ed25519.NewKeyFromSeed(seed), priv)

	cfg.Token.SigningKey = base64.StdEncoding.EncodeToString(priv)
	again, err := cfg.signingKey()
	require.NoError(t, err)
	assert.Equal(t, priv, again)
}

func TestEngineConfigMapping(t *testing.T) {
	cfg := validTestConfig()
	cfg.Prefix = "svc"
	cfg.MaxRefreshAttempts = 0

	priv, err := cfg.signingKey()
	require.NoError(t, err)

	engineCfg := cfg.engineConfig(priv)
	require.NoError(t, engineCfg.Validate())
	assert.Equal(t, "svc", engineCfg.Store.Prefix)
	assert.Equal(t, cfg.Token.RefreshTTL, engineCfg.Token.RefreshTTL)
	assert.False(t, engineCfg.Security.EnableRefreshThrottle)
	assert.True(t, engineCfg.Rotation.RotateRefreshToken)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, 3*time.Second, parseDuration("3s", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, []string{"a:1", "b:2"}, splitAndTrim(" a:1, ,b:2 "))
}
