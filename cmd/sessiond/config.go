package main

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	goSession "github.com/MrEthical07/goSession"
)

const (
	envDevelopment = "development"
	envProduction  = "production"
)

type config struct {
	Env         string `validate:"oneof=development production"`
	Port        int    `validate:"min=1,max=65535"`
	InternalKey string `validate:"omitempty,min=16"`

	Redis   redisConfig
	Token   tokenConfig
	Log     logConfig
	Kafka   kafkaConfig
	Metrics metricsConfig

	Prefix             string `validate:"omitempty,max=64,excludesall=:"`
	RotateRefreshToken bool
	ReuseWindow        time.Duration `validate:"gt=0"`
	MaxFamilySize      int           `validate:"min=1,max=64"`
	MaxRefreshAttempts int           `validate:"min=0"`
	ShutdownTimeout    time.Duration `validate:"min=0"`
}

type redisConfig struct {
	Addr     string `validate:"required,hostname_port"`
	Password string
	DB       int `validate:"min=0"`
}

type tokenConfig struct {
	// SigningKey is a base64 ed25519 seed (32 bytes) or private key (64 bytes).
	SigningKey string
	KeyID      string
	Issuer     string        `validate:"required"`
	Audience   string        `validate:"required"`
	AccessTTL  time.Duration `validate:"min=1s"`
	RefreshTTL time.Duration `validate:"min=1s,gtfield=AccessTTL"`
}

type logConfig struct {
	Level  string `validate:"omitempty,oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

type kafkaConfig struct {
	Brokers []string `validate:"dive,hostname_port"`
	Topic   string   `validate:"required_with=Brokers"`
}

type metricsConfig struct {
	Enabled bool
}

func loadConfig() (*config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &config{
		Env:                v.GetString("ENV"),
		Port:               v.GetInt("PORT"),
		InternalKey:        v.GetString("INTERNAL_KEY"),
		Prefix:             v.GetString("SESSION_PREFIX"),
		RotateRefreshToken: v.GetBool("ROTATE_REFRESH_TOKEN"),
		ReuseWindow:        parseDuration(v.GetString("REUSE_WINDOW"), 10*time.Second),
		MaxFamilySize:      v.GetInt("MAX_FAMILY_SIZE"),
		MaxRefreshAttempts: v.GetInt("MAX_REFRESH_ATTEMPTS"),
		ShutdownTimeout:    parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 10*time.Second),
	}

	cfg.Redis = redisConfig{
		Addr:     v.GetString("REDIS_ADDR"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Token = tokenConfig{
		SigningKey: v.GetString("SIGNING_KEY"),
		KeyID:      v.GetString("SIGNING_KEY_ID"),
		Issuer:     v.GetString("TOKEN_ISSUER"),
		Audience:   v.GetString("TOKEN_AUDIENCE"),
		AccessTTL:  parseDuration(v.GetString("ACCESS_TOKEN_TTL"), 15*time.Minute),
		RefreshTTL: parseDuration(v.GetString("REFRESH_TOKEN_TTL"), 7*24*time.Hour),
	}

	cfg.Log = logConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Kafka = kafkaConfig{
		Brokers: splitAndTrim(v.GetString("KAFKA_BROKERS")),
		Topic:   v.GetString("KAFKA_TOPIC"),
	}

	cfg.Metrics = metricsConfig{Enabled: v.GetBool("METRICS_ENABLED")}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", envDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("TOKEN_ISSUER", "gosession")
	v.SetDefault("TOKEN_AUDIENCE", "gosession")
	v.SetDefault("ROTATE_REFRESH_TOKEN", true)
	v.SetDefault("MAX_FAMILY_SIZE", 5)
	v.SetDefault("MAX_REFRESH_ATTEMPTS", 20)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("KAFKA_TOPIC", "session-events")
	v.SetDefault("METRICS_ENABLED", true)
}

func (c *config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Env == envProduction {
		if c.InternalKey == "" {
			return errors.New("invalid config: INTERNAL_KEY is required in production")
		}
		if c.Token.SigningKey == "" {
			return errors.New("invalid config: SIGNING_KEY is required in production")
		}
	}
	if c.Token.SigningKey != "" {
		if _, err := c.signingKey(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	return nil
}

// signingKey decodes SIGNING_KEY. An empty key yields a fresh key, which only
// validate's production rule keeps out of production.
func (c *config) signingKey() (ed25519.PrivateKey, error) {
	if c.Token.SigningKey == "" {
		_, priv, err := ed25519.GenerateKey(nil)
		return priv, err
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(c.Token.SigningKey))
	if err != nil {
		return nil, fmt.Errorf("signing key: %w", err)
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	default:
		return nil, fmt.Errorf("signing key: want %d or %d bytes, got %d", ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}
}

func (c *config) engineConfig(priv ed25519.PrivateKey) goSession.Config {
	cfg := goSession.DefaultConfig()
	cfg.Token.PrivateKey = priv
	cfg.Token.KeyID = c.Token.KeyID
	cfg.Token.Issuer = c.Token.Issuer
	cfg.Token.Audience = c.Token.Audience
	cfg.Token.AccessTTL = c.Token.AccessTTL
	cfg.Token.RefreshTTL = c.Token.RefreshTTL
	cfg.Rotation.RotateRefreshToken = c.RotateRefreshToken
	cfg.Rotation.ReuseWindow = c.ReuseWindow
	cfg.Rotation.MaxFamilySize = c.MaxFamilySize
	cfg.Store.Prefix = c.Prefix
	cfg.Security.ProductionMode = c.Env == envProduction
	cfg.Security.EnableRefreshThrottle = c.MaxRefreshAttempts > 0
	if c.MaxRefreshAttempts > 0 {
		cfg.Security.MaxRefreshAttempts = c.MaxRefreshAttempts
	}
	cfg.Metrics.Enabled = c.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = c.Metrics.Enabled
	return cfg
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
