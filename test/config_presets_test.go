package test

import (
	"crypto/ed25519"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
)

func TestDefaultConfigPreset(t *testing.T) {
	cfg := goSession.DefaultConfig()

	if cfg.Token.AccessTTL != 900*time.Second {
		t.Fatalf("expected 900s access TTL, got %s", cfg.Token.AccessTTL)
	}
	if cfg.Token.RefreshTTL != 604800*time.Second {
		t.Fatalf("expected 604800s refresh TTL, got %s", cfg.Token.RefreshTTL)
	}
	if cfg.Rotation.ReuseWindow != 10*time.Second {
		t.Fatalf("expected 10s reuse window, got %s", cfg.Rotation.ReuseWindow)
	}
	if cfg.Rotation.MaxFamilySize != 5 {
		t.Fatalf("expected family size 5, got %d", cfg.Rotation.MaxFamilySize)
	}
	if !cfg.Rotation.RotateRefreshToken {
		t.Fatal("expected refresh rotation to stay enabled")
	}
	if len(cfg.Token.PrivateKey) != 0 {
		t.Fatal("expected preset without signing keys")
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected preset without keys to fail validation")
	}
}

func TestDefaultConfigPresetValidatesWithKey(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	cfg := goSession.DefaultConfig()
	cfg.Token.PrivateKey = priv

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected preset to validate, got %v", err)
	}
	if ws := cfg.Lint().BySeverity(goSession.LintHigh); len(ws) != 0 {
		t.Fatalf("expected no high-severity lint on defaults, got %v", ws.Codes())
	}
}
