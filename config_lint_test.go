package goSession

import (
	"strings"
	"testing"
	"time"
)

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func TestLint_DefaultConfigNoHighWarnings(t *testing.T) {
	cfg := defaultConfig()
	ws := cfg.Lint()

	if len(ws.BySeverity(LintHigh)) != 0 {
		t.Fatalf("default config should have no HIGH warnings, got %v", ws.Codes())
	}
	if !containsCode(ws.Codes(), "audience_unset") {
		t.Error("expected audience_unset info on defaults")
	}
}

func TestLint_RotationDisabledIsHigh(t *testing.T) {
	cfg := defaultConfig()
	cfg.Rotation.RotateRefreshToken = false

	high := cfg.Lint().BySeverity(LintHigh)
	if !containsCode(high.Codes(), "rotation_disabled") {
		t.Fatal("expected rotation_disabled at HIGH severity")
	}
}

func TestLint_LargeLeeway(t *testing.T) {
	cfg := defaultConfig()
	cfg.Token.Leeway = 90 * time.Second
	if !containsCode(cfg.Lint().Codes(), "leeway_large") {
		t.Error("expected leeway_large warning")
	}
}

func TestLint_LongTTLs(t *testing.T) {
	cfg := defaultConfig()
	cfg.Token.AccessTTL = time.Hour
	cfg.Token.RefreshTTL = 90 * 24 * time.Hour
	codes := cfg.Lint().Codes()
	if !containsCode(codes, "access_ttl_long") {
		t.Error("expected access_ttl_long warning")
	}
	if !containsCode(codes, "refresh_ttl_long") {
		t.Error("expected refresh_ttl_long warning")
	}
}

func TestLint_ThrottleDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.EnableRefreshThrottle = false
	if !containsCode(cfg.Lint().Codes(), "refresh_throttle_disabled") {
		t.Error("expected refresh_throttle_disabled warning")
	}
}

func TestLint_ThrottleCapsRotation(t *testing.T) {
	cfg := defaultConfig()

	var found *LintWarning
	ws := cfg.Lint()
	for i := range ws {
		if ws[i].Code == "refresh_throttle_caps_rotation" {
			found = &ws[i]
		}
	}
	if found == nil {
		t.Fatalf("expected refresh_throttle_caps_rotation on defaults, got %v", ws.Codes())
	}
	if found.Severity != LintInfo {
		t.Fatalf("expected INFO severity, got %s", found.Severity)
	}
	if !strings.Contains(found.Message, "20") {
		t.Fatalf("expected budget in message, got %q", found.Message)
	}

	cfg.Security.EnableRefreshThrottle = false
	if containsCode(cfg.Lint().Codes(), "refresh_throttle_caps_rotation") {
		t.Fatal("throttle cap finding must not appear when the throttle is off")
	}
}

func TestLint_HS256AndLargeFamily(t *testing.T) {
	cfg := defaultConfig()
	cfg.Token.SigningMethod = "hs256"
	cfg.Rotation.MaxFamilySize = 50
	codes := cfg.Lint().Codes()
	if !containsCode(codes, "hs256_shared_secret") {
		t.Error("expected hs256_shared_secret info")
	}
	if !containsCode(codes, "family_size_large") {
		t.Error("expected family_size_large warning")
	}
}

func TestLint_AsErrorFiltersBySeverity(t *testing.T) {
	cfg := defaultConfig()
	cfg.Token.Audience = "api"

	if err := cfg.Lint().AsError(LintWarn); err != nil {
		t.Fatalf("expected no WARN-level findings on defaults with audience, got %v", err)
	}

	cfg.Rotation.RotateRefreshToken = false
	err := cfg.Lint().AsError(LintHigh)
	if err == nil {
		t.Fatal("expected HIGH finding to surface as error")
	}
	if !strings.Contains(err.Error(), "rotation_disabled") {
		t.Fatalf("expected code in error, got %v", err)
	}
}

func TestLintSeverityString(t *testing.T) {
	if LintInfo.String() == LintHigh.String() {
		t.Fatal("severities must render distinctly")
	}
}
