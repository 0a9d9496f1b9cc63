package goSession

import (
	"fmt"
	"strings"
	"time"
)

// LintSeverity ranks configuration warnings.
type LintSeverity int

const (
	// LintInfo marks a deliberate but notable choice.
	LintInfo LintSeverity = iota
	// LintWarn marks a setting that weakens the security posture.
	LintWarn
	// LintHigh marks a setting that defeats a protection outright.
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("LintSeverity(%d)", int(s))
	}
}

// LintWarning is one finding from Config.Lint.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings is the result of Config.Lint.
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Code
	}
	return out
}

// BySeverity returns the warnings at or above min.
func (ws LintWarnings) BySeverity(min LintSeverity) LintWarnings {
	var out LintWarnings
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError folds warnings at or above min into one error, or returns nil.
func (ws LintWarnings) AsError(min LintSeverity) error {
	hits := ws.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	parts := make([]string, len(hits))
	for i, w := range hits {
		parts[i] = fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message)
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

// Lint reports settings that are valid but risky. Validate must pass first;
// Lint never rejects anything on its own.
func (c Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if !c.Rotation.RotateRefreshToken {
		add("rotation_disabled", LintHigh, "refresh credentials are reusable until expiry; reuse detection is off")
	}
	if c.Token.AccessTTL > 30*time.Minute {
		add("access_ttl_long", LintWarn, "access credentials cannot be revoked; keep their TTL short")
	}
	if c.Token.RefreshTTL > 30*24*time.Hour {
		add("refresh_ttl_long", LintWarn, "sliding sessions longer than 30 days")
	}
	if c.Token.Leeway > 30*time.Second {
		add("leeway_large", LintWarn, "clock leeway above 30s extends every credential")
	}
	if c.Token.SigningMethod == "hs256" {
		add("hs256_shared_secret", LintInfo, "every verifier can also mint credentials")
	}
	if c.Token.Audience == "" {
		add("audience_unset", LintInfo, "credentials are accepted by any service sharing the issuer")
	}
	if !c.Security.EnableRefreshThrottle {
		add("refresh_throttle_disabled", LintWarn, "refresh endpoint has no rate limit")
	} else {
		add("refresh_throttle_caps_rotation", LintInfo, fmt.Sprintf(
			"a family rotating more than %d times per %s is refused with ErrRefreshRateLimited even with its current credential",
			c.Security.MaxRefreshAttempts, c.Security.RefreshCooldownDuration))
	}
	if c.Rotation.MaxFamilySize > 20 {
		add("family_size_large", LintWarn, "large families widen the set of live refresh credentials")
	}
	if !c.Events.Enabled {
		add("events_disabled", LintInfo, "reuse detection will not be visible outside metrics")
	}

	return ws
}
