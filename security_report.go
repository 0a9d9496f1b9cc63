package goSession

import internalsecurity "github.com/MrEthical07/goSession/internal/security"

// SecurityReport summarizes the effective protections of an engine, for
// startup logs and readiness checks.
type SecurityReport = internalsecurity.Report

// SecurityReport returns the resolved security posture.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}
	cfg := e.config
	return internalsecurity.BuildReport(internalsecurity.ReportInput{
		ProductionMode:          cfg.Security.ProductionMode,
		SigningAlgorithm:        cfg.Token.SigningMethod,
		AccessTTL:               cfg.Token.AccessTTL,
		RefreshTTL:              cfg.Token.RefreshTTL,
		ReuseWindow:             cfg.Rotation.ReuseWindow,
		MaxFamilySize:           cfg.Rotation.MaxFamilySize,
		RotateRefreshToken:      cfg.Rotation.RotateRefreshToken,
		EnableRefreshThrottle:   cfg.Security.EnableRefreshThrottle,
		MaxRefreshAttempts:      cfg.Security.MaxRefreshAttempts,
		RefreshCooldownDuration: cfg.Security.RefreshCooldownDuration,
		Audience:                cfg.Token.Audience,
		KeyID:                   cfg.Token.KeyID,
		VerifyKeyCount:          len(cfg.Token.VerifyKeys),
		EventsEnabled:           cfg.Events.Enabled,
		MetricsEnabled:          cfg.Metrics.Enabled,
	})
}
