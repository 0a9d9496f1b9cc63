package security

import "time"

// Report is the resolved security posture of an engine.
type Report struct {
	ProductionMode        bool
	SigningAlgorithm      string
	AccessTTL             time.Duration
	RefreshTTL            time.Duration
	ReuseWindow           time.Duration
	MaxFamilySize         int
	RefreshRotation       bool
	ReuseDetection        bool
	RefreshThrottleActive bool
	AudienceBound         bool
	KeyRotationReady      bool
	EventsActive          bool
	MetricsActive         bool
}

// ReportInput carries the configuration values a Report is derived from.
type ReportInput struct {
	ProductionMode          bool
	SigningAlgorithm        string
	AccessTTL               time.Duration
	RefreshTTL              time.Duration
	ReuseWindow             time.Duration
	MaxFamilySize           int
	RotateRefreshToken      bool
	EnableRefreshThrottle   bool
	MaxRefreshAttempts      int
	RefreshCooldownDuration time.Duration
	Audience                string
	KeyID                   string
	VerifyKeyCount          int
	EventsEnabled           bool
	MetricsEnabled          bool
}

func BuildReport(input ReportInput) Report {
	throttle := input.EnableRefreshThrottle &&
		input.MaxRefreshAttempts > 0 &&
		input.RefreshCooldownDuration > 0

	return Report{
		ProductionMode:   input.ProductionMode,
		SigningAlgorithm: input.SigningAlgorithm,
		AccessTTL:        input.AccessTTL,
		RefreshTTL:       input.RefreshTTL,
		ReuseWindow:      input.ReuseWindow,
		MaxFamilySize:    input.MaxFamilySize,
		RefreshRotation:  input.RotateRefreshToken,
		// without rotation a credential is never consumed, so nothing can be reused
		ReuseDetection:        input.RotateRefreshToken,
		RefreshThrottleActive: throttle,
		AudienceBound:         input.Audience != "",
		KeyRotationReady:      input.KeyID != "" && input.VerifyKeyCount > 0,
		EventsActive:          input.EventsEnabled,
		MetricsActive:         input.MetricsEnabled,
	}
}
