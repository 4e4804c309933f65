// Package models defines the shared domain types for market analysis,
// behavior detection, and content generation.
package models

// RiskLevel represents a severity band for a pattern or an aggregate result.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// rank orders risk levels so the aggregate can take a maximum.
func (r RiskLevel) rank() int {
	switch r {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r is at or above other.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r.rank() >= other.rank()
}

// Max returns the higher of two risk levels.
func (r RiskLevel) Max(other RiskLevel) RiskLevel {
	if other.rank() > r.rank() {
		return other
	}
	return r
}

// PatternType classifies a detected behavioral signal.
type PatternType string

const (
	PatternLossStreak       PatternType = "loss_streak"
	PatternRevengeTrade     PatternType = "revenge_trade"
	PatternOversizing       PatternType = "oversizing"
	PatternRapidReentry     PatternType = "rapid_reentry"
	PatternConsistentSizing PatternType = "consistent_sizing"
	PatternNoRevengeTrades  PatternType = "no_revenge_trades"
	PatternImprovingStreak  PatternType = "improving_streak"
)

// Persona is one of the fixed content-generation voices.
type Persona string

const (
	PersonaCalmAnalyst  Persona = "calm_analyst"
	PersonaDataNerd     Persona = "data_nerd"
	PersonaTradingCoach Persona = "trading_coach"
)

// AllPersonas lists every supported persona in generation order.
func AllPersonas() []Persona {
	return []Persona{PersonaCalmAnalyst, PersonaDataNerd, PersonaTradingCoach}
}

// Platform is a target social-network formatting profile.
type Platform string

const (
	PlatformLinkedIn Platform = "linkedin"
	PlatformTwitter  Platform = "twitter"
)

// AllPlatforms lists every supported platform.
func AllPlatforms() []Platform {
	return []Platform{PlatformLinkedIn, PlatformTwitter}
}

// CharLimit returns the platform's character limit for generated content.
func (p Platform) CharLimit() int {
	if p == PlatformTwitter {
		return 280
	}
	return 1300
}

// Valid reports whether the platform is one of the supported profiles.
func (p Platform) Valid() bool {
	return p == PlatformLinkedIn || p == PlatformTwitter
}

// Valid reports whether the persona is one of the supported voices.
func (p Persona) Valid() bool {
	switch p {
	case PersonaCalmAnalyst, PersonaDataNerd, PersonaTradingCoach:
		return true
	}
	return false
}
