package settings

import (
	"slices"
	"time"
)

// Plan is the subscription plan.
type Plan string

// Subscription plans.
const (
	PlanFree       Plan = "free"
	PlanPremium    Plan = "premium"
	PlanEnterprise Plan = "enterprise"
)

// ValidPlan reports whether p is a known plan.
func ValidPlan(p Plan) bool {
	return p == PlanFree || p == PlanPremium || p == PlanEnterprise
}

// SecuritySettings controls auto-lock behaviour.
type SecuritySettings struct {
	AutoLockEnabled    bool     `json:"auto_lock_enabled"`
	ShutdownExceptions []string `json:"shutdown_exceptions"`
}

// PowerSources records which supplies the home has.
type PowerSources struct {
	Grid      bool `json:"grid"`
	Solar     bool `json:"solar"`
	Battery   bool `json:"battery"`
	Generator bool `json:"generator"`
}

// VoiceSettings configures the voice assistant.
type VoiceSettings struct {
	Language string `json:"language"`
	Voice    string `json:"voice"`
	WakeWord string `json:"wake_word"`
}

// UserSettings is the per-user settings record.
type UserSettings struct {
	UserID           string           `json:"user_id"`
	SubscriptionPlan Plan             `json:"subscription_plan"`
	Security         SecuritySettings `json:"security_settings"`
	PowerSources     PowerSources     `json:"power_sources"`
	Voice            VoiceSettings    `json:"voice_settings"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Defaults returns the settings a new household starts with.
func Defaults(userID string) *UserSettings {
	return &UserSettings{
		UserID:           userID,
		SubscriptionPlan: PlanFree,
		Security: SecuritySettings{
			AutoLockEnabled:    true,
			ShutdownExceptions: []string{},
		},
		PowerSources: PowerSources{Grid: true},
		Voice: VoiceSettings{
			Language: "en-US",
			Voice:    "default",
			WakeWord: "hey gray",
		},
	}
}

// IsException reports whether applianceID is excluded from auto-lock
// shutdown.
func (s *UserSettings) IsException(applianceID string) bool {
	return slices.Contains(s.Security.ShutdownExceptions, applianceID)
}
