package settings

import (
	"fmt"
	"strings"
)

const (
	maxExceptions   = 200
	maxWakeWordLen  = 32
	maxLanguageLen  = 16
	maxVoiceNameLen = 64
)

// Validate checks settings before persistence.
func Validate(s *UserSettings) error {
	if s.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidSettings)
	}
	if !ValidPlan(s.SubscriptionPlan) {
		return fmt.Errorf("%w: unknown plan %q", ErrInvalidSettings, s.SubscriptionPlan)
	}
	if len(s.Security.ShutdownExceptions) > maxExceptions {
		return fmt.Errorf("%w: more than %d shutdown exceptions", ErrInvalidSettings, maxExceptions)
	}
	for _, id := range s.Security.ShutdownExceptions {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: empty shutdown exception", ErrInvalidSettings)
		}
	}
	if len(s.Voice.WakeWord) > maxWakeWordLen || len(s.Voice.Language) > maxLanguageLen || len(s.Voice.Voice) > maxVoiceNameLen {
		return fmt.Errorf("%w: voice settings too long", ErrInvalidSettings)
	}
	return nil
}
