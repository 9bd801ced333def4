package safety

import (
	"fmt"
	"strings"
)

// Validate checks a safety system before persistence.
func Validate(s *System) error {
	if s.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidSystem)
	}
	if s.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidSystem)
	}
	if strings.TrimSpace(s.RoomName) == "" {
		return fmt.Errorf("%w: room_name is required", ErrInvalidSystem)
	}
	switch s.SystemType {
	case TypeSmokeDetector, TypeFireSuppression, TypeWindowRain, TypeTemperature:
	default:
		return fmt.Errorf("%w: unknown system_type %q", ErrInvalidSystem, s.SystemType)
	}
	switch s.Status {
	case StatusSafe, StatusAlert, StatusActive, StatusSuppressionActive, StatusUnknown:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidSystem, s.Status)
	}
	return nil
}
