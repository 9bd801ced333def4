package security

import (
	"fmt"
	"strings"
)

// Validate checks a security system before persistence.
func Validate(s *System) error {
	if s.ID == "" || s.UserID == "" {
		return fmt.Errorf("%w: id and user_id are required", ErrInvalidSystem)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidSystem)
	}
	if !ValidLockStatus(s.LockStatus) {
		return fmt.Errorf("%w: unknown lock_status %q", ErrInvalidSystem, s.LockStatus)
	}
	if !ValidMode(s.SecurityMode) {
		return fmt.Errorf("%w: unknown security_mode %q", ErrInvalidSystem, s.SecurityMode)
	}
	return nil
}

// ValidLockStatus reports whether l is a known lock state.
func ValidLockStatus(l LockStatus) bool {
	return l == Locked || l == Unlocked
}

// ValidMode reports whether m is a known security mode.
func ValidMode(m Mode) bool {
	return m == ModeHome || m == ModeAway
}
