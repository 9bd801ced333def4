package room

import (
	"fmt"
	"strings"
)

const (
	maxNameLength  = 100
	maxAppliances  = 100
	maxIntensity   = 100
	maxColorLength = 32
)

// ValidateRoom checks a room and its appliances before persistence.
func ValidateRoom(r *Room) error {
	if r.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidRoom)
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidRoom)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidRoom, maxNameLength)
	}
	if len(r.Appliances) > maxAppliances {
		return fmt.Errorf("%w: more than %d appliances", ErrInvalidRoom, maxAppliances)
	}

	seen := make(map[string]bool, len(r.Appliances))
	for i := range r.Appliances {
		a := &r.Appliances[i]
		if err := ValidateAppliance(a); err != nil {
			return err
		}
		if seen[a.ID] {
			return fmt.Errorf("%w: duplicate appliance id %q", ErrInvalidAppliance, a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}

// ValidateAppliance checks a single appliance.
func ValidateAppliance(a *Appliance) error {
	if a.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidAppliance)
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAppliance)
	}
	if !IsValidApplianceType(a.Type) {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAppliance, a.Type)
	}
	if a.Intensity != nil && (*a.Intensity < 0 || *a.Intensity > maxIntensity) {
		return fmt.Errorf("%w: intensity must be between 0 and %d", ErrInvalidAppliance, maxIntensity)
	}
	if a.ColorTint != nil && len(*a.ColorTint) > maxColorLength {
		return fmt.Errorf("%w: color tint too long", ErrInvalidAppliance)
	}
	if a.PowerUsage != nil && *a.PowerUsage < 0 {
		return fmt.Errorf("%w: power usage cannot be negative", ErrInvalidAppliance)
	}
	return nil
}
