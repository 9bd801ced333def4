package audit

import "time"

// Actions recorded in the trail.
const (
	ActionLock             = "lock"
	ActionUnlock           = "unlock"
	ActionModeChange       = "mode_change"
	ActionAutoLockShutdown = "autolock_shutdown"
	ActionPlanChange       = "plan_change"
)

// Sources of recorded actions.
const (
	SourceAPI      = "api"
	SourceAutoLock = "autolock"
	SourceSystem   = "system"
)

// Entry is a single audit trail record.
type Entry struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	Source     string         `json:"source"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Filter controls which entries List returns. Zero fields are ignored.
type Filter struct {
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	Limit      int // default 50, max 200
	Offset     int
}

// ListResult is one page of entries.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}
