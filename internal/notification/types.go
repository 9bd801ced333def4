package notification

import "time"

// Type categorises a notification.
type Type string

// Notification types.
const (
	TypeSystem Type = "system"
	TypeEnergy Type = "energy"
	TypeSafety Type = "safety"
)

// Notification is a message shown in the user's inbox.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
