package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is one entry in a session history. History is append-only; turns
// are never edited or removed except by a full session reset.
type ChatTurn struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Citations []Citation     `json:"citations,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}
