package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author category of a Message.
type Role string

const (
	// RoleUser marks a message authored by the end user.
	RoleUser Role = "user"
	// RoleAgent marks a message authored by an agent.
	RoleAgent Role = "agent"
	// RoleSystem marks an instruction or framework-generated message.
	RoleSystem Role = "system"
)

// Message is one entry in a conversation history. Messages are immutable
// once created; histories are append-only and only removed wholesale when
// their owning session is deleted.
type Message struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewMessage creates a timestamped message with an empty metadata map.
func NewMessage(role Role, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		Metadata:  map[string]any{},
		Timestamp: time.Now().UTC(),
	}
}

// NewID generates a unique identifier for sessions, runs and uploads.
func NewID() string { return uuid.NewString() }
