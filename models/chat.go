package models

import "time"

// Chat message roles as the chat backend expects them.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry in a user's conversation with the assistant.
// WatchHistory is only populated on user-role messages when the
// conversation is replayed to the backend; it is never stored.
type ChatMessage struct {
	Role         string   `json:"role"`
	Content      string   `json:"content"`
	WatchHistory []string `json:"watch_history,omitempty"`
}

// StoredChatMessage is a persisted chat message with its storage metadata.
type StoredChatMessage struct {
	ID        int64     `json:"id"`
	UserID    int       `json:"userId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message strips the storage metadata back down to the wire shape.
func (m StoredChatMessage) Message() ChatMessage {
	return ChatMessage{Role: m.Role, Content: m.Content}
}
