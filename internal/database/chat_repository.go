package database

import (
	"database/sql"
	"fmt"

	"cinepick/models"
)

// ChatRepository persists per-user conversation logs. The log is
// append-only; the only destructive operation is an explicit Clear.
type ChatRepository struct {
	db *sql.DB
}

// NewChatRepository creates a chat repository.
func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Append stores one message at the end of the user's conversation.
func (r *ChatRepository) Append(userID int, role, content string) (*models.StoredChatMessage, error) {
	msg := &models.StoredChatMessage{
		UserID:  userID,
		Role:    role,
		Content: content,
	}

	err := r.db.QueryRow(`
		INSERT INTO chat_messages (user_id, role, content)
		VALUES (?, ?, ?)
		RETURNING id, created_at`,
		userID, role, content,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("append chat message: %w", err)
	}
	return msg, nil
}

// List returns the user's conversation in insertion order.
func (r *ChatRepository) List(userID int) ([]models.StoredChatMessage, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, role, content, created_at
		FROM chat_messages
		WHERE user_id = ?
		ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	messages := []models.StoredChatMessage{}
	for rows.Next() {
		var msg models.StoredChatMessage
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// Clear deletes the user's entire conversation.
func (r *ChatRepository) Clear(userID int) error {
	if _, err := r.db.Exec(`DELETE FROM chat_messages WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear chat messages: %w", err)
	}
	return nil
}
