package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"cinepick/internal/auth"
	"cinepick/models"
	"cinepick/services/chat"
)

// ChatSender posts a message to the chat backend.
type ChatSender interface {
	Send(ctx context.Context, message string, userID int, history []models.ChatMessage) (string, error)
}

// ChatStore persists the per-user conversation log.
type ChatStore interface {
	Append(userID int, role, content string) (*models.StoredChatMessage, error)
	List(userID int) ([]models.StoredChatMessage, error)
	Clear(userID int) error
}

// WatchHistorySource supplies the watch-history titles attached to the
// replayed conversation.
type WatchHistorySource interface {
	History(ctx context.Context, userID int) ([]string, error)
}

// ChatHandler serves the assistant conversation.
type ChatHandler struct {
	client  ChatSender
	store   ChatStore
	history WatchHistorySource
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(client ChatSender, store ChatStore, history WatchHistorySource) *ChatHandler {
	return &ChatHandler{client: client, store: store, history: history}
}

// ChatRequest is one user message.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// Send replays the stored conversation with watch history attached, posts
// the new message, and appends both sides to the store. A backend failure
// appends the fixed apology reply instead; the message is never retried.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		errorJSON(w, http.StatusBadRequest, "message is required")
		return
	}

	ctx := r.Context()
	userID := auth.GetUserID(r)

	stored, err := h.store.List(userID)
	if err != nil {
		log.Printf("[chat] list history for %d failed: %v", userID, err)
	}
	// The replayed conversation includes the new message as its tail.
	history := make([]models.ChatMessage, 0, len(stored)+1)
	for _, msg := range stored {
		history = append(history, msg.Message())
	}
	history = append(history, models.ChatMessage{Role: models.RoleUser, Content: message})

	if _, err := h.store.Append(userID, models.RoleUser, message); err != nil {
		log.Printf("[chat] append user message for %d failed: %v", userID, err)
	}

	watchHistory, err := h.history.History(ctx, userID)
	if err != nil {
		log.Printf("[chat] watch history for %d failed: %v", userID, err)
		watchHistory = nil
	}

	reply, err := h.client.Send(ctx, message, userID, chat.AnnotateHistory(history, watchHistory))
	if err != nil {
		log.Printf("[chat] send for %d failed: %v", userID, err)
		reply = chat.ApologyReply
	}

	if _, err := h.store.Append(userID, models.RoleAssistant, reply); err != nil {
		log.Printf("[chat] append reply for %d failed: %v", userID, err)
	}

	writeJSON(w, http.StatusOK, ChatResponse{Response: reply})
}

// ChatHistoryResponse is the stored conversation in insertion order.
type ChatHistoryResponse struct {
	Messages []models.StoredChatMessage `json:"messages"`
}

// History returns the user's stored conversation.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r)

	messages, err := h.store.List(userID)
	if err != nil {
		log.Printf("[chat] list history for %d failed: %v", userID, err)
		errorJSON(w, http.StatusInternalServerError, "failed to load chat history")
		return
	}
	writeJSON(w, http.StatusOK, ChatHistoryResponse{Messages: messages})
}

// Clear deletes the user's stored conversation.
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r)

	if err := h.store.Clear(userID); err != nil {
		log.Printf("[chat] clear history for %d failed: %v", userID, err)
		errorJSON(w, http.StatusInternalServerError, "failed to clear chat history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
