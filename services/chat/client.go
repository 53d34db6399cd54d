package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cinepick/models"
)

// ApologyReply is appended as the assistant's answer whenever the chat
// backend cannot be reached. The message is user-facing and localized.
const ApologyReply = "Xin lỗi, đã có lỗi xảy ra. Vui lòng thử lại sau."

// Client talks to the chat endpoint of the recommendation backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a chat client. The chat endpoint lives on the same
// service as the recommendation backend.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
	}
}

type chatRequest struct {
	Message             string               `json:"message"`
	UserID              *int                 `json:"user_id"`
	ConversationHistory []models.ChatMessage `json:"conversation_history"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Send posts a message plus the replayed conversation and returns the
// assistant's reply. The caller is responsible for annotating the history
// with watch history first. Failures are terminal; the message is never
// retried.
func (c *Client) Send(ctx context.Context, message string, userID int, history []models.ChatMessage) (string, error) {
	req := chatRequest{
		Message:             message,
		ConversationHistory: history,
	}
	if userID != 0 {
		req.UserID = &userID
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat returned %d", resp.StatusCode)
	}

	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	return body.Response, nil
}

// AnnotateHistory attaches the current watch-history snapshot to every
// user-role message in the replayed conversation, not only the newest
// one. That is what the product ships today; do not "fix" it to annotate
// only the tail without a product decision.
func AnnotateHistory(history []models.ChatMessage, watchHistory []string) []models.ChatMessage {
	annotated := make([]models.ChatMessage, len(history))
	for i, msg := range history {
		annotated[i] = msg
		if msg.Role == models.RoleUser {
			annotated[i].WatchHistory = watchHistory
		}
	}
	return annotated
}
