package recommender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
)

// ErrUserNotFound is returned by ValidateUser when the backend reports a
// definitive exists:false for the id.
var ErrUserNotFound = errors.New("user id not found")

// MaxRecommendations caps the recommended list rendered on the home page.
const MaxRecommendations = 10

// Client talks to the recommendation backend. The same service hosts the
// user, trending and history endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a recommendation backend client.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
	}
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

type recommendRequest struct {
	UserID      int      `json:"user_id"`
	Model       string   `json:"model,omitempty"`
	LikedMovies []string `json:"liked_movies,omitempty"`
}

type recommendResponse struct {
	Results []string `json:"results"`
}

type multiModelResponse struct {
	Results map[string][]string `json:"results"`
}

// UserExists checks whether the backend knows the given user id.
func (c *Client) UserExists(ctx context.Context, userID int) (bool, error) {
	var resp existsResponse
	endpoint := c.baseURL + "/user/exists?user_id=" + strconv.Itoa(userID)
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}

// ValidateUser confirms a stored user id against the backend. Transport
// failures are retried once before giving up; a definitive exists:false is
// surfaced immediately as ErrUserNotFound. This is the one place in the
// codebase with a retry.
func (c *Client) ValidateUser(ctx context.Context, userID int) error {
	return retry.Do(
		func() error {
			exists, err := c.UserExists(ctx, userID)
			if err != nil {
				return err
			}
			if !exists {
				return retry.Unrecoverable(ErrUserNotFound)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

// Recommend returns the ranked titles for a user under the named model,
// truncated to MaxRecommendations.
func (c *Client) Recommend(ctx context.Context, userID int, model string) ([]string, error) {
	var resp recommendResponse
	req := recommendRequest{UserID: userID, Model: model}
	if err := c.postJSON(ctx, c.baseURL+"/recommend", req, &resp); err != nil {
		return nil, err
	}
	titles := resp.Results
	if len(titles) > MaxRecommendations {
		titles = titles[:MaxRecommendations]
	}
	return titles, nil
}

// RecommendByLiked fans the liked titles out across every backend model
// and returns one ranked list per model name.
func (c *Client) RecommendByLiked(ctx context.Context, userID int, liked []string) (map[string][]string, error) {
	var resp multiModelResponse
	req := recommendRequest{UserID: userID, LikedMovies: liked}
	if err := c.postJSON(ctx, c.baseURL+"/recommend", req, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return map[string][]string{}, nil
	}
	return resp.Results, nil
}

// Trending returns the current trending titles.
func (c *Client) Trending(ctx context.Context) ([]string, error) {
	var titles []string
	if err := c.getJSON(ctx, c.baseURL+"/movies/trending", &titles); err != nil {
		return nil, err
	}
	return titles, nil
}

// History returns the user's watch history titles.
func (c *Client) History(ctx context.Context, userID int) ([]string, error) {
	var titles []string
	endpoint := c.baseURL + "/user/history?user_id=" + strconv.Itoa(userID)
	if err := c.getJSON(ctx, endpoint, &titles); err != nil {
		return nil, err
	}
	return titles, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	if _, err := url.Parse(endpoint); err != nil {
		return fmt.Errorf("bad endpoint: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, v)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("recommender request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("recommender returned %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
