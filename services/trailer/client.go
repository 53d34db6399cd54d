package trailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const youtubeSearchURL = "https://www.googleapis.com/youtube/v3/search"

// ErrNoTrailer is returned when the search comes back empty or the video
// platform reports an error for the query. Callers render a "not found"
// state; there is no placeholder video fallback.
var ErrNoTrailer = errors.New("no trailer found")

// Client searches the video platform for official trailers.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewClient creates a trailer search client.
func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     apiKey,
		baseURL:    youtubeSearchURL,
	}
}

type searchResponse struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

// Find returns the playable video id for the most relevant trailer of the
// given cleaned title. One request, no retry.
func (c *Client) Find(ctx context.Context, title string) (string, error) {
	if title == "" {
		return "", ErrNoTrailer
	}

	query := url.Values{}
	query.Set("part", "snippet")
	query.Set("type", "video")
	query.Set("maxResults", "1")
	query.Set("q", title+" official trailer")
	query.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("trailer search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("trailer search returned %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode trailer response: %w", err)
	}
	if body.Error != nil {
		return "", fmt.Errorf("trailer search error: %s: %w", body.Error.Message, ErrNoTrailer)
	}
	if len(body.Items) == 0 || body.Items[0].ID.VideoID == "" {
		return "", ErrNoTrailer
	}
	return body.Items[0].ID.VideoID, nil
}
