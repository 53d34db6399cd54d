package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sourcegraph/conc/pool"

	"cinepick/services/metadata"
)

// User-facing fallback strings for the watch page. Localized; keep in
// sync with the frontend copy.
const (
	trailerNotFoundMessage = "Không tìm thấy trailer cho phim này"
	overviewFallback       = "Không có mô tả cho phim này."
)

// TrailerSource finds the playable video id for a cleaned title.
type TrailerSource interface {
	Find(ctx context.Context, title string) (string, error)
}

// OverviewSource looks up a movie description for a cleaned title.
type OverviewSource interface {
	Overview(ctx context.Context, title string) (string, error)
}

// WatchHandler serves the trailer playback view.
type WatchHandler struct {
	trailer  TrailerSource
	metadata OverviewSource
}

// NewWatchHandler creates a new watch handler.
func NewWatchHandler(trailer TrailerSource, metadata OverviewSource) *WatchHandler {
	return &WatchHandler{trailer: trailer, metadata: metadata}
}

// WatchResponse carries everything the playback view renders. A missing
// trailer is not an HTTP error: the page still shows the overview with an
// inline message.
type WatchResponse struct {
	Title    string `json:"title"`
	VideoID  string `json:"videoId"`
	Overview string `json:"overview"`
	Error    string `json:"error,omitempty"`
}

// Watch resolves the trailer and the overview for one title in parallel.
func (h *WatchHandler) Watch(w http.ResponseWriter, r *http.Request) {
	title := mux.Vars(r)["movieName"]
	if title == "" {
		errorJSON(w, http.StatusBadRequest, "movie name is required")
		return
	}

	ctx := r.Context()
	cleaned := metadata.CleanTitle(title)

	var (
		videoID    string
		trailerErr error
		overview   string
	)
	p := pool.New()
	p.Go(func() {
		videoID, trailerErr = h.trailer.Find(ctx, cleaned)
	})
	p.Go(func() {
		var err error
		if overview, err = h.metadata.Overview(ctx, cleaned); err != nil {
			log.Printf("[watch] overview for %q failed: %v", cleaned, err)
			overview = ""
		}
	})
	p.Wait()

	resp := WatchResponse{Title: title, Overview: overview}
	if resp.Overview == "" {
		resp.Overview = overviewFallback
	}
	if trailerErr != nil {
		log.Printf("[watch] trailer for %q failed: %v", cleaned, trailerErr)
		resp.Error = trailerNotFoundMessage
	} else {
		resp.VideoID = videoID
	}

	writeJSON(w, http.StatusOK, resp)
}
