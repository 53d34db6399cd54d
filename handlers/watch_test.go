package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gorilla/mux"

	"cinepick/handlers"
	"cinepick/services/trailer"
)

type fakeTrailerSource struct {
	videoID string
	err     error
	query   string
}

func (f *fakeTrailerSource) Find(ctx context.Context, title string) (string, error) {
	f.query = title
	return f.videoID, f.err
}

type fakeOverviewSource struct {
	overview string
	err      error
}

func (f *fakeOverviewSource) Overview(ctx context.Context, title string) (string, error) {
	return f.overview, f.err
}

func watchRequest(movieName string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/watch/"+url.PathEscape(movieName), nil)
	return mux.SetURLVars(req, map[string]string{"movieName": movieName})
}

func TestWatch_TrailerAndOverview(t *testing.T) {
	trailerSrc := &fakeTrailerSource{videoID: "vid123"}
	handler := handlers.NewWatchHandler(trailerSrc, &fakeOverviewSource{overview: "A heist inside dreams."})

	w := httptest.NewRecorder()
	handler.Watch(w, watchRequest("Inception (2010)"))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp handlers.WatchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.VideoID != "vid123" {
		t.Errorf("VideoID = %q", resp.VideoID)
	}
	if resp.Overview != "A heist inside dreams." {
		t.Errorf("Overview = %q", resp.Overview)
	}
	if resp.Error != "" {
		t.Errorf("unexpected error message: %q", resp.Error)
	}
	// The year suffix must be stripped before the trailer search.
	if trailerSrc.query != "Inception" {
		t.Errorf("trailer queried with %q", trailerSrc.query)
	}
}

func TestWatch_NoTrailerStillRendersOverview(t *testing.T) {
	trailerSrc := &fakeTrailerSource{err: trailer.ErrNoTrailer}
	handler := handlers.NewWatchHandler(trailerSrc, &fakeOverviewSource{overview: "Some plot."})

	w := httptest.NewRecorder()
	handler.Watch(w, watchRequest("Obscure Film"))

	if w.Code != http.StatusOK {
		t.Fatalf("a missing trailer is not an HTTP error, got %d", w.Code)
	}
	var resp handlers.WatchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.VideoID != "" {
		t.Errorf("VideoID must be empty, got %q", resp.VideoID)
	}
	if resp.Error == "" {
		t.Error("expected an inline error message")
	}
	if resp.Overview != "Some plot." {
		t.Errorf("Overview = %q", resp.Overview)
	}
}

func TestWatch_OverviewFallback(t *testing.T) {
	handler := handlers.NewWatchHandler(&fakeTrailerSource{videoID: "vid123"}, &fakeOverviewSource{})

	w := httptest.NewRecorder()
	handler.Watch(w, watchRequest("Obscure Film"))

	var resp handlers.WatchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Overview == "" {
		t.Error("expected fallback overview text")
	}
}

func TestWatch_MissingName(t *testing.T) {
	handler := handlers.NewWatchHandler(&fakeTrailerSource{}, &fakeOverviewSource{})

	w := httptest.NewRecorder()
	handler.Watch(w, watchRequest(""))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
