package carousel

import (
	"context"
	"sync"

	"cinepick/models"
)

// Modal states. The machine runs
// closed -> (open, loading) -> (open, ready | open, error) -> closed.
type ModalState string

const (
	ModalClosed  ModalState = "closed"
	ModalLoading ModalState = "loading"
	ModalReady   ModalState = "ready"
	ModalError   ModalState = "error"
)

// TrailerFinder resolves a cleaned title to a playable video id.
type TrailerFinder func(ctx context.Context, title string) (string, error)

// Modal holds the trailer modal state for one carousel. Opening
// normalizes the incoming record and resolves the trailer; closing wipes
// every field so no stale data leaks into the next open.
type Modal struct {
	mu      sync.Mutex
	finder  TrailerFinder
	state   ModalState
	movie   models.Movie
	videoID string
	gen     int
}

// ModalSnapshot is an immutable view of the modal for rendering.
type ModalSnapshot struct {
	State   ModalState   `json:"state"`
	Movie   models.Movie `json:"movie"`
	VideoID string       `json:"videoId"`
}

// NewModal creates a closed modal backed by the given trailer finder.
func NewModal(finder TrailerFinder) *Modal {
	return &Modal{finder: finder, state: ModalClosed}
}

// Open normalizes the record, enters the loading state, and resolves the
// trailer. If the modal is closed (or reopened) while the lookup is in
// flight the result is dropped instead of resurrecting stale state.
func (m *Modal) Open(ctx context.Context, record map[string]any) ModalSnapshot {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.movie = Normalize(record)
	m.videoID = ""
	m.state = ModalLoading
	title := m.movie.Title
	m.mu.Unlock()

	videoID, err := m.finder(ctx, title)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen || m.state != ModalLoading {
		return m.snapshotLocked()
	}
	if err != nil {
		m.state = ModalError
	} else {
		m.videoID = videoID
		m.state = ModalReady
	}
	return m.snapshotLocked()
}

// Close resets the modal to its zero state.
func (m *Modal) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.state = ModalClosed
	m.movie = models.Movie{}
	m.videoID = ""
}

// Snapshot returns the current modal view.
func (m *Modal) Snapshot() ModalSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Modal) snapshotLocked() ModalSnapshot {
	return ModalSnapshot{State: m.state, Movie: m.movie, VideoID: m.videoID}
}
