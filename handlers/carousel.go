package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"cinepick/internal/auth"
	"cinepick/internal/carousel"
	"cinepick/models"
)

// CarouselHandler manages server-held carousel state for a session. Each
// carousel gets a trailer modal; both are torn down together on delete,
// and the auth handler releases everything at logout.
type CarouselHandler struct {
	registry *carousel.Registry
	finder   carousel.TrailerFinder

	mu     sync.Mutex
	modals map[string]*carousel.Modal
}

// NewCarouselHandler creates a new carousel handler.
func NewCarouselHandler(registry *carousel.Registry, finder carousel.TrailerFinder) *CarouselHandler {
	return &CarouselHandler{
		registry: registry,
		finder:   finder,
		modals:   make(map[string]*carousel.Modal),
	}
}

// CreateCarouselRequest holds the section records to page through.
// Records are loosely shaped; they are normalized on the way in.
type CreateCarouselRequest struct {
	Items       []map[string]any `json:"items"`
	PageSize    int              `json:"pageSize"`
	AutoAdvance bool             `json:"autoAdvance"`
	IntervalMs  int              `json:"intervalMs"`
}

// CarouselState is the rendered view of one carousel.
type CarouselState struct {
	ID            string         `json:"id"`
	PageIndex     int            `json:"pageIndex"`
	TotalPages    int            `json:"totalPages"`
	Page          []models.Movie `json:"page"`
	AutoAdvancing bool           `json:"autoAdvancing"`
}

// Create registers a carousel over the posted records.
func (h *CarouselHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCarouselRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]models.Movie, 0, len(req.Items))
	for _, record := range req.Items {
		items = append(items, carousel.Normalize(record))
	}

	interval := time.Duration(req.IntervalMs) * time.Millisecond
	owner := h.owner(r)
	id, c := h.registry.Create(owner, items, req.PageSize, req.AutoAdvance, interval)

	h.mu.Lock()
	h.modals[id] = carousel.NewModal(h.finder)
	h.mu.Unlock()

	log.Printf("[carousel] created %s for %s (%d records)", id, owner, len(items))
	writeJSON(w, http.StatusOK, h.state(id, c))
}

// Get returns the current carousel state.
func (h *CarouselHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.state(id, c))
}

// Next advances one page.
func (h *CarouselHandler) Next(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	c.Next()
	writeJSON(w, http.StatusOK, h.state(id, c))
}

// Prev retreats one page.
func (h *CarouselHandler) Prev(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	c.Prev()
	writeJSON(w, http.StatusOK, h.state(id, c))
}

// JumpRequest selects a page directly.
type JumpRequest struct {
	Page int `json:"page"`
}

// Jump moves to the requested page. Out-of-range pages are ignored.
func (h *CarouselHandler) Jump(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req JumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.Jump(req.Page)
	writeJSON(w, http.StatusOK, h.state(id, c))
}

// Delete releases the carousel and its modal.
func (h *CarouselHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.registry.Release(h.owner(r), id) {
		errorJSON(w, http.StatusNotFound, "carousel not found")
		return
	}
	h.mu.Lock()
	delete(h.modals, id)
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "released"})
}

// OpenModalRequest carries the record whose trailer should play. The
// record may be in any of the historical shapes.
type OpenModalRequest struct {
	Record map[string]any `json:"record"`
}

// OpenModal opens the carousel's trailer modal for one record.
func (h *CarouselHandler) OpenModal(w http.ResponseWriter, r *http.Request) {
	id, _, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req OpenModalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	modal := h.modal(id)
	if modal == nil {
		errorJSON(w, http.StatusNotFound, "carousel not found")
		return
	}
	writeJSON(w, http.StatusOK, modal.Open(r.Context(), req.Record))
}

// GetModal returns the modal's current state.
func (h *CarouselHandler) GetModal(w http.ResponseWriter, r *http.Request) {
	id, _, ok := h.lookup(w, r)
	if !ok {
		return
	}
	modal := h.modal(id)
	if modal == nil {
		errorJSON(w, http.StatusNotFound, "carousel not found")
		return
	}
	writeJSON(w, http.StatusOK, modal.Snapshot())
}

// CloseModal closes the modal and wipes its state.
func (h *CarouselHandler) CloseModal(w http.ResponseWriter, r *http.Request) {
	id, _, ok := h.lookup(w, r)
	if !ok {
		return
	}
	modal := h.modal(id)
	if modal == nil {
		errorJSON(w, http.StatusNotFound, "carousel not found")
		return
	}
	modal.Close()
	writeJSON(w, http.StatusOK, modal.Snapshot())
}

func (h *CarouselHandler) owner(r *http.Request) string {
	if session, ok := auth.GetSession(r); ok {
		return session.Token
	}
	return ""
}

func (h *CarouselHandler) lookup(w http.ResponseWriter, r *http.Request) (string, *carousel.Carousel, bool) {
	id := mux.Vars(r)["id"]
	c, ok := h.registry.Get(h.owner(r), id)
	if !ok {
		errorJSON(w, http.StatusNotFound, "carousel not found")
		return "", nil, false
	}
	return id, c, true
}

func (h *CarouselHandler) modal(id string) *carousel.Modal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.modals[id]
}

func (h *CarouselHandler) state(id string, c *carousel.Carousel) CarouselState {
	return CarouselState{
		ID:            id,
		PageIndex:     c.PageIndex(),
		TotalPages:    c.TotalPages(),
		Page:          c.Page(),
		AutoAdvancing: c.AutoAdvancing(),
	}
}
