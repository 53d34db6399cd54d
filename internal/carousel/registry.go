package carousel

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"cinepick/models"
)

// Registry tracks live carousels by id so HTTP handlers can address them
// across requests. Releasing an entry stops its auto-advance loop;
// forgetting to release is how tickers leak, so ReleaseOwner is hooked
// into logout and every full refetch.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	carousel *Carousel
	owner    string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Create registers a new carousel for the given owner (session token) and
// returns its id. autoAdvance starts the timed advance loop; it stays
// inert for single-page lists.
func (r *Registry) Create(owner string, items []models.Movie, pageSize int, autoAdvance bool, interval time.Duration) (string, *Carousel) {
	c := New(items, pageSize)
	if autoAdvance {
		c.StartAutoAdvance(interval)
	}

	id := uuid.NewString()
	r.mu.Lock()
	r.entries[id] = &entry{carousel: c, owner: owner}
	r.mu.Unlock()
	return id, c
}

// Get returns the carousel for id, scoped to its owner.
func (r *Registry) Get(owner, id string) (*Carousel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.owner != owner {
		return nil, false
	}
	return e.carousel, true
}

// Release stops and removes one carousel.
func (r *Registry) Release(owner, id string) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok && e.owner == owner {
		delete(r.entries, id)
	} else {
		ok = false
	}
	r.mu.Unlock()

	if ok {
		e.carousel.Stop()
	}
	return ok
}

// ReleaseOwner stops and removes every carousel belonging to an owner.
func (r *Registry) ReleaseOwner(owner string) {
	r.mu.Lock()
	var released []*entry
	for id, e := range r.entries {
		if e.owner == owner {
			released = append(released, e)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, e := range released {
		e.carousel.Stop()
	}
}

// Len returns the number of live carousels.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
