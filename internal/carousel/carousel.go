package carousel

import (
	"sync"
	"time"

	"cinepick/models"
)

const (
	// DefaultPageSize is how many movie cards fit on one carousel page.
	DefaultPageSize = 5

	// DefaultAutoAdvanceInterval is the documented auto-slide interval.
	DefaultAutoAdvanceInterval = 3 * time.Second
)

// Carousel pages a list of enriched movie records. The page index always
// stays in [0, totalPages) and wraps modulo totalPages on advance and
// retreat; navigation is a no-op when everything fits on one page.
type Carousel struct {
	mu        sync.Mutex
	items     []models.Movie
	pageSize  int
	pageIndex int
	stop      chan struct{}
}

// New creates a carousel over items. pageSize <= 0 falls back to the
// default.
func New(items []models.Movie, pageSize int) *Carousel {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Carousel{items: items, pageSize: pageSize}
}

// TotalPages returns max(1, ceil(count/pageSize)).
func (c *Carousel) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalPagesLocked()
}

func (c *Carousel) totalPagesLocked() int {
	if len(c.items) <= c.pageSize {
		return 1
	}
	return (len(c.items) + c.pageSize - 1) / c.pageSize
}

// PageIndex returns the current page index.
func (c *Carousel) PageIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageIndex
}

// Page returns the records on the current page.
func (c *Carousel) Page() []models.Movie {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := c.pageIndex * c.pageSize
	if start >= len(c.items) {
		return []models.Movie{}
	}
	end := start + c.pageSize
	if end > len(c.items) {
		end = len(c.items)
	}
	page := make([]models.Movie, end-start)
	copy(page, c.items[start:end])
	return page
}

// Next advances one page, wrapping from the last page back to page 0.
// No-op when there is only one page.
func (c *Carousel) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tp := c.totalPagesLocked(); tp > 1 {
		c.pageIndex = (c.pageIndex + 1) % tp
	}
	return c.pageIndex
}

// Prev retreats one page, wrapping from page 0 to the last page.
// No-op when there is only one page.
func (c *Carousel) Prev() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tp := c.totalPagesLocked(); tp > 1 {
		c.pageIndex = (c.pageIndex - 1 + tp) % tp
	}
	return c.pageIndex
}

// Jump moves directly to page i. Out-of-range indexes are ignored.
func (c *Carousel) Jump(i int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i >= 0 && i < c.totalPagesLocked() {
		c.pageIndex = i
	}
	return c.pageIndex
}

// SetItems replaces the record list. The page index resets to 0 when it
// would fall out of range, and auto-advance is torn down if the new list
// fits on one page.
func (c *Carousel) SetItems(items []models.Movie) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	if c.pageIndex >= c.totalPagesLocked() {
		c.pageIndex = 0
	}
	if c.totalPagesLocked() <= 1 {
		c.stopLocked()
	}
}

// StartAutoAdvance fires Next on the given interval. Inert when the list
// fits on one page or an advance loop is already running.
func (c *Carousel) StartAutoAdvance(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultAutoAdvanceInterval
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil || c.totalPagesLocked() <= 1 {
		return
	}
	stop := make(chan struct{})
	c.stop = stop
	go c.advanceLoop(interval, stop)
}

func (c *Carousel) advanceLoop(interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.Next()
			// Items may have been replaced with a single page.
			if c.TotalPages() <= 1 {
				c.Stop()
				return
			}
		}
	}
}

// Stop tears the auto-advance ticker down. Idempotent; a carousel must be
// stopped before it is discarded or the ticker goroutine leaks.
func (c *Carousel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Carousel) stopLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

// AutoAdvancing reports whether the advance loop is running.
func (c *Carousel) AutoAdvancing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}
