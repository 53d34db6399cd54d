package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"slices"

	"github.com/sourcegraph/conc/pool"

	"cinepick/internal/auth"
	"cinepick/models"
	"cinepick/services/recommender"
)

// DefaultModel is the recommendation model selected on first load.
const DefaultModel = "CB_TF-IDF"

// ModelOptions lists the recommendation models the backend serves.
var ModelOptions = []string{
	"CB_TF-IDF", "CB_TF-IDF-Ridge", "CB_TF-IDF-MLP",
	"CB_BERT", "CF_USER", "CF_ITEM", "CF_NeuMF", "CF_VAE", "CF_LightGCN",
}

// RecommendSource is the slice of the recommendation backend the home
// handler needs.
type RecommendSource interface {
	ValidateUser(ctx context.Context, userID int) error
	Recommend(ctx context.Context, userID int, model string) ([]string, error)
	Trending(ctx context.Context) ([]string, error)
	History(ctx context.Context, userID int) ([]string, error)
}

// TitleResolver enriches bare titles and serves the filter view.
type TitleResolver interface {
	ResolveAll(ctx context.Context, titles []string) []models.Movie
	Discover(ctx context.Context, f models.Filter) ([]models.Movie, error)
	Genres(ctx context.Context) ([]models.Genre, error)
	Countries(ctx context.Context) ([]models.Country, error)
}

// SessionRevoker drops sessions for user ids the backend no longer knows.
type SessionRevoker interface {
	RevokeUser(userID int) error
}

// HomeHandler serves the aggregate home view and the advanced filter.
type HomeHandler struct {
	recommender RecommendSource
	metadata    TitleResolver
	sessions    SessionRevoker
}

// NewHomeHandler creates a new home handler.
func NewHomeHandler(rec RecommendSource, metadata TitleResolver, sessionsSvc SessionRevoker) *HomeHandler {
	return &HomeHandler{
		recommender: rec,
		metadata:    metadata,
		sessions:    sessionsSvc,
	}
}

// HomeResponse carries the three enriched sections plus the model state
// the view needs to render the selector.
type HomeResponse struct {
	Model        string         `json:"model"`
	Models       []string       `json:"models"`
	Recommended  []models.Movie `json:"recommended"`
	Trending     []models.Movie `json:"trending"`
	History      []models.Movie `json:"history"`
	WatchHistory []string       `json:"watchHistory"`
	Filtered     bool           `json:"filtered"`
	NoMatches    bool           `json:"noMatches"`
}

// Home renders the three home sections for the session's user. The id is
// re-confirmed against the backend on every load; an id the backend no
// longer knows logs the user out. Section fetches run in parallel and
// degrade independently to empty lists.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r)
	ctx := r.Context()

	model := r.URL.Query().Get("model")
	if model == "" {
		model = DefaultModel
	}
	if !slices.Contains(ModelOptions, model) {
		errorJSON(w, http.StatusBadRequest, "unknown model")
		return
	}

	if err := h.recommender.ValidateUser(ctx, userID); err != nil {
		if errors.Is(err, recommender.ErrUserNotFound) {
			if revokeErr := h.sessions.RevokeUser(userID); revokeErr != nil {
				log.Printf("[home] revoke sessions for %d failed: %v", userID, revokeErr)
			}
		} else {
			log.Printf("[home] validate user %d failed: %v", userID, err)
		}
		errorJSON(w, http.StatusUnauthorized, "user id could not be confirmed")
		return
	}

	var recommended, trending, history []string
	p := pool.New()
	p.Go(func() {
		var err error
		if recommended, err = h.recommender.Recommend(ctx, userID, model); err != nil {
			log.Printf("[home] recommend (%s) for %d failed: %v", model, userID, err)
		}
	})
	p.Go(func() {
		var err error
		if trending, err = h.recommender.Trending(ctx); err != nil {
			log.Printf("[home] trending failed: %v", err)
		}
	})
	p.Go(func() {
		var err error
		if history, err = h.recommender.History(ctx, userID); err != nil {
			log.Printf("[home] history for %d failed: %v", userID, err)
		}
	})
	p.Wait()

	resp := HomeResponse{
		Model:        model,
		Models:       ModelOptions,
		Recommended:  h.metadata.ResolveAll(ctx, recommended),
		Trending:     h.metadata.ResolveAll(ctx, trending),
		History:      h.metadata.ResolveAll(ctx, history),
		WatchHistory: history,
	}
	if resp.WatchHistory == nil {
		resp.WatchHistory = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Filter replaces the recommended section with a discover query. The
// other sections come back empty so the view swaps to the filtered state;
// an empty result set is flagged noMatches rather than rendered as a
// blank page.
func (h *HomeHandler) Filter(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	f := models.Filter{
		Genre:   query.Get("genre"),
		Year:    query.Get("year"),
		Country: query.Get("country"),
		Rating:  query.Get("rating"),
	}
	if f.IsZero() {
		errorJSON(w, http.StatusBadRequest, "at least one filter is required")
		return
	}

	matches, err := h.metadata.Discover(r.Context(), f)
	if err != nil {
		log.Printf("[home] filter %+v failed: %v", f, err)
		matches = nil
	}
	if matches == nil {
		matches = []models.Movie{}
	}

	writeJSON(w, http.StatusOK, HomeResponse{
		Model:        DefaultModel,
		Models:       ModelOptions,
		Recommended:  matches,
		Trending:     []models.Movie{},
		History:      []models.Movie{},
		WatchHistory: []string{},
		Filtered:     true,
		NoMatches:    len(matches) == 0,
	})
}

// FilterOptionsResponse lists the selectable genres and countries.
type FilterOptionsResponse struct {
	Genres    []models.Genre   `json:"genres"`
	Countries []models.Country `json:"countries"`
}

// FilterOptions serves the genre and country lists for the filter bar.
// Both lists degrade to empty on upstream failure.
func (h *HomeHandler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	genres, err := h.metadata.Genres(ctx)
	if err != nil {
		log.Printf("[home] genre list failed: %v", err)
	}
	countries, err := h.metadata.Countries(ctx)
	if err != nil {
		log.Printf("[home] country list failed: %v", err)
	}

	if genres == nil {
		genres = []models.Genre{}
	}
	if countries == nil {
		countries = []models.Country{}
	}
	writeJSON(w, http.StatusOK, FilterOptionsResponse{Genres: genres, Countries: countries})
}
