package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"

	"cinepick/internal/auth"
	"cinepick/models"
)

// LikedRecommender fans liked titles out across every backend model.
type LikedRecommender interface {
	RecommendByLiked(ctx context.Context, userID int, liked []string) (map[string][]string, error)
}

// ResultsHandler serves the per-model recommendation comparison view.
type ResultsHandler struct {
	recommender LikedRecommender
	metadata    TitleResolver
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(rec LikedRecommender, metadata TitleResolver) *ResultsHandler {
	return &ResultsHandler{recommender: rec, metadata: metadata}
}

// ResultsRequest carries the titles the user picked as liked.
type ResultsRequest struct {
	LikedMovies []string `json:"likedMovies"`
}

// ResultsSection is one model's enriched recommendation list.
type ResultsSection struct {
	Model  string         `json:"model"`
	Movies []models.Movie `json:"movies"`
}

// ResultsResponse holds one section per backend model, sorted by model
// name so the order is stable between loads.
type ResultsResponse struct {
	Sections []ResultsSection `json:"sections"`
}

// Results asks every backend model for recommendations seeded with the
// liked titles and enriches each list. A backend failure degrades to an
// empty section list.
func (h *ResultsHandler) Results(w http.ResponseWriter, r *http.Request) {
	var req ResultsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.LikedMovies) == 0 {
		errorJSON(w, http.StatusBadRequest, "likedMovies is required")
		return
	}

	ctx := r.Context()
	userID := auth.GetUserID(r)

	byModel, err := h.recommender.RecommendByLiked(ctx, userID, req.LikedMovies)
	if err != nil {
		log.Printf("[results] recommend by liked for %d failed: %v", userID, err)
		byModel = map[string][]string{}
	}

	names := make([]string, 0, len(byModel))
	for model := range byModel {
		names = append(names, model)
	}
	sort.Strings(names)

	sections := make([]ResultsSection, 0, len(names))
	for _, model := range names {
		sections = append(sections, ResultsSection{
			Model:  model,
			Movies: h.metadata.ResolveAll(ctx, byModel[model]),
		})
	}

	writeJSON(w, http.StatusOK, ResultsResponse{Sections: sections})
}
