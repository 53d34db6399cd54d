package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"

	"cinepick/models"
)

// fakeTMDB serves a minimal TMDB API from an in-memory catalog.
type fakeTMDB struct {
	mux         *http.ServeMux
	genreCalls  atomic.Int32
	searchDelay map[string]time.Duration // keyed by query
	failQueries map[string]bool
}

type fakeMovie struct {
	id       int64
	poster   string
	vote     float64
	release  string
	genreIDs []int
	overview string
	country  string
}

func newFakeTMDB(catalog map[string]fakeMovie) *fakeTMDB {
	f := &fakeTMDB{
		mux:         http.NewServeMux(),
		searchDelay: map[string]time.Duration{},
		failQueries: map[string]bool{},
	}

	byID := make(map[string]fakeMovie)
	for _, m := range catalog {
		byID[fmt.Sprint(m.id)] = m
	}

	f.mux.HandleFunc("/search/movie", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		if d := f.searchDelay[query]; d > 0 {
			time.Sleep(d)
		}
		if f.failQueries[query] {
			http.Error(w, "upstream error", http.StatusInternalServerError)
			return
		}
		m, ok := catalog[query]
		if !ok {
			json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{{
			"id":           m.id,
			"title":        query,
			"poster_path":  m.poster,
			"vote_average": m.vote,
			"release_date": m.release,
			"genre_ids":    m.genreIDs,
			"overview":     m.overview,
		}}})
	})

	f.mux.HandleFunc("/movie/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/movie/")
		m, ok := byID[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		countries := []map[string]string{}
		if m.country != "" {
			countries = append(countries, map[string]string{"iso_3166_1": m.country})
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":                   m.id,
			"production_countries": countries,
		})
	})

	f.mux.HandleFunc("/genre/movie/list", func(w http.ResponseWriter, r *http.Request) {
		f.genreCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"genres": []map[string]any{
			{"id": 28, "name": "Action"},
			{"id": 18, "name": "Drama"},
			{"id": 878, "name": "Science Fiction"},
		}})
	})

	f.mux.HandleFunc("/configuration/countries", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]string{
			{"iso_3166_1": "US", "english_name": "United States of America"},
			{"iso_3166_1": "FR", "english_name": "France"},
		})
	})

	f.mux.HandleFunc("/discover/movie", func(w http.ResponseWriter, r *http.Request) {
		results := []map[string]any{}
		for query, m := range catalog {
			results = append(results, map[string]any{"id": m.id, "title": query})
		}
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	})

	return f
}

func newTestService(t *testing.T, fake *fakeTMDB) *Service {
	t.Helper()
	srv := httptest.NewServer(fake.mux)
	t.Cleanup(srv.Close)

	s := NewService("test-key", "en-US", srv.Client(), afero.NewMemMapFs(), "cache", 1)
	s.tmdb.baseURL = srv.URL
	s.tmdb.minInterval = 0
	return s
}

func TestResolve_FullEnrichment(t *testing.T) {
	fake := newFakeTMDB(map[string]fakeMovie{
		"Inception": {
			id:       27205,
			poster:   "/inception.jpg",
			vote:     8.4,
			release:  "2010-07-16",
			genreIDs: []int{28, 878},
			overview: "A thief who steals corporate secrets.",
			country:  "US",
		},
	})
	s := newTestService(t, fake)

	movie := s.Resolve(context.Background(), "Inception (2010)")

	if movie.Title != "Inception (2010)" {
		t.Errorf("title must stay the caller's title, got %q", movie.Title)
	}
	if movie.Poster != "https://image.tmdb.org/t/p/w500/inception.jpg" {
		t.Errorf("unexpected poster: %s", movie.Poster)
	}
	if movie.Rating == nil || *movie.Rating != 8.4 {
		t.Errorf("unexpected rating: %v", movie.Rating)
	}
	if movie.Year == nil || *movie.Year != "2010" {
		t.Errorf("unexpected year: %v", movie.Year)
	}
	if movie.Country == nil || *movie.Country != "US" {
		t.Errorf("unexpected country: %v", movie.Country)
	}
	if len(movie.Genres) != 2 || movie.Genres[0] != "Action" || movie.Genres[1] != "Science Fiction" {
		t.Errorf("unexpected genres: %v", movie.Genres)
	}
	if movie.Overview == "" {
		t.Error("expected overview")
	}
}

func TestResolve_NoMatchDegradesToPlaceholder(t *testing.T) {
	s := newTestService(t, newFakeTMDB(nil))

	movie := s.Resolve(context.Background(), "Completely Unknown Film")

	if movie.Poster != models.PlaceholderPoster {
		t.Errorf("expected placeholder poster, got %s", movie.Poster)
	}
	if movie.Rating != nil || movie.Year != nil || movie.Country != nil {
		t.Error("expected nil rating/year/country on placeholder")
	}
	if len(movie.Genres) != 0 {
		t.Errorf("expected empty genres, got %v", movie.Genres)
	}
	if movie.Overview != "" {
		t.Errorf("expected empty overview, got %q", movie.Overview)
	}
}

func TestResolve_ZeroVoteAverageIsNullRating(t *testing.T) {
	fake := newFakeTMDB(map[string]fakeMovie{
		"Obscure": {id: 1, release: "1999-01-01"},
	})
	s := newTestService(t, fake)

	movie := s.Resolve(context.Background(), "Obscure")
	if movie.Rating != nil {
		t.Errorf("expected nil rating for zero vote average, got %v", *movie.Rating)
	}
}

func TestResolveAll_PreservesInputOrder(t *testing.T) {
	fake := newFakeTMDB(map[string]fakeMovie{
		"A": {id: 1, poster: "/a.jpg"},
		"B": {id: 2, poster: "/b.jpg"},
		"C": {id: 3, poster: "/c.jpg"},
	})
	// B resolves slower than C; order must still be A, B, C.
	fake.searchDelay["B"] = 150 * time.Millisecond
	s := newTestService(t, fake)

	movies := s.ResolveAll(context.Background(), []string{"A", "B", "C"})

	if len(movies) != 3 {
		t.Fatalf("expected 3 results, got %d", len(movies))
	}
	for i, want := range []string{"/a.jpg", "/b.jpg", "/c.jpg"} {
		if !strings.HasSuffix(movies[i].Poster, want) {
			t.Errorf("position %d: expected poster %s, got %s", i, want, movies[i].Poster)
		}
	}
}

func TestResolveAll_OneFailureDoesNotPoisonTheBatch(t *testing.T) {
	fake := newFakeTMDB(map[string]fakeMovie{
		"Good": {id: 1, poster: "/good.jpg"},
		"Bad":  {id: 2, poster: "/bad.jpg"},
	})
	fake.failQueries["Bad"] = true
	s := newTestService(t, fake)

	movies := s.ResolveAll(context.Background(), []string{"Good", "Bad"})

	if !strings.HasSuffix(movies[0].Poster, "/good.jpg") {
		t.Errorf("expected real record for Good, got %s", movies[0].Poster)
	}
	if movies[1].Poster != models.PlaceholderPoster {
		t.Errorf("expected placeholder for Bad, got %s", movies[1].Poster)
	}
	if movies[1].Title != "Bad" {
		t.Errorf("placeholder keeps the input title, got %q", movies[1].Title)
	}
}

func TestGenreTableFetchedOnce(t *testing.T) {
	fake := newFakeTMDB(map[string]fakeMovie{
		"A": {id: 1, genreIDs: []int{28}},
		"B": {id: 2, genreIDs: []int{18}},
		"C": {id: 3, genreIDs: []int{878}},
	})
	s := newTestService(t, fake)

	ctx := context.Background()
	s.Resolve(ctx, "A")
	s.Resolve(ctx, "B")
	s.Resolve(ctx, "C")

	if calls := fake.genreCalls.Load(); calls != 1 {
		t.Errorf("expected exactly one genre list fetch, got %d", calls)
	}
}

func TestDiscover_CountryPostFilter(t *testing.T) {
	fake := newFakeTMDB(map[string]fakeMovie{
		"Amelie": {id: 1, poster: "/am.jpg", country: "FR"},
		"Heat":   {id: 2, poster: "/heat.jpg", country: "US"},
	})
	s := newTestService(t, fake)

	movies, err := s.Discover(context.Background(), models.Filter{Country: "fr"})
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(movies) != 1 {
		t.Fatalf("expected 1 movie after country filter, got %d", len(movies))
	}
	if movies[0].Country == nil || *movies[0].Country != "FR" {
		t.Errorf("unexpected country: %v", movies[0].Country)
	}
}

func TestOverview(t *testing.T) {
	fake := newFakeTMDB(map[string]fakeMovie{
		"Heat": {id: 2, overview: "A crew of career criminals."},
	})
	s := newTestService(t, fake)

	overview, err := s.Overview(context.Background(), "Heat (1995)")
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	if overview != "A crew of career criminals." {
		t.Errorf("unexpected overview: %q", overview)
	}

	overview, err = s.Overview(context.Background(), "Unknown")
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	if overview != "" {
		t.Errorf("expected empty overview for no match, got %q", overview)
	}
}
