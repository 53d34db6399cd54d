package metadata

import (
	"context"
	"log"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/mozillazg/go-unidecode"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"

	"cinepick/models"
)

// enrichConcurrency bounds the parallel TMDB fan-out for one batch.
const enrichConcurrency = 8

// discoverLimit caps how many discover results are enriched for the
// filter view.
const discoverLimit = 15

// yearSuffix matches a trailing parenthesized four-digit year, the way
// recommendation backends embed release years in title strings.
var yearSuffix = regexp.MustCompile(`\s*\(\d{4}\)\s*$`)

// CleanTitle strips a trailing "(1999)" style year suffix and folds the
// title to ASCII so it survives the search API.
func CleanTitle(title string) string {
	cleaned := yearSuffix.ReplaceAllString(title, "")
	return strings.TrimSpace(unidecode.Unidecode(cleaned))
}

// Service resolves bare movie titles into enriched records. The genre
// id-to-name table is fetched lazily once and held for the process
// lifetime; everything else goes through the TTL file cache.
type Service struct {
	tmdb *tmdbClient

	genreMu    sync.Mutex
	genreNames map[int]string
}

// NewService creates a metadata service. fs backs the response cache;
// pass afero.NewMemMapFs() in tests. httpc may be nil for the default
// 15 second timeout client.
func NewService(apiKey, language string, httpc *http.Client, fs afero.Fs, cacheDir string, ttlHours int) *Service {
	cache := newFileCache(fs, filepath.Join(cacheDir, "metadata"), ttlHours)
	return &Service{
		tmdb: newTMDBClient(apiKey, language, httpc, cache),
	}
}

// Resolve enriches one bare title. It never returns an error: any failure
// along the way degrades to the placeholder record so a single bad title
// cannot break a whole page render.
func (s *Service) Resolve(ctx context.Context, title string) models.Movie {
	query := CleanTitle(title)
	if query == "" {
		return models.PlaceholderMovie(title)
	}

	search, err := s.tmdb.searchMovie(ctx, query)
	if err != nil {
		log.Printf("[metadata] search %q failed: %v", query, err)
		return models.PlaceholderMovie(title)
	}
	if len(search.Results) == 0 {
		return models.PlaceholderMovie(title)
	}

	// First result only; disambiguation is left to the search API.
	m := search.Results[0]

	movie := models.Movie{
		Title:    title,
		Poster:   buildPosterURL(m.PosterPath),
		Year:     parseReleaseYear(m.ReleaseDate),
		Genres:   s.genreNamesFor(ctx, m.GenreIDs),
		Overview: m.Overview,
	}
	if m.VoteAverage > 0 {
		rating := m.VoteAverage
		movie.Rating = &rating
	}

	// Production countries are only present on the detail record.
	details, err := s.tmdb.movieDetails(ctx, m.ID)
	if err != nil {
		log.Printf("[metadata] details for %q (id %d) failed: %v", query, m.ID, err)
	} else if len(details.ProductionCountries) > 0 {
		country := details.ProductionCountries[0].ISO31661
		movie.Country = &country
	}

	return movie
}

// ResolveAll enriches a batch of titles in parallel. Results are placed at
// their origin index, so output order always matches input order no matter
// which network calls finish first.
func (s *Service) ResolveAll(ctx context.Context, titles []string) []models.Movie {
	results := make([]models.Movie, len(titles))
	p := pool.New().WithMaxGoroutines(enrichConcurrency)
	for i, title := range titles {
		i, title := i, title
		p.Go(func() {
			results[i] = s.Resolve(ctx, title)
		})
	}
	p.Wait()
	return results
}

// Overview looks up the first search result's overview for a cleaned
// title. Used by the watch page, which needs no full enrichment.
func (s *Service) Overview(ctx context.Context, title string) (string, error) {
	search, err := s.tmdb.searchMovie(ctx, CleanTitle(title))
	if err != nil {
		return "", err
	}
	if len(search.Results) == 0 {
		return "", nil
	}
	return search.Results[0].Overview, nil
}

// Discover runs the advanced filter against TMDB directly, bypassing the
// recommendation backend, and enriches the first matches. When a country
// is selected the enriched records are post-filtered on it, since the
// discover origin-country filter is looser than production country.
func (s *Service) Discover(ctx context.Context, f models.Filter) ([]models.Movie, error) {
	resp, err := s.tmdb.discover(ctx, f)
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, discoverLimit)
	for _, r := range resp.Results {
		if len(titles) == discoverLimit {
			break
		}
		titles = append(titles, r.Title)
	}

	movies := s.ResolveAll(ctx, titles)
	if f.Country == "" {
		return movies, nil
	}

	want := strings.ToUpper(f.Country)
	filtered := make([]models.Movie, 0, len(movies))
	for _, m := range movies {
		if m.Country != nil && *m.Country == want {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

// Genres returns the genre table for the filter options.
func (s *Service) Genres(ctx context.Context) ([]models.Genre, error) {
	return s.tmdb.genreList(ctx)
}

// Countries returns the country list for the filter options.
func (s *Service) Countries(ctx context.Context) ([]models.Country, error) {
	list, err := s.tmdb.countryList(ctx)
	if err != nil {
		return nil, err
	}
	countries := make([]models.Country, 0, len(list))
	for _, c := range list {
		countries = append(countries, models.Country{Code: c.ISO31661, Name: c.EnglishName})
	}
	return countries, nil
}

// genreNamesFor maps genre ids to names through the process-lifetime
// table. The table is populated at most once; a failed fetch leaves it
// unset so the next resolution tries again.
func (s *Service) genreNamesFor(ctx context.Context, ids []int) []string {
	s.genreMu.Lock()
	if s.genreNames == nil {
		genres, err := s.tmdb.genreList(ctx)
		if err != nil {
			s.genreMu.Unlock()
			log.Printf("[metadata] genre list fetch failed: %v", err)
			return []string{}
		}
		s.genreNames = make(map[int]string, len(genres))
		for _, g := range genres {
			s.genreNames[g.ID] = g.Name
		}
	}
	table := s.genreNames
	s.genreMu.Unlock()

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := table[id]; ok {
			names = append(names, name)
		}
	}
	return names
}
