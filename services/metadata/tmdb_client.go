package metadata

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"cinepick/models"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	// w500 is plenty for 300px poster cards
	tmdbPosterSize = "w500"
)

type tmdbClient struct {
	apiKey   string
	language string
	httpc    *http.Client
	cache    *fileCache // optional cache for GET responses
	baseURL  string

	// Rate limiting
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newTMDBClient(apiKey, language string, httpc *http.Client, cache *fileCache) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	if language == "" {
		language = "en-US"
	}
	return &tmdbClient{
		apiKey:      strings.TrimSpace(apiKey),
		language:    language,
		httpc:       httpc,
		cache:       cache,
		baseURL:     tmdbBaseURL,
		minInterval: 20 * time.Millisecond, // TMDB has generous rate limits
	}
}

type tmdbSearchResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	ReleaseDate string  `json:"release_date"`
	GenreIDs    []int   `json:"genre_ids"`
	Overview    string  `json:"overview"`
}

type tmdbSearchResponse struct {
	Results []tmdbSearchResult `json:"results"`
}

type tmdbMovieDetails struct {
	ID                  int64  `json:"id"`
	Title               string `json:"title"`
	ProductionCountries []struct {
		ISO31661 string `json:"iso_3166_1"`
		Name     string `json:"name"`
	} `json:"production_countries"`
}

type tmdbGenreListResponse struct {
	Genres []models.Genre `json:"genres"`
}

type tmdbCountry struct {
	ISO31661    string `json:"iso_3166_1"`
	EnglishName string `json:"english_name"`
}

// searchMovie queries /search/movie and returns the raw result page.
func (c *tmdbClient) searchMovie(ctx context.Context, query string) (*tmdbSearchResponse, error) {
	endpoint := fmt.Sprintf("%s/search/movie?api_key=%s&language=%s&query=%s",
		c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(c.language), url.QueryEscape(query))
	var resp tmdbSearchResponse
	if err := c.doGET(ctx, endpoint, "search_"+query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// movieDetails queries /movie/{id} for fields the search results lack,
// most importantly production_countries.
func (c *tmdbClient) movieDetails(ctx context.Context, id int64) (*tmdbMovieDetails, error) {
	endpoint := fmt.Sprintf("%s/movie/%d?api_key=%s", c.baseURL, id, url.QueryEscape(c.apiKey))
	var resp tmdbMovieDetails
	if err := c.doGET(ctx, endpoint, "details_"+strconv.FormatInt(id, 10), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// genreList queries the id-to-name genre table.
func (c *tmdbClient) genreList(ctx context.Context) ([]models.Genre, error) {
	endpoint := fmt.Sprintf("%s/genre/movie/list?api_key=%s&language=%s",
		c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(c.language))
	var resp tmdbGenreListResponse
	if err := c.doGET(ctx, endpoint, "genres", &resp); err != nil {
		return nil, err
	}
	return resp.Genres, nil
}

// countryList queries /configuration/countries.
func (c *tmdbClient) countryList(ctx context.Context) ([]tmdbCountry, error) {
	endpoint := fmt.Sprintf("%s/configuration/countries?api_key=%s", c.baseURL, url.QueryEscape(c.apiKey))
	var resp []tmdbCountry
	if err := c.doGET(ctx, endpoint, "countries", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// discover queries /discover/movie with the advanced filter selections.
func (c *tmdbClient) discover(ctx context.Context, f models.Filter) (*tmdbSearchResponse, error) {
	endpoint := fmt.Sprintf("%s/discover/movie?api_key=%s&language=%s&sort_by=popularity.desc",
		c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(c.language))
	if f.Genre != "" {
		endpoint += "&with_genres=" + url.QueryEscape(f.Genre)
	}
	if f.Year != "" {
		endpoint += "&primary_release_year=" + url.QueryEscape(f.Year)
	}
	if f.Country != "" {
		endpoint += "&with_origin_country=" + url.QueryEscape(f.Country)
	}
	if f.Rating != "" {
		endpoint += "&vote_average.gte=" + url.QueryEscape(f.Rating)
	}
	// Discover results change too often to be worth caching.
	var resp tmdbSearchResponse
	if err := c.doGET(ctx, endpoint, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// doGET performs a rate-limited HTTP GET. cacheKey may be empty to bypass
// the cache. Failures are terminal; there is no retry.
func (c *tmdbClient) doGET(ctx context.Context, endpoint, cacheKey string, v any) error {
	key := ""
	if c.cache != nil && cacheKey != "" {
		sum := sha1.Sum([]byte(cacheKey + "_" + c.language))
		key = hex.EncodeToString(sum[:])
		if ok, _ := c.cache.get(key, v); ok {
			return nil
		}
	}

	c.throttleMu.Lock()
	since := time.Since(c.lastRequest)
	if since < c.minInterval {
		time.Sleep(c.minInterval - since)
	}
	c.lastRequest = time.Now()
	c.throttleMu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tmdb returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}

	if key != "" {
		_ = c.cache.set(key, v)
	}
	return nil
}

// buildPosterURL turns a TMDB poster path fragment into a CDN URL, or the
// shared placeholder when the fragment is empty.
func buildPosterURL(posterPath string) string {
	if posterPath == "" {
		return models.PlaceholderPoster
	}
	return tmdbImageBaseURL + "/" + tmdbPosterSize + posterPath
}

// parseReleaseYear extracts the year from a TMDB release_date ("2010-07-16").
func parseReleaseYear(releaseDate string) *string {
	if len(releaseDate) < 4 {
		return nil
	}
	year := releaseDate[:4]
	for _, r := range year {
		if r < '0' || r > '9' {
			return nil
		}
	}
	return &year
}
